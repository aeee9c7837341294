package apperror

import (
	"encoding/json"
	"net/http"
)

// WriteJSON serializes data to JSON and writes it with the given status.
// The Content-Type is always forced to JSON; a nil data is written as null.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing useful can be done but stop writing.
		return
	}
}

// WriteError converts any error into the standard JSON error envelope.
// Errors that are not already an *AppError are reported as internal errors
// without leaking their message.
func WriteError(w http.ResponseWriter, err error) {
	appErr := Wrap(err)
	WriteJSON(w, appErr.StatusCode(), appErr.ToResponse())
}
