package rpc

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/user/imobiliaria-go/apperror"
	"github.com/user/imobiliaria-go/session"
	"github.com/user/imobiliaria-go/users"
)

// Prefix is the mount point of the RPC endpoint.
const Prefix = "/api/trpc"

// maxBodyBytes matches the body limit of the web server (inline images are large).
const maxBodyBytes = 50 << 20

// Options configures a Handler.
type Options struct {
	// Superjson wraps inputs and outputs in superjson envelopes.
	Superjson bool
	Logger    *slog.Logger
	// User returns the session user of a request. Nil means every call is anonymous.
	User func(*http.Request) *users.User
}

// Handler serves a Router over HTTP.
type Handler struct {
	router *Router
	opts   Options
}

// NewHandler creates a new Handler.
func NewHandler(router *Router, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Handler{router: router, opts: opts}
}

type errorData struct {
	Code       string `json:"code"`
	HTTPStatus int    `json:"httpStatus"`
	Path       string `json:"path,omitempty"`
}

type errorShape struct {
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Data    errorData `json:"data"`
}

func shapeFor(err error, path string) errorShape {
	ae := apperror.Wrap(err)
	name, num := ae.RPCCode()
	return errorShape{
		Message: ae.Message,
		Code:    num,
		Data:    errorData{Code: name, HTTPStatus: ae.StatusCode(), Path: path},
	}
}

func parseErrorShape(message string) errorShape {
	return errorShape{
		Message: message,
		Code:    -32700,
		Data:    errorData{Code: "PARSE_ERROR", HTTPStatus: http.StatusBadRequest},
	}
}

func (h *Handler) encode(v any) any {
	if h.opts.Superjson {
		return superjsonEncode(v)
	}
	return v
}

func (h *Handler) errorBody(shape errorShape) map[string]any {
	return map[string]any{"error": h.encode(shape)}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	procPath := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, Prefix), "/")
	batchParam := r.URL.Query().Get("batch")
	batch := batchParam == "1" || batchParam == "true"

	var kind Kind
	switch r.Method {
	case http.MethodGet:
		kind = Query
	case http.MethodPost:
		kind = Mutation
	default:
		err := apperror.NewMethodNotAllowedError(fmt.Sprintf("Unsupported %s-request to path %q", r.Method, procPath))
		apperror.WriteJSON(w, http.StatusMethodNotAllowed, h.errorBody(shapeFor(err, procPath)))
		return
	}

	names := []string{procPath}
	if batch {
		names = strings.Split(procPath, ",")
	}

	inputs, err := h.readInputs(r, batch, len(names))
	if err != nil {
		apperror.WriteJSON(w, http.StatusBadRequest, h.errorBody(parseErrorShape(err.Error())))
		return
	}

	jar, flush := session.ForRequest(r)
	c := &Context{Context: r.Context(), Request: r, Jar: jar}
	if h.opts.User != nil {
		c.User = h.opts.User(r)
	}

	results := make([]any, len(names))
	status := 0
	for i, name := range names {
		body, callStatus := h.call(c, kind, name, inputs[i])
		results[i] = body
		switch {
		case i == 0:
			status = callStatus
		case status != callStatus:
			status = http.StatusMultiStatus
		}
	}

	flush(w)
	if batch {
		apperror.WriteJSON(w, status, results)
		return
	}
	apperror.WriteJSON(w, status, results[0])
}

// readInputs returns one raw input per procedure. GET carries the input in the
// "input" query parameter, POST in the body; batches key inputs by position.
func (h *Handler) readInputs(r *http.Request, batch bool, n int) ([]json.RawMessage, error) {
	var raw []byte
	if r.Method == http.MethodGet {
		raw = []byte(r.URL.Query().Get("input"))
	} else if r.Body != nil {
		body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		raw = body
	}

	inputs := make([]json.RawMessage, n)
	if len(strings.TrimSpace(string(raw))) == 0 {
		return inputs, nil
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("input is not valid JSON")
	}

	if !batch {
		inputs[0] = h.unwrap(raw)
		return inputs, nil
	}
	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keyed); err != nil {
		return nil, fmt.Errorf("batch input must be an object keyed by call index")
	}
	for i := range inputs {
		if v, ok := keyed[strconv.Itoa(i)]; ok {
			inputs[i] = h.unwrap(v)
		}
	}
	return inputs, nil
}

func (h *Handler) unwrap(raw json.RawMessage) json.RawMessage {
	if h.opts.Superjson {
		return superjsonDecode(raw)
	}
	return raw
}

// call runs one procedure and returns its response element and HTTP status.
func (h *Handler) call(c *Context, kind Kind, path string, input json.RawMessage) (body any, status int) {
	proc, ok := h.router.Lookup(path)
	if !ok {
		err := apperror.NewNotFoundError(fmt.Sprintf("No %q-procedure on path %q", kind.String(), path), nil)
		return h.errorBody(shapeFor(err, path)), http.StatusNotFound
	}
	if proc.Kind != kind {
		err := apperror.NewMethodNotAllowedError(fmt.Sprintf("Unsupported %s-request to %s procedure at path %q",
			c.Request.Method, proc.Kind.String(), path))
		return h.errorBody(shapeFor(err, path)), http.StatusMethodNotAllowed
	}

	defer func() {
		if rec := recover(); rec != nil {
			err := apperror.NewInternalError("an unexpected error occurred", fmt.Errorf("panic: %v", rec))
			h.opts.Logger.Error("rpc procedure panicked", "path", path, "panic", rec)
			body, status = h.errorBody(shapeFor(err, path)), http.StatusInternalServerError
		}
	}()

	data, err := proc.Handler(c, input)
	if err != nil {
		shape := shapeFor(err, path)
		if shape.Data.HTTPStatus >= http.StatusInternalServerError {
			h.opts.Logger.Error("rpc procedure failed", "path", path, "type", kind.String(), "error", err)
		} else {
			h.opts.Logger.Debug("rpc procedure rejected", "path", path, "code", shape.Data.Code, "error", err)
		}
		return h.errorBody(shape), shape.Data.HTTPStatus
	}
	return map[string]any{"result": map[string]any{"data": h.encode(data)}}, http.StatusOK
}
