// Package handler is the Vercel Go function serving /api/*. Vercel rewrites
// every API route to this function; the gateway recovers the original path.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/user/imobiliaria-go/apperror"
	"github.com/user/imobiliaria-go/gateway"
	"github.com/user/imobiliaria-go/server"
)

var (
	once    sync.Once
	gw      *gateway.Gateway
	initErr error
)

// Handler is invoked by the Vercel runtime once per request. The application is
// built on the first call and reused while the instance stays warm.
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		app, err := server.Bootstrap(context.Background())
		if err != nil {
			initErr = err
			return
		}
		gw = gateway.New(app.Router(), app.Logger)
	})
	if initErr != nil {
		slog.Error("function initialization failed", "error", initErr)
		apperror.WriteJSON(w, http.StatusInternalServerError, apperror.ErrorResponse{
			Error:   "Internal server error",
			Message: "function initialization failed",
		})
		return
	}
	gw.ServeHTTP(w, r)
}
