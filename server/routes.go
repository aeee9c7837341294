package server

import (
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/user/imobiliaria-go/apperror"
	"github.com/user/imobiliaria-go/auth"
	"github.com/user/imobiliaria-go/config"
	_ "github.com/user/imobiliaria-go/docs" // registers the OpenAPI document
	"github.com/user/imobiliaria-go/logging"
	"github.com/user/imobiliaria-go/properties"
	"github.com/user/imobiliaria-go/rpc"
	"github.com/user/imobiliaria-go/users"
)

// isoMillis is the timestamp layout JavaScript's toISOString produces.
const isoMillis = "2006-01-02T15:04:05.000Z"

// HealthResponse is returned by the health and test endpoints.
type HealthResponse struct {
	Status    string `json:"status" example:"ok"`
	Message   string `json:"message,omitempty" example:"Serverless function is working"`
	Timestamp string `json:"timestamp" example:"2024-01-01T00:00:00.000Z"`
}

// Procedures builds the RPC router with every procedure of the application.
func (a *App) Procedures() *rpc.Router {
	router := rpc.NewRouter()
	registerSystemProcedures(router)
	auth.RegisterProcedures(router, a.Auth)
	properties.RegisterProcedures(router, a.Properties)
	return router
}

// Router returns the HTTP handler serving the whole application.
func (a *App) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(a.Logger))
	r.Use(recoverJSON(a.Logger))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Get("/api/health", handleHealth(""))
	r.Get("/api/test", handleHealth("Serverless function is working"))

	authHandlers := auth.NewHandlers(a.Auth)
	r.Route(auth.RoutePrefix, func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		r.Post("/login", authHandlers.HandleLogin())
		r.Get("/check", authHandlers.HandleCheck())
		r.Post("/logout", authHandlers.HandleLogout())
		r.Get("/me", authHandlers.HandleMe())
	})

	rpcHandler := rpc.NewHandler(a.Procedures(), rpc.Options{
		Superjson: a.Config.Server.Superjson,
		Logger:    a.Logger,
		User:      func(r *http.Request) *users.User { return auth.UserFromContext(r.Context()) },
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.Guard(a.Auth))
		r.Handle(rpc.Prefix, rpcHandler)
		r.Handle(rpc.Prefix+"/*", rpcHandler)
	})

	if serveStatic(a.Config.Server) {
		r.NotFound(spaHandler(a.Config.Server.StaticDir))
	} else {
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			apperror.WriteError(w, apperror.NewNotFoundError("Not found", nil))
		})
	}
	return r
}

// handleHealth godoc
// @Summary Health check
// @Tags System
// @Produce json
// @Success 200 {object} server.HealthResponse
// @Router /health [get]
func handleHealth(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apperror.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:    "ok",
			Message:   message,
			Timestamp: time.Now().UTC().Format(isoMillis),
		})
	}
}

// serveStatic reports whether this process serves the built web client. Vercel
// serves static files itself and development uses the frontend dev server.
func serveStatic(cfg *config.ServerConfig) bool {
	return cfg.Platform != config.PlatformVercel && !cfg.IsDevelopment()
}

// spaHandler serves files from dir and falls back to index.html for client-side
// routes. Unknown /api paths stay JSON 404s.
func spaHandler(dir string) http.HandlerFunc {
	files := http.FileServer(http.Dir(dir))
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			apperror.WriteError(w, apperror.NewNotFoundError("Not found", nil))
			return
		}
		name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		index := filepath.Join(dir, "index.html")
		if _, err := os.Stat(index); err != nil {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		http.ServeFile(w, r, index)
	}
}

// recoverJSON turns a panic into the JSON error envelope.
func recoverJSON(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic", "panic", rvr, "path", r.URL.Path)
					apperror.WriteError(w, apperror.NewInternalError("Internal server error", nil))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
