package auth

import (
	"encoding/json"
	"net/http"

	"github.com/elnormous/contenttype"
	"github.com/go-playground/validator/v10"

	"github.com/user/imobiliaria-go/apperror"
	"github.com/user/imobiliaria-go/session"
)

var jsonMediaType = contenttype.NewMediaType("application/json")

// Handlers wraps the AuthService to provide the REST endpoints under /api/auth.
type Handlers struct {
	service  *AuthService
	validate *validator.Validate
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *AuthService) *Handlers {
	return &Handlers{service: service, validate: validator.New()}
}

// HandleLogin godoc
// @Summary Login
// @Description Checks username and password and sets the session cookie.
// @Tags Auth
// @Accept json
// @Produce json
// @Param loginBody body auth.LoginRequest true "Credentials"
// @Success 200 {object} auth.LoginResponse
// @Failure 400 {object} auth.LoginResponse "Missing username or password"
// @Failure 401 {object} auth.LoginResponse "Invalid credentials"
// @Failure 500 {object} auth.LoginResponse
// @Router /auth/login [post]
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		// Bodies that are not JSON are never parsed, so they read as empty credentials.
		var req LoginRequest
		if ctype, err := contenttype.GetMediaType(r); err == nil && ctype.Matches(jsonMediaType) {
			_ = json.NewDecoder(r.Body).Decode(&req)
		}
		if h.validate.Struct(req) != nil {
			apperror.WriteJSON(w, http.StatusBadRequest, LoginResponse{Message: MsgMissingFields})
			return
		}

		_, token, err := h.service.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			if apperror.IsAuthError(err) {
				apperror.WriteJSON(w, http.StatusUnauthorized, LoginResponse{Message: MsgInvalidCredentials})
				return
			}
			h.service.logger.Error("login failed", "error", err)
			apperror.WriteJSON(w, http.StatusInternalServerError, LoginResponse{Message: MsgLoginFailed})
			return
		}

		jar, flush := session.ForRequest(r)
		h.service.StartSession(jar, token)
		flush(w)
		apperror.WriteJSON(w, http.StatusOK, LoginResponse{Success: true, Message: MsgLoginSucceeded})
	}
}

// HandleCheck godoc
// @Summary Check session
// @Description Reports whether the session cookie is valid.
// @Tags Auth
// @Produce json
// @Success 200 {object} auth.CheckResponse
// @Failure 401 {object} auth.CheckResponse
// @Router /auth/check [get]
func (h *Handlers) HandleCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jar, _ := session.ForRequest(r)
		u := h.service.ResolveJar(r.Context(), jar)
		if u == nil {
			apperror.WriteJSON(w, http.StatusUnauthorized, CheckResponse{})
			return
		}
		resp := CheckResponse{Authenticated: true}
		if u.Username != nil {
			resp.Username = *u.Username
		}
		apperror.WriteJSON(w, http.StatusOK, resp)
	}
}

// HandleLogout godoc
// @Summary Logout
// @Description Clears the session cookie.
// @Tags Auth
// @Produce json
// @Success 200 {object} auth.SuccessResponse
// @Router /auth/logout [post]
func (h *Handlers) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jar, flush := session.ForRequest(r)
		h.service.EndSession(jar)
		flush(w)
		apperror.WriteJSON(w, http.StatusOK, SuccessResponse{Success: true})
	}
}

// HandleMe godoc
// @Summary Current user
// @Description Returns the user behind the session cookie, or null.
// @Tags Auth
// @Produce json
// @Success 200 {object} users.Profile
// @Router /auth/me [get]
func (h *Handlers) HandleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jar, _ := session.ForRequest(r)
		u := h.service.ResolveJar(r.Context(), jar)
		if u == nil {
			apperror.WriteJSON(w, http.StatusOK, nil)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, u.ToProfile())
	}
}
