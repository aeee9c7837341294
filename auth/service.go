// Package auth is responsible for session authentication: checking credentials,
// issuing the session cookie, resolving the cookie back to a user on every request,
// and the REST endpoints and RPC procedures built on top of that.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/user/imobiliaria-go/apperror"
	"github.com/user/imobiliaria-go/config"
	"github.com/user/imobiliaria-go/session"
	"github.com/user/imobiliaria-go/users"
)

// AuthService provides authentication-related services.
type AuthService struct {
	users  *users.UserService
	codec  session.Codec
	cfg    config.AuthConfig
	logger *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userService *users.UserService, codec session.Codec, cfg config.AuthConfig, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  userService,
		codec:  codec,
		cfg:    cfg,
		logger: logger,
	}
}

// NewCodec builds the token codec selected by cfg.TokenFormat.
func NewCodec(cfg config.AuthConfig) session.Codec {
	if cfg.TokenFormat == config.TokenFormatJWT {
		return session.NewJWTCodec(cfg.SessionSecret, cfg.SessionTTL, nil)
	}
	return session.NewHMACCodec(cfg.SessionSecret, cfg.SessionTTL, nil)
}

// CookieName is the name of the session cookie.
func (s *AuthService) CookieName() string {
	return s.cfg.CookieName
}

// cookieOptions are the attributes of the session cookie.
func (s *AuthService) cookieOptions() session.CookieOptions {
	return session.CookieOptions{
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   s.codec.TTL(),
	}
}

// Login checks the credentials and returns the user together with a fresh session token.
// Bad credentials yield an AuthError.
func (s *AuthService) Login(ctx context.Context, username, password string) (users.User, string, error) {
	u, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			s.logger.Info("login rejected", "username", username)
			return users.User{}, "", apperror.NewAuthError(MsgInvalidCredentials, err)
		}
		return users.User{}, "", err
	}

	token, err := s.codec.Issue(strconv.Itoa(u.ID))
	if err != nil {
		return users.User{}, "", apperror.NewInternalError("failed to issue session token", err)
	}
	s.logger.Info("login succeeded", "user_id", u.ID)
	return u, token, nil
}

// StartSession queues the session cookie for token on jar.
func (s *AuthService) StartSession(jar *session.Jar, token string) {
	jar.Set(s.cfg.CookieName, token, s.cookieOptions())
}

// EndSession queues the cookie that clears the session.
func (s *AuthService) EndSession(jar *session.Jar) {
	opts := s.cookieOptions()
	opts.MaxAge = 0
	jar.Clear(s.cfg.CookieName, opts)
}

// Resolve maps a session token to its user. An absent, invalid or expired token,
// or one whose user no longer exists, resolves to (nil, nil). A non-nil error
// means the user store itself failed; callers decide whether to fail open.
func (s *AuthService) Resolve(ctx context.Context, token string) (*users.User, error) {
	if token == "" {
		return nil, nil
	}
	subject, err := s.codec.Verify(token)
	if err != nil {
		return nil, nil
	}
	id, err := strconv.Atoi(subject)
	if err != nil {
		return nil, nil
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// ResolveJar resolves the session cookie carried by jar, degrading any store
// failure to anonymous.
func (s *AuthService) ResolveJar(ctx context.Context, jar *session.Jar) *users.User {
	token, _ := jar.Get(s.cfg.CookieName)
	u, err := s.Resolve(ctx, token)
	if err != nil {
		s.logger.Warn("session lookup failed, continuing anonymously", "error", err)
		return nil
	}
	return u
}
