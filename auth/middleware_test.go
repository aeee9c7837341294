package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/imobiliaria-go/config"
	"github.com/user/imobiliaria-go/jsonstore"
	"github.com/user/imobiliaria-go/logging"
	"github.com/user/imobiliaria-go/session"
	"github.com/user/imobiliaria-go/users"
)

const testSecret = "guard-secret"

var testAuthConfig = config.AuthConfig{
	SessionSecret: testSecret,
	SessionTTL:    time.Hour,
	TokenFormat:   config.TokenFormatHMAC,
	CookieName:    "auth_token",
	BcryptCost:    bcrypt.MinCost,
}

// brokenRepository fails every lookup by id.
type brokenRepository struct {
	users.Repository
}

func (brokenRepository) GetByID(context.Context, int) (users.User, error) {
	return users.User{}, errors.New("connection refused")
}

func newTestAuth(t *testing.T, repo users.Repository) *AuthService {
	t.Helper()
	svc := users.NewUserService(repo, bcrypt.MinCost)
	return NewAuthService(svc, NewCodec(testAuthConfig), testAuthConfig, logging.Discard())
}

func seededAuth(t *testing.T) *AuthService {
	t.Helper()
	repo := users.NewTableRepository(jsonstore.NewMemory[users.User](), nil)
	a := newTestAuth(t, repo)
	_, err := a.users.SeedDemoUser(context.Background(), "@userCliente96", "@passwordCliente96")
	require.NoError(t, err)
	return a
}

// guarded runs one request through Guard and returns the status and resolved user.
func guarded(t *testing.T, a *AuthService, cookie string) (int, *users.User) {
	t.Helper()
	var got *users.User
	reached := false
	h := Guard(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		got = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/trpc/auth.me", nil)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.True(t, reached, "guard rejected the request")
	return rec.Code, got
}

func issue(t *testing.T, subject string, now func() time.Time) string {
	t.Helper()
	token, err := session.NewHMACCodec(testSecret, time.Hour, now).Issue(subject)
	require.NoError(t, err)
	return token
}

func TestGuardResolvesValidSession(t *testing.T) {
	a := seededAuth(t)

	code, u := guarded(t, a, "auth_token="+issue(t, "1", nil))
	assert.Equal(t, http.StatusOK, code)
	require.NotNil(t, u)
	assert.Equal(t, 1, u.ID)
}

func TestGuardContinuesAnonymously(t *testing.T) {
	a := seededAuth(t)
	expired := issue(t, "1", func() time.Time { return time.Now().Add(-2 * time.Hour) })
	forged := issue(t, "1", nil) + "x"

	tests := []struct {
		name   string
		cookie string
	}{
		{"no cookie", ""},
		{"other cookies only", "theme=dark"},
		{"garbage token", "auth_token=not-a-token"},
		{"bad signature", "auth_token=" + forged},
		{"expired token", "auth_token=" + expired},
		{"user no longer exists", "auth_token=" + issue(t, "42", nil)},
		{"non-numeric subject", "auth_token=" + issue(t, "abc", nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, u := guarded(t, a, tt.cookie)
			assert.Equal(t, http.StatusOK, code)
			assert.Nil(t, u)
		})
	}
}

func TestGuardFailsOpenOnStoreError(t *testing.T) {
	a := newTestAuth(t, brokenRepository{})

	code, u := guarded(t, a, "auth_token="+issue(t, "1", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Nil(t, u)

	_, err := a.Resolve(context.Background(), issue(t, "1", nil))
	assert.Error(t, err)
}

func TestGuardPrefersRequestJar(t *testing.T) {
	a := seededAuth(t)
	jar := session.NewJar("auth_token=" + issue(t, "1", nil))

	var got *users.User
	h := Guard(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/trpc/auth.me", nil)
	h.ServeHTTP(httptest.NewRecorder(), req.WithContext(session.WithJar(req.Context(), jar)))

	require.NotNil(t, got)
	assert.Equal(t, 1, got.ID)
}
