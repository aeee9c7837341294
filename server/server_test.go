package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/imobiliaria-go/config"
	"github.com/user/imobiliaria-go/gateway"
	"github.com/user/imobiliaria-go/logging"
)

const (
	demoUser     = "@userCliente96"
	demoPassword = "@passwordCliente96"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Storage: &config.StorageConfig{Backend: config.StorageMemory},
		Auth: &config.AuthConfig{
			SessionSecret: "test-secret",
			SessionTTL:    24 * time.Hour,
			TokenFormat:   config.TokenFormatHMAC,
			CookieName:    "auth_token",
			BcryptCost:    bcrypt.MinCost,
			DemoUsername:  demoUser,
			DemoPassword:  demoPassword,
		},
		Server: &config.ServerConfig{Environment: "development", Platform: config.PlatformServer},
		Log:    &config.LogConfig{Level: "info"},
	}
}

func newTestApp(t *testing.T, cfg *config.AppConfig) *App {
	t.Helper()
	app, err := NewApp(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var body map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec, body
}

func login(t *testing.T, h http.Handler, username, password string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	return do(t, h, req)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "auth_token" {
			return c
		}
	}
	t.Fatalf("no session cookie in %v", rec.Header().Values("Set-Cookie"))
	return nil
}

func TestLoginSucceedsWithDemoCredentials(t *testing.T) {
	h := newTestApp(t, testConfig()).Router()

	rec, body := login(t, h, demoUser, demoPassword)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	c := sessionCookie(t, rec)
	assert.NotEmpty(t, c.Value)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, int((24 * time.Hour).Seconds()), c.MaxAge)
	assert.False(t, c.Secure)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newTestApp(t, testConfig()).Router()

	rec, body := login(t, h, "x", "y")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Credenciais inválidas", body["message"])
	assert.Empty(t, rec.Header().Values("Set-Cookie"))
}

func TestLoginRequiresBothFields(t *testing.T) {
	h := newTestApp(t, testConfig()).Router()

	rec, body := login(t, h, demoUser, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Usuário e senha são obrigatórios", body["message"])
}

func TestCheckWithoutCookie(t *testing.T) {
	h := newTestApp(t, testConfig()).Router()

	rec, body := do(t, h, httptest.NewRequest(http.MethodGet, "/api/auth/check", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, map[string]any{"authenticated": false}, body)
}

func TestCheckAndMeWithSession(t *testing.T) {
	h := newTestApp(t, testConfig()).Router()
	rec, _ := login(t, h, demoUser, demoPassword)
	cookie := sessionCookie(t, rec)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/check", nil)
	req.AddCookie(cookie)
	rec, body := do(t, h, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, demoUser, body["username"])

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookie)
	rec, body = do(t, h, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Cliente 96", body["name"])
	assert.Equal(t, "admin", body["role"])
	assert.NotContains(t, body, "passwordHash")
}

func TestLogoutClearsCookie(t *testing.T) {
	h := newTestApp(t, testConfig()).Router()

	rec, body := do(t, h, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	c := sessionCookie(t, rec)
	assert.Empty(t, c.Value)
	assert.Equal(t, -1, c.MaxAge)
}

func TestAuthPreflight(t *testing.T) {
	h := newTestApp(t, testConfig()).Router()

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "https://imoveis.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func rpcGet(proc string, input any) *http.Request {
	target := "/api/trpc/" + proc
	if input != nil {
		b, _ := json.Marshal(input)
		target += "?input=" + url.QueryEscape(string(b))
	}
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func rpcPost(proc string, input any) *http.Request {
	b, _ := json.Marshal(input)
	req := httptest.NewRequest(http.MethodPost, "/api/trpc/"+proc, strings.NewReader(string(b)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func resultData(t *testing.T, body map[string]any) any {
	t.Helper()
	result, ok := body["result"].(map[string]any)
	require.True(t, ok, "no result in %v", body)
	return result["data"]
}

func TestSearchByType(t *testing.T) {
	h := newTestApp(t, testConfig()).Router()

	rec, body := do(t, h, rpcGet("properties.search", map[string]any{"type": "Casa"}))
	require.Equal(t, http.StatusOK, rec.Code)
	rows := resultData(t, body).([]any)
	require.NotEmpty(t, rows)
	for _, r := range rows {
		assert.Equal(t, "Casa", r.(map[string]any)["type"])
	}

	_, again := do(t, h, rpcGet("properties.search", map[string]any{"type": "Casa"}))
	assert.Equal(t, body, again)
}

func TestCreateThenDelete(t *testing.T) {
	h := newTestApp(t, testConfig()).Router()

	rec, body := do(t, h, rpcPost("properties.create", map[string]any{
		"title": "X", "type": "Studio", "area": 40, "price": 100000,
		"address": "Rua A, 1", "neighborhood": "Centro",
	}))
	require.Equal(t, http.StatusOK, rec.Code, body)
	created := resultData(t, body).(map[string]any)
	id := created["id"].(float64)
	assert.Greater(t, id, 6.0)
	assert.Equal(t, float64(0), created["bedrooms"])

	rec, body = do(t, h, rpcPost("properties.delete", map[string]any{"id": id}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"success": true}, resultData(t, body))

	rec, body = do(t, h, rpcPost("properties.delete", map[string]any{"id": 1}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	errData := body["error"].(map[string]any)["data"].(map[string]any)
	assert.Equal(t, "FORBIDDEN", errData["code"])
}

func TestCreateStampsSessionUser(t *testing.T) {
	app := newTestApp(t, testConfig())
	h := app.Router()
	rec, _ := login(t, h, demoUser, demoPassword)
	cookie := sessionCookie(t, rec)

	req := rpcPost("properties.create", map[string]any{"title": "Meu", "type": "Casa", "area": 90, "price": 1})
	req.AddCookie(cookie)
	rec, body := do(t, h, req)
	require.Equal(t, http.StatusOK, rec.Code, body)

	req = rpcGet("properties.myProperties", nil)
	req.AddCookie(cookie)
	_, body = do(t, h, req)
	mine := resultData(t, body).([]any)
	require.Len(t, mine, 1)
	assert.Equal(t, "Meu", mine[0].(map[string]any)["title"])

	_, body = do(t, h, rpcGet("properties.myProperties", nil))
	assert.Equal(t, []any{}, resultData(t, body))
}

func TestGetByIDUnknownIsNull(t *testing.T) {
	h := newTestApp(t, testConfig()).Router()

	rec, body := do(t, h, rpcGet("properties.getById", map[string]any{"id": 999}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, resultData(t, body))
}

func TestSystemHealthProcedure(t *testing.T) {
	h := newTestApp(t, testConfig()).Router()

	_, body := do(t, h, rpcGet("system.health", map[string]any{"timestamp": 1}))
	assert.Equal(t, map[string]any{"ok": true}, resultData(t, body))

	rec, _ := do(t, h, rpcGet("system.health", map[string]any{"timestamp": -1}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuperjsonEnvelope(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Superjson = true
	h := newTestApp(t, cfg).Router()

	rec, body := do(t, h, rpcGet("properties.getById", map[string]any{"json": map[string]any{"id": 1}}))
	require.Equal(t, http.StatusOK, rec.Code)
	data := resultData(t, body).(map[string]any)
	assert.Equal(t, float64(1), data["json"].(map[string]any)["id"])
	values := data["meta"].(map[string]any)["values"].(map[string]any)
	assert.Equal(t, []any{"Date"}, values["createdAt"])
}

func TestHealthAndTestEndpoints(t *testing.T) {
	h := newTestApp(t, testConfig()).Router()

	rec, body := do(t, h, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	_, err := time.Parse(time.RFC3339, body["timestamp"].(string))
	assert.NoError(t, err)

	_, body = do(t, h, httptest.NewRequest(http.MethodGet, "/api/test", nil))
	assert.Equal(t, "Serverless function is working", body["message"])
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	h := newTestApp(t, testConfig()).Router()

	rec, body := do(t, h, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", body["error"])
}

func TestStaticFallbackToIndex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>spa</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	cfg := testConfig()
	cfg.Server.Environment = "production"
	cfg.Server.StaticDir = dir
	h := newTestApp(t, cfg).Router()

	rec, _ := do(t, h, httptest.NewRequest(http.MethodGet, "/imoveis/3", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "spa")

	rec, _ = do(t, h, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	assert.Equal(t, "console.log(1)", rec.Body.String())

	rec, _ = do(t, h, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	cfg.Server.Platform = config.PlatformVercel
	rec, _ = do(t, newTestApp(t, cfg).Router(), httptest.NewRequest(http.MethodGet, "/imoveis/3", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFileStoragePersistsAcrossApps(t *testing.T) {
	cfg := testConfig()
	cfg.Storage = &config.StorageConfig{Backend: config.StorageFile, DataDir: t.TempDir()}

	h := newTestApp(t, cfg).Router()
	rec, body := do(t, h, rpcPost("properties.create", map[string]any{"title": "Persistido", "type": "Loft", "area": 30, "price": 5}))
	require.Equal(t, http.StatusOK, rec.Code, body)
	id := resultData(t, body).(map[string]any)["id"]

	h = newTestApp(t, cfg).Router()
	_, body = do(t, h, rpcGet("properties.getById", map[string]any{"id": id}))
	assert.Equal(t, "Persistido", resultData(t, body).(map[string]any)["title"])

	rec, _ = login(t, h, demoUser, demoPassword)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginThroughServerlessEvent(t *testing.T) {
	g := gateway.New(newTestApp(t, testConfig()).Router(), logging.Discard())

	body, _ := json.Marshal(map[string]string{"username": demoUser, "password": demoPassword})
	quoted, _ := json.Marshal(string(body))
	out, err := g.HandleEvent(context.Background(), gateway.Event{
		HTTPMethod:            "POST",
		Path:                  "/.netlify/functions/api",
		QueryStringParameters: map[string]string{"path": "auth.login"},
		Headers:               map[string]string{"content-type": "application/json", "host": "imoveis.example"},
		Body:                  quoted,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, out.StatusCode, out.Body)
	require.Len(t, out.MultiValueHeaders["Set-Cookie"], 1)
	assert.True(t, strings.HasPrefix(out.MultiValueHeaders["Set-Cookie"][0], "auth_token="))

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(out.Body), &resp))
	data := resp["result"].(map[string]any)["data"].(map[string]any)
	assert.Equal(t, true, data["success"])
	assert.Equal(t, demoUser, data["user"].(map[string]any)["username"])
}

func TestSwaggerDocument(t *testing.T) {
	h := newTestApp(t, testConfig()).Router()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"/auth/login"`)
}

func TestLoginIgnoresNonJSONBody(t *testing.T) {
	h := newTestApp(t, testConfig()).Router()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"username":"@userCliente96","password":"@passwordCliente96"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec, body := do(t, h, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Usuário e senha são obrigatórios", body["message"])
}

func TestHealthThroughGateway(t *testing.T) {
	g := gateway.New(newTestApp(t, testConfig()).Router(), logging.Discard())

	rec, body := do(t, g, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	_, body = do(t, g, httptest.NewRequest(http.MethodGet, "/api/test", nil))
	assert.Equal(t, "Serverless function is working", body["message"])
}

func TestBatchedQueryThroughGateway(t *testing.T) {
	h := newTestApp(t, testConfig()).Router()
	g := gateway.New(h, logging.Discard())
	target := "/api/trpc/properties.search%2Cproperties.search?batch=1"

	direct := httptest.NewRecorder()
	h.ServeHTTP(direct, httptest.NewRequest(http.MethodGet, target, nil))
	viaGateway := httptest.NewRecorder()
	g.ServeHTTP(viaGateway, httptest.NewRequest(http.MethodGet, target, nil))

	require.Equal(t, http.StatusOK, direct.Code, direct.Body.String())
	assert.Equal(t, http.StatusOK, viaGateway.Code, viaGateway.Body.String())
	assert.JSONEq(t, direct.Body.String(), viaGateway.Body.String())
}
