package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("NODE_ENV", "")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("STORAGE_BACKEND", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, PlatformServer, cfg.Server.Platform)
	assert.True(t, cfg.Server.Superjson)
	assert.Equal(t, StorageFile, cfg.Storage.Backend)
	assert.Nil(t, cfg.Storage.DB)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, TokenFormatHMAC, cfg.Auth.TokenFormat)
	assert.Equal(t, "auth_token", cfg.Auth.CookieName)
	assert.False(t, cfg.Auth.SecureCookies)
	assert.NotEmpty(t, cfg.Auth.SessionSecret)
}

func TestLoadConfigProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestLoadConfigCollectsAllErrors(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("SESSION_TTL", "soon")

	_, err := LoadConfig()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "DB_USER")
	assert.Contains(t, msg, "DB_PASSWORD")
	assert.Contains(t, msg, "DB_NAME")
	assert.Contains(t, msg, "SESSION_TTL")
}

func TestLoadConfigProductionSecureCookies(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("HOSTING_PLATFORM", "Netlify")
	t.Setenv("STORAGE_BACKEND", "memory")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Auth.SecureCookies)
	assert.Equal(t, PlatformNetlify, cfg.Server.Platform)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
}
