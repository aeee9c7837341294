// Package config provides configuration management for the listings application.
// It handles loading and validation of configuration values from environment variables,
// with support for required variables, default values, and collective error reporting.
// Everything that used to be decided by sniffing the environment at call sites
// (storage backend, hosting platform, cookie security) is resolved here once, at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// StorageBackend selects where users and properties are persisted.
type StorageBackend string

const (
	// StorageMemory keeps everything in process memory (reset on every cold start).
	StorageMemory StorageBackend = "memory"
	// StorageFile persists each table as a JSON file under DataDir.
	StorageFile StorageBackend = "file"
	// StoragePostgres uses a PostgreSQL database through pgx.
	StoragePostgres StorageBackend = "postgres"
)

// Platform identifies the hosting runtime the process is serving from.
type Platform string

const (
	PlatformServer  Platform = "server"
	PlatformVercel  Platform = "vercel"
	PlatformNetlify Platform = "netlify"
)

// TokenFormat selects the session token codec.
type TokenFormat string

const (
	TokenFormatHMAC TokenFormat = "hmac"
	TokenFormatJWT  TokenFormat = "jwt"
)

const developmentSecret = "default-secret-key-change-in-production"

// PoolConfig represents configuration for the database connection pool.
type PoolConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxSize  int
}

// StorageConfig holds the storage strategy and its parameters.
type StorageConfig struct {
	Backend        StorageBackend
	DataDir        string      // used by StorageFile
	DB             *PoolConfig // used by StoragePostgres, nil otherwise
	MigrationsPath string
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	SessionSecret string        // Secret key for signing session tokens
	SessionTTL    time.Duration // Validity window of a session token
	TokenFormat   TokenFormat
	CookieName    string
	SecureCookies bool // Set when serving production traffic over HTTPS
	BcryptCost    int
	DemoUsername  string
	DemoPassword  string
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port        string
	Environment string
	Platform    Platform
	StaticDir   string
	// Superjson wraps RPC results in the superjson envelope the web client expects.
	Superjson bool
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string
	JSON  bool
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	Storage *StorageConfig
	Auth    *AuthConfig
	Server  *ServerConfig
	Log     *LogConfig
}

// IsProduction reports whether the process runs with production semantics.
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment reports whether the process runs in development mode.
func (c *ServerConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// Helper function to get a required environment variable.
// Appends an error to the errors slice if the variable is not set.
func getRequiredEnv(key string, errors *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		*errors = append(*errors, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

// Helper function to get an optional environment variable with a default string value.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// Helper function to get an optional environment variable parsed as an int.
// Uses defaultValue if not set or if parsing fails. Appends an error if parsing fails.
func getOptionalEnvInt(key string, defaultValue int, errors *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

// Helper function to get an optional environment variable parsed as time.Duration.
// `time.ParseDuration` expects a string like "15m", "24h".
func getOptionalEnvDuration(key string, defaultValue time.Duration, errors *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueDuration
}

// getOptionalEnum returns the lower-cased value of key if it is one of allowed.
func getOptionalEnum(key string, defaultValue string, allowed []string, errors *[]string) string {
	value := strings.ToLower(getOptionalEnv(key, defaultValue))
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected one of %s, got '%s'", key, strings.Join(allowed, ", "), value))
	return defaultValue
}

// clampPoolSize keeps the pool size between 1 and 100.
func clampPoolSize(size int, errors *[]string) int {
	if size < 1 {
		*errors = append(*errors, fmt.Sprintf("DB_POOL_SIZE (%d) is less than minimum 1", size))
		return 1
	}
	if size > 100 {
		*errors = append(*errors, fmt.Sprintf("DB_POOL_SIZE (%d) is greater than maximum 100", size))
		return 100
	}
	return size
}

// LoadConfig creates and returns an AppConfig by reading and validating environment variables.
// It collects all errors encountered during loading and returns a single error if any exist.
func LoadConfig() (*AppConfig, error) {
	var errors []string

	// Server Configuration
	env := strings.ToLower(getOptionalEnv("APP_ENV", getOptionalEnv("NODE_ENV", "development")))
	platform := Platform(getOptionalEnum("HOSTING_PLATFORM", string(PlatformServer),
		[]string{string(PlatformServer), string(PlatformVercel), string(PlatformNetlify)}, &errors))
	transformer := getOptionalEnum("TRPC_TRANSFORMER", "superjson", []string{"superjson", "none"}, &errors)
	serverConfig := &ServerConfig{
		Port:        getOptionalEnv("PORT", "8080"),
		Environment: env,
		Platform:    platform,
		StaticDir:   getOptionalEnv("STATIC_DIR", "./dist/public"),
		Superjson:   transformer == "superjson",
	}

	// Storage Configuration
	backend := StorageBackend(getOptionalEnum("STORAGE_BACKEND", string(StorageFile),
		[]string{string(StorageMemory), string(StorageFile), string(StoragePostgres)}, &errors))
	storageConfig := &StorageConfig{
		Backend:        backend,
		DataDir:        getOptionalEnv("DATA_DIR", "./data"),
		MigrationsPath: getOptionalEnv("MIGRATIONS_PATH", "./migrations"),
	}
	if backend == StoragePostgres {
		// Database settings are only required when the postgres strategy is selected.
		storageConfig.DB = &PoolConfig{
			Host:     getOptionalEnv("DB_HOST", "localhost"),
			Port:     getOptionalEnvInt("DB_PORT", 5432, &errors),
			User:     getRequiredEnv("DB_USER", &errors),
			Password: getRequiredEnv("DB_PASSWORD", &errors),
			DBName:   getRequiredEnv("DB_NAME", &errors),
			MaxSize:  clampPoolSize(getOptionalEnvInt("DB_POOL_SIZE", 10, &errors), &errors),
		}
	}

	// Auth Configuration
	secret := getOptionalEnv("SESSION_SECRET", "")
	if secret == "" {
		if serverConfig.IsProduction() {
			errors = append(errors, "missing required environment variable: SESSION_SECRET")
		}
		secret = developmentSecret
	}
	format := TokenFormat(getOptionalEnum("SESSION_TOKEN_FORMAT", string(TokenFormatHMAC),
		[]string{string(TokenFormatHMAC), string(TokenFormatJWT)}, &errors))
	authConfig := &AuthConfig{
		SessionSecret: secret,
		SessionTTL:    getOptionalEnvDuration("SESSION_TTL", 24*time.Hour, &errors),
		TokenFormat:   format,
		CookieName:    getOptionalEnv("SESSION_COOKIE_NAME", "auth_token"),
		SecureCookies: serverConfig.IsProduction(),
		BcryptCost:    getOptionalEnvInt("BCRYPT_COST", 12, &errors),
		DemoUsername:  getOptionalEnv("DEMO_USERNAME", "@userCliente96"),
		DemoPassword:  getOptionalEnv("DEMO_PASSWORD", "@passwordCliente96"),
	}
	if authConfig.SessionTTL <= 0 {
		errors = append(errors, "SESSION_TTL must be positive")
	}

	logConfig := &LogConfig{
		Level: getOptionalEnv("LOG_LEVEL", "info"),
		JSON:  getOptionalEnum("LOG_FORMAT", "text", []string{"text", "json"}, &errors) == "json",
	}

	// If any errors were collected during loading, return a single aggregated error message.
	if len(errors) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return &AppConfig{
		Storage: storageConfig,
		Auth:    authConfig,
		Server:  serverConfig,
		Log:     logConfig,
	}, nil
}
