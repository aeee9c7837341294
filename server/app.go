// Package server assembles the application: it opens the configured storage,
// builds the services and exposes them through one chi router. Every entry point
// (the standalone server, the Vercel function and the Lambda handler) starts here.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/imobiliaria-go/auth"
	"github.com/user/imobiliaria-go/config"
	"github.com/user/imobiliaria-go/db"
	"github.com/user/imobiliaria-go/jsonstore"
	"github.com/user/imobiliaria-go/properties"
	"github.com/user/imobiliaria-go/users"
)

// App holds the wired services.
type App struct {
	Config     *config.AppConfig
	Logger     *slog.Logger
	Users      *users.UserService
	Auth       *auth.AuthService
	Properties *properties.PropertyService

	pool *pgxpool.Pool
}

// repositories is what a storage strategy provides.
type repositories struct {
	users      users.Repository
	properties properties.Repository
	pool       *pgxpool.Pool
}

// openStorage opens the backend selected by cfg.
func openStorage(ctx context.Context, cfg *config.StorageConfig, logger *slog.Logger) (repositories, error) {
	switch cfg.Backend {
	case config.StorageMemory:
		return repositories{
			users:      users.NewTableRepository(jsonstore.NewMemory[users.User](), nil),
			properties: properties.NewTableRepository(jsonstore.NewMemory[properties.Property](), nil),
		}, nil

	case config.StorageFile:
		logger.Info("using file storage", "dir", cfg.DataDir)
		return repositories{
			users:      users.NewTableRepository(jsonstore.NewFile[users.User](filepath.Join(cfg.DataDir, "users.json")), nil),
			properties: properties.NewTableRepository(jsonstore.NewFile[properties.Property](filepath.Join(cfg.DataDir, "properties.json")), nil),
		}, nil

	case config.StoragePostgres:
		if cfg.DB == nil {
			return repositories{}, fmt.Errorf("postgres storage selected without database settings")
		}
		if err := db.RunMigrations(db.DSN(cfg.DB), cfg.MigrationsPath, logger); err != nil {
			return repositories{}, err
		}
		pool, err := db.NewPool(ctx, cfg.DB)
		if err != nil {
			return repositories{}, err
		}
		props := properties.NewPGRepository(pool)
		if err := props.EnsureSeeded(ctx); err != nil {
			pool.Close()
			return repositories{}, fmt.Errorf("failed to seed properties: %w", err)
		}
		return repositories{
			users:      users.NewPGRepository(pool),
			properties: props,
			pool:       pool,
		}, nil
	}
	return repositories{}, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// NewApp opens storage, builds the services and seeds the demo user.
func NewApp(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*App, error) {
	repos, err := openStorage(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	userService := users.NewUserService(repos.users, cfg.Auth.BcryptCost)
	app := &App{
		Config:     cfg,
		Logger:     logger,
		Users:      userService,
		Auth:       auth.NewAuthService(userService, auth.NewCodec(*cfg.Auth), *cfg.Auth, logger),
		Properties: properties.NewPropertyService(repos.properties),
		pool:       repos.pool,
	}

	if cfg.Auth.DemoUsername != "" && cfg.Auth.DemoPassword != "" {
		u, err := userService.SeedDemoUser(ctx, cfg.Auth.DemoUsername, cfg.Auth.DemoPassword)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to seed demo user: %w", err)
		}
		logger.Debug("demo user ready", "user_id", u.ID)
	}
	return app, nil
}

// Close releases the database pool, if any.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
