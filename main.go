// Command imobiliaria runs the listings API as a standalone HTTP server and
// provides maintenance subcommands (migrations, user creation).
//
// @title Imobiliária API
// @version 1.0
// @description Session authentication endpoints of the listings application.
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @BasePath /api
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/user/imobiliaria-go/apperror"
	"github.com/user/imobiliaria-go/config"
	"github.com/user/imobiliaria-go/db"
	"github.com/user/imobiliaria-go/server"
	"github.com/user/imobiliaria-go/users"
)

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	app := &cli.App{
		Name:   "imobiliaria",
		Usage:  "real-estate listings API",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations (postgres storage only)",
				Action: migrateUp,
			},
			{
				Name:  "create-user",
				Usage: "create a password user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true, EnvVars: []string{"NEW_USER_PASSWORD"}},
					&cli.StringFlag{Name: "name"},
					&cli.StringFlag{Name: "email"},
					&cli.StringFlag{Name: "role", Value: string(users.RoleUser), Usage: "user or admin"},
				},
				Action: createUser,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func loadConfig() (*config.AppConfig, *slog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := server.NewLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func serve(c *cli.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      app.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", addr, "env", cfg.Server.Environment, "storage", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}

func migrateUp(c *cli.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Storage.Backend != config.StoragePostgres {
		return apperror.NewConfigError(fmt.Sprintf("migrations need STORAGE_BACKEND=postgres, got %q", cfg.Storage.Backend), nil)
	}
	return db.RunMigrations(db.DSN(cfg.Storage.DB), cfg.Storage.MigrationsPath, logger)
}

func createUser(c *cli.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	role := users.Role(c.String("role"))
	if role != users.RoleUser && role != users.RoleAdmin {
		return apperror.NewValidationError(fmt.Sprintf("invalid role %q", role), nil)
	}

	app, err := server.NewApp(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	u, err := app.Users.CreatePasswordUser(c.Context, users.CreateParams{
		Username: c.String("username"),
		Password: c.String("password"),
		Name:     c.String("name"),
		Email:    c.String("email"),
		Role:     role,
	})
	if err != nil {
		return err
	}
	logger.Info("user created", "user_id", u.ID, "username", c.String("username"))
	return nil
}
