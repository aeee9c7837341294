package server

import (
	"context"
	"log/slog"

	"github.com/user/imobiliaria-go/config"
	"github.com/user/imobiliaria-go/logging"
)

// Bootstrap loads configuration from the environment and builds the App with
// the configured logger. It is shared by the serverless entry points.
func Bootstrap(ctx context.Context) (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	return NewApp(ctx, cfg, logger)
}

// NewLogger builds the process logger from cfg and installs it as the slog default.
func NewLogger(cfg *config.LogConfig) (*slog.Logger, error) {
	return logging.New(logging.Options{Level: cfg.Level, JSON: cfg.JSON, DefaultSlog: true})
}
