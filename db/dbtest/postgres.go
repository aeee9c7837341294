//go:build integration

// Package dbtest starts a throwaway PostgreSQL container for repository tests.
package dbtest

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/user/imobiliaria-go/db"
	"github.com/user/imobiliaria-go/logging"
)

// migrationsDir is the repository's migrations directory, independent of the
// package the test runs in.
func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

// NewPool boots a Postgres 16 container, applies the migrations and returns a
// pool. Everything is torn down when the test ends.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("imobiliaria"),
		postgres.WithUsername("imobiliaria"),
		postgres.WithPassword("imobiliaria"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, db.RunMigrations(dsn, migrationsDir(), logging.Discard()))

	pool, err := db.NewPoolFromDSN(ctx, dsn, 8)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}
