package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL container for testing and applies the
// schema. Returns a cleanup function that must be called after tests
// complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	ctx := context.Background()

	container, err := pgcontainer.Run(ctx, "postgres:15-alpine",
		pgcontainer.WithDatabase("testdb"),
		pgcontainer.WithUsername("test"),
		pgcontainer.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	applySchema(t, ctx, pool)
	// Schema creation must be idempotent against an initialized store.
	applySchema(t, ctx, pool)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// applySchema runs the embedded migrations against the test database.
// The SQL is read directly here rather than through the migrations
// package to avoid an import cycle with this package's Pool.
func applySchema(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	for _, stmt := range schemaStatements {
		_, err := pool.Exec(ctx, stmt)
		require.NoError(t, err, "failed to apply schema statement")
	}
}

// schemaStatements mirrors internal/storage/migrations/postgres/001_init.sql.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS price_records (
		unique_id    TEXT PRIMARY KEY,
		symbol       TEXT NOT NULL,
		interval     TEXT NOT NULL DEFAULT '1m',
		price        DOUBLE PRECISION NOT NULL,
		timestamp_ms BIGINT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (symbol, interval, timestamp_ms)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_price_records_symbol_ts
		ON price_records (symbol, interval, timestamp_ms)`,
	`CREATE TABLE IF NOT EXISTS price_predictions (
		unique_id               TEXT PRIMARY KEY,
		symbol                  TEXT NOT NULL,
		interval                TEXT NOT NULL DEFAULT '1m',
		predicted_price         DOUBLE PRECISION NOT NULL,
		error_margin            DOUBLE PRECISION NOT NULL,
		prediction_timestamp_ms BIGINT NOT NULL,
		target_timestamp_ms     BIGINT NOT NULL,
		created_at              TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_price_predictions_symbol_target
		ON price_predictions (symbol, target_timestamp_ms)`,
}
