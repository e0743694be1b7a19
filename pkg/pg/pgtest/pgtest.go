// Package pgtest provides a migrated Postgres pool for integration tests.
//
// Tests using it are skipped unless PG_URL holds a postgres:// connection
// URL. Each caller picks its own schema so test binaries running in parallel
// never migrate the same tables at once.
package pgtest

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/trakkr/migrations"
	"github.com/dmitrymomot/trakkr/pkg/pg"
)

var (
	mu    sync.Mutex
	pools = map[string]*pgxpool.Pool{}
)

// Pool returns a pool whose search_path is schema, with all migrations
// applied there. Pools are shared by the tests of one binary and live until
// it exits.
func Pool(t testing.TB, schema string) *pgxpool.Pool {
	t.Helper()
	raw := os.Getenv("PG_URL")
	if raw == "" {
		t.Skip("PG_URL not set")
	}

	mu.Lock()
	defer mu.Unlock()
	if pool, ok := pools[schema]; ok {
		return pool
	}

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()

	cfg := pg.Config{
		ConnectionString:  u.String(),
		MaxOpenConns:      8,
		HealthCheckPeriod: time.Minute,
		MaxConnIdleTime:   time.Minute,
		MaxConnLifetime:   time.Hour,
		RetryAttempts:     1,
		RetryInterval:     10 * time.Millisecond,
		MigrationsTable:   "schema_migrations",
	}
	ctx := context.Background()
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{schema}.Sanitize())
	require.NoError(t, err)
	require.NoError(t, pg.MigrateFS(ctx, pool, migrations.FS, cfg, slog.New(slog.DiscardHandler)))

	pools[schema] = pool
	return pool
}
