package pg_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/pg"
	"github.com/dmitrymomot/sessionkit/pkg/session/sessiontest"
)

func TestSessionStore_Contract(t *testing.T) {
	url := os.Getenv("PG_TEST_URL")
	if url == "" {
		t.Skip("PG_TEST_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg := pg.Config{
		ConnectionString: url,
		MaxOpenConns:     8,
		RetryAttempts:    1,
		RetryInterval:    time.Second,
		MigrationsTable:  "schema_migrations",
	}

	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.Healthcheck(pool)(ctx))
	require.NoError(t, pg.Migrate(ctx, pool, cfg, slog.New(slog.NewTextHandler(io.Discard, nil))))

	sessiontest.RunStoreContract(t, pg.NewSessionStore(pool))
}

func TestWithTable(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"sessions"`, pg.NewSessionStore(nil).Table())
	assert.Equal(t, `"app_sessions"`, pg.NewSessionStore(nil, pg.WithTable("app_sessions")).Table())
	assert.Equal(t, `"bad""name"`, pg.NewSessionStore(nil, pg.WithTable(`bad"name`)).Table())
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	assert.True(t, pg.IsDuplicateKeyError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, pg.IsDuplicateKeyError(&pgconn.PgError{Code: "23503"}))
	assert.False(t, pg.IsDuplicateKeyError(nil))
	assert.False(t, pg.IsNotFoundError(nil))
}

func TestConnect_EmptyConnectionString(t *testing.T) {
	t.Parallel()

	_, err := pg.Connect(context.Background(), pg.Config{})
	assert.ErrorIs(t, err, pg.ErrEmptyConnectionString)
}

func TestMigrate_MissingDir(t *testing.T) {
	t.Parallel()

	err := pg.Migrate(context.Background(), nil, pg.Config{MigrationsPath: "/does/not/exist"}, slog.Default())
	assert.ErrorIs(t, err, pg.ErrMigrationsDirNotFound)
}
