package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/sunset-go/internal/repository"
	"github.com/kirinyoku/sunset-go/internal/repository/storetest"
	"github.com/stretchr/testify/require"
)

// TestStore runs the shared store behaviour against a live server.
func TestStore(t *testing.T) {
	dsn := os.Getenv("SUNSET_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SUNSET_TEST_POSTGRES_DSN not set")
	}

	storetest.Run(t, func(t *testing.T) repository.Store {
		ctx := context.Background()

		pool, err := pgxpool.New(ctx, dsn)
		require.NoError(t, err)
		t.Cleanup(pool.Close)

		s, err := NewStore(ctx, pool)
		require.NoError(t, err)

		_, err = pool.Exec(ctx, `TRUNCATE kv_records`)
		require.NoError(t, err)

		return s
	})
}
