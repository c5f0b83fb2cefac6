package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := parse(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "./data/sunset.db", cfg.SQLite.Path)
	assert.Equal(t, "argon2id", cfg.PasswordHash)
	assert.True(t, cfg.SeedUsers)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, "disable", cfg.Postgres.SSLMode)

	lvl, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)
}

func TestParse_CustomValues(t *testing.T) {
	cfg, err := parse(map[string]string{
		"SUNSET_STORE":         "redis",
		"SUNSET_REDIS_ADDR":    "cache:6380",
		"SUNSET_REDIS_DB":      "3",
		"SUNSET_PASSWORD_HASH": "legacy",
		"SUNSET_SEED_USERS":    "false",
		"SUNSET_LOG_LEVEL":     "debug",
	})
	require.NoError(t, err)

	assert.Equal(t, StoreRedis, cfg.Store)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "legacy", cfg.PasswordHash)
	assert.False(t, cfg.SeedUsers)

	lvl, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestParse_PostgresRequiresCredentials(t *testing.T) {
	_, err := parse(map[string]string{"SUNSET_STORE": "postgres"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUNSET_POSTGRES_USER")

	cfg, err := parse(map[string]string{
		"SUNSET_STORE":             "postgres",
		"SUNSET_POSTGRES_USER":     "sunset",
		"SUNSET_POSTGRES_PASSWORD": "p@ss word",
		"SUNSET_POSTGRES_DB":       "sunset",
		"SUNSET_POSTGRES_HOST":     "db",
	})
	require.NoError(t, err)
	assert.Equal(t, "postgres://sunset:p%40ss%20word@db:5432/sunset?sslmode=disable", cfg.Postgres.DSN())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
	}{
		{"unknown store", map[string]string{"SUNSET_STORE": "etcd"}},
		{"unknown hash", map[string]string{"SUNSET_PASSWORD_HASH": "md5"}},
		{"bad log level", map[string]string{"SUNSET_LOG_LEVEL": "loud"}},
		{"bad redis db", map[string]string{"SUNSET_REDIS_DB": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(tt.environ)
			assert.Error(t, err)
		})
	}
}
