package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// EnvPrefix is prepended to every variable name.
const EnvPrefix = "SUNSET_"

type Config struct {
	Store        string `env:"STORE" envDefault:"sqlite"`
	PasswordHash string `env:"PASSWORD_HASH" envDefault:"argon2id"`
	SeedUsers    bool   `env:"SEED_USERS" envDefault:"true"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	SQLite   SQLiteConfig   `envPrefix:"SQLITE_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Postgres PostgresConfig `envPrefix:"POSTGRES_"`
}

type SQLiteConfig struct {
	Path string `env:"PATH" envDefault:"./data/sunset.db"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type PostgresConfig struct {
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	Name     string `env:"DB"`
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"5432"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
}

// DSN is the connection URL for pgxpool.
func (c PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + strconv.Itoa(c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// New reads the configuration from the environment, after loading a .env
// file from the working directory when there is one.
func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	cfg, err := parse(nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cfg, nil
}

// parse reads environ, or the process environment when environ is nil.
func parse(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix, Environment: environ}); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreMemory, StoreSQLite, StoreRedis:
	case StorePostgres:
		if c.Postgres.User == "" {
			return fmt.Errorf("missing %sPOSTGRES_USER", EnvPrefix)
		}
		if c.Postgres.Password == "" {
			return fmt.Errorf("missing %sPOSTGRES_PASSWORD", EnvPrefix)
		}
		if c.Postgres.Name == "" {
			return fmt.Errorf("missing %sPOSTGRES_DB", EnvPrefix)
		}
	default:
		return fmt.Errorf("invalid %sSTORE %q", EnvPrefix, c.Store)
	}

	switch c.PasswordHash {
	case "argon2id", "legacy":
	default:
		return fmt.Errorf("invalid %sPASSWORD_HASH %q", EnvPrefix, c.PasswordHash)
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid %sLOG_LEVEL %q", EnvPrefix, c.LogLevel)
	}
	return lvl, nil
}
