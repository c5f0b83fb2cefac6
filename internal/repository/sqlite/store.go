package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirinyoku/sunset-go/internal/repository"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv_records (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
)`

type Config struct {
	Path string
}

// Store keeps records in a single SQLite table. One connection is used so
// updates from this process are serialized; other processes wait on the
// busy timeout.
type Store struct {
	db *sql.DB
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	const op = "sqlite.New"

	if cfg.Path == "" {
		return nil, fmt.Errorf("%s: empty path", op)
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
	}

	dsn := "file:" + cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "sqlite.Store.Get"

	var v []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv_records WHERE key = ?`, key,
	).Scan(&v)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return v, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	const op = "sqlite.Store.Set"

	return wrapDBErr(op, upsert(ctx, s.db, key, value))
}

func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "sqlite.Store.Delete"

	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_records WHERE key = ?`, key)
	return wrapDBErr(op, err)
}

func (s *Store) Update(
	ctx context.Context,
	key string,
	fn func(cur []byte) ([]byte, error),
) error {
	const op = "sqlite.Store.Update"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBErr(op, err)
	}

	defer tx.Rollback()

	var cur []byte
	err = tx.QueryRowContext(ctx,
		`SELECT value FROM kv_records WHERE key = ?`, key,
	).Scan(&cur)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return wrapDBErr(op, err)
	}

	next, err := fn(cur)
	if errors.Is(err, repository.ErrSkipWrite) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := upsert(ctx, tx, key, next); err != nil {
		return wrapDBErr(op, err)
	}

	if err := tx.Commit(); err != nil {
		return wrapDBErr(op, fmt.Errorf("commit: %w", err))
	}

	return nil
}

func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	const op = "sqlite.Store.Keys"

	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM kv_records WHERE substr(key, 1, ?) = ? ORDER BY key`,
		len(prefix), prefix,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, wrapDBErr(op, err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return keys, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO kv_records(key, value, updated_at)
		 VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value,
	)
	return err
}

// wrapDBErr maps driver errors to repository errors and wraps them with the
// operation name.
func wrapDBErr(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	if strings.Contains(err.Error(), "database is closed") {
		return fmt.Errorf("%s:%w", op, repository.ErrClosed)
	}

	return fmt.Errorf("%s:%w", op, err)
}
