package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/sunset-go/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv_records (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const defaultUpdateRetries = 10

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool    *pgxpool.Pool
	retries int
}

func NewStore(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	const op = "postgres.NewStore"

	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &Store{
		pool:    pool,
		retries: defaultUpdateRetries,
	}, nil
}

func (s *Store) RunTx(
	ctx context.Context,
	opts *pgx.TxOptions,
	fn func(ctx context.Context, tx DB) error,
) error {
	txOpts := pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	}

	if opts != nil {
		txOpts.IsoLevel = opts.IsoLevel
		txOpts.AccessMode = opts.AccessMode
		txOpts.DeferrableMode = opts.DeferrableMode
	}

	tx, err := s.pool.BeginTx(ctx, txOpts)
	if err != nil {
		return err
	}

	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "postgres.Store.Get"

	var v []byte
	if err := s.pool.QueryRow(ctx,
		`SELECT value FROM kv_records WHERE key = $1`,
		key,
	).Scan(&v); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return v, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	const op = "postgres.Store.Set"

	return wrapDBErr(op, upsert(ctx, s.pool, key, value))
}

func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "postgres.Store.Delete"

	_, err := s.pool.Exec(ctx, `DELETE FROM kv_records WHERE key = $1`, key)
	return wrapDBErr(op, err)
}

// Update locks the row for the duration of fn. Serialization failures are
// retried, so fn may run more than once.
func (s *Store) Update(
	ctx context.Context,
	key string,
	fn func(cur []byte) ([]byte, error),
) error {
	const op = "postgres.Store.Update"

	var err error
	for i := 0; i < s.retries; i++ {
		err = s.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
			var cur []byte
			err := tx.QueryRow(ctx,
				`SELECT value FROM kv_records WHERE key = $1 FOR UPDATE`,
				key,
			).Scan(&cur)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return err
			}

			next, err := fn(cur)
			if err != nil {
				return err
			}

			return upsert(ctx, tx, key, next)
		})
		if !IsRetryable(err) {
			break
		}
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrSkipWrite):
		return nil
	case IsRetryable(err):
		return fmt.Errorf("%s:%w", op, repository.ErrConflict)
	default:
		return wrapDBErr(op, err)
	}
}

func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	const op = "postgres.Store.Keys"

	rows, err := s.pool.Query(ctx,
		`SELECT key FROM kv_records WHERE starts_with(key, $1) ORDER BY key`,
		prefix,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return keys, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func upsert(ctx context.Context, db DB, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}

	_, err := db.Exec(ctx,
		`INSERT INTO kv_records(key, value, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	return err
}
