package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kirinyoku/sunset-go/internal/repository"
	"github.com/redis/go-redis/v9"
)

const defaultUpdateRetries = 10

// Store keeps each record as a plain string value. Update uses optimistic
// WATCH/MULTI and retries when another client touched the key in between.
type Store struct {
	rdb     *redis.Client
	retries int
}

func New(client *redis.Client) *Store {
	return &Store{rdb: client, retries: defaultUpdateRetries}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "redisrepo.Store.Get"

	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return b, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	const op = "redisrepo.Store.Set"

	if err := s.rdb.Set(ctx, key, string(value), 0).Err(); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "redisrepo.Store.Delete"

	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// Update may call fn more than once when the key is contended.
func (s *Store) Update(
	ctx context.Context,
	key string,
	fn func(cur []byte) ([]byte, error),
) error {
	const op = "redisrepo.Store.Update"

	txf := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			cur = nil
		} else if err != nil {
			return err
		}

		next, err := fn(cur)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, string(next), 0)
			return nil
		})
		return err
	}

	for i := 0; i < s.retries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, repository.ErrSkipWrite):
			return nil
		default:
			return err
		}
	}

	return fmt.Errorf("%s:%w", op, repository.ErrConflict)
}

func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	const op = "redisrepo.Store.Keys"

	var (
		keys   []string
		cursor uint64
	)

	for {
		batch, next, err := s.rdb.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}

		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
