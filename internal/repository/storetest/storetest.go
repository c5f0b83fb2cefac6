// Package storetest holds the behaviour every repository.Store backend must
// share. Backend packages run it from their own tests.
package storetest

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/kirinyoku/sunset-go/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a fresh, empty store returned by open for every subtest.
func Run(t *testing.T, open func(t *testing.T) repository.Store) {
	t.Run("get missing", func(t *testing.T) {
		s := open(t)

		_, err := s.Get(context.Background(), "sunset_missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("set get overwrite", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		require.NoError(t, s.Set(ctx, "sunset_a", []byte(`{"v":1}`)))
		got, err := s.Get(ctx, "sunset_a")
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":1}`, string(got))

		require.NoError(t, s.Set(ctx, "sunset_a", []byte(`{"v":2}`)))
		got, err = s.Get(ctx, "sunset_a")
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":2}`, string(got))
	})

	t.Run("returned value is a copy", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		require.NoError(t, s.Set(ctx, "sunset_a", []byte(`[1]`)))
		got, err := s.Get(ctx, "sunset_a")
		require.NoError(t, err)
		got[0] = 'x'

		again, err := s.Get(ctx, "sunset_a")
		require.NoError(t, err)
		assert.Equal(t, `[1]`, string(again))
	})

	t.Run("delete", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		require.NoError(t, s.Set(ctx, "sunset_a", []byte(`1`)))
		require.NoError(t, s.Delete(ctx, "sunset_a"))
		require.NoError(t, s.Delete(ctx, "sunset_a"))

		_, err := s.Get(ctx, "sunset_a")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("update absent then present", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		var seen [][]byte
		fn := func(cur []byte) ([]byte, error) {
			seen = append(seen, cur)
			n := 0
			if cur != nil {
				var err error
				n, err = strconv.Atoi(string(cur))
				if err != nil {
					return nil, err
				}
			}
			return []byte(strconv.Itoa(n + 1)), nil
		}

		require.NoError(t, s.Update(ctx, "sunset_n", fn))
		require.NoError(t, s.Update(ctx, "sunset_n", fn))

		got, err := s.Get(ctx, "sunset_n")
		require.NoError(t, err)
		assert.Equal(t, "2", string(got))
		require.NotEmpty(t, seen)
		assert.Nil(t, seen[0])
	})

	t.Run("update skip write", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		err := s.Update(ctx, "sunset_absent", func(cur []byte) ([]byte, error) {
			return nil, repository.ErrSkipWrite
		})
		require.NoError(t, err)

		_, err = s.Get(ctx, "sunset_absent")
		assert.ErrorIs(t, err, repository.ErrNotFound)

		require.NoError(t, s.Set(ctx, "sunset_a", []byte(`"keep"`)))
		err = s.Update(ctx, "sunset_a", func(cur []byte) ([]byte, error) {
			return []byte(`"lost"`), repository.ErrSkipWrite
		})
		require.NoError(t, err)

		got, err := s.Get(ctx, "sunset_a")
		require.NoError(t, err)
		assert.Equal(t, `"keep"`, string(got))
	})

	t.Run("update error leaves record", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		boom := errors.New("boom")

		require.NoError(t, s.Set(ctx, "sunset_a", []byte(`"keep"`)))
		err := s.Update(ctx, "sunset_a", func(cur []byte) ([]byte, error) {
			return []byte(`"lost"`), boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := s.Get(ctx, "sunset_a")
		require.NoError(t, err)
		assert.Equal(t, `"keep"`, string(got))
	})

	t.Run("keys by prefix sorted", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		for _, k := range []string{"sunset_tickets_2", "sunset_users", "sunset_tickets_10", "sunset_tickets_1"} {
			require.NoError(t, s.Set(ctx, k, []byte(`[]`)))
		}

		keys, err := s.Keys(ctx, "sunset_tickets_")
		require.NoError(t, err)
		assert.Equal(t, []string{"sunset_tickets_1", "sunset_tickets_10", "sunset_tickets_2"}, keys)

		keys, err = s.Keys(ctx, "nothing_")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("concurrent updates do not interleave", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		const workers = 8
		var wg sync.WaitGroup
		errs := make(chan error, workers)

		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- s.Update(ctx, "sunset_counter", func(cur []byte) ([]byte, error) {
					n := 0
					if cur != nil {
						n, _ = strconv.Atoi(string(cur))
					}
					return []byte(strconv.Itoa(n + 1)), nil
				})
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		got, err := s.Get(ctx, "sunset_counter")
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(workers), string(got))
	})
}
