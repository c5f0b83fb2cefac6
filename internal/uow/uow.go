package uow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kirinyoku/sunset-go/internal/repository"
)

// AfterCommit is a function that runs after a successful write.
type AfterCommit func(ctx context.Context)

// UoW represents a unit of work over one record of the store.
type UoW struct {
	store repository.Store
}

func NewUoW(store repository.Store) *UoW {
	return &UoW{store: store}
}

// Do runs fn as an atomic read-modify-write of the record at key. cur is nil
// when the key is absent. Hooks registered through after run once, in order,
// after the new value is stored. Hooks from attempts the store retried are
// discarded; nothing runs when fn fails or returns repository.ErrSkipWrite.
func (u *UoW) Do(
	ctx context.Context,
	key string,
	fn func(ctx context.Context, cur []byte, after func(AfterCommit)) ([]byte, error),
) error {
	var (
		hooks   []AfterCommit
		skipped bool
	)

	err := u.store.Update(ctx, key, func(cur []byte) ([]byte, error) {
		hooks = hooks[:0]
		skipped = false

		next, err := fn(ctx, cur, func(h AfterCommit) {
			hooks = append(hooks, h)
		})
		if errors.Is(err, repository.ErrSkipWrite) {
			skipped = true
		}
		return next, err
	})
	if err != nil {
		return err
	}

	if skipped {
		return nil
	}

	for _, h := range hooks {
		h(ctx)
	}

	return nil
}

// DoJSON is Do over a JSON record of type T. exists is false when the key
// was absent and cur is the zero value.
func DoJSON[T any](
	ctx context.Context,
	u *UoW,
	key string,
	fn func(ctx context.Context, cur T, exists bool, after func(AfterCommit)) (T, error),
) error {
	return u.Do(ctx, key, func(ctx context.Context, raw []byte, after func(AfterCommit)) ([]byte, error) {
		var cur T
		exists := raw != nil

		if exists {
			if err := json.Unmarshal(raw, &cur); err != nil {
				return nil, fmt.Errorf("%s: %w: %v", key, repository.ErrCorruptRecord, err)
			}
		}

		next, err := fn(ctx, cur, exists, after)
		if err != nil {
			return nil, err
		}

		return json.Marshal(next)
	})
}
