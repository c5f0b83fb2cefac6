package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Store is a string-keyed record store. Records are opaque bytes; the JSON
// helpers below give them types. Atomicity holds per key only.
type Store interface {
	// Get returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete is a no-op for absent keys.
	Delete(ctx context.Context, key string) error
	// Update runs fn against the current value (nil when absent) and stores
	// its result, without interleaving another Update on the same key.
	// If fn returns ErrSkipWrite nothing is written and Update returns nil.
	Update(ctx context.Context, key string, fn func(cur []byte) ([]byte, error)) error
	// Keys lists the keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var zero T

	b, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}

	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return zero, false, fmt.Errorf("%s: %w: %v", key, ErrCorruptRecord, err)
	}

	return out, true, nil
}

func SetJSON(ctx context.Context, s Store, key string, val any) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return s.Set(ctx, key, b)
}
