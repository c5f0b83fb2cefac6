package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kirinyoku/sunset-go/internal/repository"
)

// Store keeps records in process memory. Values are copied on the way in and
// out so callers never share a backing array with the store.
type Store struct {
	mu     sync.Mutex
	data   map[string][]byte
	closed bool
}

func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	const op = "memory.Store.Get"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrClosed)
	}

	v, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return clone(v), nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	const op = "memory.Store.Set"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("%s:%w", op, repository.ErrClosed)
	}

	s.data[key] = clone(value)
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	const op = "memory.Store.Delete"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("%s:%w", op, repository.ErrClosed)
	}

	delete(s.data, key)
	return nil
}

func (s *Store) Update(
	_ context.Context,
	key string,
	fn func(cur []byte) ([]byte, error),
) error {
	const op = "memory.Store.Update"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("%s:%w", op, repository.ErrClosed)
	}

	var cur []byte
	if v, ok := s.data[key]; ok {
		cur = clone(v)
	}

	next, err := fn(cur)
	if errors.Is(err, repository.ErrSkipWrite) {
		return nil
	}
	if err != nil {
		return err
	}

	s.data[key] = clone(next)
	return nil
}

func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	const op = "memory.Store.Keys"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrClosed)
	}

	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	return keys, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
