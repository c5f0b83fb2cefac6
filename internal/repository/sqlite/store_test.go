package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kirinyoku/sunset-go/internal/repository"
	"github.com/kirinyoku/sunset-go/internal/repository/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()

	s, err := New(context.Background(), Config{Path: path})
	require.NoError(t, err)

	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store {
		s := openStore(t, filepath.Join(t.TempDir(), "sunset.db"))
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "sunset.db")

	s := openStore(t, path)
	require.NoError(t, s.Set(ctx, repository.KeyUsers, []byte(`[{"id":1}]`)))
	require.NoError(t, s.Close())

	s = openStore(t, path)
	defer s.Close()

	got, err := s.Get(ctx, repository.KeyUsers)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(got))
}

func TestNew_EmptyPath(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}
