package session

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/kirinyoku/sunset-go/internal/domain"
	"github.com/kirinyoku/sunset-go/internal/repository"
	"github.com/kirinyoku/sunset-go/internal/repository/memory"
	"github.com/kirinyoku/sunset-go/internal/service/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 11, 1, 18, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, repository.Store) {
	t.Helper()

	ctx := context.Background()
	store := memory.New()
	logger := slog.New(slog.DiscardHandler)

	creds := credentials.New(store, logger, credentials.Config{Hasher: credentials.LegacyHasher{}})
	_, err := creds.Seed(ctx, credentials.DefaultSeedUsers())
	require.NoError(t, err)

	return New(store, creds, logger, Config{Now: func() time.Time { return fixedNow }}), store
}

func TestCurrent_NobodyLoggedIn(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	sess, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)

	ok, err := svc.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.IsAdmin(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	sess, err := svc.Login(ctx, "admin@sunset.pt", "admin123")
	require.NoError(t, err)

	want := &domain.Session{
		UserID:    1,
		Name:      "Administrador",
		Email:     "admin@sunset.pt",
		Role:      domain.RoleAdmin,
		LoginTime: fixedNow,
	}
	assert.Equal(t, want, sess)

	cur, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, cur)

	ok, err := svc.IsAdmin(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLogin_ReplacesPreviousSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Login(ctx, "admin@sunset.pt", "admin123")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "user@sunset.pt", "user123")
	require.NoError(t, err)

	cur, err := svc.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, int64(2), cur.UserID)
	assert.Equal(t, domain.RoleUser, cur.Role)

	ok, err := svc.IsAdmin(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLogin_Failures(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	_, err := svc.Login(ctx, "user@sunset.pt", "user123")
	require.NoError(t, err)

	before, err := store.Get(ctx, repository.KeySession)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "admin@sunset.pt", "wrong")
	assert.ErrorIs(t, err, credentials.ErrWrongPassword)

	_, err = svc.Login(ctx, "nobody@sunset.pt", "admin123")
	assert.ErrorIs(t, err, credentials.ErrUserNotFound)

	after, err := store.Get(ctx, repository.KeySession)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRequireAdmin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.RequireAdmin(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = svc.Login(ctx, "user@sunset.pt", "user123")
	require.NoError(t, err)

	_, err = svc.RequireAdmin(ctx)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Login(ctx, "admin@sunset.pt", "admin123")
	require.NoError(t, err)

	sess, err := svc.RequireAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin@sunset.pt", sess.Email)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	require.NoError(t, svc.Logout(ctx), "logout without a session")

	_, err := svc.Login(ctx, "user@sunset.pt", "user123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx))

	sess, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestCurrent_CorruptRecord(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	require.NoError(t, store.Set(ctx, repository.KeySession, []byte(`{not json`)))

	_, err := svc.Current(ctx)
	assert.ErrorIs(t, err, repository.ErrCorruptRecord)
}
