package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kirinyoku/sunset-go/internal/repository"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"wrapped serialization failure", fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40001"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"plain error", errors.New("connection refused"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestWrapDBErr(t *testing.T) {
	const op = "postgres.Store.Get"

	assert.NoError(t, wrapDBErr(op, nil))

	err := wrapDBErr(op, pgx.ErrNoRows)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Contains(t, err.Error(), op)

	err = wrapDBErr(op, fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}))
	assert.ErrorIs(t, err, repository.ErrConflict)

	cause := &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}
	err = wrapDBErr(op, cause)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, repository.ErrNotFound)
	assert.NotErrorIs(t, err, repository.ErrConflict)
	assert.Contains(t, err.Error(), op)
}
