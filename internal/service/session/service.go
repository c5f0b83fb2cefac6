package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirinyoku/sunset-go/internal/domain"
	"github.com/kirinyoku/sunset-go/internal/repository"
)

// Authenticator is the part of the credential service a login needs.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
}

type Config struct {
	Now func() time.Time
}

// Service manages the single current session. There is one slot for the
// whole store, not one per user: a login replaces whoever was logged in.
type Service struct {
	store  repository.Store
	auth   Authenticator
	logger *slog.Logger
	now    func() time.Time
}

func New(store repository.Store, auth Authenticator, logger *slog.Logger, cfg Config) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		store:  store,
		auth:   auth,
		logger: logger,
		now:    cfg.Now,
	}
}

// Login authenticates and stores a new session over any previous one.
// Credential errors are returned unchanged in the chain, so callers can test
// for credentials.ErrUserNotFound and credentials.ErrWrongPassword.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	const op = "service.session.Login"

	u, err := s.auth.Authenticate(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sess := domain.Session{
		UserID:    u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		LoginTime: s.now().UTC(),
	}

	if err := repository.SetJSON(ctx, s.store, repository.KeySession, sess); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.InfoContext(ctx, "session opened", "user_id", sess.UserID, "role", sess.Role)

	return &sess, nil
}

// Current returns the stored session, or nil when nobody is logged in.
// A session record that fails to decode is an error, not an empty slot.
func (s *Service) Current(ctx context.Context) (*domain.Session, error) {
	const op = "service.session.Current"

	sess, ok, err := repository.GetJSON[*domain.Session](ctx, s.store, repository.KeySession)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !ok {
		return nil, nil
	}

	return sess, nil
}

func (s *Service) IsAuthenticated(ctx context.Context) (bool, error) {
	sess, err := s.Current(ctx)
	if err != nil {
		return false, err
	}

	return sess != nil, nil
}

func (s *Service) IsAdmin(ctx context.Context) (bool, error) {
	sess, err := s.Current(ctx)
	if err != nil {
		return false, err
	}

	return sess != nil && sess.Role == domain.RoleAdmin, nil
}

// RequireAdmin returns the current session when it belongs to an admin.
//
// Returns:
//   - error: session.ErrNotAuthenticated without a session.
//   - error: session.ErrForbidden for a non-admin session.
func (s *Service) RequireAdmin(ctx context.Context) (*domain.Session, error) {
	const op = "service.session.RequireAdmin"

	sess, err := s.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if sess == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
	}

	if sess.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	return sess, nil
}

// Logout removes the session record. It succeeds when there is none.
func (s *Service) Logout(ctx context.Context) error {
	const op = "service.session.Logout"

	if err := s.store.Delete(ctx, repository.KeySession); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.logger.InfoContext(ctx, "session closed")

	return nil
}
