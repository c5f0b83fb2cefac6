package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirinyoku/sunset-go/internal/domain"
	"github.com/kirinyoku/sunset-go/internal/repository"
	"github.com/kirinyoku/sunset-go/internal/uow"
)

type Config struct {
	Hasher Hasher
	Now    func() time.Time
}

type Service struct {
	store  repository.Store
	uow    *uow.UoW
	hasher Hasher
	logger *slog.Logger
	now    func() time.Time
}

func New(store repository.Store, logger *slog.Logger, cfg Config) *Service {
	if cfg.Hasher == nil {
		cfg.Hasher = Argon2Hasher{}
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		store:  store,
		uow:    uow.NewUoW(store),
		hasher: cfg.Hasher,
		logger: logger,
		now:    cfg.Now,
	}
}

// Register creates a user with role "user".
//
// Parameters:
//   - ctx: request-scoped context.
//   - name: display name, stored as given.
//   - email: login email; compared case-sensitively.
//   - password: plain password, at least MinPasswordLength characters.
//
// Returns:
//   - *domain.User: the stored user.
//   - error: credentials.ErrInvalidEmail, credentials.ErrWeakPassword or
//     credentials.ErrEmailTaken.
func (s *Service) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	const op = "service.credentials.Register"

	if !ValidateEmail(email) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if !ValidatePassword(password) {
		return nil, fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var created domain.User

	err = uow.DoJSON(ctx, s.uow, repository.KeyUsers, func(
		ctx context.Context,
		users []domain.User,
		_ bool,
		after func(uow.AfterCommit),
	) ([]domain.User, error) {
		if findByEmail(users, email) != nil {
			return nil, ErrEmailTaken
		}

		created = domain.User{
			ID:           nextUserID(users),
			Name:         name,
			Email:        email,
			PasswordHash: digest,
			Role:         domain.RoleUser,
			Created:      s.now().UTC(),
		}

		after(func(ctx context.Context) {
			s.logger.InfoContext(ctx, "user registered", "user_id", created.ID, "email", created.Email)
		})

		return append(users, created), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &created, nil
}

// Authenticate checks an email/password pair. It never writes.
//
// Returns:
//   - *domain.User: the matching user.
//   - error: credentials.ErrUserNotFound or credentials.ErrWrongPassword.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	const op = "service.credentials.Authenticate"

	u, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("%s: user %d: %w", op, u.ID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrWrongPassword)
	}

	return u, nil
}

func (s *Service) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const op = "service.credentials.FindByEmail"

	users, err := s.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	u := findByEmail(users, email)
	if u == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	return u, nil
}

// Users returns every registered user in creation order.
func (s *Service) Users(ctx context.Context) ([]domain.User, error) {
	const op = "service.credentials.Users"

	users, _, err := repository.GetJSON[[]domain.User](ctx, s.store, repository.KeyUsers)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

// SeedUser is an account created on first start.
type SeedUser struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// DefaultSeedUsers are the accounts the site shipped with.
func DefaultSeedUsers() []SeedUser {
	return []SeedUser{
		{Name: "Administrador", Email: "admin@sunset.pt", Password: "admin123", Role: domain.RoleAdmin},
		{Name: "Utilizador Teste", Email: "user@sunset.pt", Password: "user123", Role: domain.RoleUser},
	}
}

// Seed stores seeds as the initial user table. It does nothing when a user
// table already exists, even an empty one.
//
// Returns:
//   - bool: true when the seeds were written.
func (s *Service) Seed(ctx context.Context, seeds []SeedUser) (bool, error) {
	const op = "service.credentials.Seed"

	if _, err := s.store.Get(ctx, repository.KeyUsers); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	users := make([]domain.User, 0, len(seeds))
	for i, sd := range seeds {
		digest, err := s.hasher.Hash(sd.Password)
		if err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}

		users = append(users, domain.User{
			ID:           int64(i + 1),
			Name:         sd.Name,
			Email:        sd.Email,
			PasswordHash: digest,
			Role:         sd.Role,
			Created:      now,
		})
	}

	written := false
	err := uow.DoJSON(ctx, s.uow, repository.KeyUsers, func(
		ctx context.Context,
		_ []domain.User,
		exists bool,
		after func(uow.AfterCommit),
	) ([]domain.User, error) {
		if exists {
			return nil, repository.ErrSkipWrite
		}

		after(func(ctx context.Context) {
			written = true
			s.logger.InfoContext(ctx, "seeded users", "count", len(users))
		})

		return users, nil
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return written, nil
}

func findByEmail(users []domain.User, email string) *domain.User {
	for i := range users {
		if users[i].Email == email {
			u := users[i]
			return &u
		}
	}
	return nil
}

// nextUserID is one past the largest id. With no deletions this equals
// count+1, the numbering the site always used.
func nextUserID(users []domain.User) int64 {
	var top int64
	for _, u := range users {
		if u.ID > top {
			top = u.ID
		}
	}
	return top + 1
}
