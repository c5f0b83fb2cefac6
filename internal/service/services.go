package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirinyoku/sunset-go/internal/domain"
	"github.com/kirinyoku/sunset-go/internal/repository"
	"github.com/kirinyoku/sunset-go/internal/service/content"
	"github.com/kirinyoku/sunset-go/internal/service/credentials"
	"github.com/kirinyoku/sunset-go/internal/service/eventcfg"
	"github.com/kirinyoku/sunset-go/internal/service/ledger"
	"github.com/kirinyoku/sunset-go/internal/service/session"
)

// Publisher carries site changes and redemptions to whoever watches the site.
type Publisher interface {
	PublishSiteUpdate(ctx context.Context, site domain.SiteUpdate) error
	PublishTicketRedeemed(ctx context.Context, ticketID string) error
}

type Services struct {
	Credentials *credentials.Service
	Session     *session.Service
	Event       *eventcfg.Service
	Content     *content.Service
	Ledger      *ledger.Service

	seeds  []credentials.SeedUser
	logger *slog.Logger
}

type Config struct {
	Hasher credentials.Hasher
	// SeedUsers are created on Bootstrap when no user table exists.
	SeedUsers []credentials.SeedUser
	Now       func() time.Time
	NewID     func() string
}

func NewServices(store repository.Store, pub Publisher, logger *slog.Logger, cfg Config) *Services {
	creds := credentials.New(store, logger, credentials.Config{Hasher: cfg.Hasher, Now: cfg.Now})
	event := eventcfg.New(store, pub, logger)

	return &Services{
		Credentials: creds,
		Session:     session.New(store, creds, logger, session.Config{Now: cfg.Now}),
		Event:       event,
		Content:     content.New(store, logger),
		Ledger:      ledger.New(store, event, pub, logger, ledger.Config{Now: cfg.Now, NewID: cfg.NewID}),
		seeds:       cfg.SeedUsers,
		logger:      logger,
	}
}

// Bootstrap prepares a store for use: it seeds the initial users, stores the
// default event configuration and folds legacy ticket lists into the ledger.
// Each step leaves existing records alone, so it runs on every start.
func (s *Services) Bootstrap(ctx context.Context) error {
	const op = "service.Services.Bootstrap"

	if len(s.seeds) > 0 {
		if _, err := s.Credentials.Seed(ctx, s.seeds); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := s.Event.EnsureDefault(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.Ledger.Migrate(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
