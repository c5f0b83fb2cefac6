package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirinyoku/sunset-go/internal/config"
	"github.com/kirinyoku/sunset-go/internal/notify"
	"github.com/kirinyoku/sunset-go/internal/postgres"
	"github.com/kirinyoku/sunset-go/internal/redis"
	"github.com/kirinyoku/sunset-go/internal/repository"
	"github.com/kirinyoku/sunset-go/internal/repository/memory"
	postgresrepo "github.com/kirinyoku/sunset-go/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/sunset-go/internal/repository/redis"
	"github.com/kirinyoku/sunset-go/internal/repository/sqlite"
	"github.com/kirinyoku/sunset-go/internal/service"
	"github.com/kirinyoku/sunset-go/internal/service/credentials"
	"golang.org/x/sync/errgroup"
)

// ErrWatchUnavailable is returned by Watch when the store has no channel to
// carry notifications.
var ErrWatchUnavailable = errors.New("watch needs the redis store")

type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    repository.Store
	pubsub   *redisrepo.SitePubSub
	Services *service.Services
}

// New opens the configured store, wires the services over it and bootstraps
// it. The caller must Close the returned App.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	if err := a.init(ctx); err != nil {
		_ = a.store.Close()
		return nil, err
	}

	return a, nil
}

// NewWithStore is New over an already open store. The App owns store from
// then on and closes it on Close.
func NewWithStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, store repository.Store) (*App, error) {
	a := &App{cfg: cfg, logger: logger, store: store}

	if err := a.init(ctx); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *App) init(ctx context.Context) error {
	hasher, err := credentials.HasherByName(a.cfg.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to select password hash: %w", err)
	}

	var pub service.Publisher = notify.NewLogPublisher(a.logger)
	if a.pubsub != nil {
		pub = a.pubsub
	}

	var seeds []credentials.SeedUser
	if a.cfg.SeedUsers {
		seeds = credentials.DefaultSeedUsers()
	}

	a.Services = service.NewServices(a.store, pub, a.logger, service.Config{
		Hasher:    hasher,
		SeedUsers: seeds,
	})

	if err := a.Services.Bootstrap(ctx); err != nil {
		return fmt.Errorf("failed to bootstrap store: %w", err)
	}

	return nil
}

func (a *App) openStore(ctx context.Context) error {
	switch a.cfg.Store {
	case config.StoreMemory:
		a.store = memory.New()

	case config.StoreSQLite:
		st, err := sqlite.New(ctx, sqlite.Config{Path: a.cfg.SQLite.Path})
		if err != nil {
			return fmt.Errorf("failed to initialize sqlite: %w", err)
		}
		a.store = st

	case config.StoreRedis:
		rdb, err := redis.New(ctx, redis.Config{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		a.store = redisrepo.New(rdb)
		a.pubsub = redisrepo.NewSitePubSub(rdb)

	case config.StorePostgres:
		pool, err := postgres.New(ctx, postgres.Config{DSN: a.cfg.Postgres.DSN()})
		if err != nil {
			return fmt.Errorf("failed to initialize postgres: %w", err)
		}
		st, err := postgresrepo.NewStore(ctx, pool)
		if err != nil {
			pool.Close()
			return fmt.Errorf("failed to initialize postgres store: %w", err)
		}
		a.store = st

	default:
		return fmt.Errorf("unknown store %q", a.cfg.Store)
	}

	a.logger.Debug("store opened", "backend", a.cfg.Store)

	return nil
}

// Store is the backend the services run on.
func (a *App) Store() repository.Store {
	return a.store
}

func (a *App) Close() error {
	return a.store.Close()
}

// Watch logs every site notification until ctx is done or the process
// receives SIGINT or SIGTERM. handler, when set, also sees each message.
func (a *App) Watch(ctx context.Context, handler func(ctx context.Context, msg redisrepo.SiteMessage)) error {
	if a.pubsub == nil {
		return ErrWatchUnavailable
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()

		a.logger.Info("watching site changes", "addr", a.cfg.Redis.Addr)

		err := a.pubsub.Subscribe(gCtx, func(ctx context.Context, msg redisrepo.SiteMessage) {
			a.logger.InfoContext(ctx, "site notification", "type", msg.Type, "ticket_id", msg.TicketID, "ts_unix", msg.TsUnix)
			if handler != nil {
				handler(ctx, msg)
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("subscription failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("stopping watch")
		return nil
	})

	return g.Wait()
}
