package eventcfg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/kirinyoku/sunset-go/internal/domain"
	"github.com/kirinyoku/sunset-go/internal/repository"
	"github.com/kirinyoku/sunset-go/internal/uow"
	"github.com/microcosm-cc/bluemonday"
)

// Publisher pushes a saved configuration to the public site.
type Publisher interface {
	PublishSiteUpdate(ctx context.Context, site domain.SiteUpdate) error
}

type Service struct {
	store    repository.Store
	uow      *uow.UoW
	pub      Publisher
	validate *validator.Validate
	policy   *bluemonday.Policy
	logger   *slog.Logger
}

func New(store repository.Store, pub Publisher, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		uow:      uow.NewUoW(store),
		pub:      pub,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		policy:   bluemonday.StrictPolicy(),
		logger:   logger,
	}
}

// Get returns the stored configuration. Fields missing from the stored record
// take their default value; an absent or undecodable record yields Default().
func (s *Service) Get(ctx context.Context) (*domain.EventConfig, error) {
	const op = "service.eventcfg.Get"

	raw, err := s.store.Get(ctx, repository.KeyEventData)
	if errors.Is(err, repository.ErrNotFound) {
		cfg := Default()
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cfg, err := decodeConfig(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "event configuration unreadable, using defaults", "error", err)
	}

	return &cfg, nil
}

// EnsureDefault stores Default() when there is no configuration record yet.
func (s *Service) EnsureDefault(ctx context.Context) error {
	const op = "service.eventcfg.EnsureDefault"

	err := s.store.Update(ctx, repository.KeyEventData, func(cur []byte) ([]byte, error) {
		if cur != nil {
			return nil, repository.ErrSkipWrite
		}
		return json.Marshal(Default())
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Set replaces the whole configuration. After the write the site update is
// stored and published.
//
// Returns:
//   - error: eventcfg.ErrInvalidConfig if cfg fails validation.
func (s *Service) Set(ctx context.Context, cfg domain.EventConfig) error {
	const op = "service.eventcfg.Set"

	if err := s.modify(ctx, func(cur *domain.EventConfig) error {
		*cur = cfg
		return nil
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Service) SetColors(ctx context.Context, colors domain.Colors) (*domain.EventConfig, error) {
	const op = "service.eventcfg.SetColors"

	var out domain.EventConfig
	if err := s.modify(ctx, func(cur *domain.EventConfig) error {
		cur.Colors = colors
		out = *cur
		return nil
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// AddProgramItem appends item to the program, or NewProgramItem() when item
// is empty.
func (s *Service) AddProgramItem(ctx context.Context, item domain.ProgramItem) (*domain.EventConfig, error) {
	const op = "service.eventcfg.AddProgramItem"

	if item == (domain.ProgramItem{}) {
		item = NewProgramItem()
	}

	var out domain.EventConfig
	if err := s.modify(ctx, func(cur *domain.EventConfig) error {
		cur.Program = append(cur.Program, item)
		out = *cur
		return nil
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// UpdateProgramItem overwrites the non-empty fields of item at index.
//
// Returns:
//   - error: eventcfg.ErrIndexOutOfRange if index is not in the program.
func (s *Service) UpdateProgramItem(ctx context.Context, index int, item domain.ProgramItem) (*domain.EventConfig, error) {
	const op = "service.eventcfg.UpdateProgramItem"

	var out domain.EventConfig
	if err := s.modify(ctx, func(cur *domain.EventConfig) error {
		if index < 0 || index >= len(cur.Program) {
			return ErrIndexOutOfRange
		}

		p := &cur.Program[index]
		p.Icon = orDefault(item.Icon, p.Icon)
		p.Title = orDefault(item.Title, p.Title)
		p.Description = orDefault(item.Description, p.Description)
		p.Time = orDefault(item.Time, p.Time)

		out = *cur
		return nil
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// RemoveProgramItem deletes the item at index, keeping the order of the rest.
//
// Returns:
//   - error: eventcfg.ErrIndexOutOfRange if index is not in the program.
func (s *Service) RemoveProgramItem(ctx context.Context, index int) (*domain.EventConfig, error) {
	const op = "service.eventcfg.RemoveProgramItem"

	var out domain.EventConfig
	if err := s.modify(ctx, func(cur *domain.EventConfig) error {
		if index < 0 || index >= len(cur.Program) {
			return ErrIndexOutOfRange
		}

		cur.Program = append(cur.Program[:index:index], cur.Program[index+1:]...)
		out = *cur
		return nil
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// SiteUpdate returns the last propagated site update, if any.
func (s *Service) SiteUpdate(ctx context.Context) (*domain.SiteUpdate, error) {
	const op = "service.eventcfg.SiteUpdate"

	site, ok, err := repository.GetJSON[domain.SiteUpdate](ctx, s.store, repository.KeyUpdateScript)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !ok {
		return nil, nil
	}

	return &site, nil
}

// modify is the read-modify-write shared by every save. fn sees the current
// configuration with defaults filled in.
func (s *Service) modify(ctx context.Context, fn func(cur *domain.EventConfig) error) error {
	return s.uow.Do(ctx, repository.KeyEventData, func(
		ctx context.Context,
		raw []byte,
		after func(uow.AfterCommit),
	) ([]byte, error) {
		cfg := Default()
		if raw != nil {
			var err error
			if cfg, err = decodeConfig(raw); err != nil {
				s.logger.WarnContext(ctx, "event configuration unreadable, editing defaults", "error", err)
			}
		}

		if err := fn(&cfg); err != nil {
			return nil, err
		}

		if err := s.check(cfg); err != nil {
			return nil, err
		}

		after(func(ctx context.Context) {
			s.saved(ctx, cfg)
		})

		return json.Marshal(cfg)
	})
}

func (s *Service) check(cfg domain.EventConfig) error {
	if err := s.validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if cfg.Price.IsNegative() {
		return fmt.Errorf("%w: negative price", ErrInvalidConfig)
	}

	return nil
}

// saved stores and publishes the site update for cfg. Failures are logged;
// the configuration itself is already written.
func (s *Service) saved(ctx context.Context, cfg domain.EventConfig) {
	s.logger.InfoContext(ctx, "event configuration saved", "title", cfg.Title, "program_items", len(cfg.Program))

	site := s.siteUpdate(cfg)

	if err := repository.SetJSON(ctx, s.store, repository.KeyUpdateScript, site); err != nil {
		s.logger.ErrorContext(ctx, "failed to store site update", "error", err)
	}

	if s.pub != nil {
		if err := s.pub.PublishSiteUpdate(ctx, site); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish site update", "error", err)
		}
	}
}

// siteUpdate strips markup from the text the public page interpolates.
func (s *Service) siteUpdate(cfg domain.EventConfig) domain.SiteUpdate {
	return domain.SiteUpdate{
		Title:    s.plainText(cfg.Title),
		Subtitle: s.plainText(cfg.Subtitle),
		Price:    cfg.Price,
		Location: s.plainText(cfg.Location),
		Colors:   cfg.Colors,
	}
}

// plainText drops markup and leaves the remaining text unescaped, since the
// page assigns it as text content.
func (s *Service) plainText(v string) string {
	return html.UnescapeString(s.policy.Sanitize(v))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
