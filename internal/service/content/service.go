package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirinyoku/sunset-go/internal/domain"
	"github.com/kirinyoku/sunset-go/internal/repository"
)

// Service keeps the free-form public site content: the past-event summary and
// the social profile links.
type Service struct {
	store  repository.Store
	logger *slog.Logger
}

func New(store repository.Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func DefaultPastEvent() domain.PastEvent {
	return domain.PastEvent{
		Name:         "W PARTY",
		Location:     "CCD de Cacia, Aveiro",
		Participants: "+500 participantes",
		DJs:          "4 DJs",
		Rating:       "5/5 avaliação",
	}
}

func DefaultSocialLinks() domain.SocialLinks {
	return domain.SocialLinks{
		Instagram: "https://www.instagram.com/sunset2025aveiro",
		TikTok:    "https://www.tiktok.com/@sunset2025aveiro",
		Facebook:  "https://www.facebook.com/sunset2025aveiro",
	}
}

// PastEvent returns the stored summary with empty fields replaced by their
// defaults. The description has no default.
func (s *Service) PastEvent(ctx context.Context) (*domain.PastEvent, error) {
	const op = "service.content.PastEvent"

	pe, err := load[domain.PastEvent](ctx, s, repository.KeyPastEvent)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	def := DefaultPastEvent()
	pe.Name = orDefault(pe.Name, def.Name)
	pe.Location = orDefault(pe.Location, def.Location)
	pe.Participants = orDefault(pe.Participants, def.Participants)
	pe.DJs = orDefault(pe.DJs, def.DJs)
	pe.Rating = orDefault(pe.Rating, def.Rating)

	return &pe, nil
}

// SavePastEvent stores pe as given, empty fields included.
func (s *Service) SavePastEvent(ctx context.Context, pe domain.PastEvent) error {
	const op = "service.content.SavePastEvent"

	if err := repository.SetJSON(ctx, s.store, repository.KeyPastEvent, pe); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.logger.InfoContext(ctx, "past event saved", "name", pe.Name)

	return nil
}

func (s *Service) SocialLinks(ctx context.Context) (*domain.SocialLinks, error) {
	const op = "service.content.SocialLinks"

	sl, err := load[domain.SocialLinks](ctx, s, repository.KeySocialMedia)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	def := DefaultSocialLinks()
	sl.Instagram = orDefault(sl.Instagram, def.Instagram)
	sl.TikTok = orDefault(sl.TikTok, def.TikTok)
	sl.Facebook = orDefault(sl.Facebook, def.Facebook)

	return &sl, nil
}

func (s *Service) SaveSocialLinks(ctx context.Context, sl domain.SocialLinks) error {
	const op = "service.content.SaveSocialLinks"

	if err := repository.SetJSON(ctx, s.store, repository.KeySocialMedia, sl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.logger.InfoContext(ctx, "social links saved")

	return nil
}

// load reads a content record. An undecodable record reads as empty, so the
// caller's defaults apply.
func load[T any](ctx context.Context, s *Service, key string) (T, error) {
	v, _, err := repository.GetJSON[T](ctx, s.store, key)
	if errors.Is(err, repository.ErrCorruptRecord) {
		s.logger.WarnContext(ctx, "site content unreadable, using defaults", "key", key, "error", err)
		var zero T
		return zero, nil
	}

	return v, err
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
