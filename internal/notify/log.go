package notify

import (
	"context"
	"log/slog"

	"github.com/kirinyoku/sunset-go/internal/domain"
)

// LogPublisher reports site changes to the log. It is used when no redis
// backend is configured to carry them.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishSiteUpdate(ctx context.Context, site domain.SiteUpdate) error {
	p.logger.InfoContext(ctx, "site update",
		"title", site.Title,
		"subtitle", site.Subtitle,
		"price", site.Price.String(),
		"location", site.Location,
		"primary", site.Colors.Primary,
	)
	return nil
}

func (p *LogPublisher) PublishTicketRedeemed(ctx context.Context, ticketID string) error {
	p.logger.InfoContext(ctx, "ticket redeemed notification", "ticket_id", ticketID)
	return nil
}
