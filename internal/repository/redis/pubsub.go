package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kirinyoku/sunset-go/internal/domain"
	"github.com/kirinyoku/sunset-go/internal/repository"
	"github.com/redis/go-redis/v9"
)

const (
	MsgSiteUpdated    = "site_updated"
	MsgTicketRedeemed = "ticket_redeemed"
)

// SiteMessage is the payload sent on the site channel.
type SiteMessage struct {
	Type     string             `json:"type"`
	Site     *domain.SiteUpdate `json:"site,omitempty"`
	TicketID string             `json:"ticket_id,omitempty"`
	TsUnix   int64              `json:"ts_unix"`
}

type SitePubSub struct {
	rdb     *redis.Client
	channel string
	now     func() time.Time
}

func NewSitePubSub(rdb *redis.Client) *SitePubSub {
	return &SitePubSub{
		rdb:     rdb,
		channel: repository.ChannelSiteChanged(),
		now:     time.Now,
	}
}

func (p *SitePubSub) PublishSiteUpdate(ctx context.Context, site domain.SiteUpdate) error {
	return p.publish(ctx, SiteMessage{Type: MsgSiteUpdated, Site: &site})
}

func (p *SitePubSub) PublishTicketRedeemed(ctx context.Context, ticketID string) error {
	return p.publish(ctx, SiteMessage{Type: MsgTicketRedeemed, TicketID: ticketID})
}

func (p *SitePubSub) publish(ctx context.Context, msg SiteMessage) error {
	msg.TsUnix = p.now().Unix()

	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

// Subscribe blocks, calling handler for every well-formed message, until ctx
// is done or the subscription is closed.
func (p *SitePubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, msg SiteMessage)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg SiteMessage
			if err := json.Unmarshal([]byte(m.Payload), &msg); err == nil && msg.Type != "" {
				handler(ctx, msg)
			}
		}
	}
}
