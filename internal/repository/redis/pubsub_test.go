package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/kirinyoku/sunset-go/internal/domain"
	"github.com/kirinyoku/sunset-go/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSitePubSub_Publish(t *testing.T) {
	db, mock := redismock.NewClientMock()
	p := NewSitePubSub(db)
	p.now = func() time.Time { return time.Unix(1767225600, 0) }

	site := domain.SiteUpdate{
		Title:    "SUNSET 2025",
		Price:    decimal.NewFromInt(25),
		Location: "Aveiro",
		Colors:   domain.Colors{Primary: "#667eea", Secondary: "#764ba2", Accent: "#ff6b6b"},
	}

	siteMsg, err := json.Marshal(SiteMessage{Type: MsgSiteUpdated, Site: &site, TsUnix: 1767225600})
	require.NoError(t, err)
	redeemMsg, err := json.Marshal(SiteMessage{Type: MsgTicketRedeemed, TicketID: "abc123", TsUnix: 1767225600})
	require.NoError(t, err)

	mock.ExpectPublish(repository.ChannelSiteChanged(), siteMsg).SetVal(1)
	mock.ExpectPublish(repository.ChannelSiteChanged(), redeemMsg).SetVal(0)

	require.NoError(t, p.PublishSiteUpdate(context.Background(), site))
	require.NoError(t, p.PublishTicketRedeemed(context.Background(), "abc123"))

	assert.NoError(t, mock.ExpectationsWereMet())
}
