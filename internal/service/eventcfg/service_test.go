package eventcfg

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/kirinyoku/sunset-go/internal/domain"
	"github.com/kirinyoku/sunset-go/internal/repository"
	"github.com/kirinyoku/sunset-go/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu    sync.Mutex
	sites []domain.SiteUpdate
	err   error
}

func (p *recordingPublisher) PublishSiteUpdate(_ context.Context, site domain.SiteUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sites = append(p.sites, site)
	return p.err
}

func (p *recordingPublisher) published() []domain.SiteUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]domain.SiteUpdate(nil), p.sites...)
}

func newTestService(t *testing.T) (*Service, repository.Store, *recordingPublisher) {
	t.Helper()

	store := memory.New()
	pub := &recordingPublisher{}

	return New(store, pub, slog.New(slog.DiscardHandler)), store, pub
}

func TestGet_Defaults(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	cfg, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestGet_MissingFieldsTakeDefaults(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	require.NoError(t, store.Set(ctx, repository.KeyEventData, []byte(`{"title":"Réveillon","price":30}`)))

	cfg, err := svc.Get(ctx)
	require.NoError(t, err)

	assert.Equal(t, "Réveillon", cfg.Title)
	assert.True(t, decimal.NewFromInt(30).Equal(cfg.Price))
	assert.Equal(t, Default().Subtitle, cfg.Subtitle)
	assert.Equal(t, Default().Colors, cfg.Colors)
	assert.Len(t, cfg.Program, 3)
}

func TestGet_CorruptRecordFallsBackToDefaults(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	require.NoError(t, store.Set(ctx, repository.KeyEventData, []byte(`{"title":`)))

	cfg, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestGet_StoredProgramReplacesDefaultProgram(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	require.NoError(t, store.Set(ctx, repository.KeyEventData, []byte(`{"title":"X","program":[{"title":"Only title"}]}`)))

	cfg, err := svc.Get(ctx)
	require.NoError(t, err)

	assert.Equal(t, "X", cfg.Title)
	assert.Equal(t, []domain.ProgramItem{{Title: "Only title"}}, cfg.Program)
	assert.Equal(t, Default().Location, cfg.Location)
}

func TestAddProgramItem_KeepsStoredItemsAsSaved(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	require.NoError(t, store.Set(ctx, repository.KeyEventData, []byte(`{"program":[{"icon":"🎤","title":"Karaoke"}]}`)))

	cfg, err := svc.AddProgramItem(ctx, domain.ProgramItem{})
	require.NoError(t, err)

	want := []domain.ProgramItem{{Icon: "🎤", Title: "Karaoke"}, NewProgramItem()}
	assert.Equal(t, want, cfg.Program)

	stored, ok, err := repository.GetJSON[domain.EventConfig](ctx, store, repository.KeyEventData)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, stored.Program)
}

func TestSet_StoresAndPublishesSiteUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)

	site, err := svc.SiteUpdate(ctx)
	require.NoError(t, err)
	assert.Nil(t, site)

	cfg := Default()
	cfg.Title = "<b>Réveillon</b> 2026"
	cfg.Location = "Praia da Barra<script>alert(1)</script>"
	cfg.Price = decimal.RequireFromString("27.50")

	require.NoError(t, svc.Set(ctx, cfg))

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "<b>Réveillon</b> 2026", got.Title)
	assert.True(t, cfg.Price.Equal(got.Price))

	site, err = svc.SiteUpdate(ctx)
	require.NoError(t, err)
	require.NotNil(t, site)
	assert.Equal(t, "Réveillon 2026", site.Title)
	assert.Equal(t, "Praia da Barra", site.Location)
	assert.Equal(t, cfg.Subtitle, site.Subtitle)
	assert.Equal(t, cfg.Colors, site.Colors)
	assert.True(t, cfg.Price.Equal(site.Price))

	sites := pub.published()
	require.Len(t, sites, 1)
	assert.Equal(t, "Réveillon 2026", sites[0].Title)
}

func TestSet_PublishFailureKeepsTheSave(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)
	pub.err = errors.New("redis down")

	cfg := Default()
	cfg.Title = "Réveillon"

	require.NoError(t, svc.Set(ctx, cfg))

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Réveillon", got.Title)
}

func TestSet_SiteUpdateKeepsPlainText(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)

	cfg := Default()
	cfg.Title = "Rock & Roll <i>Night</i>"
	cfg.Subtitle = "Fim de ano no \"Farol\""
	cfg.Location = "Bar D'Ouro"

	require.NoError(t, svc.Set(ctx, cfg))

	site, err := svc.SiteUpdate(ctx)
	require.NoError(t, err)
	require.NotNil(t, site)
	assert.Equal(t, "Rock & Roll Night", site.Title)
	assert.Equal(t, `Fim de ano no "Farol"`, site.Subtitle)
	assert.Equal(t, "Bar D'Ouro", site.Location)

	sites := pub.published()
	require.Len(t, sites, 1)
	assert.Equal(t, "Bar D'Ouro", sites[0].Location)
}

func TestSet_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.EventConfig)
	}{
		{"empty title", func(c *domain.EventConfig) { c.Title = "" }},
		{"bad color", func(c *domain.EventConfig) { c.Colors.Accent = "red" }},
		{"negative price", func(c *domain.EventConfig) { c.Price = decimal.NewFromInt(-1) }},
		{"untitled program item", func(c *domain.EventConfig) { c.Program[0].Title = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, store, pub := newTestService(t)

			cfg := Default()
			tt.mutate(&cfg)

			err := svc.Set(ctx, cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)

			_, err = store.Get(ctx, repository.KeyEventData)
			assert.ErrorIs(t, err, repository.ErrNotFound)
			assert.Empty(t, pub.published())
		})
	}
}

func TestSetColors(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)

	colors := domain.Colors{Primary: "#000000", Secondary: "#111111", Accent: "#fff"}

	cfg, err := svc.SetColors(ctx, colors)
	require.NoError(t, err)
	assert.Equal(t, colors, cfg.Colors)
	assert.Equal(t, Default().Title, cfg.Title)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, colors, got.Colors)

	sites := pub.published()
	require.Len(t, sites, 1)
	assert.Equal(t, colors, sites[0].Colors)
}

func TestAddProgramItem(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	cfg, err := svc.AddProgramItem(ctx, domain.ProgramItem{})
	require.NoError(t, err)
	require.Len(t, cfg.Program, 4)
	assert.Equal(t, NewProgramItem(), cfg.Program[3])

	item := domain.ProgramItem{Icon: "🥂", Title: "Brinde", Description: "Espumante para todos", Time: "00:01"}
	cfg, err = svc.AddProgramItem(ctx, item)
	require.NoError(t, err)
	require.Len(t, cfg.Program, 5)
	assert.Equal(t, item, cfg.Program[4])

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg.Program, got.Program)
}

func TestUpdateProgramItem(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	cfg, err := svc.UpdateProgramItem(ctx, 1, domain.ProgramItem{Time: "23:59"})
	require.NoError(t, err)

	want := Default().Program[1]
	want.Time = "23:59"
	assert.Equal(t, want, cfg.Program[1])

	_, err = svc.UpdateProgramItem(ctx, 3, domain.ProgramItem{Time: "01:00"})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestRemoveProgramItem(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	cfg, err := svc.RemoveProgramItem(ctx, 0)
	require.NoError(t, err)
	require.Len(t, cfg.Program, 2)
	assert.Equal(t, Default().Program[1:], cfg.Program)

	before, err := store.Get(ctx, repository.KeyEventData)
	require.NoError(t, err)

	for _, index := range []int{-1, 2, 10} {
		_, err := svc.RemoveProgramItem(ctx, index)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "index %d", index)
	}

	after, err := store.Get(ctx, repository.KeyEventData)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestEnsureDefault(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newTestService(t)

	require.NoError(t, svc.EnsureDefault(ctx))

	stored, ok, err := repository.GetJSON[domain.EventConfig](ctx, store, repository.KeyEventData)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Default().Title, stored.Title)
	assert.Empty(t, pub.published())

	cfg := Default()
	cfg.Title = "Réveillon"
	require.NoError(t, svc.Set(ctx, cfg))

	require.NoError(t, svc.EnsureDefault(ctx))

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Réveillon", got.Title)
}
