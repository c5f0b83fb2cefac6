package eventcfg

import (
	"encoding/json"

	"github.com/kirinyoku/sunset-go/internal/domain"
	"github.com/shopspring/decimal"
)

// Default is the configuration the site starts with.
func Default() domain.EventConfig {
	return domain.EventConfig{
		Title:       "SUNSET 2025",
		Subtitle:    "Celebre o Ano Novo na Praia da Barra",
		Location:    "Praia da Barra, Gafanha da Nazaré, Aveiro",
		Date:        "2025-12-31T21:00",
		Price:       decimal.NewFromInt(25),
		Includes:    "2 bebidas + Ovos Moles",
		Description: "Uma noite mágica na Praia da Barra junto ao Farol mais alto de Portugal",
		Program: []domain.ProgramItem{
			{Icon: "🎵", Title: "DJ ao Vivo", Description: "Música eletrónica com os melhores DJs locais", Time: "21:00 - 03:00"},
			{Icon: "🎆", Title: "Fogo de Artifício", Description: "Espetáculo pirotécnico à meia-noite sobre o mar", Time: "00:00"},
			{Icon: "🍹", Title: "Bar na Praia", Description: "Cocktails tropicais e bebidas geladas", Time: "20:00 - 04:00"},
		},
		Colors: domain.Colors{
			Primary:   "#667eea",
			Secondary: "#764ba2",
			Accent:    "#ff6b6b",
		},
	}
}

// NewProgramItem is what AddProgramItem stores for an empty item.
func NewProgramItem() domain.ProgramItem {
	return domain.ProgramItem{
		Icon:        "🎉",
		Title:       "Novo Item",
		Description: "Descrição",
		Time:        "00:00",
	}
}

// decodeConfig decodes a stored configuration over Default(). A stored
// program replaces the default program whole, so its items hold only what
// was saved with them.
func decodeConfig(raw []byte) (domain.EventConfig, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Default(), err
	}

	cfg := Default()
	if _, ok := fields["program"]; ok {
		cfg.Program = nil
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Default(), err
	}

	return cfg, nil
}
