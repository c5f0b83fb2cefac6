package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kirinyoku/sunset-go/internal/app"
	"github.com/kirinyoku/sunset-go/internal/cli"
	"github.com/kirinyoku/sunset-go/internal/config"
)

func main() {
	root := cli.NewRootCommand(func(ctx context.Context, opts *cli.RootOptions) (*app.App, error) {
		cfg, err := config.New()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}

		level, err := cfg.SlogLevel()
		if err != nil {
			return nil, err
		}
		if opts.Verbose {
			level = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		return app.New(ctx, cfg, logger)
	})

	os.Exit(cli.Execute(context.Background(), root, os.Stderr))
}
