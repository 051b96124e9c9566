// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/domainbus/cmd/app/commands"
	"github.com/allisson/domainbus/internal/app"
	"github.com/allisson/domainbus/internal/config"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "domainbus",
		Usage:   "Event distribution and cross-domain transaction coordination bus",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the bus server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg := config.Load()
					logger := app.NewContainer(cfg).Logger()
					return commands.RunMigrations(logger, cfg.DBDriver, cfg.DBConnectionString)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
