// Package main implements the entry point for the revise-api server:
// a study-materials backend with AI deck/quiz generation and SM-2
// spaced-repetition review scheduling.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/revisehq/revise-api/internal/config"
	"github.com/revisehq/revise-api/internal/platform/logger"
	"github.com/revisehq/revise-api/internal/platform/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "revise-api: %v\n", err)
		os.Exit(1)
	}
}

// run carries the full server lifecycle so main stays a thin exit-code
// adapter: load configuration, set up logging, connect and migrate the
// database, wire the application, and serve until shutdown.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log, err := logger.Setup(logger.Config{Level: cfg.Server.LogLevel})
	if err != nil {
		return fmt.Errorf("setting up logger: %w", err)
	}
	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel))

	db, err := openDatabase(cfg.Database, log)
	if err != nil {
		return err
	}

	if err := postgres.MigrateUp(db); err != nil {
		_ = db.Close()
		return fmt.Errorf("applying migrations: %w", err)
	}
	log.Info("database migrations applied")

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, log, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("initializing application: %w", err)
	}

	return app.Run(ctx)
}
