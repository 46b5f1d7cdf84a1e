// Command pupmigrate applies the configured changelog to a database and writes
// a diagnostic log of the environment and each step to log.log.
//
// Usage:
//
//	go run github.com/getpup/pupmigrate/cmd/pupmigrate
//
// Without configuration it migrates an embedded in-memory SQLite database with
// the bundled changelog. Configuration is read from PUPMIGRATE_* environment
// variables:
//
//	PUPMIGRATE_DRIVER=postgres PUPMIGRATE_DSN=postgres://localhost/app?sslmode=disable \
//	PUPMIGRATE_CHANGELOG_DIR=db PUPMIGRATE_CHANGELOG=changelog.yaml \
//	    go run github.com/getpup/pupmigrate/cmd/pupmigrate
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/getpup/pupmigrate/internal/config"
	"github.com/getpup/pupmigrate/internal/diag"
	"github.com/getpup/pupmigrate/internal/observability"
	"github.com/getpup/pupmigrate/pkg/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	logger.Info("starting pupmigrate",
		zap.String("version", version.Version),
		zap.String("driver", cfg.Driver),
		zap.String("changelog", cfg.Changelog),
	)

	err = diag.Main(ctx, cfg, os.Stdout, logger)
	stop()
	if err != nil {
		logger.Error("migration run failed", zap.Error(err), zap.String("log_file", cfg.LogFile))
		_ = logger.Sync()
		os.Exit(1)
	}

	_ = logger.Sync()
}
