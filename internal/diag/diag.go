// Package diag runs the diagnostic migration: it reports which extensions and
// dialects are available, resolves the dialect for the configured database,
// and applies the changelog, logging every step to the diagnostic log.
package diag

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/getpup/pupmigrate"
	"github.com/getpup/pupmigrate/changelog"
	"github.com/getpup/pupmigrate/dialect"
	"github.com/getpup/pupmigrate/dialect/mysql"
	"github.com/getpup/pupmigrate/dialect/postgres"
	"github.com/getpup/pupmigrate/dialect/sqlite"
	"github.com/getpup/pupmigrate/internal/config"
	"github.com/getpup/pupmigrate/internal/diaglog"
	"github.com/getpup/pupmigrate/internal/resources"
	"github.com/getpup/pupmigrate/metrics"
	"github.com/getpup/pupmigrate/pkg/migrator"
)

const separator = "========================="

const lockPollInterval = time.Second

var builtinDialects = map[string]func() dialect.Dialect{
	sqlite.ShortName:   func() dialect.Dialect { return sqlite.New() },
	postgres.ShortName: func() dialect.Dialect { return postgres.New() },
	mysql.ShortName:    func() dialect.Dialect { return mysql.New() },
}

// Main runs the diagnostic migration and always writes the diagnostic log to
// cfg.LogFile before returning, including when the run fails or panics.
func Main(ctx context.Context, cfg config.Config, stdout io.Writer, logger *zap.Logger) (err error) {
	out := diaglog.New(stdout)
	defer func() {
		if flushErr := out.Flush(cfg.LogFile); flushErr != nil {
			err = errors.Join(err, flushErr)
		}
	}()
	defer func() {
		if cfg.MetricsFile == "" {
			return
		}
		if metricsErr := metrics.WriteTextfile(cfg.MetricsFile); metricsErr != nil {
			logger.Warn("failed to write metrics file", zap.Error(metricsErr))
		}
	}()

	return Run(ctx, cfg, out, logger)
}

// Run performs the diagnostic migration, logging each step to out.
func Run(ctx context.Context, cfg config.Config, out *diaglog.Logger, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	out.Log("App START")
	out.Log(separator)

	registry, err := NewRegistry(cfg.Dialects)
	if err != nil {
		return err
	}
	parsers := changelog.NewParsers()

	packages := ExtensionPackages(registry, parsers)
	out.Logf("Packages to scan: %d", len(packages))
	for _, pkg := range packages {
		out.Logf("Extension package scan: %s", pkg)
	}

	out.Log("Connecting to database ...")
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	if isInMemory(cfg.DSN) {
		// every pooled connection to an in-memory database must be the same one
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	out.Log("Connecting to database ... DONE")

	if registry.Get(sqlite.ShortName) == nil {
		out.Log("Registering SQLite manually.")
		registry.Register(sqlite.New())
	}

	out.Log("Establishing migration connection ...")
	database, err := registry.FindCorrect(ctx, db)
	if err != nil {
		return err
	}
	version, err := database.ProductVersion(ctx)
	if err != nil {
		return err
	}
	out.Logf("database product: %s, version: %s, shortname: %s (%T)",
		database.ProductName(), version, database.ShortName(), database.Dialect)
	out.Log("Establishing migration connection ... DONE")

	implemented := registry.Implemented()
	metrics.SetRegisteredDialects(len(implemented))
	out.Logf("Number of implemented databases: %d", len(implemented))
	for _, d := range implemented {
		out.Logf("Registered implemented database: %T", d)
	}

	m, err := migrator.New(cfg.Changelog, ResourceAccessor(cfg.ChangelogDir), database,
		migrator.WithLogger(logger),
		migrator.WithContexts(cfg.Contexts...),
		migrator.WithLabels(cfg.Labels...),
		migrator.WithLockWait(cfg.LockWait, lockPollInterval),
		migrator.WithLockedBy(lockOwner(cfg.User)),
	)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	out.Log("Migrating database ...")
	if err := m.Update(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	out.Log("Migrating database ... DONE")

	out.Log("Closing database connection ...")
	if err := database.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	out.Log("Closing database connection ... DONE")

	out.Log(separator)
	out.Log("App END")
	return nil
}

// NewRegistry builds a dialect registry preloaded with the named built-in dialects.
func NewRegistry(names []string) (*dialect.Registry, error) {
	registry := dialect.NewRegistry()
	for _, name := range names {
		newDialect, ok := builtinDialects[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("%w: %s", pupmigrate.ErrDialectNotFound, name)
		}
		registry.Register(newDialect())
	}
	return registry, nil
}

// ExtensionPackages lists the Go packages providing dialects and changelog parsers.
func ExtensionPackages(registry *dialect.Registry, parsers *changelog.Parsers) []string {
	packages := append(registry.Packages(), parsers.Packages()...)
	slices.Sort(packages)
	return slices.Compact(packages)
}

// ResourceAccessor searches dir, when set, before the bundled changelogs.
func ResourceAccessor(dir string) changelog.SearchPath {
	var path changelog.SearchPath
	if dir != "" {
		path = append(path, os.DirFS(dir))
	}
	return append(path, resources.FS)
}

func isInMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func lockOwner(user string) string {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	if user == "" {
		return host
	}
	return user + "@" + host
}
