package migrator

import (
	"time"

	"go.uber.org/zap"

	"github.com/getpup/pupmigrate/changelog"
	"github.com/getpup/pupmigrate/store"
	"github.com/getpup/pupmigrate/store/sqlstore"
)

// Option configures a Migrator.
type Option func(*config)

// config holds the internal configuration for creating a Migrator.
type config struct {
	logger         *zap.Logger
	tableConfig    sqlstore.TableConfig
	history        store.HistoryStore
	locker         store.Locker
	parsers        *changelog.Parsers
	contexts       []string
	labels         []string
	lockWait       time.Duration
	lockPoll       time.Duration
	lockedBy       string
	metricsEnabled bool
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithTableConfig sets custom names for the history and lock tables.
func WithTableConfig(tableConfig sqlstore.TableConfig) Option {
	return func(c *config) {
		c.tableConfig = tableConfig
	}
}

// WithHistoryStore sets a custom history store.
// Defaults to a SQL store on the migrated database.
func WithHistoryStore(history store.HistoryStore) Option {
	return func(c *config) {
		c.history = history
	}
}

// WithLocker sets a custom lock implementation.
// Defaults to the lock table of the SQL store.
func WithLocker(locker store.Locker) Option {
	return func(c *config) {
		c.locker = locker
	}
}

// WithParsers sets the changelog parsers. Defaults to changelog.NewParsers.
func WithParsers(parsers *changelog.Parsers) Option {
	return func(c *config) {
		c.parsers = parsers
	}
}

// WithContexts limits the run to changesets declaring one of the contexts.
// Changesets without contexts always run.
func WithContexts(contexts ...string) Option {
	return func(c *config) {
		c.contexts = contexts
	}
}

// WithLabels limits the run to changesets declaring one of the labels.
// Changesets without labels always run.
func WithLabels(labels ...string) Option {
	return func(c *config) {
		c.labels = labels
	}
}

// WithLockWait sets how long to wait for a held lock and how often to retry.
// A zero wait fails immediately when the lock is held.
func WithLockWait(wait, poll time.Duration) Option {
	return func(c *config) {
		c.lockWait = wait
		c.lockPoll = poll
	}
}

// WithLockedBy sets the lock owner recorded in the lock table.
// Defaults to the host name and process id.
func WithLockedBy(owner string) Option {
	return func(c *config) {
		c.lockedBy = owner
	}
}

// WithMetricsEnabled enables or disables prometheus metrics. Defaults to true.
func WithMetricsEnabled(enabled bool) Option {
	return func(c *config) {
		c.metricsEnabled = enabled
	}
}
