// Package migrator applies changelogs to a database.
//
// A Migrator loads a changelog through a resource accessor, compares it with
// the history table, and applies pending changesets one transaction at a
// time while holding the migration lock.
package migrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/getpup/pupmigrate"
	"github.com/getpup/pupmigrate/changelog"
	"github.com/getpup/pupmigrate/dialect"
	"github.com/getpup/pupmigrate/metrics"
	"github.com/getpup/pupmigrate/store"
	"github.com/getpup/pupmigrate/store/sqlstore"
)

// Migrator applies a changelog to one database.
type Migrator struct {
	changelogPath string
	loader        *changelog.Loader
	db            *dialect.Database
	dbx           *sqlx.DB
	history       store.HistoryStore
	locker        store.Locker
	logger        *zap.Logger
	collector     *metrics.Collector
	contexts      []string
	labels        []string
	lockWait      time.Duration
	lockPoll      time.Duration
	lockedBy      string
	now           func() time.Time
}

// step is a changeset selected to run and how it will be recorded.
type step struct {
	changeSet changelog.ChangeSet
	execType  pupmigrate.ExecType
}

// New creates a Migrator for the changelog at changelogPath, resolved through fsys.
//
// Optional configuration (with defaults):
//   - WithLogger: structured logger (default: no-op)
//   - WithTableConfig: history and lock table names (default: databasechangelog, databasechangeloglock)
//   - WithHistoryStore / WithLocker: custom persistence (default: SQL store on db)
//   - WithParsers: changelog parsers (default: formatted SQL and YAML)
//   - WithContexts / WithLabels: changeset filters (default: none)
//   - WithLockWait: lock wait and retry interval (default: 5m, 10s)
//   - WithLockedBy: lock owner (default: host name and pid)
//   - WithMetricsEnabled: prometheus metrics (default: true)
//
// Example:
//
//	m, err := migrator.New("changelog.sql", changelog.SearchPath{os.DirFS("db")}, database,
//	    migrator.WithLogger(logger),
//	    migrator.WithContexts("prod"),
//	)
func New(changelogPath string, fsys fs.FS, db *dialect.Database, opts ...Option) (*Migrator, error) {
	cfg := &config{
		tableConfig:    sqlstore.DefaultTableConfig(),
		lockWait:       5 * time.Minute,
		lockPoll:       10 * time.Second,
		metricsEnabled: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if changelogPath == "" {
		return nil, fmt.Errorf("changelog path is required")
	}
	if fsys == nil {
		return nil, fmt.Errorf("resource accessor is required")
	}
	if db == nil || db.DB == nil || db.Dialect == nil {
		return nil, fmt.Errorf("database is required")
	}
	if err := cfg.tableConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid table configuration: %w", err)
	}
	if cfg.lockPoll <= 0 {
		cfg.lockPoll = time.Second
	}

	if cfg.history == nil || cfg.locker == nil {
		sqlStore := sqlstore.NewWithConfig(db, cfg.tableConfig)
		if cfg.history == nil {
			cfg.history = sqlStore
		}
		if cfg.locker == nil {
			cfg.locker = sqlStore
		}
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.lockedBy == "" {
		cfg.lockedBy = defaultLockOwner()
	}

	m := &Migrator{
		changelogPath: changelogPath,
		loader:        changelog.NewLoader(fsys, cfg.parsers),
		db:            db,
		dbx:           sqlx.NewDb(db.DB, db.ShortName()),
		history:       cfg.history,
		locker:        cfg.locker,
		logger:        cfg.logger.With(zap.String("changelog", changelogPath), zap.String("dialect", db.ShortName())),
		contexts:      cfg.contexts,
		labels:        cfg.labels,
		lockWait:      cfg.lockWait,
		lockPoll:      cfg.lockPoll,
		lockedBy:      cfg.lockedBy,
		now:           func() time.Time { return time.Now().UTC() },
	}
	if cfg.metricsEnabled {
		m.collector = metrics.NewCollector(db.ShortName())
	}

	return m, nil
}

// Update applies every pending changeset.
//
// Validation happens before any change: a modified changeset that is not
// runOnChange fails the whole update with ErrChecksumMismatch.
func (m *Migrator) Update(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		if m.collector != nil {
			m.collector.IncUpdates(err)
			m.collector.ObserveUpdateDuration(time.Since(start).Seconds())
		}
	}()

	cl, err := m.prepare()
	if err != nil {
		return err
	}

	return m.withLock(ctx, func(ctx context.Context) error {
		applied, err := m.history.Applied(ctx)
		if err != nil {
			return err
		}

		steps, skipped, err := m.plan(cl, applied)
		if err != nil {
			return err
		}
		m.setPending(len(steps))
		for range skipped {
			m.count(metrics.OutcomeSkipped)
		}

		if len(steps) > 0 && !m.db.TransactionalDDL() {
			m.logger.Warn("dialect commits DDL implicitly; a failing changeset may leave partial changes")
		}

		deploymentID := uuid.NewString()
		order := lastOrder(applied)
		ran := 0
		for _, st := range steps {
			order++
			ok, err := m.apply(ctx, st, order, deploymentID)
			if err != nil {
				return err
			}
			if ok {
				ran++
			} else {
				order--
			}
		}

		m.logger.Info("update complete",
			zap.Int("applied", ran),
			zap.Int("skipped", skipped),
			zap.String("deployment_id", deploymentID),
		)
		return nil
	})
}

// Status returns the changesets the next Update would run.
func (m *Migrator) Status(ctx context.Context) ([]changelog.ChangeSet, error) {
	cl, err := m.prepare()
	if err != nil {
		return nil, err
	}
	if err := m.history.Init(ctx); err != nil {
		return nil, err
	}

	applied, err := m.history.Applied(ctx)
	if err != nil {
		return nil, err
	}

	steps, _, err := m.plan(cl, applied)
	if err != nil {
		return nil, err
	}

	pending := make([]changelog.ChangeSet, 0, len(steps))
	for _, st := range steps {
		pending = append(pending, st.changeSet)
	}
	return pending, nil
}

// Rollback undoes the count most recently applied changesets, newest first.
//
// Every selected changeset must still be in the changelog and declare
// rollback statements; otherwise nothing is rolled back and ErrNoRollback
// is returned.
func (m *Migrator) Rollback(ctx context.Context, count int) error {
	if count <= 0 {
		return fmt.Errorf("rollback count must be positive (got: %d)", count)
	}

	cl, err := m.prepare()
	if err != nil {
		return err
	}

	return m.withLock(ctx, func(ctx context.Context) error {
		applied, err := m.history.Applied(ctx)
		if err != nil {
			return err
		}

		targets := make([]changelog.ChangeSet, 0, count)
		for i := len(applied) - 1; i >= 0 && len(targets) < count; i-- {
			cs, ok := cl.Find(applied[i].Key())
			if !ok {
				return fmt.Errorf("%w: %s is not in the changelog", pupmigrate.ErrNoRollback, applied[i].Key())
			}
			if len(cs.Rollback) == 0 {
				return fmt.Errorf("%w: %s declares no rollback", pupmigrate.ErrNoRollback, cs.Key())
			}
			targets = append(targets, cs)
		}

		for _, cs := range targets {
			if err := m.rollbackOne(ctx, cs); err != nil {
				return err
			}
		}

		m.logger.Info("rollback complete", zap.Int("rolled_back", len(targets)))
		return nil
	})
}

// ReleaseLocks frees the migration lock, whoever holds it.
// Use it to recover from a process that died while migrating.
func (m *Migrator) ReleaseLocks(ctx context.Context) error {
	if err := m.locker.Release(ctx); err != nil {
		return err
	}
	m.logger.Info("migration lock released")
	return nil
}

// prepare rejects unsupported databases and loads the changelog.
func (m *Migrator) prepare() (*changelog.ChangeLog, error) {
	if dialect.IsUnsupported(m.db.Dialect) {
		return nil, fmt.Errorf("%w: %s", pupmigrate.ErrUnsupportedDatabase, m.db.ProductName())
	}

	cl, err := m.loader.Load(m.changelogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load changelog: %w", err)
	}
	return cl, nil
}

// plan selects the changesets to run and counts the ones skipped.
func (m *Migrator) plan(cl *changelog.ChangeLog, applied []pupmigrate.AppliedChangeSet) ([]step, int, error) {
	byKey := make(map[string]pupmigrate.AppliedChangeSet, len(applied))
	for _, a := range applied {
		byKey[a.Key()] = a
	}

	var (
		steps   []step
		skipped int
	)
	for _, cs := range cl.ChangeSets {
		if !m.selected(cs) {
			skipped++
			m.logger.Debug("changeset filtered out", zap.String("changeset", cs.Key()))
			continue
		}

		prev, ok := byKey[cs.Key()]
		if !ok {
			steps = append(steps, step{changeSet: cs, execType: pupmigrate.ExecTypeExecuted})
			continue
		}

		checksum := cs.Checksum()
		changed := prev.Checksum != "" && prev.Checksum != checksum
		switch {
		case changed && !cs.RunOnChange:
			return nil, 0, fmt.Errorf("%w: %s was %s, now %s", pupmigrate.ErrChecksumMismatch, cs.Key(), prev.Checksum, checksum)
		case cs.RunAlways || changed:
			steps = append(steps, step{changeSet: cs, execType: pupmigrate.ExecTypeReran})
		default:
			skipped++
		}
	}

	return steps, skipped, nil
}

func (m *Migrator) selected(cs changelog.ChangeSet) bool {
	return cs.MatchesDBMS(m.db.ShortName()) &&
		cs.MatchesContexts(m.contexts) &&
		cs.MatchesLabels(m.labels)
}

// apply runs one changeset and records it in the same transaction.
// It reports false when a changeset with failOnError=false failed and was skipped.
func (m *Migrator) apply(ctx context.Context, st step, order int, deploymentID string) (bool, error) {
	cs := st.changeSet
	start := time.Now()

	tx, err := m.dbx.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction for %s: %w", cs.Key(), err)
	}

	for i, stmt := range cs.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			m.count(metrics.OutcomeFailed)
			if !cs.FailOnError {
				m.logger.Warn("changeset failed, continuing because failOnError is false",
					zap.String("changeset", cs.Key()),
					zap.Int("statement", i+1),
					zap.Error(err),
				)
				return false, nil
			}
			return false, fmt.Errorf("changeset %s statement %d failed: %w", cs.Key(), i+1, err)
		}
	}

	row := pupmigrate.AppliedChangeSet{
		ID:            cs.ID,
		Author:        cs.Author,
		Filename:      cs.Path,
		DateExecuted:  m.now(),
		OrderExecuted: order,
		ExecType:      st.execType,
		Checksum:      cs.Checksum(),
		Description:   cs.Description,
		Comments:      cs.Comment,
		Contexts:      strings.Join(cs.Contexts, ","),
		Labels:        strings.Join(cs.Labels, ","),
		DeploymentID:  deploymentID,
	}
	if err := m.history.Record(ctx, tx, row); err != nil {
		_ = tx.Rollback()
		m.count(metrics.OutcomeFailed)
		return false, err
	}
	if err := tx.Commit(); err != nil {
		m.count(metrics.OutcomeFailed)
		return false, fmt.Errorf("failed to commit changeset %s: %w", cs.Key(), err)
	}

	if st.execType == pupmigrate.ExecTypeReran {
		m.count(metrics.OutcomeReran)
	} else {
		m.count(metrics.OutcomeExecuted)
	}
	m.logger.Info("changeset applied",
		zap.String("changeset", cs.Key()),
		zap.String("exec_type", string(st.execType)),
		zap.Int("statements", len(cs.Statements)),
		zap.Duration("duration", time.Since(start)),
	)
	return true, nil
}

func (m *Migrator) rollbackOne(ctx context.Context, cs changelog.ChangeSet) error {
	tx, err := m.dbx.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for rollback of %s: %w", cs.Key(), err)
	}

	for i, stmt := range cs.Rollback {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("rollback of %s statement %d failed: %w", cs.Key(), i+1, err)
		}
	}
	if err := m.history.Remove(ctx, tx, cs.Path, cs.ID, cs.Author); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rollback of %s: %w", cs.Key(), err)
	}

	m.count(metrics.OutcomeRolledBack)
	m.logger.Info("changeset rolled back", zap.String("changeset", cs.Key()))
	return nil
}

// withLock initializes the tracking tables and runs fn while holding the lock.
// The lock is released even if ctx is cancelled.
func (m *Migrator) withLock(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if err := m.history.Init(ctx); err != nil {
		return err
	}
	if err := m.acquireLock(ctx); err != nil {
		return err
	}
	defer func() {
		if releaseErr := m.locker.Release(context.WithoutCancel(ctx)); releaseErr != nil {
			m.logger.Error("failed to release migration lock", zap.Error(releaseErr))
			err = errors.Join(err, releaseErr)
		}
	}()

	return fn(ctx)
}

func (m *Migrator) acquireLock(ctx context.Context) error {
	start := time.Now()
	deadline := start.Add(m.lockWait)

	for {
		err := m.locker.Acquire(ctx, m.lockedBy)
		if err == nil {
			if m.collector != nil {
				m.collector.ObserveLockWait(time.Since(start).Seconds())
			}
			m.logger.Debug("migration lock acquired", zap.String("locked_by", m.lockedBy))
			return nil
		}
		if !errors.Is(err, pupmigrate.ErrLockHeld) {
			return err
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("gave up waiting after %s: %w", m.lockWait, err)
		}

		m.logger.Info("waiting for migration lock", zap.Error(err), zap.Duration("retry_in", m.lockPoll))
		timer := time.NewTimer(m.lockPoll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (m *Migrator) count(outcome string) {
	if m.collector != nil {
		m.collector.IncChangeSets(outcome)
	}
}

func (m *Migrator) setPending(n int) {
	if m.collector != nil {
		m.collector.SetPendingChangeSets(n)
	}
}

func lastOrder(applied []pupmigrate.AppliedChangeSet) int {
	last := 0
	for _, a := range applied {
		if a.OrderExecuted > last {
			last = a.OrderExecuted
		}
	}
	return last
}

func defaultLockOwner() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s (pid %d)", host, os.Getpid())
}
