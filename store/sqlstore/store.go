// Package sqlstore implements the history and lock stores on database/sql.
// Dialect specifics come from the dialect resolved for the connection.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/getpup/pupmigrate"
	"github.com/getpup/pupmigrate/dialect"
	"github.com/getpup/pupmigrate/store"
)

const lockRowID = 1

// Store is a SQL implementation of store.HistoryStore and store.Locker.
type Store struct {
	db           *sqlx.DB
	dialect      dialect.Dialect
	historyTable string
	lockTable    string
	now          func() time.Time
}

var (
	_ store.HistoryStore = (*Store)(nil)
	_ store.Locker       = (*Store)(nil)
)

// NewWithConfig creates a store with custom table names.
// The config should be checked with TableConfig.Validate first.
func NewWithConfig(db *dialect.Database, config TableConfig) *Store {
	return &Store{
		db:           sqlx.NewDb(db.DB, db.ShortName()),
		dialect:      db.Dialect,
		historyTable: config.HistoryTable,
		lockTable:    config.LockTable,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) rebind(query string) string {
	return sqlx.Rebind(s.dialect.BindType(), query)
}

// Init creates the history and lock tables and the lock row when missing.
func (s *Store) Init(ctx context.Context) error {
	statements := []string{
		s.dialect.HistoryTableSQL(s.historyTable),
		s.dialect.LockTableSQL(s.lockTable),
		s.dialect.LockRowSQL(s.lockTable),
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize tracking tables: %w", err)
		}
	}
	return nil
}

// Applied returns every applied changeset ordered by execution order.
func (s *Store) Applied(ctx context.Context) ([]pupmigrate.AppliedChangeSet, error) {
	query := fmt.Sprintf(`
		SELECT id, author, filename, date_executed, order_executed, exec_type,
		       md5sum, description, comments, contexts, labels, deployment_id
		FROM %s
		ORDER BY order_executed, date_executed
	`, s.historyTable)

	applied := []pupmigrate.AppliedChangeSet{}
	if err := s.db.SelectContext(ctx, &applied, query); err != nil {
		return nil, fmt.Errorf("failed to list applied changesets: %w", err)
	}
	return applied, nil
}

// Record writes an applied changeset within tx.
func (s *Store) Record(ctx context.Context, tx sqlx.ExtContext, row pupmigrate.AppliedChangeSet) error {
	if row.DateExecuted.IsZero() {
		row.DateExecuted = s.now()
	}

	if row.ExecType == pupmigrate.ExecTypeReran {
		query := s.rebind(fmt.Sprintf(`
			UPDATE %s
			SET date_executed = ?, order_executed = ?, exec_type = ?, md5sum = ?,
			    description = ?, comments = ?, contexts = ?, labels = ?, deployment_id = ?
			WHERE id = ? AND author = ? AND filename = ?
		`, s.historyTable))

		result, err := tx.ExecContext(ctx, query,
			row.DateExecuted, row.OrderExecuted, string(row.ExecType), row.Checksum,
			row.Description, row.Comments, row.Contexts, row.Labels, row.DeploymentID,
			row.ID, row.Author, row.Filename,
		)
		if err != nil {
			return fmt.Errorf("failed to update changeset %s: %w", row.Key(), err)
		}
		return requireRow(result, row.Key())
	}

	query := s.rebind(fmt.Sprintf(`
		INSERT INTO %s (id, author, filename, date_executed, order_executed, exec_type,
		                md5sum, description, comments, contexts, labels, deployment_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.historyTable))

	_, err := tx.ExecContext(ctx, query,
		row.ID, row.Author, row.Filename, row.DateExecuted, row.OrderExecuted, string(row.ExecType),
		row.Checksum, row.Description, row.Comments, row.Contexts, row.Labels, row.DeploymentID,
	)
	if err != nil {
		return fmt.Errorf("failed to record changeset %s: %w", row.Key(), err)
	}
	return nil
}

// Remove deletes the history row of a rolled back changeset within tx.
func (s *Store) Remove(ctx context.Context, tx sqlx.ExtContext, filename, id, author string) error {
	query := s.rebind(fmt.Sprintf(`DELETE FROM %s WHERE id = ? AND author = ? AND filename = ?`, s.historyTable))

	result, err := tx.ExecContext(ctx, query, id, author, filename)
	if err != nil {
		return fmt.Errorf("failed to remove changeset %s: %w", pupmigrate.ChangeSetKey(filename, id, author), err)
	}
	return requireRow(result, pupmigrate.ChangeSetKey(filename, id, author))
}

// Acquire takes the lock for owner.
// Returns pupmigrate.ErrLockHeld if the lock is already taken.
func (s *Store) Acquire(ctx context.Context, owner string) error {
	query := s.rebind(fmt.Sprintf(`
		UPDATE %s
		SET locked = ?, lock_granted = ?, locked_by = ?
		WHERE id = ? AND locked = ?
	`, s.lockTable))

	result, err := s.db.ExecContext(ctx, query, true, s.now(), owner, lockRowID, false)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check lock result: %w", err)
	}
	if rows == 0 {
		status, err := s.Status(ctx)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w by %s since %s", pupmigrate.ErrLockHeld, status.LockedBy, status.Granted.Format(time.RFC3339))
	}
	return nil
}

// Release frees the lock.
func (s *Store) Release(ctx context.Context) error {
	query := s.rebind(fmt.Sprintf(`
		UPDATE %s
		SET locked = ?, lock_granted = NULL, locked_by = NULL
		WHERE id = ?
	`, s.lockTable))

	if _, err := s.db.ExecContext(ctx, query, false, lockRowID); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Status reports the current lock state.
func (s *Store) Status(ctx context.Context) (pupmigrate.LockStatus, error) {
	query := s.rebind(fmt.Sprintf(`SELECT locked, lock_granted, locked_by FROM %s WHERE id = ?`, s.lockTable))

	var (
		locked   bool
		granted  sql.NullTime
		lockedBy sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, lockRowID).Scan(&locked, &granted, &lockedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return pupmigrate.LockStatus{}, store.ErrLockRowMissing
	}
	if err != nil {
		return pupmigrate.LockStatus{}, fmt.Errorf("failed to read lock status: %w", err)
	}

	return pupmigrate.LockStatus{
		Locked:   locked,
		Granted:  granted.Time,
		LockedBy: lockedBy.String,
	}, nil
}

func requireRow(result sql.Result, key string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", store.ErrChangeSetNotRecorded, key)
	}
	return nil
}
