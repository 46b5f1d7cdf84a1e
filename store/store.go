// Package store defines persistence for changelog history and the migration lock.
package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/getpup/pupmigrate"
)

// HistoryStore records which changesets have been applied.
type HistoryStore interface {
	// Init creates the history and lock tables when they do not exist.
	Init(ctx context.Context) error

	// Applied returns every applied changeset ordered by execution order.
	// Returns an empty slice when nothing has been applied.
	Applied(ctx context.Context) ([]pupmigrate.AppliedChangeSet, error)

	// Record writes an applied changeset within tx.
	// Changesets with ExecTypeReran replace their existing row.
	Record(ctx context.Context, tx sqlx.ExtContext, row pupmigrate.AppliedChangeSet) error

	// Remove deletes the history row for a rolled back changeset within tx.
	// Returns ErrChangeSetNotRecorded if no row matched.
	Remove(ctx context.Context, tx sqlx.ExtContext, filename, id, author string) error
}

// Locker guards migrations against concurrent runs.
type Locker interface {
	// Acquire takes the lock for owner.
	// Returns pupmigrate.ErrLockHeld if another owner holds it.
	Acquire(ctx context.Context, owner string) error

	// Release frees the lock regardless of its owner.
	Release(ctx context.Context) error

	// Status reports the current lock state.
	Status(ctx context.Context) (pupmigrate.LockStatus, error)
}
