package pupmigrate

import (
	"fmt"
	"time"
)

// ExecType records how a changeset was run when it was written to the history table.
type ExecType string

const (
	// ExecTypeExecuted marks a changeset that ran for the first time.
	ExecTypeExecuted ExecType = "EXECUTED"

	// ExecTypeReran marks a changeset that ran again because it is runAlways
	// or because it is runOnChange and its checksum changed.
	ExecTypeReran ExecType = "RERAN"
)

// AppliedChangeSet is one row of the changelog history table.
type AppliedChangeSet struct {
	// ID is the changeset id as written in the changelog.
	ID string `db:"id"`

	// Author is the changeset author as written in the changelog.
	Author string `db:"author"`

	// Filename is the logical changelog path the changeset was loaded from.
	Filename string `db:"filename"`

	// DateExecuted is when the changeset was last run.
	DateExecuted time.Time `db:"date_executed"`

	// OrderExecuted is the position of the changeset in the overall run order.
	OrderExecuted int `db:"order_executed"`

	// ExecType tells whether the changeset ran for the first time or again.
	ExecType ExecType `db:"exec_type"`

	// Checksum is the changeset checksum at the time it was run.
	Checksum string `db:"md5sum"`

	Description string `db:"description"`
	Comments    string `db:"comments"`
	Contexts    string `db:"contexts"`
	Labels      string `db:"labels"`

	// DeploymentID groups all changesets applied by a single update.
	DeploymentID string `db:"deployment_id"`
}

// Key returns the identity of the applied changeset.
func (a AppliedChangeSet) Key() string {
	return ChangeSetKey(a.Filename, a.ID, a.Author)
}

// ChangeSetKey builds the identity of a changeset from its file, id and author.
// Two changesets with the same key are the same changeset.
func ChangeSetKey(filename, id, author string) string {
	return fmt.Sprintf("%s::%s::%s", filename, id, author)
}

// LockStatus describes the state of the migration lock.
type LockStatus struct {
	// Locked is true while a migration holds the lock.
	Locked bool

	// Granted is when the current holder acquired the lock.
	// It is the zero time when the lock is free.
	Granted time.Time

	// LockedBy identifies the current holder.
	LockedBy string
}
