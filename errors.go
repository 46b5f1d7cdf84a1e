package pupmigrate

import "errors"

var (
	// ErrUnsupportedDatabase indicates no registered dialect supports the connection.
	// Migrations refuse to run against an unsupported database.
	ErrUnsupportedDatabase = errors.New("unsupported database")

	// ErrDialectNotFound indicates a dialect short name is not known.
	ErrDialectNotFound = errors.New("dialect not found")

	// ErrChangelogNotFound indicates the changelog resource could not be located
	// on any entry of the search path.
	ErrChangelogNotFound = errors.New("changelog not found")

	// ErrInvalidChangelog indicates the changelog could not be parsed.
	ErrInvalidChangelog = errors.New("invalid changelog")

	// ErrChecksumMismatch indicates an applied changeset was modified after it ran.
	// Mark the changeset runOnChange or restore its original content.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrLockHeld indicates another migration holds the lock.
	ErrLockHeld = errors.New("migration lock held")

	// ErrNoRollback indicates a changeset selected for rollback has no rollback statements.
	ErrNoRollback = errors.New("no rollback available")
)
