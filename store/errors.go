package store

import "errors"

var (
	// ErrChangeSetNotRecorded indicates no history row exists for a changeset.
	ErrChangeSetNotRecorded = errors.New("changeset not recorded")

	// ErrLockRowMissing indicates the lock table has no lock row; run Init first.
	ErrLockRowMissing = errors.New("lock row missing")
)
