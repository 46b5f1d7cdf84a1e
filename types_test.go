package pupmigrate

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExecType_Constants(t *testing.T) {
	t.Run("ExecTypeExecuted equals EXECUTED", func(t *testing.T) {
		assert.Equal(t, ExecType("EXECUTED"), ExecTypeExecuted)
	})

	t.Run("ExecTypeReran equals RERAN", func(t *testing.T) {
		assert.Equal(t, ExecType("RERAN"), ExecTypeReran)
	})
}

func TestChangeSetKey(t *testing.T) {
	assert.Equal(t, "db/changelog.sql::1::alice", ChangeSetKey("db/changelog.sql", "1", "alice"))
	assert.NotEqual(t, ChangeSetKey("a.sql", "1", "alice"), ChangeSetKey("b.sql", "1", "alice"))
}

func TestAppliedChangeSet_Key(t *testing.T) {
	applied := AppliedChangeSet{ID: "create-person", Author: "SA", Filename: "changelog.sql"}

	assert.Equal(t, "changelog.sql::create-person::SA", applied.Key())
	assert.Equal(t, ChangeSetKey(applied.Filename, applied.ID, applied.Author), applied.Key())
}

func TestErrors_AreDistinct(t *testing.T) {
	all := []error{
		ErrUnsupportedDatabase,
		ErrDialectNotFound,
		ErrChangelogNotFound,
		ErrInvalidChangelog,
		ErrChecksumMismatch,
		ErrLockHeld,
		ErrNoRollback,
	}

	for i, err := range all {
		wrapped := fmt.Errorf("context: %w", err)
		for j, other := range all {
			assert.Equal(t, i == j, errors.Is(wrapped, other), "%v vs %v", err, other)
		}
	}
}

type packageMarker struct{}

func TestPackageOf(t *testing.T) {
	assert.Equal(t, "github.com/getpup/pupmigrate", PackageOf(packageMarker{}))
	assert.Equal(t, "github.com/getpup/pupmigrate", PackageOf(&packageMarker{}))
	assert.Equal(t, "time", PackageOf(time.Duration(0)))
}
