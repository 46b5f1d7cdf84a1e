package sqlstore

import (
	"fmt"
	"regexp"
)

var identifierRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// TableConfig configures the table names used for tracking migrations.
type TableConfig struct {
	// HistoryTable is the name of the table recording applied changesets.
	HistoryTable string

	// LockTable is the name of the single-row table guarding concurrent migrations.
	LockTable string
}

// DefaultTableConfig returns the default table configuration.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		HistoryTable: "databasechangelog",
		LockTable:    "databasechangeloglock",
	}
}

// Validate ensures the table names are safe to interpolate into SQL.
func (c TableConfig) Validate() error {
	if err := ValidateIdentifier(c.HistoryTable, "HistoryTable"); err != nil {
		return err
	}
	if err := ValidateIdentifier(c.LockTable, "LockTable"); err != nil {
		return err
	}
	if c.HistoryTable == c.LockTable {
		return fmt.Errorf("HistoryTable and LockTable must differ (got: %s)", c.HistoryTable)
	}
	return nil
}

// ValidateIdentifier ensures an identifier contains only safe characters for SQL.
func ValidateIdentifier(name, fieldName string) error {
	if name == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("%s must start with a letter and contain only letters, numbers, and underscores (got: %s)", fieldName, name)
	}
	return nil
}
