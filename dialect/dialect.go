// Package dialect resolves the database-specific behaviour the migrator needs.
//
// A Dialect knows how to recognise its database driver, how to report the
// server version, and how to create the history and lock tables. Dialects are
// held in an explicit Registry built by the caller; there is no package-level
// registration.
package dialect

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
)

// Queryer is the subset of *sql.DB and *sql.Tx used to read the product version.
type Queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect translates generic migration operations into database-specific SQL.
type Dialect interface {
	// ShortName is the stable identifier used for registration and dbms filters.
	ShortName() string

	// ProductName is the human-readable database product name.
	ProductName() string

	// Priority orders dialects that support the same driver. Higher wins.
	Priority() int

	// Supports reports whether the dialect handles connections opened with drv.
	Supports(drv driver.Driver) bool

	// ProductVersion queries the server version.
	ProductVersion(ctx context.Context, q Queryer) (string, error)

	// BindType is the sqlx bind type used to rebind `?` placeholders.
	BindType() int

	// HistoryTableSQL returns the DDL creating the history table if it is missing.
	HistoryTableSQL(table string) string

	// LockTableSQL returns the DDL creating the lock table if it is missing.
	LockTableSQL(table string) string

	// LockRowSQL returns the statement inserting the single lock row if it is missing.
	LockRowSQL(table string) string

	// TransactionalDDL reports whether DDL statements roll back with their transaction.
	TransactionalDDL() bool
}

// Database pairs an open connection with the dialect resolved for it.
type Database struct {
	Dialect
	DB *sql.DB
}

// ProductVersion returns the server version reported by the dialect.
func (d *Database) ProductVersion(ctx context.Context) (string, error) {
	version, err := d.Dialect.ProductVersion(ctx, d.DB)
	if err != nil {
		return "", fmt.Errorf("failed to query %s version: %w", d.ShortName(), err)
	}
	return version, nil
}

// Close closes the underlying connection.
func (d *Database) Close() error {
	return d.DB.Close()
}
