// Package sqlite provides the SQLite dialect.
//
// Both the cgo driver (github.com/mattn/go-sqlite3, registered as "sqlite3")
// and the pure-Go driver (modernc.org/sqlite, registered as "sqlite") are
// recognised. Importing this package registers both drivers with database/sql.
package sqlite

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"
	moderncsqlite "modernc.org/sqlite"

	"github.com/getpup/pupmigrate/dialect"
)

// ShortName identifies the SQLite dialect.
const ShortName = "sqlite"

// Dialect is the SQLite dialect.
type Dialect struct{}

// New returns the SQLite dialect.
func New() *Dialect {
	return &Dialect{}
}

var _ dialect.Dialect = (*Dialect)(nil)

func (d *Dialect) ShortName() string   { return ShortName }
func (d *Dialect) ProductName() string { return "SQLite" }
func (d *Dialect) Priority() int       { return 1 }
func (d *Dialect) BindType() int       { return sqlx.QUESTION }

// TransactionalDDL is true: SQLite rolls back schema changes with their transaction.
func (d *Dialect) TransactionalDDL() bool { return true }

// Supports matches connections opened with either SQLite driver.
func (d *Dialect) Supports(drv driver.Driver) bool {
	switch drv.(type) {
	case *sqlite3.SQLiteDriver, *moderncsqlite.Driver:
		return true
	default:
		return false
	}
}

// ProductVersion returns the SQLite library version.
func (d *Dialect) ProductVersion(ctx context.Context, q dialect.Queryer) (string, error) {
	var version string
	if err := q.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return "", err
	}
	return version, nil
}

func (d *Dialect) HistoryTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id VARCHAR(255) NOT NULL,
    author VARCHAR(255) NOT NULL,
    filename VARCHAR(255) NOT NULL,
    date_executed TIMESTAMP NOT NULL,
    order_executed INTEGER NOT NULL,
    exec_type VARCHAR(10) NOT NULL,
    md5sum VARCHAR(64) NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    comments TEXT NOT NULL DEFAULT '',
    contexts TEXT NOT NULL DEFAULT '',
    labels TEXT NOT NULL DEFAULT '',
    deployment_id VARCHAR(64) NOT NULL DEFAULT '',
    PRIMARY KEY (id, author, filename)
)`, table)
}

func (d *Dialect) LockTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id INTEGER PRIMARY KEY,
    locked BOOLEAN NOT NULL,
    lock_granted TIMESTAMP NULL,
    locked_by VARCHAR(255) NULL
)`, table)
}

func (d *Dialect) LockRowSQL(table string) string {
	return fmt.Sprintf(`INSERT OR IGNORE INTO %s (id, locked) VALUES (1, FALSE)`, table)
}
