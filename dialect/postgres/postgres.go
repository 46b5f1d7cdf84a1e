// Package postgres provides the PostgreSQL dialect for connections opened
// with github.com/lib/pq. Importing this package registers the "postgres" driver.
package postgres

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/getpup/pupmigrate/dialect"
)

// ShortName identifies the PostgreSQL dialect.
const ShortName = "postgres"

// Dialect is the PostgreSQL dialect.
type Dialect struct{}

// New returns the PostgreSQL dialect.
func New() *Dialect {
	return &Dialect{}
}

var _ dialect.Dialect = (*Dialect)(nil)

func (d *Dialect) ShortName() string      { return ShortName }
func (d *Dialect) ProductName() string    { return "PostgreSQL" }
func (d *Dialect) Priority() int          { return 1 }
func (d *Dialect) BindType() int          { return sqlx.DOLLAR }
func (d *Dialect) TransactionalDDL() bool { return true }

func (d *Dialect) Supports(drv driver.Driver) bool {
	_, ok := drv.(*pq.Driver)
	return ok
}

func (d *Dialect) ProductVersion(ctx context.Context, q dialect.Queryer) (string, error) {
	var version string
	if err := q.QueryRowContext(ctx, "SHOW server_version").Scan(&version); err != nil {
		return "", err
	}
	return version, nil
}

func (d *Dialect) HistoryTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id VARCHAR(255) NOT NULL,
    author VARCHAR(255) NOT NULL,
    filename VARCHAR(255) NOT NULL,
    date_executed TIMESTAMPTZ NOT NULL,
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
    lock_granted TIMESTAMPTZ NULL,
    locked_by VARCHAR(255) NULL
)`, table)
}

func (d *Dialect) LockRowSQL(table string) string {
	return fmt.Sprintf(`INSERT INTO %s (id, locked) VALUES (1, FALSE) ON CONFLICT (id) DO NOTHING`, table)
}
