// Package mysql provides the MySQL/MariaDB dialect for connections opened with
// github.com/go-sql-driver/mysql. Importing this package registers the "mysql" driver.
//
// The DSN must set parseTime=true so history timestamps scan into time.Time.
package mysql

import (
	"context"
	"database/sql/driver"
	"fmt"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/getpup/pupmigrate/dialect"
)

// ShortName identifies the MySQL dialect.
const ShortName = "mysql"

// Dialect is the MySQL/MariaDB dialect.
type Dialect struct{}

// New returns the MySQL dialect.
func New() *Dialect {
	return &Dialect{}
}

var _ dialect.Dialect = (*Dialect)(nil)

func (d *Dialect) ShortName() string   { return ShortName }
func (d *Dialect) ProductName() string { return "MySQL" }
func (d *Dialect) Priority() int       { return 1 }
func (d *Dialect) BindType() int       { return sqlx.QUESTION }

// TransactionalDDL is false: MySQL commits implicitly around DDL statements.
func (d *Dialect) TransactionalDDL() bool { return false }

func (d *Dialect) Supports(drv driver.Driver) bool {
	_, ok := drv.(*gomysql.MySQLDriver)
	return ok
}

func (d *Dialect) ProductVersion(ctx context.Context, q dialect.Queryer) (string, error) {
	var version string
	if err := q.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version); err != nil {
		return "", err
	}
	return version, nil
}

// HistoryTableSQL uses VARCHAR defaults because MySQL rejects defaults on TEXT columns.
func (d *Dialect) HistoryTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id VARCHAR(255) NOT NULL,
    author VARCHAR(255) NOT NULL,
    filename VARCHAR(255) NOT NULL,
    date_executed DATETIME(6) NOT NULL,
    order_executed INT NOT NULL,
    exec_type VARCHAR(10) NOT NULL,
    md5sum VARCHAR(64) NOT NULL DEFAULT '',
    description VARCHAR(255) NOT NULL DEFAULT '',
    comments VARCHAR(1024) NOT NULL DEFAULT '',
    contexts VARCHAR(255) NOT NULL DEFAULT '',
    labels VARCHAR(255) NOT NULL DEFAULT '',
    deployment_id VARCHAR(64) NOT NULL DEFAULT '',
    PRIMARY KEY (id, author, filename)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`, table)
}

func (d *Dialect) LockTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id INT PRIMARY KEY,
    locked BOOLEAN NOT NULL,
    lock_granted DATETIME(6) NULL,
    locked_by VARCHAR(255) NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`, table)
}

func (d *Dialect) LockRowSQL(table string) string {
	return fmt.Sprintf(`INSERT IGNORE INTO %s (id, locked) VALUES (1, FALSE)`, table)
}
