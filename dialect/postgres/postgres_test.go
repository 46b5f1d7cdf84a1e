package postgres_test

import (
	"strings"
	"testing"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/getpup/pupmigrate/dialect/postgres"
)

func TestDialect_Supports(t *testing.T) {
	d := postgres.New()

	assert.True(t, d.Supports(&pq.Driver{}))
	assert.False(t, d.Supports(&gomysql.MySQLDriver{}))
	assert.False(t, d.Supports(nil))
}

func TestDialect_Properties(t *testing.T) {
	d := postgres.New()

	assert.Equal(t, "postgres", d.ShortName())
	assert.Equal(t, "PostgreSQL", d.ProductName())
	assert.Equal(t, sqlx.DOLLAR, d.BindType())
	assert.True(t, d.TransactionalDDL())
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", sqlx.Rebind(d.BindType(), "SELECT * FROM t WHERE a = ? AND b = ?"))
}

func TestDialect_DDL(t *testing.T) {
	d := postgres.New()

	history := d.HistoryTableSQL("app_changelog")
	assert.True(t, strings.HasPrefix(history, "CREATE TABLE IF NOT EXISTS app_changelog ("))
	assert.Contains(t, history, "date_executed TIMESTAMPTZ NOT NULL")
	assert.Contains(t, history, "PRIMARY KEY (id, author, filename)")

	assert.Contains(t, d.LockTableSQL("app_lock"), "CREATE TABLE IF NOT EXISTS app_lock (")
	assert.Equal(t, "INSERT INTO app_lock (id, locked) VALUES (1, FALSE) ON CONFLICT (id) DO NOTHING", d.LockRowSQL("app_lock"))
}
