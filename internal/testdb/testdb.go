// Package testdb opens isolated in-memory SQLite databases for tests.
package testdb

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"

	// registers the "sqlite3" and "sqlite" drivers
	_ "github.com/getpup/pupmigrate/dialect/sqlite"
)

// DSN returns a shared-cache in-memory DSN unique to one test.
func DSN(driverName string) string {
	name := uuid.NewString()
	if driverName == "sqlite" {
		return fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	}
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=UTC", name)
}

// Open opens a fresh in-memory database with driverName ("sqlite3" or "sqlite")
// and closes it when the test ends. The pool holds a single connection so
// every query sees the same database.
func Open(t testing.TB, driverName string) *sql.DB {
	t.Helper()

	db := OpenDSN(t, driverName, DSN(driverName))
	db.SetMaxOpenConns(1)
	return db
}

// OpenDSN opens dsn with driverName and closes it when the test ends.
// Holding it open keeps a shared-cache in-memory database alive across other connections.
func OpenDSN(t testing.TB, driverName, dsn string) *sql.DB {
	t.Helper()

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		t.Fatalf("failed to open %s: %v", driverName, err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Ping(); err != nil {
		t.Fatalf("failed to ping %s: %v", driverName, err)
	}
	return db
}
