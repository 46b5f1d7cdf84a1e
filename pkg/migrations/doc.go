// Package migrations generates SQL files creating the migration tracking tables.
// It writes the history and lock table DDL for PostgreSQL, MySQL/MariaDB, and SQLite,
// for deployments where the migrating user may not create tables itself.
package migrations
