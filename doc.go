// Package pupmigrate holds the types and errors shared by the changelog migrator.
//
// The migrator applies ordered changesets from a changelog to a relational database,
// records each applied changeset in a history table, and guards concurrent runs with
// a lock table. Database specifics live in dialects, which are resolved through an
// explicit dialect.Registry rather than global state.
//
// Subpackages:
//
//   - changelog: changelog loading and parsing (formatted SQL and YAML)
//   - dialect: the dialect registry and the sqlite, postgres and mysql dialects
//   - store: history and lock persistence
//   - pkg/migrator: the migration runner
//   - pkg/migrations: DDL generation for the tracking tables
package pupmigrate
