package migrations

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getpup/pupmigrate/dialect"
	"github.com/getpup/pupmigrate/dialect/mysql"
	"github.com/getpup/pupmigrate/dialect/postgres"
	"github.com/getpup/pupmigrate/dialect/sqlite"
	"github.com/getpup/pupmigrate/store/sqlstore"
)

// Config configures migration generation for the tracking tables.
type Config struct {
	// OutputFolder is the directory where the migration file will be written
	OutputFolder string

	// OutputFilename is the name of the migration file
	OutputFilename string

	// HistoryTable is the name of the table recording applied changesets
	HistoryTable string

	// LockTable is the name of the migration lock table
	LockTable string
}

// DefaultConfig returns the default configuration for tracking-table migrations.
func DefaultConfig() Config {
	timestamp := time.Now().Format("20060102150405")
	tables := sqlstore.DefaultTableConfig()
	return Config{
		OutputFolder:   "migrations",
		OutputFilename: fmt.Sprintf("%s_init_pupmigrate_tracking.sql", timestamp),
		HistoryTable:   tables.HistoryTable,
		LockTable:      tables.LockTable,
	}
}

func (c *Config) tableConfig() sqlstore.TableConfig {
	return sqlstore.TableConfig{HistoryTable: c.HistoryTable, LockTable: c.LockTable}
}

// GeneratePostgres generates a PostgreSQL migration file.
func GeneratePostgres(config *Config) error {
	return Generate(postgres.New(), config)
}

// GenerateMySQL generates a MySQL/MariaDB migration file.
func GenerateMySQL(config *Config) error {
	return Generate(mysql.New(), config)
}

// GenerateSQLite generates a SQLite migration file.
func GenerateSQLite(config *Config) error {
	return Generate(sqlite.New(), config)
}

// Adapters returns the registry of dialects migrations can be generated for.
func Adapters() *dialect.Registry {
	return dialect.NewRegistry(postgres.New(), mysql.New(), sqlite.New())
}

// GenerateFor generates the migration file for the adapter registered under shortName.
func GenerateFor(shortName string, config *Config) error {
	d, err := Adapters().Lookup(shortName)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return Generate(d, config)
}

// Generate writes the tracking-table migration for d.
func Generate(d dialect.Dialect, config *Config) error {
	// Validate configuration to prevent SQL injection
	if err := config.tableConfig().Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if dialect.IsUnsupported(d) {
		return fmt.Errorf("invalid configuration: cannot generate DDL for an unsupported database")
	}

	if err := os.MkdirAll(config.OutputFolder, 0o755); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}

	sql := GenerateSQL(d, config)

	outputPath := filepath.Join(config.OutputFolder, config.OutputFilename)
	if err := os.WriteFile(outputPath, []byte(sql), 0o600); err != nil {
		return fmt.Errorf("failed to write migration file: %w", err)
	}

	return nil
}

// GenerateSQL returns the tracking-table DDL for d without writing it.
func GenerateSQL(d dialect.Dialect, config *Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, `-- pupmigrate Tracking Tables Migration
-- Generated: %s
-- Database: %s

-- History table records every applied changeset
-- One row per changeset identity (id, author, filename)
%s;

-- Lock table holds a single row guarding concurrent migrations
%s;

-- Initialize the singleton lock row
%s;
`,
		time.Now().Format(time.RFC3339),
		d.ProductName(),
		d.HistoryTableSQL(config.HistoryTable),
		d.LockTableSQL(config.LockTable),
		d.LockRowSQL(config.LockTable),
	)
	return b.String()
}
