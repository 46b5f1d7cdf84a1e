// Package config loads the launcher configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config controls the diagnostic migration run.
//
// Every value has a default, so a run without any environment variables
// migrates the embedded in-memory database with the bundled changelog.
type Config struct {
	// Driver is the database/sql driver name.
	Driver string `env:"PUPMIGRATE_DRIVER" envDefault:"sqlite3"`

	// DSN is the data source name passed to the driver.
	DSN string `env:"PUPMIGRATE_DSN" envDefault:"file:mymemdb?mode=memory&cache=shared"`

	// User identifies who runs the migration; it is recorded as the lock owner.
	User string `env:"PUPMIGRATE_USER" envDefault:"SA"`

	// Changelog is the changelog resource name.
	Changelog string `env:"PUPMIGRATE_CHANGELOG" envDefault:"changelog.sql"`

	// ChangelogDir is searched for the changelog before the bundled resources.
	ChangelogDir string `env:"PUPMIGRATE_CHANGELOG_DIR"`

	// Dialects are preloaded into the registry. "none" preloads nothing.
	Dialects []string `env:"PUPMIGRATE_DIALECTS" envDefault:"sqlite,postgres,mysql" envSeparator:","`

	Contexts []string `env:"PUPMIGRATE_CONTEXTS" envSeparator:","`
	Labels   []string `env:"PUPMIGRATE_LABELS" envSeparator:","`

	// LockWait bounds how long to wait for another migration to finish.
	LockWait time.Duration `env:"PUPMIGRATE_LOCK_WAIT" envDefault:"1m"`

	// LogFile receives the diagnostic log on exit.
	LogFile string `env:"PUPMIGRATE_LOG_FILE" envDefault:"log.log"`

	// MetricsFile, when set, receives prometheus metrics in the textfile format on exit.
	MetricsFile string `env:"PUPMIGRATE_METRICS_FILE"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.normalize()
}

// LoadFrom reads the configuration from the given environment instead of the process one.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.normalize()
}

func (c Config) normalize() (Config, error) {
	if len(c.Dialects) == 1 && c.Dialects[0] == "none" {
		c.Dialects = nil
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the values a run cannot do without.
func (c Config) Validate() error {
	switch {
	case c.Driver == "":
		return fmt.Errorf("PUPMIGRATE_DRIVER cannot be empty")
	case c.DSN == "":
		return fmt.Errorf("PUPMIGRATE_DSN cannot be empty")
	case c.Changelog == "":
		return fmt.Errorf("PUPMIGRATE_CHANGELOG cannot be empty")
	case c.LogFile == "":
		return fmt.Errorf("PUPMIGRATE_LOG_FILE cannot be empty")
	case c.LockWait < 0:
		return fmt.Errorf("PUPMIGRATE_LOCK_WAIT cannot be negative (got: %s)", c.LockWait)
	}
	return nil
}
