package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.Driver)
	assert.Equal(t, "file:mymemdb?mode=memory&cache=shared", cfg.DSN)
	assert.Equal(t, "SA", cfg.User)
	assert.Equal(t, "changelog.sql", cfg.Changelog)
	assert.Equal(t, "log.log", cfg.LogFile)
	assert.Equal(t, []string{"sqlite", "postgres", "mysql"}, cfg.Dialects)
	assert.Equal(t, time.Minute, cfg.LockWait)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Contexts)
	assert.Empty(t, cfg.MetricsFile)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"PUPMIGRATE_DRIVER":        "sqlite",
		"PUPMIGRATE_DSN":           "file:other?mode=memory",
		"PUPMIGRATE_CHANGELOG":     "db/changelog.yaml",
		"PUPMIGRATE_CHANGELOG_DIR": "/srv/db",
		"PUPMIGRATE_DIALECTS":      "sqlite",
		"PUPMIGRATE_CONTEXTS":      "dev,test",
		"PUPMIGRATE_LABELS":        "v2",
		"PUPMIGRATE_LOCK_WAIT":     "5s",
		"PUPMIGRATE_LOG_FILE":      "out.log",
		"PUPMIGRATE_METRICS_FILE":  "pupmigrate.prom",
		"LOG_LEVEL":                "debug",
	})
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Driver)
	assert.Equal(t, "file:other?mode=memory", cfg.DSN)
	assert.Equal(t, "db/changelog.yaml", cfg.Changelog)
	assert.Equal(t, "/srv/db", cfg.ChangelogDir)
	assert.Equal(t, []string{"sqlite"}, cfg.Dialects)
	assert.Equal(t, []string{"dev", "test"}, cfg.Contexts)
	assert.Equal(t, []string{"v2"}, cfg.Labels)
	assert.Equal(t, 5*time.Second, cfg.LockWait)
	assert.Equal(t, "out.log", cfg.LogFile)
	assert.Equal(t, "pupmigrate.prom", cfg.MetricsFile)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadFrom_NoneDisablesPreloadedDialects(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"PUPMIGRATE_DIALECTS": "none"})
	require.NoError(t, err)

	assert.Nil(t, cfg.Dialects)
}

func TestLoadFrom_InvalidDuration(t *testing.T) {
	_, err := LoadFrom(map[string]string{"PUPMIGRATE_LOCK_WAIT": "soon"})

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{Driver: "sqlite3", DSN: "file::memory:", Changelog: "changelog.sql", LogFile: "log.log"}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"empty driver", func(c *Config) { c.Driver = "" }, true},
		{"empty dsn", func(c *Config) { c.DSN = "" }, true},
		{"empty changelog", func(c *Config) { c.Changelog = "" }, true},
		{"empty log file", func(c *Config) { c.LogFile = "" }, true},
		{"negative lock wait", func(c *Config) { c.LockWait = -time.Second }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
