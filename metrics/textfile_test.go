package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextfile_WritesRegisteredMetrics(t *testing.T) {
	NewCollector("test-textfile").IncChangeSets(OutcomeExecuted)
	path := filepath.Join(t.TempDir(), "pupmigrate.prom")

	require.NoError(t, WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `pupmigrate_changesets_total{dialect="test-textfile",outcome="executed"}`)
}

func TestWriteTextfile_UsesGivenGatherer(t *testing.T) {
	registry := prometheus.NewRegistry()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_only_gauge", Help: "test"})
	registry.MustRegister(gauge)
	gauge.Set(2)
	path := filepath.Join(t.TempDir(), "custom.prom")

	require.NoError(t, writeTextfile(path, registry))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "test_only_gauge 2")
	assert.NotContains(t, string(content), "pupmigrate_")
}

func TestWriteTextfile_ReportsUnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "pupmigrate.prom")

	err := WriteTextfile(path)

	assert.Error(t, err)
}
