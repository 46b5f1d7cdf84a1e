// Package metrics exposes prometheus metrics for migration runs.
//
// Migrations run as batch jobs, so metrics are usually written once at exit
// with WriteTextfile for the node exporter textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Changeset outcomes used as the "outcome" label of ChangeSetsTotal.
const (
	OutcomeExecuted   = "executed"
	OutcomeReran      = "reran"
	OutcomeSkipped    = "skipped"
	OutcomeFailed     = "failed"
	OutcomeRolledBack = "rolled_back"
)

// ChangeSetsTotal tracks changesets handled by the migrator, by outcome.
var ChangeSetsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pupmigrate_changesets_total",
		Help: "Total changesets handled, by outcome",
	},
	[]string{"dialect", "outcome"},
)

// UpdatesTotal tracks update runs, by result.
var UpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pupmigrate_updates_total",
		Help: "Total update runs, by result",
	},
	[]string{"dialect", "result"},
)

// PendingChangeSets tracks the changesets an update planned to run.
var PendingChangeSets = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "pupmigrate_pending_changesets",
		Help: "Changesets planned by the last update",
	},
	[]string{"dialect"},
)

// RegisteredDialects tracks the number of dialects in the registry used for the run.
var RegisteredDialects = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "pupmigrate_registered_dialects",
		Help: "Dialects registered for the run",
	},
)

// UpdateDuration tracks time spent applying a changelog.
var UpdateDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "pupmigrate_update_duration_seconds",
		Help:    "Time spent applying a changelog",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"dialect"},
)

// LockWaitDuration tracks time spent waiting for the migration lock.
var LockWaitDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "pupmigrate_lock_wait_duration_seconds",
		Help:    "Time spent waiting for the migration lock",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"dialect"},
)
