package metrics

// Collector wraps metrics and provides helper methods with pre-filled labels.
type Collector struct {
	dialect string
}

// NewCollector creates a new Collector for the given dialect short name.
func NewCollector(dialect string) *Collector {
	return &Collector{dialect: dialect}
}

// IncChangeSets increments the changesets counter for an outcome.
func (c *Collector) IncChangeSets(outcome string) {
	ChangeSetsTotal.WithLabelValues(c.dialect, outcome).Inc()
}

// IncUpdates increments the update counter. A nil err counts as success.
func (c *Collector) IncUpdates(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	UpdatesTotal.WithLabelValues(c.dialect, result).Inc()
}

// SetPendingChangeSets sets the pending changesets gauge.
func (c *Collector) SetPendingChangeSets(count int) {
	PendingChangeSets.WithLabelValues(c.dialect).Set(float64(count))
}

// ObserveUpdateDuration records an update duration observation.
func (c *Collector) ObserveUpdateDuration(seconds float64) {
	UpdateDuration.WithLabelValues(c.dialect).Observe(seconds)
}

// ObserveLockWait records a lock wait observation.
func (c *Collector) ObserveLockWait(seconds float64) {
	LockWaitDuration.WithLabelValues(c.dialect).Observe(seconds)
}

// SetRegisteredDialects sets the registered dialects gauge.
func SetRegisteredDialects(count int) {
	RegisteredDialects.Set(float64(count))
}
