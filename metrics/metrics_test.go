package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestChangeSetsTotal_Increment(t *testing.T) {
	before := testutil.ToFloat64(ChangeSetsTotal.WithLabelValues("test-dialect", OutcomeExecuted))
	ChangeSetsTotal.WithLabelValues("test-dialect", OutcomeExecuted).Inc()
	after := testutil.ToFloat64(ChangeSetsTotal.WithLabelValues("test-dialect", OutcomeExecuted))

	assert.Equal(t, before+1, after)
}

func TestPendingChangeSets_SetValue(t *testing.T) {
	PendingChangeSets.WithLabelValues("test-dialect-2").Set(4)
	value := testutil.ToFloat64(PendingChangeSets.WithLabelValues("test-dialect-2"))

	assert.Equal(t, float64(4), value)
}

func TestRegisteredDialects_SetValue(t *testing.T) {
	RegisteredDialects.Set(3)

	assert.Equal(t, float64(3), testutil.ToFloat64(RegisteredDialects))
}

func TestUpdateDuration_Observe(t *testing.T) {
	UpdateDuration.WithLabelValues("test-dialect-3").Observe(0.25)
	count := testutil.CollectAndCount(UpdateDuration)

	assert.Greater(t, count, 0)
}

func TestLockWaitDuration_Observe(t *testing.T) {
	LockWaitDuration.WithLabelValues("test-dialect-4").Observe(0.01)
	count := testutil.CollectAndCount(LockWaitDuration)

	assert.Greater(t, count, 0)
}
