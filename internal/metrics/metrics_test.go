package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	m.ObserveInitialize(RESULT_OK, 10*time.Millisecond)
	m.ObserveInitialize(RESULT_OK, 20*time.Millisecond)
	m.ObserveInitialize(RESULT_REJECTED, time.Millisecond)
	m.AddLockedBase("mintA", 100_000)
	m.AddLockedBase("mintA", 5)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.initializeTotal.WithLabelValues(RESULT_OK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.initializeTotal.WithLabelValues(RESULT_REJECTED)))
	assert.Equal(t, float64(100_005), testutil.ToFloat64(m.lockedBaseTotal.WithLabelValues("mintA")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "covered_call_initialize_seconds_count 3")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveInitialize(RESULT_ERROR, time.Second)
		m.AddLockedBase("mint", 1)
	})
}
