package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	RESULT_OK       = "ok"
	RESULT_REJECTED = "rejected"
	RESULT_ERROR    = "error"
)

type Metrics struct {
	registry        *prometheus.Registry
	initializeTotal *prometheus.CounterVec
	initializeTime  prometheus.Histogram
	lockedBaseTotal *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	initialize := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "covered_call_initialize_total",
		Help: "Covered call initializations by result",
	}, []string{"result"})

	initializeTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "covered_call_initialize_seconds",
		Help:    "Time spent in one covered call initialization transaction",
		Buckets: prometheus.DefBuckets,
	})

	locked := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "covered_call_locked_base_total",
		Help: "Base units moved into covered call vaults",
	}, []string{"mint"})

	r := prometheus.NewRegistry()
	r.MustRegister(initialize, initializeTime, locked)

	return &Metrics{
		registry:        r,
		initializeTotal: initialize,
		initializeTime:  initializeTime,
		lockedBaseTotal: locked,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveInitialize is safe on a nil Metrics.
func (m *Metrics) ObserveInitialize(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.initializeTotal.WithLabelValues(result).Inc()
	m.initializeTime.Observe(took.Seconds())
}

func (m *Metrics) AddLockedBase(mint string, amount uint64) {
	if m == nil {
		return
	}
	m.lockedBaseTotal.WithLabelValues(mint).Add(float64(amount))
}
