package compliance

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for compliance audit writes.
type Metrics struct {
	Emitted         *prometheus.CounterVec
	PersistFailures *prometheus.CounterVec
	PersistDuration prometheus.Histogram
}

// NewMetrics registers compliance audit metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Emitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "landregistry_audit_compliance_emitted_total",
			Help: "Total number of compliance audit events persisted",
		}, []string{"action"}),
		PersistFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "landregistry_audit_compliance_persist_failures_total",
			Help: "Total number of compliance audit events that failed to persist",
		}, []string{"action"}),
		PersistDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "landregistry_audit_compliance_persist_duration_seconds",
			Help:    "Time spent persisting a compliance audit event",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
	}
}

func (m *Metrics) incPersistFailures(action string) {
	if m == nil {
		return
	}
	m.PersistFailures.WithLabelValues(action).Inc()
}

func (m *Metrics) observePersist(action string, d time.Duration) {
	if m == nil {
		return
	}
	m.Emitted.WithLabelValues(action).Inc()
	m.PersistDuration.Observe(d.Seconds())
}
