package syncbridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Failures       *prometheus.CounterVec
	ShortCircuited *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "landregistry_sync_bridge_failures_total",
			Help: "Sync bridge calls that returned an error",
		}, []string{"operation"}),
		ShortCircuited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "landregistry_sync_bridge_short_circuited_total",
			Help: "Sync bridge calls rejected while the breaker was open",
		}, []string{"operation"}),
	}
}

func (m *Metrics) incFailures(operation string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(operation).Inc()
}

func (m *Metrics) incShortCircuited(operation string) {
	if m == nil {
		return
	}
	m.ShortCircuited.WithLabelValues(operation).Inc()
}
