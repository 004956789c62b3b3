package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors shared by the verification engine,
// the token manager and the HTTP layer. A nil *Metrics is a valid no-op.
type Metrics struct {
	RequestsSubmitted *prometheus.CounterVec
	Decisions         *prometheus.CounterVec
	DecisionLatency   *prometheus.HistogramVec
	SyncFailures      *prometheus.CounterVec
	LedgerEvents      *prometheus.CounterVec
	AuthEvents        *prometheus.CounterVec
	HTTPLatency       *prometheus.HistogramVec
}

// New registers all collectors with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "landregistry_requests_submitted_total",
			Help: "Verification requests accepted, by kind",
		}, []string{"kind"}),

		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "landregistry_decisions_total",
			Help: "Reviewer decisions by kind and outcome",
		}, []string{"kind", "outcome"}), // outcome: approved, rejected, already_finalized, failed

		DecisionLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "landregistry_decision_duration_seconds",
			Help:    "Duration of approve/reject units of work",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"kind"}),

		SyncFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "landregistry_sync_failures_total",
			Help: "Blockchain sync bridge failures by operation",
		}, []string{"operation"}),

		LedgerEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "landregistry_ledger_events_total",
			Help: "Ledger mirror events appended, by event type",
		}, []string{"type"}),

		AuthEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "landregistry_auth_events_total",
			Help: "Token manager events by type and result",
		}, []string{"event", "result"}),

		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "landregistry_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status class",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

func (m *Metrics) IncrementSubmitted(kind string) {
	if m != nil {
		m.RequestsSubmitted.WithLabelValues(kind).Inc()
	}
}

// IncrementDecision records a decision attempt outcome.
func (m *Metrics) IncrementDecision(kind, outcome string) {
	if m != nil {
		m.Decisions.WithLabelValues(kind, outcome).Inc()
	}
}

func (m *Metrics) ObserveDecisionLatency(kind string, d time.Duration) {
	if m != nil {
		m.DecisionLatency.WithLabelValues(kind).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementSyncFailure(operation string) {
	if m != nil {
		m.SyncFailures.WithLabelValues(operation).Inc()
	}
}

func (m *Metrics) IncrementLedgerEvent(eventType string) {
	if m != nil {
		m.LedgerEvents.WithLabelValues(eventType).Inc()
	}
}

func (m *Metrics) IncrementAuthEvent(event, result string) {
	if m != nil {
		m.AuthEvents.WithLabelValues(event, result).Inc()
	}
}

func (m *Metrics) ObserveHTTP(route, status string, d time.Duration) {
	if m != nil {
		m.HTTPLatency.WithLabelValues(route, status).Observe(d.Seconds())
	}
}
