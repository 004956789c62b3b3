package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementSubmitted("registration")
	m.IncrementSubmitted("registration")
	m.IncrementDecision("transfer", "approved")
	m.IncrementSyncFailure("lookup")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsSubmitted.WithLabelValues("registration")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("transfer", "approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncFailures.WithLabelValues("lookup")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementSubmitted("document")
		m.IncrementDecision("document", "rejected")
		m.ObserveDecisionLatency("document", time.Millisecond)
		m.IncrementSyncFailure("anchor")
		m.IncrementLedgerEvent("TRANSFER")
		m.IncrementAuthEvent("refresh", "ok")
		m.ObserveHTTP("/healthz", "2xx", time.Millisecond)
	})
}
