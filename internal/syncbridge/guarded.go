package syncbridge

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"landregistry/pkg/platform/circuit"
	"landregistry/pkg/platform/sentinel"
)

// Guarded short-circuits calls to a failing ledger endpoint. While the
// breaker is open calls fail fast with sentinel.ErrUnavailable.
type Guarded struct {
	next    Bridge
	breaker *circuit.Breaker
	metrics *Metrics
	logger  *zap.Logger
}

type GuardOption func(*Guarded)

func WithMetrics(m *Metrics) GuardOption {
	return func(g *Guarded) { g.metrics = m }
}

func WithLogger(logger *zap.Logger) GuardOption {
	return func(g *Guarded) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func NewGuarded(next Bridge, breaker *circuit.Breaker, opts ...GuardOption) *Guarded {
	if breaker == nil {
		breaker = circuit.New("syncbridge")
	}
	g := &Guarded{next: next, breaker: breaker, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guarded) SyncProperty(ctx context.Context, property PropertyDescriptor, txHash string) (*PropertySync, error) {
	if err := g.allow("property"); err != nil {
		return nil, err
	}
	res, err := g.next.SyncProperty(ctx, property, txHash)
	g.record("property", err)
	return res, err
}

func (g *Guarded) SyncDocument(ctx context.Context, document DocumentDescriptor) (*DocumentSync, error) {
	if err := g.allow("document"); err != nil {
		return nil, err
	}
	res, err := g.next.SyncDocument(ctx, document)
	g.record("document", err)
	return res, err
}

func (g *Guarded) allow(operation string) error {
	if g.breaker.Allow() {
		return nil
	}
	g.metrics.incShortCircuited(operation)
	return fmt.Errorf("sync bridge %s: %w", g.breaker.Name(), sentinel.ErrUnavailable)
}

func (g *Guarded) record(operation string, err error) {
	if err == nil {
		if _, change := g.breaker.RecordSuccess(); change.Closed {
			g.logger.Info("sync bridge recovered", zap.String("breaker", g.breaker.Name()))
		}
		return
	}
	if errors.Is(err, ErrSyncDisabled) {
		return
	}
	g.metrics.incFailures(operation)
	if _, change := g.breaker.RecordFailure(); change.Opened {
		g.logger.Warn("sync bridge circuit opened",
			zap.String("breaker", g.breaker.Name()),
			zap.String("operation", operation),
			zap.Error(err),
		)
	}
}
