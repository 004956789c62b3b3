// Package compliance provides a fail-closed audit publisher for registry
// state changes.
//
// Emit writes synchronously through the audit store. When the write fails the
// error is returned and the calling operation must fail with it; inside a
// unit of work that rolls the whole transition back.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	audit "landregistry/pkg/platform/audit"
)

var (
	errMissingActor  = errors.New("compliance event requires an actor")
	errMissingAction = errors.New("compliance event requires an action")
)

// Publisher emits compliance events with fail-closed semantics.
type Publisher struct {
	store   audit.Store
	logger  *zap.Logger
	metrics *Metrics
	now     func() time.Time
}

// Option configures the Publisher.
type Option func(*Publisher)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithClock overrides time.Now for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

// New creates a compliance publisher. The store should be outbox-backed in
// production so events reach the relay.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit validates and persists event. The category is always derived from the
// action.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	start := p.now()

	if event.ActorID.IsNil() {
		return errMissingActor
	}
	if event.Action == "" {
		return errMissingAction
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = start
	}
	event.Category = audit.AuditEvent(event.Action).Category()

	if err := p.store.Append(ctx, event); err != nil {
		p.metrics.incPersistFailures(event.Action)
		p.logger.Error("compliance audit failed",
			zap.String("action", event.Action),
			zap.String("actor", event.ActorID.String()),
			zap.String("subject", event.Subject),
			zap.Error(err),
		)
		return fmt.Errorf("compliance audit persistence failed: %w", err)
	}

	p.metrics.observePersist(event.Action, p.now().Sub(start))
	return nil
}
