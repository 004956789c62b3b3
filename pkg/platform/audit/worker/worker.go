// Package worker ships audit outbox rows to Kafka. It runs in its own process
// (cmd/audit-relay) so the request path never owns a background goroutine.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"landregistry/internal/platform/kafka"
	"landregistry/pkg/platform/audit/store/postgres"
)

// Outbox is the relay's view of the audit store.
type Outbox interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	FetchUnprocessed(ctx context.Context, limit int) ([]postgres.OutboxEntry, error)
	MarkProcessed(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

type Publisher interface {
	Publish(ctx context.Context, msgs ...kafka.Message) error
}

// Relay polls the outbox and publishes unshipped rows. Rows are locked for the
// duration of a batch and marked processed in the same transaction, so a crash
// between publish and commit re-sends the batch (at-least-once delivery).
type Relay struct {
	outbox       Outbox
	publisher    Publisher
	logger       *zap.Logger
	batchSize    int
	pollInterval time.Duration
	newBackOff   func() backoff.BackOff
	now          func() time.Time
}

type Option func(*Relay)

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithBackOff replaces the publish retry policy.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(r *Relay) {
		r.newBackOff = fn
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Relay) {
		r.now = now
	}
}

func NewRelay(outbox Outbox, publisher Publisher, logger *zap.Logger, opts ...Option) *Relay {
	r := &Relay{
		outbox:       outbox,
		publisher:    publisher,
		logger:       logger,
		batchSize:    100,
		pollInterval: 2 * time.Second,
		newBackOff:   defaultBackOff,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return b
}

// Run flushes until ctx is cancelled. A full batch is followed immediately by
// another flush; otherwise the relay waits one poll interval.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.Info("audit relay started",
		zap.Int("batch_size", r.batchSize),
		zap.Duration("poll_interval", r.pollInterval),
	)
	for {
		n, err := r.Flush(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Error("audit relay flush failed", zap.Error(err))
		}
		if n == r.batchSize && err == nil {
			continue
		}
		select {
		case <-ctx.Done():
			r.logger.Info("audit relay stopped")
			return nil
		case <-time.After(r.pollInterval):
		}
	}
}

// Flush ships one batch and returns how many rows it marked processed.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	var shipped int
	err := r.outbox.RunInTx(ctx, func(ctx context.Context) error {
		entries, err := r.outbox.FetchUnprocessed(ctx, r.batchSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}

		msgs := make([]kafka.Message, len(entries))
		ids := make([]uuid.UUID, len(entries))
		for i, e := range entries {
			msgs[i] = kafka.Message{
				Key:   e.AggregateID,
				Value: e.Payload,
				Headers: map[string]string{
					"event_type": e.EventType,
					"outbox_id":  e.ID.String(),
				},
			}
			ids[i] = e.ID
		}

		publish := func() error {
			return r.publisher.Publish(ctx, msgs...)
		}
		notify := func(err error, wait time.Duration) {
			r.logger.Warn("audit publish failed, retrying",
				zap.Int("batch", len(msgs)),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
		}
		if err := backoff.RetryNotify(publish, backoff.WithContext(r.newBackOff(), ctx), notify); err != nil {
			return fmt.Errorf("publish audit batch: %w", err)
		}

		if err := r.outbox.MarkProcessed(ctx, ids, r.now()); err != nil {
			return err
		}
		shipped = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if shipped > 0 {
		r.logger.Debug("audit batch shipped", zap.Int("count", shipped))
	}
	return shipped, nil
}
