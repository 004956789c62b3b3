package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"landregistry/internal/platform/kafka"
	"landregistry/pkg/platform/audit/store/postgres"
)

type fakeOutbox struct {
	mu        sync.Mutex
	entries   []postgres.OutboxEntry
	processed map[uuid.UUID]time.Time
	fetchErr  error
}

func newFakeOutbox(n int) *fakeOutbox {
	o := &fakeOutbox{processed: map[uuid.UUID]time.Time{}}
	for i := 0; i < n; i++ {
		o.entries = append(o.entries, postgres.OutboxEntry{
			ID:          uuid.New(),
			AggregateID: "REG-1",
			EventType:   "PROPERTY_REGISTRATION",
			Payload:     []byte(`{"action":"PROPERTY_REGISTRATION"}`),
		})
	}
	return o
}

func (o *fakeOutbox) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	o.mu.Lock()
	snapshot := make(map[uuid.UUID]time.Time, len(o.processed))
	for k, v := range o.processed {
		snapshot[k] = v
	}
	o.mu.Unlock()

	if err := fn(ctx); err != nil {
		o.mu.Lock()
		o.processed = snapshot
		o.mu.Unlock()
		return err
	}
	return nil
}

func (o *fakeOutbox) FetchUnprocessed(_ context.Context, limit int) ([]postgres.OutboxEntry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fetchErr != nil {
		return nil, o.fetchErr
	}
	var out []postgres.OutboxEntry
	for _, e := range o.entries {
		if _, done := o.processed[e.ID]; !done && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (o *fakeOutbox) MarkProcessed(_ context.Context, ids []uuid.UUID, at time.Time) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, id := range ids {
		o.processed[id] = at
	}
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	failures int
	sent     []kafka.Message
	calls    int
}

func (p *fakePublisher) Publish(_ context.Context, msgs ...kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.failures > 0 {
		p.failures--
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, msgs...)
	return nil
}

func noWait() backoff.BackOff {
	return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3)
}

func TestFlushShipsAndMarksBatch(t *testing.T) {
	outbox := newFakeOutbox(3)
	pub := &fakePublisher{}
	fixed := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	relay := NewRelay(outbox, pub, zap.NewNop(), WithBatchSize(2), WithBackOff(noWait), WithClock(func() time.Time { return fixed }))

	n, err := relay.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, pub.sent, 2)
	assert.Equal(t, "REG-1", pub.sent[0].Key)
	assert.Equal(t, "PROPERTY_REGISTRATION", pub.sent[0].Headers["event_type"])

	n, err = relay.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, outbox.processed, 3)
	for _, at := range outbox.processed {
		assert.Equal(t, fixed, at)
	}
}

func TestFlushRetriesTransientPublishFailures(t *testing.T) {
	outbox := newFakeOutbox(1)
	pub := &fakePublisher{failures: 2}
	relay := NewRelay(outbox, pub, zap.NewNop(), WithBackOff(noWait))

	n, err := relay.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3, pub.calls)
}

func TestFlushLeavesRowsUnprocessedWhenPublishGivesUp(t *testing.T) {
	outbox := newFakeOutbox(2)
	pub := &fakePublisher{failures: 10}
	relay := NewRelay(outbox, pub, zap.NewNop(), WithBackOff(noWait))

	n, err := relay.Flush(context.Background())
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Empty(t, outbox.processed)
}

func TestFlushEmptyOutbox(t *testing.T) {
	pub := &fakePublisher{}
	relay := NewRelay(newFakeOutbox(0), pub, zap.NewNop())

	n, err := relay.Flush(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, pub.calls)
}

func TestRunStopsOnCancel(t *testing.T) {
	outbox := newFakeOutbox(1)
	pub := &fakePublisher{}
	relay := NewRelay(outbox, pub, zap.NewNop(), WithPollInterval(10*time.Millisecond), WithBackOff(noWait))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	require.Eventually(t, func() bool {
		outbox.mu.Lock()
		defer outbox.mu.Unlock()
		return len(outbox.processed) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}
