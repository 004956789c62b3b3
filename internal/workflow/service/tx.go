package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"landregistry/internal/activity"
	ledgerstore "landregistry/internal/ledger/store"
	"landregistry/internal/workflow/store"
	dErrors "landregistry/pkg/domain-errors"
	auditmemory "landregistry/pkg/platform/audit/store/memory"
	txcontext "landregistry/pkg/platform/tx"
)

type postgresUnitOfWork struct {
	db      *sql.DB
	stores  Stores
	timeout time.Duration
}

// NewPostgresUnitOfWork runs each unit of work in one database transaction.
// The stores join it through the context.
func NewPostgresUnitOfWork(db *sql.DB, stores Stores, timeout time.Duration) UnitOfWork {
	return &postgresUnitOfWork{db: db, stores: stores, timeout: timeout}
}

func (u *postgresUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error {
	return txcontext.Run(ctx, u.db, u.timeout, func(ctx context.Context) error {
		return fn(ctx, u.stores)
	})
}

// MemoryParticipants are the in-memory stores a memory unit of work restores
// on failure. Nil fields are skipped.
type MemoryParticipants struct {
	Requests *store.InMemoryStore
	Ledger   *ledgerstore.InMemoryStore
	Activity *activity.InMemoryStore
	Audit    *auditmemory.InMemoryStore
}

type memoryUnitOfWork struct {
	mu           sync.Mutex
	stores       Stores
	participants MemoryParticipants
}

// NewMemoryUnitOfWork serializes units of work behind one lock and restores
// every participant when fn fails.
func NewMemoryUnitOfWork(stores Stores, participants MemoryParticipants) UnitOfWork {
	return &memoryUnitOfWork{stores: stores, participants: participants}
}

func (u *memoryUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	p := u.participants
	var restore []func()
	if p.Requests != nil {
		snap := p.Requests.Snapshot()
		restore = append(restore, func() { p.Requests.Restore(snap) })
	}
	if p.Ledger != nil {
		snap := p.Ledger.Snapshot()
		restore = append(restore, func() { p.Ledger.Restore(snap) })
	}
	if p.Activity != nil {
		snap := p.Activity.Snapshot()
		restore = append(restore, func() { p.Activity.Restore(snap) })
	}
	if p.Audit != nil {
		snap := p.Audit.Snapshot()
		restore = append(restore, func() { p.Audit.Restore(snap) })
	}

	if err := fn(ctx, u.stores); err != nil {
		for _, r := range restore {
			r()
		}
		return err
	}
	return nil
}
