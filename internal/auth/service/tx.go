package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"landregistry/internal/auth/store/revocation"
	"landregistry/internal/auth/store/session"
	auditmemory "landregistry/pkg/platform/audit/store/memory"
	txcontext "landregistry/pkg/platform/tx"
)

// TxAuthStores are the stores that participate in an auth unit of work.
// Audit writes join the same transaction through the context.
type TxAuthStores struct {
	Sessions      SessionStore
	Invalidations InvalidationStore
}

// AuthStoreTx provides a transactional boundary for auth-related store
// mutations. Implementations may wrap a database transaction or, in memory, a
// coarse lock with rollback.
type AuthStoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, stores TxAuthStores) error) error
}

type postgresTx struct {
	db      *sql.DB
	stores  TxAuthStores
	timeout time.Duration
}

// NewPostgresTx runs auth units of work in one database transaction.
func NewPostgresTx(db *sql.DB, sessions SessionStore, invalidations InvalidationStore, timeout time.Duration) AuthStoreTx {
	return &postgresTx{
		db:      db,
		stores:  TxAuthStores{Sessions: sessions, Invalidations: invalidations},
		timeout: timeout,
	}
}

func (t *postgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores TxAuthStores) error) error {
	return txcontext.Run(ctx, t.db, t.timeout, func(ctx context.Context) error {
		return fn(ctx, t.stores)
	})
}

type memoryTx struct {
	mu            sync.Mutex
	sessions      *session.InMemorySessionStore
	invalidations *revocation.InMemoryList
	audit         *auditmemory.InMemoryStore
}

// NewMemoryTx serializes units of work and restores every participating
// store when fn fails. audit may be nil.
func NewMemoryTx(sessions *session.InMemorySessionStore, invalidations *revocation.InMemoryList, audit *auditmemory.InMemoryStore) AuthStoreTx {
	return &memoryTx{sessions: sessions, invalidations: invalidations, audit: audit}
}

func (t *memoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores TxAuthStores) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	sessionsSnap := t.sessions.Snapshot()
	listSnap := t.invalidations.Snapshot()
	auditSnap := 0
	if t.audit != nil {
		auditSnap = t.audit.Snapshot()
	}

	err := fn(ctx, TxAuthStores{Sessions: t.sessions, Invalidations: t.invalidations})
	if err != nil {
		t.sessions.Restore(sessionsSnap)
		t.invalidations.Restore(listSnap)
		if t.audit != nil {
			t.audit.Restore(auditSnap)
		}
	}
	return err
}
