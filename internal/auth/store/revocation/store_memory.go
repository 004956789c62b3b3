package revocation

import (
	"context"
	"sync"

	"landregistry/internal/auth/models"
	id "landregistry/pkg/domain"
)

// InMemoryList is an append-only invalidated-token list for tests and local runs.
type InMemoryList struct {
	mu      sync.RWMutex
	entries []models.InvalidatedToken
	index   map[string]int
}

func NewInMemory() *InMemoryList {
	return &InMemoryList{index: make(map[string]int)}
}

// Append records the token. Re-appending a hash keeps the first record.
func (l *InMemoryList) Append(_ context.Context, token models.InvalidatedToken) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.index[token.TokenHash]; ok {
		return nil
	}
	l.index[token.TokenHash] = len(l.entries)
	l.entries = append(l.entries, token)
	return nil
}

func (l *InMemoryList) IsInvalidated(_ context.Context, tokenHash string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.index[tokenHash]
	return ok, nil
}

// ListByUser returns the user's invalidated tokens in append order.
func (l *InMemoryList) ListByUser(_ context.Context, userID id.UserID) ([]models.InvalidatedToken, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []models.InvalidatedToken
	for _, e := range l.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Len is the number of recorded tokens; it only grows.
func (l *InMemoryList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Snapshot and Restore let the in-memory unit of work roll back. Restoring
// truncates back to the snapshot length.
func (l *InMemoryList) Snapshot() int {
	return l.Len()
}

func (l *InMemoryList) Restore(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries[n:] {
		delete(l.index, e.TokenHash)
	}
	l.entries = l.entries[:n]
}
