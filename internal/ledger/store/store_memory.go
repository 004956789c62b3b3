// Package store persists ledger entries. Both implementations only ever add
// transactions and blockchain ids; the derived columns on the entry row are
// the only thing updated in place.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"landregistry/internal/ledger/models"
	id "landregistry/pkg/domain"
	"landregistry/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.EntryID]*models.Entry
	byKey   map[string]id.EntryID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[id.EntryID]*models.Entry),
		byKey:   make(map[string]id.EntryID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byKey[entry.Key]; ok {
		return fmt.Errorf("ledger entry %s: %w", entry.Key, sentinel.ErrConflict)
	}
	s.entries[entry.ID] = entry.Clone()
	s.byKey[entry.Key] = entry.ID
	return nil
}

// Append stores the entry as mutated by Apply. The stored transaction count
// must match appended.Seq; anything else means a concurrent append won.
func (s *InMemoryStore) Append(_ context.Context, entry *models.Entry, appended models.Appended) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.entries[entry.ID]
	if !ok {
		return fmt.Errorf("ledger entry %s: %w", entry.Key, sentinel.ErrNotFound)
	}
	if len(stored.Transactions) != appended.Seq {
		return fmt.Errorf("ledger entry %s seq %d: %w", entry.Key, appended.Seq, sentinel.ErrConflict)
	}
	s.entries[entry.ID] = entry.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, entryID id.EntryID) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[entryID]
	if !ok {
		return nil, fmt.Errorf("ledger entry %s: %w", entryID, sentinel.ErrNotFound)
	}
	return entry.Clone(), nil
}

func (s *InMemoryStore) FindByKey(_ context.Context, key string) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entryID, ok := s.byKey[key]
	if !ok {
		return nil, fmt.Errorf("ledger entry %s: %w", key, sentinel.ErrNotFound)
	}
	return s.entries[entryID].Clone(), nil
}

func (s *InMemoryStore) FindByBlockchainID(_ context.Context, blockchainID string) (*models.Entry, error) {
	return s.find(
		func(e *models.Entry) bool { return e.KnownAs(blockchainID) },
		func(e *models.Entry) bool { return e.CurrentBlockchainID == blockchainID },
		"blockchain id "+blockchainID)
}

func (s *InMemoryStore) FindByTransactionHash(_ context.Context, hash string) (*models.Entry, error) {
	return s.find(func(e *models.Entry) bool { return e.HasTransactionHash(hash) }, nil, "transaction "+hash)
}

func (s *InMemoryStore) FindByContentHash(_ context.Context, hash string) (*models.Entry, error) {
	return s.find(func(e *models.Entry) bool { return e.HasContentHash(hash) }, nil, "content "+hash)
}

// find prefers an entry for which current holds over one that only matches
// historically, and the most recently updated entry among equals. A nil
// current ranks every match equally.
func (s *InMemoryStore) find(match, current func(*models.Entry) bool, what string) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *models.Entry
	bestCurrent := false
	for _, entry := range s.entries {
		if !match(entry) {
			continue
		}
		isCurrent := current != nil && current(entry)
		switch {
		case best == nil,
			isCurrent && !bestCurrent,
			isCurrent == bestCurrent && entry.UpdatedAt.After(best.UpdatedAt):
			best, bestCurrent = entry, isCurrent
		}
	}
	if best == nil {
		return nil, fmt.Errorf("ledger entry for %s: %w", what, sentinel.ErrNotFound)
	}
	return best.Clone(), nil
}

// Count returns entries of the given type, optionally only verified ones.
func (s *InMemoryStore) Count(_ context.Context, entityType models.EntityType, verifiedOnly bool) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, entry := range s.entries {
		if entry.EntityType == entityType && (!verifiedOnly || entry.IsVerified) {
			n++
		}
	}
	return n, nil
}

// ListByOwner matches the owner email case-insensitively.
func (s *InMemoryStore) ListByOwner(_ context.Context, email string, entityType models.EntityType, verifiedOnly bool) ([]models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Entry
	for _, entry := range s.entries {
		if entry.EntityType != entityType || (verifiedOnly && !entry.IsVerified) {
			continue
		}
		if strings.EqualFold(entry.Owner.Email, email) {
			out = append(out, *entry.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

type snapshot struct {
	entries map[id.EntryID]*models.Entry
	byKey   map[string]id.EntryID
}

// Snapshot and Restore let the in-memory unit of work roll back.
func (s *InMemoryStore) Snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := snapshot{
		entries: make(map[id.EntryID]*models.Entry, len(s.entries)),
		byKey:   make(map[string]id.EntryID, len(s.byKey)),
	}
	for k, v := range s.entries {
		snap.entries[k] = v.Clone()
	}
	for k, v := range s.byKey {
		snap.byKey[k] = v
	}
	return snap
}

func (s *InMemoryStore) Restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = snap.entries
	s.byKey = snap.byKey
}
