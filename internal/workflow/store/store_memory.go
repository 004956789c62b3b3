// Package store persists verification requests.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"landregistry/internal/workflow/models"
	id "landregistry/pkg/domain"
	"landregistry/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[id.RequestID]*models.Request
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{requests: make(map[id.RequestID]*models.Request)}
}

func (s *InMemoryStore) Create(_ context.Context, req *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID]; ok {
		return fmt.Errorf("request %s: %w", req.ID, sentinel.ErrConflict)
	}
	s.requests[req.ID] = req.Clone()
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, key models.RequestKey) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.find(key)
}

// FindForUpdate is Find; the memory unit of work already serializes writers.
func (s *InMemoryStore) FindForUpdate(ctx context.Context, key models.RequestKey) (*models.Request, error) {
	return s.Find(ctx, key)
}

// find prefers a pending request, then the most recently created one, when a
// property id matches several requests.
func (s *InMemoryStore) find(key models.RequestKey) (*models.Request, error) {
	var best *models.Request
	for _, req := range s.requests {
		if !key.Matches(req) {
			continue
		}
		if best == nil || better(req, best) {
			best = req
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%s request %s: %w", key.Kind, key.Value, sentinel.ErrNotFound)
	}
	return best.Clone(), nil
}

func better(a, b *models.Request) bool {
	aPending, bPending := a.Status == models.StatusPending, b.Status == models.StatusPending
	if aPending != bPending {
		return aPending
	}
	return a.CreatedAt.After(b.CreatedAt)
}

// Finalize writes a terminal request. It fails with ErrInvalidState unless
// the stored request is still pending.
func (s *InMemoryStore) Finalize(_ context.Context, req *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.requests[req.ID]
	if !ok {
		return fmt.Errorf("request %s: %w", req.ID, sentinel.ErrNotFound)
	}
	if stored.Status != models.StatusPending {
		return fmt.Errorf("request %s is %s: %w", req.ID, stored.Status, sentinel.ErrInvalidState)
	}
	s.requests[req.ID] = req.Clone()
	return nil
}

func (s *InMemoryStore) SetBlockchain(_ context.Context, requestID id.RequestID, info models.BlockchainInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.requests[requestID]
	if !ok {
		return fmt.Errorf("request %s: %w", requestID, sentinel.ErrNotFound)
	}
	stored.Blockchain = &info
	return nil
}

// ListByKind returns matching requests newest first. No statuses means all.
func (s *InMemoryStore) ListByKind(_ context.Context, kind models.Kind, statuses []models.Status) ([]models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Request
	for _, req := range s.requests {
		if req.Kind == kind && statusIn(req.Status, statuses) {
			out = append(out, *req.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ListByCreator returns createdBy's requests of kind, newest first.
func (s *InMemoryStore) ListByCreator(_ context.Context, createdBy id.UserID, kind models.Kind) ([]models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Request
	for _, req := range s.requests {
		if req.Kind == kind && req.CreatedBy == createdBy {
			out = append(out, *req.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) Count(_ context.Context, filter models.CountFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, req := range s.requests {
		if filter.Kind != "" && req.Kind != filter.Kind {
			continue
		}
		if filter.Priority != "" && req.Priority != filter.Priority {
			continue
		}
		if statusIn(req.Status, filter.Statuses) {
			n++
		}
	}
	return n, nil
}

// FindLatestByBlockchain matches the evidence a client attached on submit.
func (s *InMemoryStore) FindLatestByBlockchain(_ context.Context, kind models.Kind, field models.BlockchainField, value string) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *models.Request
	for _, req := range s.requests {
		if req.Kind != kind || req.Blockchain == nil {
			continue
		}
		got := req.Blockchain.BlockchainID
		if field == models.FieldTransactionHash {
			got = req.Blockchain.TransactionHash
		}
		if got != value {
			continue
		}
		if best == nil || req.CreatedAt.After(best.CreatedAt) {
			best = req
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%s request with %s %s: %w", kind, field, value, sentinel.ErrNotFound)
	}
	return best.Clone(), nil
}

func statusIn(status models.Status, statuses []models.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Snapshot and Restore let the in-memory unit of work roll back.
func (s *InMemoryStore) Snapshot() map[id.RequestID]*models.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make(map[id.RequestID]*models.Request, len(s.requests))
	for k, v := range s.requests {
		cp[k] = v.Clone()
	}
	return cp
}

func (s *InMemoryStore) Restore(snapshot map[id.RequestID]*models.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = snapshot
}
