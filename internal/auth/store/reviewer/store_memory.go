package reviewer

import (
	"context"
	"fmt"
	"sync"

	"landregistry/internal/auth/models"
	id "landregistry/pkg/domain"
	"landregistry/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	reviewers map[id.UserID]models.Reviewer
}

func New() *InMemoryStore {
	return &InMemoryStore{reviewers: make(map[id.UserID]models.Reviewer)}
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email id.UserID) (*models.Reviewer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reviewers[email]
	if !ok {
		return nil, fmt.Errorf("reviewer %s: %w", email, sentinel.ErrNotFound)
	}
	return &r, nil
}

// Save creates or replaces the reviewer credential.
func (s *InMemoryStore) Save(_ context.Context, r *models.Reviewer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviewers[r.Email] = *r
	return nil
}
