package session

import (
	"context"
	"fmt"
	"sync"

	"landregistry/internal/auth/models"
	id "landregistry/pkg/domain"
	"landregistry/pkg/platform/sentinel"
)

type key struct {
	user   id.UserID
	device id.DeviceID
}

// InMemorySessionStore keeps sessions keyed by (user, device).
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[key]models.Session
}

func New() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[key]models.Session)}
}

func (s *InMemorySessionStore) Find(_ context.Context, userID id.UserID, deviceID id.DeviceID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[key{userID, deviceID}]
	if !ok {
		return nil, fmt.Errorf("session for device %s: %w", deviceID, sentinel.ErrNotFound)
	}
	return &sess, nil
}

// Upsert creates the session or replaces its token and activity fields. The
// original session id and creation time survive an update.
// FindForUpdate is Find; the in-memory transaction already serializes
// writers.
func (s *InMemorySessionStore) FindForUpdate(ctx context.Context, userID id.UserID, deviceID id.DeviceID) (*models.Session, error) {
	return s.Find(ctx, userID, deviceID)
}

func (s *InMemorySessionStore) Upsert(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{session.UserID, session.DeviceID}
	if existing, ok := s.sessions[k]; ok {
		session.ID = existing.ID
		session.CreatedAt = existing.CreatedAt
		if session.LastSync == nil {
			session.LastSync = existing.LastSync
		}
	}
	s.sessions[k] = *session
	return nil
}

func (s *InMemorySessionStore) Delete(_ context.Context, userID id.UserID, deviceID id.DeviceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{userID, deviceID}
	if _, ok := s.sessions[k]; !ok {
		return fmt.Errorf("session for device %s: %w", deviceID, sentinel.ErrNotFound)
	}
	delete(s.sessions, k)
	return nil
}

// ListByUser returns every device session the user holds.
func (s *InMemorySessionStore) ListByUser(_ context.Context, userID id.UserID) ([]models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Session
	for k, sess := range s.sessions {
		if k.user == userID {
			out = append(out, sess)
		}
	}
	return out, nil
}

// Snapshot and Restore let the in-memory unit of work roll back.
func (s *InMemorySessionStore) Snapshot() map[key]models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make(map[key]models.Session, len(s.sessions))
	for k, v := range s.sessions {
		cp[k] = v
	}
	return cp
}

func (s *InMemorySessionStore) Restore(snapshot map[key]models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = snapshot
}
