package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"landregistry/internal/auth/models"
	id "landregistry/pkg/domain"
	"landregistry/pkg/platform/sentinel"
)

type SessionStoreSuite struct {
	suite.Suite
	store *InMemorySessionStore
	ctx   context.Context
}

func (s *SessionStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

func TestSessionStoreSuite(t *testing.T) {
	suite.Run(t, new(SessionStoreSuite))
}

func makeSession(user id.UserID, device id.DeviceID, tokenHash string) *models.Session {
	now := time.Now()
	return &models.Session{
		ID:         id.NewSessionID(),
		UserID:     user,
		DeviceID:   device,
		TokenHash:  tokenHash,
		CreatedAt:  now,
		LastActive: now,
	}
}

func (s *SessionStoreSuite) TestSessionLookup() {
	s.Run("returns stored session when found", func() {
		sess := makeSession("asha@example.com", "phone", "h1")
		s.Require().NoError(s.store.Upsert(s.ctx, sess))

		found, err := s.store.Find(s.ctx, "asha@example.com", "phone")
		s.Require().NoError(err)
		s.Equal(*sess, *found)
	})

	s.Run("returns ErrNotFound when device has no session", func() {
		_, err := s.store.Find(s.ctx, "asha@example.com", "laptop")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *SessionStoreSuite) TestUpsertKeepsIdentityOfSession() {
	first := makeSession("asha@example.com", "phone", "h1")
	s.Require().NoError(s.store.Upsert(s.ctx, first))

	second := makeSession("asha@example.com", "phone", "h2")
	second.CreatedAt = first.CreatedAt.Add(time.Hour)
	s.Require().NoError(s.store.Upsert(s.ctx, second))

	found, err := s.store.Find(s.ctx, "asha@example.com", "phone")
	s.Require().NoError(err)
	s.Equal("h2", found.TokenHash)
	s.Equal(first.ID, found.ID)
	s.Equal(first.CreatedAt, found.CreatedAt)
}

func (s *SessionStoreSuite) TestSessionsArePerDevice() {
	s.Require().NoError(s.store.Upsert(s.ctx, makeSession("asha@example.com", "phone", "h1")))
	s.Require().NoError(s.store.Upsert(s.ctx, makeSession("asha@example.com", "laptop", "h2")))
	s.Require().NoError(s.store.Upsert(s.ctx, makeSession("ravi@example.com", "phone", "h3")))

	list, err := s.store.ListByUser(s.ctx, "asha@example.com")
	s.Require().NoError(err)
	s.Len(list, 2)

	s.Require().NoError(s.store.Delete(s.ctx, "asha@example.com", "phone"))
	_, err = s.store.Find(s.ctx, "asha@example.com", "laptop")
	s.NoError(err, "other device untouched")
	s.ErrorIs(s.store.Delete(s.ctx, "asha@example.com", "phone"), sentinel.ErrNotFound)
}

func (s *SessionStoreSuite) TestSnapshotRestore() {
	s.Require().NoError(s.store.Upsert(s.ctx, makeSession("asha@example.com", "phone", "h1")))
	snap := s.store.Snapshot()

	s.Require().NoError(s.store.Delete(s.ctx, "asha@example.com", "phone"))
	s.store.Restore(snap)

	_, err := s.store.Find(s.ctx, "asha@example.com", "phone")
	s.NoError(err)
}
