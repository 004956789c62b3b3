package activity

import (
	"context"
	"time"

	dErrors "landregistry/pkg/domain-errors"
	"landregistry/pkg/requestcontext"
)

// Store appends and lists entries. Entries are never updated or deleted.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListSince(ctx context.Context, since time.Time, limit int) ([]Entry, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Recent returns entries from the last 24 hours, newest first, at most 50.
func (s *Service) Recent(ctx context.Context) ([]Entry, error) {
	since := requestcontext.Now(ctx).Add(-RecentWindow)
	entries, err := s.store.ListSince(ctx, since, RecentLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list recent activity")
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// CountRecent counts entries in the same 24 hour window Recent uses.
func (s *Service) CountRecent(ctx context.Context) (int, error) {
	since := requestcontext.Now(ctx).Add(-RecentWindow)
	n, err := s.store.CountSince(ctx, since)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count recent activity")
	}
	return n, nil
}
