// Package dashboard serves the reviewer's overview: pending work, counts and
// the recent activity feed.
package dashboard

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"landregistry/internal/activity"
	ledger "landregistry/internal/ledger/models"
	"landregistry/internal/workflow/models"
	dErrors "landregistry/pkg/domain-errors"
)

type Requests interface {
	Count(ctx context.Context, filter models.CountFilter) (int, error)
	ListPending(ctx context.Context, kind models.Kind) ([]models.Request, error)
}

type Ledger interface {
	CurrentState(ctx context.Context, key string) (*ledger.Entry, error)
	Count(ctx context.Context, entityType ledger.EntityType, verifiedOnly bool) (int, error)
}

type Activity interface {
	Recent(ctx context.Context) ([]activity.Entry, error)
	CountRecent(ctx context.Context) (int, error)
}

type Metrics struct {
	PendingRegistrations       int `json:"pending_registrations"`
	UrgentPendingRegistrations int `json:"urgent_pending_registrations"`
	PendingTransfers           int `json:"pending_transfers"`
	PendingDocuments           int `json:"pending_documents"`
	VerifiedDocuments          int `json:"verified_documents"`
	RejectedRequests           int `json:"rejected_requests"`
	RecentActivity             int `json:"recent_activity"`
}

// PendingRequest pairs a pending property request with its mirror entry, if
// the property has been seen on chain.
type PendingRequest struct {
	Request models.Request `json:"request"`
	Ledger  *ledger.Entry  `json:"ledger,omitempty"`
}

type Service struct {
	requests Requests
	ledger   Ledger
	activity Activity
}

func New(requests Requests, ledger Ledger, activity Activity) *Service {
	return &Service{requests: requests, ledger: ledger, activity: activity}
}

// Metrics runs every count concurrently; the first failure cancels the rest.
func (s *Service) Metrics(ctx context.Context) (*Metrics, error) {
	var m Metrics
	pending := []models.Status{models.StatusPending}
	g, ctx := errgroup.WithContext(ctx)

	count := func(dst *int, filter models.CountFilter) {
		g.Go(func() error {
			n, err := s.requests.Count(ctx, filter)
			*dst = n
			return err
		})
	}
	count(&m.PendingRegistrations, models.CountFilter{Kind: models.KindRegistration, Statuses: pending})
	count(&m.UrgentPendingRegistrations, models.CountFilter{Kind: models.KindRegistration, Statuses: pending, Priority: models.PriorityUrgent})
	count(&m.PendingTransfers, models.CountFilter{Kind: models.KindTransfer, Statuses: pending})
	count(&m.PendingDocuments, models.CountFilter{Kind: models.KindDocument, Statuses: pending})
	count(&m.RejectedRequests, models.CountFilter{Statuses: []models.Status{models.StatusRejected}})

	g.Go(func() error {
		n, err := s.ledger.Count(ctx, ledger.EntityDocument, true)
		m.VerifiedDocuments = n
		return err
	})
	g.Go(func() error {
		n, err := s.activity.CountRecent(ctx)
		m.RecentActivity = n
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &m, nil
}

// PendingRequests lists pending registrations and transfers, newest first.
func (s *Service) PendingRequests(ctx context.Context) ([]PendingRequest, error) {
	var registrations, transfers []models.Request
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		registrations, err = s.requests.ListPending(gctx, models.KindRegistration)
		return err
	})
	g.Go(func() (err error) {
		transfers, err = s.requests.ListPending(gctx, models.KindTransfer)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := append(registrations, transfers...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	out := make([]PendingRequest, 0, len(all))
	for _, req := range all {
		item := PendingRequest{Request: req}
		entry, err := s.ledger.CurrentState(ctx, req.LedgerKey())
		switch {
		case err == nil:
			item.Ledger = entry
		case !dErrors.HasCode(err, dErrors.CodeNotFound):
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *Service) PendingDocuments(ctx context.Context) ([]models.Request, error) {
	return s.requests.ListPending(ctx, models.KindDocument)
}

func (s *Service) RecentActivity(ctx context.Context) ([]activity.Entry, error) {
	return s.activity.Recent(ctx)
}
