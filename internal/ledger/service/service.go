// Package service implements the ledger mirror: appending blockchain events
// to per-property and per-document entries, and resolving entries by any of
// the identifiers the portal exposes.
package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"landregistry/internal/ledger/models"
	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
	"landregistry/pkg/platform/sentinel"
	"landregistry/pkg/requestcontext"
)

// Store is the persistence port. Implementations join the unit of work
// carried in ctx.
type Store interface {
	Create(ctx context.Context, entry *models.Entry) error
	Append(ctx context.Context, entry *models.Entry, appended models.Appended) error
	FindByID(ctx context.Context, entryID id.EntryID) (*models.Entry, error)
	FindByKey(ctx context.Context, key string) (*models.Entry, error)
	FindByBlockchainID(ctx context.Context, blockchainID string) (*models.Entry, error)
	FindByTransactionHash(ctx context.Context, hash string) (*models.Entry, error)
	FindByContentHash(ctx context.Context, hash string) (*models.Entry, error)
	Count(ctx context.Context, entityType models.EntityType, verifiedOnly bool) (int, error)
	ListByOwner(ctx context.Context, email string, entityType models.EntityType, verifiedOnly bool) ([]models.Entry, error)
}

type Service struct {
	store  Store
	logger *zap.Logger
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AppendTransaction appends tx to the entry for key, creating the entry from
// seed when none exists yet.
func (s *Service) AppendTransaction(ctx context.Context, key string, tx models.Transaction, seed *models.Seed) (*models.Entry, error) {
	now := requestcontext.Now(ctx)

	entry, err := s.store.FindByKey(ctx, key)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		if seed == nil {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "ledger entry not found")
		}
		entry, err = models.NewEntry(key, *seed, now)
		if err != nil {
			return nil, err
		}
		if err := s.store.Create(ctx, entry); err != nil {
			return nil, translate(err, "failed to create ledger entry")
		}
		s.logger.Debug("ledger entry created",
			zap.String("key", key),
			zap.String("entity_type", string(seed.EntityType)),
		)
	case err != nil:
		return nil, translate(err, "failed to load ledger entry")
	}

	appended, err := entry.Apply(tx, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.Append(ctx, entry, appended); err != nil {
		return nil, translate(err, "failed to append ledger transaction")
	}

	s.logger.Info("ledger transaction appended",
		zap.String("key", key),
		zap.String("type", string(tx.Type)),
		zap.String("blockchain_id", entry.CurrentBlockchainID),
		zap.Int("seq", appended.Seq),
	)
	return entry, nil
}

func (s *Service) CurrentState(ctx context.Context, key string) (*models.Entry, error) {
	if strings.TrimSpace(key) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "ledger key is required")
	}
	entry, err := s.store.FindByKey(ctx, key)
	if err != nil {
		return nil, translate(err, "failed to load ledger entry")
	}
	return entry, nil
}

// Resolve finds an entry by any supported identifier. Blockchain ids match
// both the current and every historical id.
func (s *Service) Resolve(ctx context.Context, lookup models.Lookup) (*models.Entry, error) {
	if err := lookup.Validate(); err != nil {
		return nil, err
	}
	value := strings.TrimSpace(lookup.Value)

	var (
		entry *models.Entry
		err   error
	)
	switch lookup.By {
	case models.ByID:
		entryID, perr := id.ParseEntryID(value)
		if perr != nil {
			return nil, dErrors.Wrap(perr, dErrors.CodeBadRequest, "invalid ledger entry id")
		}
		entry, err = s.store.FindByID(ctx, entryID)
	case models.ByBusinessID:
		entry, err = s.store.FindByKey(ctx, value)
	case models.ByBlockchainID:
		entry, err = s.store.FindByBlockchainID(ctx, value)
	case models.ByTransactionHash:
		entry, err = s.store.FindByTransactionHash(ctx, value)
	case models.ByContentHash:
		entry, err = s.store.FindByContentHash(ctx, value)
	}
	if err != nil {
		return nil, translate(err, "failed to resolve ledger entry")
	}
	return entry, nil
}

// Count reports how many entries of entityType exist, optionally only the
// verified ones.
func (s *Service) Count(ctx context.Context, entityType models.EntityType, verifiedOnly bool) (int, error) {
	n, err := s.store.Count(ctx, entityType, verifiedOnly)
	if err != nil {
		return 0, translate(err, "failed to count ledger entries")
	}
	return n, nil
}

// ListByOwner returns the entries whose current owner has email, most
// recently updated first.
func (s *Service) ListByOwner(ctx context.Context, email string, entityType models.EntityType, verifiedOnly bool) ([]models.Entry, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "owner email is required")
	}
	entries, err := s.store.ListByOwner(ctx, email, entityType, verifiedOnly)
	if err != nil {
		return nil, translate(err, "failed to list ledger entries")
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	return entries, nil
}

func translate(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "ledger entry not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "ledger entry was modified concurrently")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
