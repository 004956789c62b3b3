package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	ledger "landregistry/internal/ledger/models"
	"landregistry/internal/syncbridge"
	"landregistry/internal/workflow/models"
	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
	"landregistry/pkg/platform/audit"
	"landregistry/pkg/requestcontext"
)

// Get returns the request raw addresses for kind. A property id resolves to
// the pending request if there is one, otherwise the newest. Citizens only see
// their own requests; anything else reads as not found.
func (s *Service) Get(ctx context.Context, kind models.Kind, raw string) (*models.Request, error) {
	key, err := models.ResolveKey(kind, raw)
	if err != nil {
		return nil, err
	}
	req, err := s.requests.Find(ctx, key)
	if err != nil {
		return nil, translate(err)
	}
	if !visibleTo(ctx, req) {
		return nil, dErrors.New(dErrors.CodeNotFound, "request not found")
	}
	return req, nil
}

// visibleTo admits the submitter and government reviewers.
func visibleTo(ctx context.Context, req *models.Request) bool {
	ident, ok := requestcontext.CurrentIdentity(ctx)
	if !ok || ident.UserID == "" {
		return false
	}
	if id.Audience(ident.IssuedFor) == id.AudienceGovernment {
		return true
	}
	return ident.UserID == req.CreatedBy
}

func (s *Service) ListPending(ctx context.Context, kind models.Kind) ([]models.Request, error) {
	return s.ListByKind(ctx, kind, []models.Status{models.StatusPending})
}

// ListByKind returns requests of kind, newest first. No statuses means all.
func (s *Service) ListByKind(ctx context.Context, kind models.Kind, statuses []models.Status) ([]models.Request, error) {
	if !kind.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown request kind")
	}
	for _, st := range statuses {
		if !st.Valid() {
			return nil, dErrors.New(dErrors.CodeBadRequest, "unknown request status")
		}
	}
	reqs, err := s.requests.ListByKind(ctx, kind, statuses)
	if err != nil {
		return nil, translate(err)
	}
	if reqs == nil {
		reqs = []models.Request{}
	}
	return reqs, nil
}

// ListMine returns the caller's own requests of kind, newest first.
func (s *Service) ListMine(ctx context.Context, kind models.Kind) ([]models.Request, error) {
	if !kind.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown request kind")
	}
	caller := requestcontext.UserID(ctx)
	if caller.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	reqs, err := s.requests.ListByCreator(ctx, caller, kind)
	if err != nil {
		return nil, translate(err)
	}
	if reqs == nil {
		reqs = []models.Request{}
	}
	return reqs, nil
}

func (s *Service) Count(ctx context.Context, filter models.CountFilter) (int, error) {
	n, err := s.requests.Count(ctx, filter)
	if err != nil {
		return 0, translate(err)
	}
	return n, nil
}

// FindTransferByBlockchain returns the newest transfer request whose evidence
// matches value. Lookups fall back to it when the mirror has no entry.
func (s *Service) FindTransferByBlockchain(ctx context.Context, field models.BlockchainField, value string) (*models.Request, error) {
	if value == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "lookup value is required")
	}
	req, err := s.requests.FindLatestByBlockchain(ctx, models.KindTransfer, field, value)
	if err != nil {
		return nil, translate(err)
	}
	return req, nil
}

// SyncInput asks the bridge to confirm a client-side property transaction
// and mirror it.
type SyncInput struct {
	PropertyID      string `json:"property_id"`
	BlockchainID    string `json:"blockchain_id"`
	TransactionHash string `json:"transaction_hash"`
}

func (in *SyncInput) Normalize() {}

func (in *SyncInput) Validate() error {
	if in.PropertyID == "" {
		return dErrors.New(dErrors.CodeValidation, "property_id is required")
	}
	if in.TransactionHash == "" {
		return dErrors.New(dErrors.CodeMissingBlockchainData, "transaction_hash is required")
	}
	return nil
}

// SyncLedger confirms a property transaction through the bridge and appends
// a REGISTRATION event for it. Unlike submit-time sync, failures are
// returned to the caller.
func (s *Service) SyncLedger(ctx context.Context, in *SyncInput) (*ledger.Entry, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	actor := requestcontext.UserID(ctx)
	if actor.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	res, err := s.bridge.SyncProperty(ctx, syncbridge.PropertyDescriptor{
		PropertyID:   in.PropertyID,
		BlockchainID: in.BlockchainID,
	}, in.TransactionHash)
	if errors.Is(err, syncbridge.ErrSyncDisabled) {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamSyncFailure, "ledger sync is not configured")
	}
	if err != nil {
		s.logger.Warn("ledger sync failed", zap.String("property_id", in.PropertyID), zap.Error(err))
		if _, ok := dErrors.As(err); ok {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamSyncFailure, "ledger sync failed")
	}

	now := requestcontext.Now(ctx)
	var entry *ledger.Entry
	err = s.uow.RunInTx(ctx, func(ctx context.Context, stores Stores) error {
		tx := ledger.Transaction{
			Type:         ledger.TxRegistration,
			TxHash:       res.Confirmation.TransactionHash,
			BlockNumber:  res.Confirmation.BlockNumber,
			GasUsed:      res.Confirmation.GasUsed,
			BlockchainID: res.LedgerID,
			Timestamp:    now,
		}
		var err error
		entry, err = stores.Ledger.AppendTransaction(ctx, in.PropertyID, tx, &ledger.Seed{EntityType: ledger.EntityProperty})
		if err != nil {
			return err
		}
		return stores.Audit.Emit(ctx, audit.Event{
			Timestamp:       now,
			Action:          string(audit.EventLedgerSynced),
			ActorID:         actor,
			Subject:         in.PropertyID,
			PropertyID:      in.PropertyID,
			BlockchainID:    res.LedgerID,
			TransactionHash: res.Confirmation.TransactionHash,
			RequestID:       requestcontext.RequestID(ctx),
			ClientIP:        requestcontext.ClientIP(ctx),
		})
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}
