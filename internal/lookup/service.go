// Package lookup answers public questions about the ledger mirror: which
// property a ledger id or transaction belongs to, and who owns it now.
package lookup

import (
	"context"
	"errors"
	"strings"

	ledger "landregistry/internal/ledger/models"
	"landregistry/internal/workflow/models"
	workflow "landregistry/internal/workflow/service"
	dErrors "landregistry/pkg/domain-errors"
	"landregistry/pkg/requestcontext"
)

type Ledger interface {
	Resolve(ctx context.Context, lookup ledger.Lookup) (*ledger.Entry, error)
	ListByOwner(ctx context.Context, email string, entityType ledger.EntityType, verifiedOnly bool) ([]ledger.Entry, error)
}

type Transfers interface {
	FindTransferByBlockchain(ctx context.Context, field models.BlockchainField, value string) (*models.Request, error)
}

type Syncer interface {
	SyncLedger(ctx context.Context, in *workflow.SyncInput) (*ledger.Entry, error)
}

type Source string

const (
	SourceLedger  Source = "ledger"
	SourceRequest Source = "transfer_request"
)

// View is the normalized answer to every lookup, whether it came from the
// mirror or from a transfer request the mirror has not seen yet.
type View struct {
	PropertyID          string                      `json:"property_id"`
	EntityType          ledger.EntityType           `json:"entity_type"`
	CurrentBlockchainID string                      `json:"current_blockchain_id"`
	IsVerified          bool                        `json:"is_verified"`
	Owner               ledger.Party                `json:"owner"`
	Descriptor          ledger.Descriptor           `json:"descriptor"`
	ContentHash         string                      `json:"content_hash,omitempty"`
	Transactions        []ledger.Transaction        `json:"transactions"`
	BlockchainIDs       []ledger.BlockchainIDRecord `json:"blockchain_ids"`
	Source              Source                      `json:"source"`
}

type Service struct {
	ledger    Ledger
	transfers Transfers
	syncer    Syncer
}

func New(ledger Ledger, transfers Transfers, syncer Syncer) *Service {
	return &Service{ledger: ledger, transfers: transfers, syncer: syncer}
}

func (s *Service) ByBlockchainID(ctx context.Context, blockchainID string) (*View, error) {
	return s.withFallback(ctx, ledger.ByBlockchainID, models.FieldBlockchainID, blockchainID)
}

func (s *Service) ByTransactionHash(ctx context.Context, hash string) (*View, error) {
	return s.withFallback(ctx, ledger.ByTransactionHash, models.FieldTransactionHash, hash)
}

func (s *Service) ByBusinessID(ctx context.Context, propertyID string) (*View, error) {
	return s.resolve(ctx, ledger.ByBusinessID, propertyID)
}

func (s *Service) ByContentHash(ctx context.Context, hash string) (*View, error) {
	return s.resolve(ctx, ledger.ByContentHash, strings.ToLower(hash))
}

// BlockchainIDFor returns the property's current ledger id, always 0x
// prefixed.
func (s *Service) BlockchainIDFor(ctx context.Context, propertyID string) (string, error) {
	entry, err := s.ledger.Resolve(ctx, ledger.Lookup{By: ledger.ByBusinessID, Value: propertyID})
	if err != nil {
		return "", err
	}
	if entry.CurrentBlockchainID == "" {
		return "", dErrors.New(dErrors.CodeNotFound, "blockchain id not found for property")
	}
	if strings.HasPrefix(entry.CurrentBlockchainID, "0x") {
		return entry.CurrentBlockchainID, nil
	}
	return "0x" + entry.CurrentBlockchainID, nil
}

// Sync confirms a client-side transaction and returns the updated view.
func (s *Service) Sync(ctx context.Context, in *workflow.SyncInput) (*View, error) {
	entry, err := s.syncer.SyncLedger(ctx, in)
	if err != nil {
		return nil, err
	}
	return fromEntry(entry), nil
}

// OwnedProperties lists the verified properties the caller currently owns.
func (s *Service) OwnedProperties(ctx context.Context) ([]View, error) {
	owner := requestcontext.UserID(ctx)
	if owner.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	entries, err := s.ledger.ListByOwner(ctx, owner.String(), ledger.EntityProperty, true)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(entries))
	for i := range entries {
		views = append(views, *fromEntry(&entries[i]))
	}
	return views, nil
}

func (s *Service) resolve(ctx context.Context, by ledger.LookupBy, value string) (*View, error) {
	entry, err := s.ledger.Resolve(ctx, ledger.Lookup{By: by, Value: strings.TrimSpace(value)})
	if err != nil {
		return nil, err
	}
	return fromEntry(entry), nil
}

func (s *Service) withFallback(ctx context.Context, by ledger.LookupBy, field models.BlockchainField, value string) (*View, error) {
	view, err := s.resolve(ctx, by, value)
	if err == nil || !dErrors.HasCode(err, dErrors.CodeNotFound) {
		return view, err
	}
	req, ferr := s.transfers.FindTransferByBlockchain(ctx, field, strings.TrimSpace(value))
	if ferr != nil {
		if dErrors.HasCode(ferr, dErrors.CodeNotFound) {
			return nil, dErrors.Wrap(errors.Join(err, ferr), dErrors.CodeNotFound, "property not found")
		}
		return nil, ferr
	}
	return fromTransfer(req), nil
}

func fromEntry(e *ledger.Entry) *View {
	v := &View{
		PropertyID:          e.Key,
		EntityType:          e.EntityType,
		CurrentBlockchainID: e.CurrentBlockchainID,
		IsVerified:          e.IsVerified,
		Owner:               e.Owner,
		Descriptor:          e.Descriptor,
		ContentHash:         e.ContentHash,
		Transactions:        e.Transactions,
		BlockchainIDs:       e.BlockchainIDs,
		Source:              SourceLedger,
	}
	if v.Transactions == nil {
		v.Transactions = []ledger.Transaction{}
	}
	if v.BlockchainIDs == nil {
		v.BlockchainIDs = []ledger.BlockchainIDRecord{}
	}
	return v
}

// fromTransfer shapes an unmirrored transfer request like a mirror entry with
// a single TRANSFER event.
func fromTransfer(req *models.Request) *View {
	var info models.BlockchainInfo
	if req.Blockchain != nil {
		info = *req.Blockchain
	}
	from := req.CurrentOwner.Ledger()
	to := req.NewOwner.Ledger()
	at := req.CreatedAt
	v := &View{
		PropertyID:          req.PropertyID(),
		EntityType:          ledger.EntityProperty,
		CurrentBlockchainID: info.BlockchainID,
		Owner:               from,
		Transactions: []ledger.Transaction{{
			Type:         ledger.TxTransfer,
			TxHash:       info.TransactionHash,
			BlockNumber:  info.BlockNumber,
			BlockchainID: info.BlockchainID,
			From:         &from,
			To:           &to,
			Timestamp:    at,
		}},
		BlockchainIDs: []ledger.BlockchainIDRecord{{ID: info.BlockchainID, TxHash: info.TransactionHash, AssignedAt: at}},
		Source:        SourceRequest,
	}
	if p := req.Property; p != nil {
		v.Descriptor = ledger.Descriptor{Name: p.Name, PropertyType: p.Type, Locality: p.Locality}
	}
	return v
}
