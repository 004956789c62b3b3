// Package syncbridge is the boundary to the distributed ledger. Submissions
// call it best effort; approvals never depend on it directly.
package syncbridge

import (
	"context"
	"errors"
)

// ErrSyncDisabled is returned when no ledger endpoint is configured. Callers
// treat it as a skip rather than a failure.
var ErrSyncDisabled = errors.New("sync bridge disabled")

// Confirmation is the on-chain evidence for one transaction.
type Confirmation struct {
	TransactionHash string `json:"transaction_hash"`
	BlockNumber     uint64 `json:"block_number"`
	GasUsed         uint64 `json:"gas_used"`
	BlockchainID    string `json:"blockchain_id"`
}

// PropertyDescriptor identifies the property a client-side transaction
// registered or transferred.
type PropertyDescriptor struct {
	PropertyID   string `json:"property_id"`
	BlockchainID string `json:"blockchain_id"`
	Name         string `json:"name,omitempty"`
	PropertyType string `json:"property_type,omitempty"`
	Locality     string `json:"locality,omitempty"`
	OwnerWallet  string `json:"owner_wallet,omitempty"`
}

type PropertySync struct {
	LedgerID     string
	Confirmation Confirmation
}

// DocumentDescriptor is the non-sensitive summary of a verification request
// that gets anchored on chain. Personal details never leave the portal.
type DocumentDescriptor struct {
	RequestID    string   `json:"request_id"`
	DocumentType string   `json:"document_type"`
	Documents    []string `json:"documents"`
	SubmittedBy  string   `json:"submitted_by"`
	SubmittedAt  string   `json:"submitted_at"`
}

type DocumentSync struct {
	BlockchainID string
	TxData       Confirmation
}

// Bridge is implemented by Ethereum, Disabled and Guarded.
type Bridge interface {
	SyncProperty(ctx context.Context, property PropertyDescriptor, txHash string) (*PropertySync, error)
	SyncDocument(ctx context.Context, document DocumentDescriptor) (*DocumentSync, error)
}

// Disabled is used when no RPC endpoint is configured.
type Disabled struct{}

func (Disabled) SyncProperty(context.Context, PropertyDescriptor, string) (*PropertySync, error) {
	return nil, ErrSyncDisabled
}

func (Disabled) SyncDocument(context.Context, DocumentDescriptor) (*DocumentSync, error) {
	return nil, ErrSyncDisabled
}
