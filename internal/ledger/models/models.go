// Package models holds the ledger mirror: an append-only record of the
// blockchain events seen for each property and verified document.
package models

import (
	"strings"
	"time"

	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
)

type EntityType string

const (
	EntityProperty EntityType = "PROPERTY"
	EntityDocument EntityType = "DOCUMENT"
)

func (t EntityType) Valid() bool {
	return t == EntityProperty || t == EntityDocument
}

type TransactionType string

const (
	TxRegistration TransactionType = "REGISTRATION"
	TxTransfer     TransactionType = "TRANSFER"
	TxVerification TransactionType = "VERIFICATION"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxRegistration, TxTransfer, TxVerification:
		return true
	}
	return false
}

// Party is an owner, buyer or witness as recorded on a request.
type Party struct {
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	WalletAddress string `json:"wallet_address,omitempty"`
}

func (p Party) IsZero() bool {
	return strings.TrimSpace(p.Name) == "" && strings.TrimSpace(p.Email) == "" && p.WalletAddress == ""
}

// Transaction is one mirrored blockchain event.
type Transaction struct {
	Type         TransactionType `json:"type"`
	TxHash       string          `json:"transaction_hash,omitempty"`
	BlockNumber  uint64          `json:"block_number,omitempty"`
	GasUsed      uint64          `json:"gas_used,omitempty"`
	BlockchainID string          `json:"blockchain_id,omitempty"`
	From         *Party          `json:"from,omitempty"`
	To           *Party          `json:"to,omitempty"`
	Verifier     id.UserID       `json:"verifier,omitempty"`
	ContentHash  string          `json:"content_hash,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// BlockchainIDRecord is one entry in the history of ledger ids an entry has
// been known by.
type BlockchainIDRecord struct {
	ID         string    `json:"id"`
	TxHash     string    `json:"tx_hash,omitempty"`
	AssignedAt time.Time `json:"assigned_at"`
}

// Descriptor carries the human-readable fields copied from the request that
// created the entry.
type Descriptor struct {
	Name         string `json:"name,omitempty"`
	PropertyType string `json:"property_type,omitempty"`
	Locality     string `json:"locality,omitempty"`
	DocumentType string `json:"document_type,omitempty"`
}

// Entry is the mirrored state of one property or document.
type Entry struct {
	ID                  id.EntryID
	EntityType          EntityType
	Key                 string
	CurrentBlockchainID string
	BlockchainIDs       []BlockchainIDRecord
	Transactions        []Transaction
	IsVerified          bool
	Owner               Party
	Descriptor          Descriptor
	ContentHash         string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Seed creates an entry the first time an event is appended for a key.
type Seed struct {
	EntityType EntityType
	Owner      Party
	Descriptor Descriptor
}

// Appended describes what Apply added, for stores that persist deltas.
type Appended struct {
	Seq          int
	Transaction  Transaction
	BlockchainID *BlockchainIDRecord
	IDSeq        int
}

// NewEntry builds an empty entry for key.
func NewEntry(key string, seed Seed, now time.Time) (*Entry, error) {
	if strings.TrimSpace(key) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "ledger key is required")
	}
	if !seed.EntityType.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown ledger entity type")
	}
	return &Entry{
		ID:         id.NewEntryID(),
		EntityType: seed.EntityType,
		Key:        key,
		Owner:      seed.Owner,
		Descriptor: seed.Descriptor,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Apply appends tx. A transaction without a blockchain id inherits the
// current one; a new id is pushed onto the history, so CurrentBlockchainID is
// always the id of the latest event. Owner only changes on TRANSFER.
func (e *Entry) Apply(tx Transaction, now time.Time) (Appended, error) {
	if !tx.Type.Valid() {
		return Appended{}, dErrors.New(dErrors.CodeBadRequest, "unknown ledger transaction type")
	}
	if tx.Type == TxTransfer && (tx.To == nil || tx.To.IsZero()) {
		return Appended{}, dErrors.New(dErrors.CodeInvariantViolation, "transfer requires a new owner")
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = now
	}
	if tx.BlockchainID == "" {
		tx.BlockchainID = e.CurrentBlockchainID
	}

	appended := Appended{Seq: len(e.Transactions), Transaction: tx}
	e.Transactions = append(e.Transactions, tx)

	if tx.BlockchainID != "" && tx.BlockchainID != e.CurrentBlockchainID {
		record := BlockchainIDRecord{ID: tx.BlockchainID, TxHash: tx.TxHash, AssignedAt: tx.Timestamp}
		appended.BlockchainID = &record
		appended.IDSeq = len(e.BlockchainIDs)
		e.BlockchainIDs = append(e.BlockchainIDs, record)
		e.CurrentBlockchainID = tx.BlockchainID
	}

	switch tx.Type {
	case TxTransfer:
		e.Owner = *tx.To
	case TxVerification:
		e.IsVerified = true
	}
	if tx.ContentHash != "" {
		e.ContentHash = tx.ContentHash
	}
	e.UpdatedAt = now
	return appended, nil
}

// Clone returns a deep copy.
func (e *Entry) Clone() *Entry {
	cp := *e
	cp.Transactions = append([]Transaction(nil), e.Transactions...)
	cp.BlockchainIDs = append([]BlockchainIDRecord(nil), e.BlockchainIDs...)
	return &cp
}

// HasTransactionHash reports whether any event or id assignment carries hash.
func (e *Entry) HasTransactionHash(hash string) bool {
	for _, tx := range e.Transactions {
		if tx.TxHash == hash {
			return true
		}
	}
	for _, rec := range e.BlockchainIDs {
		if rec.TxHash == hash {
			return true
		}
	}
	return false
}

// KnownAs reports whether blockchainID is the current or any historical id.
func (e *Entry) KnownAs(blockchainID string) bool {
	if e.CurrentBlockchainID == blockchainID {
		return true
	}
	for _, rec := range e.BlockchainIDs {
		if rec.ID == blockchainID {
			return true
		}
	}
	return false
}

// HasContentHash reports whether the entry or any event carries hash.
func (e *Entry) HasContentHash(hash string) bool {
	if e.ContentHash == hash {
		return true
	}
	for _, tx := range e.Transactions {
		if tx.ContentHash == hash {
			return true
		}
	}
	return false
}

// LookupBy names the field a Lookup matches on.
type LookupBy string

const (
	ByID              LookupBy = "id"
	ByBusinessID      LookupBy = "business_id"
	ByBlockchainID    LookupBy = "blockchain_id"
	ByTransactionHash LookupBy = "transaction_hash"
	ByContentHash     LookupBy = "content_hash"
)

type Lookup struct {
	By    LookupBy
	Value string
}

func (l Lookup) Validate() error {
	if strings.TrimSpace(l.Value) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "lookup value is required")
	}
	switch l.By {
	case ByID, ByBusinessID, ByBlockchainID, ByTransactionHash, ByContentHash:
		return nil
	}
	return dErrors.New(dErrors.CodeBadRequest, "unknown lookup field")
}
