// Package models defines verification requests and the per-kind rules for
// addressing them.
package models

import (
	"strings"
	"time"

	ledger "landregistry/internal/ledger/models"
	id "landregistry/pkg/domain"
)

type Kind string

const (
	KindRegistration Kind = "registration"
	KindTransfer     Kind = "transfer"
	KindDocument     Kind = "document"
)

func (k Kind) Valid() bool {
	switch k {
	case KindRegistration, KindTransfer, KindDocument:
		return true
	}
	return false
}

// Prefix is the leading segment of server-generated ids for the kind.
func (k Kind) Prefix() string {
	switch k {
	case KindRegistration:
		return "REG"
	case KindTransfer:
		return "TRF"
	case KindDocument:
		return "VR"
	}
	return ""
}

// IsProperty reports whether requests of this kind concern a property rather
// than an identity document.
func (k Kind) IsProperty() bool {
	return k == KindRegistration || k == KindTransfer
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted || s == StatusRejected
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	return p == PriorityNormal || p == PriorityUrgent
}

type Party struct {
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`
	WalletAddress string `json:"wallet_address,omitempty"`
}

func (p *Party) present() bool {
	return p != nil && strings.TrimSpace(p.Name) != ""
}

func (p *Party) normalize() {
	if p == nil {
		return
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
	p.WalletAddress = strings.TrimSpace(p.WalletAddress)
}

// Ledger converts the party into its mirror representation.
func (p *Party) Ledger() ledger.Party {
	if p == nil {
		return ledger.Party{}
	}
	return ledger.Party{Name: p.Name, Email: p.Email, Phone: p.Phone, WalletAddress: p.WalletAddress}
}

type PropertyInfo struct {
	PropertyID      string `json:"property_id"`
	Name            string `json:"name,omitempty"`
	Type            string `json:"type,omitempty"`
	Locality        string `json:"locality,omitempty"`
	Address         string `json:"address,omitempty"`
	Area            string `json:"area,omitempty"`
	BlockchainID    string `json:"blockchain_id,omitempty"`
	TransactionHash string `json:"transaction_hash,omitempty"`
}

// Anchored reports whether the client already put the property on chain.
func (p *PropertyInfo) Anchored() bool {
	return p != nil && p.BlockchainID != "" && p.TransactionHash != ""
}

type AppointmentInfo struct {
	Date     string `json:"date"`
	TimeSlot string `json:"time_slot,omitempty"`
	Office   string `json:"office,omitempty"`
}

// BlockchainInfo is on-chain evidence supplied by a client or a reviewer.
type BlockchainInfo struct {
	BlockchainID    string `json:"blockchain_id"`
	TransactionHash string `json:"transaction_hash"`
	BlockNumber     uint64 `json:"block_number,omitempty"`
	GasUsed         uint64 `json:"gas_used,omitempty"`
}

// Complete reports whether both the ledger id and the transaction hash are set.
func (b *BlockchainInfo) Complete() bool {
	return b != nil && strings.TrimSpace(b.BlockchainID) != "" && strings.TrimSpace(b.TransactionHash) != ""
}

type PersonalInfo struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number,omitempty"`
}

type StepName string

const (
	StepDocumentSubmitted      StepName = "document_submitted"
	StepInitialVerification    StepName = "initial_verification"
	StepGovernmentVerification StepName = "government_verification"
	StepFinalApproval          StepName = "final_approval"
	StepVerificationCompleted  StepName = "verification_completed"
	StepVerificationRejected   StepName = "verification_rejected"
)

// VerificationStep is informational; no transition depends on it.
type VerificationStep struct {
	Name      StepName   `json:"name"`
	Completed bool       `json:"completed"`
	At        *time.Time `json:"at,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

// InitialSteps returns the step list a new document request starts with.
func InitialSteps(now time.Time) []VerificationStep {
	return []VerificationStep{
		{Name: StepDocumentSubmitted, Completed: true, At: &now},
		{Name: StepInitialVerification},
		{Name: StepGovernmentVerification},
		{Name: StepFinalApproval},
	}
}

// Review records the outcome of a reviewer decision.
type Review struct {
	Verifier     id.UserID       `json:"verifier"`
	At           time.Time       `json:"at"`
	Notes        string          `json:"notes,omitempty"`
	Confirmation *BlockchainInfo `json:"confirmation,omitempty"`
	ContentHash  string          `json:"content_hash,omitempty"`
	Rejected     bool            `json:"rejected,omitempty"`
}

type Request struct {
	ID       id.RequestID `json:"id"`
	Kind     Kind         `json:"kind"`
	Status   Status       `json:"status"`
	Priority Priority     `json:"priority"`

	Owner        *Party           `json:"owner,omitempty"`
	CurrentOwner *Party           `json:"current_owner,omitempty"`
	NewOwner     *Party           `json:"new_owner,omitempty"`
	Property     *PropertyInfo    `json:"property,omitempty"`
	Witnesses    []Party          `json:"witnesses,omitempty"`
	Appointment  *AppointmentInfo `json:"appointment,omitempty"`

	Personal *PersonalInfo      `json:"personal,omitempty"`
	Steps    []VerificationStep `json:"steps,omitempty"`

	Documents  map[string]string `json:"documents,omitempty"`
	Blockchain *BlockchainInfo   `json:"blockchain,omitempty"`
	Review     *Review           `json:"review,omitempty"`

	CreatedBy id.UserID `json:"created_by"`
	ClientIP  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PropertyID is empty for document requests.
func (r *Request) PropertyID() string {
	if r.Property == nil {
		return ""
	}
	return r.Property.PropertyID
}

// LedgerKey is the mirror key: the property id, or the request id for
// documents.
func (r *Request) LedgerKey() string {
	if r.Kind == KindDocument {
		return string(r.ID)
	}
	return r.PropertyID()
}

// PropertyOwner returns whoever owns the property before any transfer.
func (r *Request) PropertyOwner() *Party {
	if r.Kind == KindTransfer {
		return r.CurrentOwner
	}
	return r.Owner
}

// LedgerSeed builds the entry created the first time the mirror sees this
// request's key.
func (r *Request) LedgerSeed() *ledger.Seed {
	if r.Kind == KindDocument {
		seed := &ledger.Seed{EntityType: ledger.EntityDocument}
		if r.Personal != nil {
			seed.Owner = ledger.Party{Name: r.Personal.FullName, Email: r.Personal.Email}
			seed.Descriptor.DocumentType = r.Personal.DocumentType
		}
		return seed
	}
	seed := &ledger.Seed{EntityType: ledger.EntityProperty, Owner: r.PropertyOwner().Ledger()}
	if r.Property != nil {
		seed.Descriptor = ledger.Descriptor{
			Name:         r.Property.Name,
			PropertyType: r.Property.Type,
			Locality:     r.Property.Locality,
		}
	}
	return seed
}

// Clone copies the request deeply enough that stores can hand it out safely.
func (r *Request) Clone() *Request {
	cp := *r
	cp.Witnesses = append([]Party(nil), r.Witnesses...)
	cp.Steps = append([]VerificationStep(nil), r.Steps...)
	if r.Documents != nil {
		cp.Documents = make(map[string]string, len(r.Documents))
		for k, v := range r.Documents {
			cp.Documents[k] = v
		}
	}
	if r.Blockchain != nil {
		b := *r.Blockchain
		cp.Blockchain = &b
	}
	if r.Review != nil {
		rv := *r.Review
		cp.Review = &rv
	}
	return &cp
}
