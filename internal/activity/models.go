// Package activity records the reviewer-facing feed of verified and rejected
// requests. Entries are append-only.
package activity

import (
	"time"

	"github.com/google/uuid"

	id "landregistry/pkg/domain"
)

type Type string

const (
	TypePropertyRegistration Type = "PROPERTY_REGISTRATION"
	TypePropertyTransfer     Type = "PROPERTY_TRANSFER"
	TypeDocumentVerification Type = "DOCUMENT_VERIFICATION"
)

type Status string

const (
	StatusVerified Status = "VERIFIED"
	StatusRejected Status = "REJECTED"
)

// RoleGovernmentOfficial is the only actor role that produces activity.
const RoleGovernmentOfficial = "government_official"

const (
	RecentWindow = 24 * time.Hour
	RecentLimit  = 50
)

type Entry struct {
	ID           uuid.UUID `json:"id"`
	Type         Type      `json:"activity_type"`
	Status       Status    `json:"status"`
	ActorEmail   id.UserID `json:"actor_email"`
	ActorRole    string    `json:"actor_role"`
	RequestID    string    `json:"request_id"`
	PropertyID   string    `json:"property_id,omitempty"`
	SubjectName  string    `json:"subject_name,omitempty"`
	Owner        string    `json:"owner,omitempty"`
	TxHash       string    `json:"transaction_hash,omitempty"`
	BlockNumber  uint64    `json:"block_number,omitempty"`
	BlockchainID string    `json:"blockchain_id,omitempty"`
	Description  string    `json:"description"`
	Notes        string    `json:"notes,omitempty"`
	ClientIP     string    `json:"client_ip,omitempty"`
	OccurredAt   time.Time `json:"timestamp"`
}
