package audit

import (
	"context"
	"time"

	id "landregistry/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers registry state changes with legal significance:
	// submissions, approvals, rejections and ledger syncs.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers session and credential events.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity that can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is one append-only audit record. It is written only for successful
// transitions; failed attempts belong in the operational log.
type Event struct {
	Category        EventCategory
	Timestamp       time.Time
	Action          string
	ActorID         id.UserID
	Subject         string // request id or session device
	Kind            string
	PropertyID      string
	BlockchainID    string
	TransactionHash string
	Notes           string
	RequestID       string // correlation id from the HTTP request
	ClientIP        string
}

type AuditEvent string

const (
	// Submission events
	EventPropertyRegistration         AuditEvent = "PROPERTY_REGISTRATION"
	EventPropertyTransfer             AuditEvent = "PROPERTY_TRANSFER"
	EventVerificationRequestSubmitted AuditEvent = "VERIFICATION_REQUEST_SUBMITTED"

	// Review events
	EventRegistrationVerified AuditEvent = "PROPERTY_REGISTRATION_VERIFIED"
	EventTransferVerified     AuditEvent = "PROPERTY_TRANSFER_VERIFIED"
	EventDocumentVerified     AuditEvent = "DOCUMENT_VERIFIED"
	EventRegistrationRejected AuditEvent = "PROPERTY_REGISTRATION_REJECTED"
	EventTransferRejected     AuditEvent = "PROPERTY_TRANSFER_REJECTED"
	EventDocumentRejected     AuditEvent = "DOCUMENT_REJECTED"

	// Ledger events
	EventLedgerSynced AuditEvent = "BLOCKCHAIN_SYNC"

	// Session events
	EventSessionCreated     AuditEvent = "SESSION_CREATED"
	EventSessionInvalidated AuditEvent = "SESSION_INVALIDATED"
	EventTokenRefreshed     AuditEvent = "TOKEN_REFRESHED"
	EventGovernmentLogin    AuditEvent = "GOVERNMENT_LOGIN"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventPropertyRegistration:         CategoryCompliance,
	EventPropertyTransfer:             CategoryCompliance,
	EventVerificationRequestSubmitted: CategoryCompliance,
	EventRegistrationVerified:         CategoryCompliance,
	EventTransferVerified:             CategoryCompliance,
	EventDocumentVerified:             CategoryCompliance,
	EventRegistrationRejected:         CategoryCompliance,
	EventTransferRejected:             CategoryCompliance,
	EventDocumentRejected:             CategoryCompliance,
	EventLedgerSynced:                 CategoryCompliance,

	EventSessionInvalidated: CategorySecurity,
	EventGovernmentLogin:    CategorySecurity,

	EventSessionCreated: CategoryOperations,
	EventTokenRefreshed: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store appends audit events. Implementations join the caller's unit of work
// when one is open on the context.
type Store interface {
	Append(ctx context.Context, event Event) error
}
