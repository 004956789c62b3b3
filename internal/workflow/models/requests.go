package models

import (
	"strings"

	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
)

const maxNotesLength = 2000

// SubmitRequest is the body of POST /requests/{kind}. Which fields are
// required depends on the kind; see ValidateFor.
type SubmitRequest struct {
	ID           string            `json:"id,omitempty"`
	Priority     Priority          `json:"priority,omitempty"`
	Owner        *Party            `json:"owner,omitempty"`
	CurrentOwner *Party            `json:"current_owner,omitempty"`
	NewOwner     *Party            `json:"new_owner,omitempty"`
	Property     *PropertyInfo     `json:"property,omitempty"`
	Witnesses    []Party           `json:"witnesses,omitempty"`
	Appointment  *AppointmentInfo  `json:"appointment,omitempty"`
	Blockchain   *BlockchainInfo   `json:"blockchain,omitempty"`
	Personal     *PersonalInfo     `json:"personal,omitempty"`
	Documents    map[string]string `json:"documents,omitempty"`
}

func (r *SubmitRequest) Normalize() {
	r.ID = strings.TrimSpace(r.ID)
	if r.Priority == "" {
		r.Priority = PriorityNormal
	}
	r.Owner.normalize()
	r.CurrentOwner.normalize()
	r.NewOwner.normalize()
	for i := range r.Witnesses {
		r.Witnesses[i].normalize()
	}
	if r.Property != nil {
		r.Property.PropertyID = strings.TrimSpace(r.Property.PropertyID)
		r.Property.BlockchainID = strings.TrimSpace(r.Property.BlockchainID)
		r.Property.TransactionHash = strings.TrimSpace(r.Property.TransactionHash)
	}
	if r.Blockchain != nil {
		r.Blockchain.BlockchainID = strings.TrimSpace(r.Blockchain.BlockchainID)
		r.Blockchain.TransactionHash = strings.TrimSpace(r.Blockchain.TransactionHash)
	}
}

// Validate checks shape only; kind-specific rules live in ValidateFor.
func (r *SubmitRequest) Validate() error {
	if !r.Priority.Valid() {
		return dErrors.New(dErrors.CodeValidation, "priority must be normal or urgent")
	}
	if r.ID != "" {
		if _, err := id.ParseRequestID(r.ID); err != nil {
			return err
		}
	}
	return nil
}

// ValidateFor applies the required-field rules of kind. A transfer without
// complete blockchain evidence fails with missing_blockchain_data.
func (r *SubmitRequest) ValidateFor(kind Kind) error {
	switch kind {
	case KindRegistration:
		if !r.Owner.present() {
			return dErrors.New(dErrors.CodeValidation, "owner is required")
		}
		if err := r.validateProperty(); err != nil {
			return err
		}
	case KindTransfer:
		if !r.CurrentOwner.present() {
			return dErrors.New(dErrors.CodeValidation, "current owner is required")
		}
		if !r.NewOwner.present() {
			return dErrors.New(dErrors.CodeValidation, "new owner is required")
		}
		if err := r.validateProperty(); err != nil {
			return err
		}
		if !r.Blockchain.Complete() {
			return dErrors.New(dErrors.CodeMissingBlockchainData, "transfer requires blockchain id and transaction hash")
		}
	case KindDocument:
		if r.Personal == nil || strings.TrimSpace(r.Personal.FullName) == "" {
			return dErrors.New(dErrors.CodeValidation, "personal information is required")
		}
		if strings.TrimSpace(r.Personal.DocumentType) == "" {
			return dErrors.New(dErrors.CodeValidation, "document type is required")
		}
		if len(r.Documents) == 0 {
			return dErrors.New(dErrors.CodeValidation, "at least one document is required")
		}
	default:
		return dErrors.New(dErrors.CodeBadRequest, "unknown request kind")
	}
	return nil
}

func (r *SubmitRequest) validateProperty() error {
	if r.Property == nil || r.Property.PropertyID == "" {
		return dErrors.New(dErrors.CodeValidation, "property with property_id is required")
	}
	if len(r.Witnesses) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one witness is required")
	}
	for _, w := range r.Witnesses {
		if !w.present() {
			return dErrors.New(dErrors.CodeValidation, "witness name is required")
		}
	}
	if r.Appointment == nil || strings.TrimSpace(r.Appointment.Date) == "" {
		return dErrors.New(dErrors.CodeValidation, "appointment is required")
	}
	return nil
}

// SyncOutcome reports what happened to the best-effort ledger call on submit.
type SyncOutcome string

const (
	SyncCompleted SyncOutcome = "completed"
	SyncSkipped   SyncOutcome = "skipped"
	SyncFailed    SyncOutcome = "failed"
)

type SubmitResult struct {
	Request        *Request
	BlockchainSync SyncOutcome
}

// ApproveRequest carries the reviewer's decision. Kind and Key come from the
// route; Confirmation is required for property kinds.
type ApproveRequest struct {
	Kind         Kind            `json:"-"`
	Key          string          `json:"-"`
	Confirmation *BlockchainInfo `json:"confirmation,omitempty"`
	Notes        string          `json:"notes,omitempty"`
}

func (r *ApproveRequest) Normalize() {
	r.Notes = strings.TrimSpace(r.Notes)
	if r.Confirmation != nil {
		r.Confirmation.BlockchainID = strings.TrimSpace(r.Confirmation.BlockchainID)
		r.Confirmation.TransactionHash = strings.TrimSpace(r.Confirmation.TransactionHash)
	}
}

func (r *ApproveRequest) Validate() error {
	if len(r.Notes) > maxNotesLength {
		return dErrors.New(dErrors.CodeValidation, "notes are too long")
	}
	return nil
}

type RejectRequest struct {
	Kind  Kind   `json:"-"`
	Key   string `json:"-"`
	Notes string `json:"notes"`
}

func (r *RejectRequest) Normalize() {
	r.Notes = strings.TrimSpace(r.Notes)
}

func (r *RejectRequest) Validate() error {
	if r.Notes == "" {
		return dErrors.New(dErrors.CodeBadRequest, "rejection notes are required")
	}
	if len(r.Notes) > maxNotesLength {
		return dErrors.New(dErrors.CodeValidation, "notes are too long")
	}
	return nil
}

// CountFilter narrows dashboard counts. Zero fields match everything.
type CountFilter struct {
	Kind     Kind
	Statuses []Status
	Priority Priority
}

// BlockchainField names the request evidence field a fallback lookup matches.
type BlockchainField string

const (
	FieldBlockchainID    BlockchainField = "blockchain_id"
	FieldTransactionHash BlockchainField = "transaction_hash"
)
