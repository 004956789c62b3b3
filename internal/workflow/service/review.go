package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"landregistry/internal/activity"
	ledger "landregistry/internal/ledger/models"
	"landregistry/internal/workflow/models"
	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
	"landregistry/pkg/platform/audit"
	"landregistry/pkg/requestcontext"
)

// VerificationEnvelope is the record written to the content store when a
// document request is approved. Its canonical hash becomes the ledger
// content hash.
type VerificationEnvelope struct {
	RequestID    id.RequestID              `json:"request_id"`
	DocumentType string                    `json:"document_type"`
	Documents    map[string]string         `json:"documents"`
	Steps        []models.VerificationStep `json:"steps"`
	Verifier     id.UserID                 `json:"verifier"`
	VerifiedAt   time.Time                 `json:"verified_at"`
	Notes        string                    `json:"notes,omitempty"`
}

// Approve completes a pending request. Property kinds need a complete
// blockchain confirmation; documents get their envelope stored first. The
// status change, ledger events, activity entry and audit event commit
// together or not at all.
func (s *Service) Approve(ctx context.Context, in *models.ApproveRequest) (_ *models.Request, err error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "workflow.Approve", trace.WithAttributes(attribute.String("kind", string(in.Kind))))
	defer func() { endSpan(span, err) }()

	key, err := models.ResolveKey(in.Kind, in.Key)
	if err != nil {
		return nil, err
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Kind.IsProperty() && !in.Confirmation.Complete() {
		return nil, dErrors.New(dErrors.CodeMissingBlockchainData, "approval requires a blockchain id and transaction hash")
	}
	verifier := requestcontext.UserID(ctx)
	if verifier.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	now := requestcontext.Now(ctx)

	var contentHash string
	if in.Kind == models.KindDocument {
		contentHash, err = s.storeEnvelope(ctx, key, verifier, now, in.Notes)
		if err != nil {
			return nil, err
		}
	}

	var approved *models.Request
	err = s.uow.RunInTx(ctx, func(ctx context.Context, stores Stores) error {
		req, err := stores.Requests.FindForUpdate(ctx, key)
		if err != nil {
			return translate(err)
		}
		if req.Status.IsTerminal() {
			return alreadyFinalized(req)
		}

		req.Status = models.StatusCompleted
		req.UpdatedAt = now
		req.Review = &models.Review{Verifier: verifier, At: now, Notes: in.Notes, ContentHash: contentHash}
		if in.Confirmation != nil {
			conf := *in.Confirmation
			req.Review.Confirmation = &conf
		}
		if req.Kind == models.KindDocument {
			req.Steps = append(req.Steps, models.VerificationStep{
				Name: models.StepVerificationCompleted, Completed: true, At: &now, Notes: in.Notes,
			})
		}
		if err := stores.Requests.Finalize(ctx, req); err != nil {
			return translate(err)
		}

		last, err := appendApproval(ctx, stores.Ledger, req, now)
		if err != nil {
			return err
		}
		if err := stores.Activity.Append(ctx, activityEntry(ctx, req, activity.StatusVerified, last)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeStoreTransactionFailure, "failed to record activity")
		}
		if err := stores.Audit.Emit(ctx, s.auditEvent(ctx, verifiedAction(req.Kind), req, verifier, in.Notes)); err != nil {
			return err
		}
		approved = req
		return nil
	})
	if err != nil {
		s.recordFailedDecision(in.Kind, err)
		s.logger.Warn("approval failed",
			zap.String("kind", string(in.Kind)),
			zap.String("key", key.Value),
			zap.Error(err),
		)
		return nil, err
	}
	s.metrics.IncrementDecision(string(approved.Kind), "approved")
	s.metrics.ObserveDecisionLatency(string(approved.Kind), time.Since(started))
	if approved.Kind == models.KindTransfer {
		s.metrics.IncrementLedgerEvent(string(ledger.TxTransfer))
	}
	s.metrics.IncrementLedgerEvent(string(ledger.TxVerification))
	s.logger.Info("request approved",
		zap.String("request_id", approved.ID.String()),
		zap.String("verifier", verifier.String()),
	)
	return approved, nil
}

// storeEnvelope loads the request outside the unit of work so a finalized
// request is reported before anything is written to the content store.
func (s *Service) storeEnvelope(ctx context.Context, key models.RequestKey, verifier id.UserID, now time.Time, notes string) (string, error) {
	req, err := s.requests.Find(ctx, key)
	if err != nil {
		return "", translate(err)
	}
	if req.Status.IsTerminal() {
		return "", alreadyFinalized(req)
	}
	envelope := VerificationEnvelope{
		RequestID:  req.ID,
		Documents:  req.Documents,
		Steps:      req.Steps,
		Verifier:   verifier,
		VerifiedAt: now,
		Notes:      notes,
	}
	if req.Personal != nil {
		envelope.DocumentType = req.Personal.DocumentType
	}
	hash, err := s.content.Put(ctx, envelope)
	if err != nil {
		if de, ok := dErrors.As(err); ok && de.Code == dErrors.CodeUpstreamSyncFailure {
			return "", err
		}
		return "", dErrors.Wrap(err, dErrors.CodeUpstreamSyncFailure, "failed to store verification record")
	}
	return hash, nil
}

// appendApproval writes the ledger events for an approved request and returns
// the last one. A transfer yields TRANSFER then VERIFICATION.
func appendApproval(ctx context.Context, l LedgerAppender, req *models.Request, now time.Time) (ledger.Transaction, error) {
	key := req.LedgerKey()
	seed := req.LedgerSeed()
	verifier := req.Review.Verifier

	verification := ledger.Transaction{
		Type:      ledger.TxVerification,
		Verifier:  verifier,
		Timestamp: now,
	}
	if conf := req.Review.Confirmation; conf != nil {
		verification.TxHash = conf.TransactionHash
		verification.BlockNumber = conf.BlockNumber
		verification.GasUsed = conf.GasUsed
		verification.BlockchainID = conf.BlockchainID
	} else if b := req.Blockchain; b != nil {
		verification.TxHash = b.TransactionHash
		verification.BlockNumber = b.BlockNumber
		verification.BlockchainID = b.BlockchainID
	}
	verification.ContentHash = req.Review.ContentHash

	if req.Kind == models.KindTransfer {
		from := req.CurrentOwner.Ledger()
		to := req.NewOwner.Ledger()
		transfer := verification
		transfer.Type = ledger.TxTransfer
		transfer.From = &from
		transfer.To = &to
		if _, err := l.AppendTransaction(ctx, key, transfer, seed); err != nil {
			return ledger.Transaction{}, err
		}
	}
	if _, err := l.AppendTransaction(ctx, key, verification, seed); err != nil {
		return ledger.Transaction{}, err
	}
	return verification, nil
}

// Reject finalizes a pending request as rejected. The ledger mirror is not
// touched.
func (s *Service) Reject(ctx context.Context, in *models.RejectRequest) (_ *models.Request, err error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "workflow.Reject", trace.WithAttributes(attribute.String("kind", string(in.Kind))))
	defer func() { endSpan(span, err) }()

	key, err := models.ResolveKey(in.Kind, in.Key)
	if err != nil {
		return nil, err
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	verifier := requestcontext.UserID(ctx)
	if verifier.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	now := requestcontext.Now(ctx)

	var rejected *models.Request
	err = s.uow.RunInTx(ctx, func(ctx context.Context, stores Stores) error {
		req, err := stores.Requests.FindForUpdate(ctx, key)
		if err != nil {
			return translate(err)
		}
		if req.Status.IsTerminal() {
			return alreadyFinalized(req)
		}
		req.Status = models.StatusRejected
		req.UpdatedAt = now
		req.Review = &models.Review{Verifier: verifier, At: now, Notes: in.Notes, Rejected: true}
		if req.Kind == models.KindDocument {
			req.Steps = append(req.Steps, models.VerificationStep{
				Name: models.StepVerificationRejected, Completed: true, At: &now, Notes: in.Notes,
			})
		}
		if err := stores.Requests.Finalize(ctx, req); err != nil {
			return translate(err)
		}
		if err := stores.Activity.Append(ctx, activityEntry(ctx, req, activity.StatusRejected, ledger.Transaction{})); err != nil {
			return dErrors.Wrap(err, dErrors.CodeStoreTransactionFailure, "failed to record activity")
		}
		if err := stores.Audit.Emit(ctx, s.auditEvent(ctx, rejectedAction(req.Kind), req, verifier, in.Notes)); err != nil {
			return err
		}
		rejected = req
		return nil
	})
	if err != nil {
		s.recordFailedDecision(in.Kind, err)
		return nil, err
	}
	s.metrics.IncrementDecision(string(rejected.Kind), "rejected")
	s.metrics.ObserveDecisionLatency(string(rejected.Kind), time.Since(started))
	s.logger.Info("request rejected",
		zap.String("request_id", rejected.ID.String()),
		zap.String("verifier", verifier.String()),
	)
	return rejected, nil
}

func activityEntry(ctx context.Context, req *models.Request, status activity.Status, tx ledger.Transaction) activity.Entry {
	entry := activity.Entry{
		ID:           uuid.New(),
		Status:       status,
		ActorEmail:   req.Review.Verifier,
		ActorRole:    activity.RoleGovernmentOfficial,
		RequestID:    req.ID.String(),
		PropertyID:   req.PropertyID(),
		TxHash:       tx.TxHash,
		BlockNumber:  tx.BlockNumber,
		BlockchainID: tx.BlockchainID,
		Notes:        req.Review.Notes,
		ClientIP:     requestcontext.ClientIP(ctx),
		OccurredAt:   req.Review.At,
	}
	var label string
	switch req.Kind {
	case models.KindRegistration:
		entry.Type = activity.TypePropertyRegistration
		entry.Owner = partyLabel(req.Owner)
		label = "Property registration"
	case models.KindTransfer:
		entry.Type = activity.TypePropertyTransfer
		entry.Owner = partyLabel(req.NewOwner)
		if status == activity.StatusRejected {
			entry.Owner = partyLabel(req.CurrentOwner)
		}
		label = "Property transfer"
	case models.KindDocument:
		entry.Type = activity.TypeDocumentVerification
		label = "Document"
		if req.Personal != nil {
			entry.Owner = req.Personal.FullName
			entry.SubjectName = req.Personal.DocumentType
		}
	}
	if req.Property != nil {
		entry.SubjectName = req.Property.Name
		if entry.SubjectName == "" {
			entry.SubjectName = "Unnamed property"
		}
	}
	switch {
	case status == activity.StatusRejected:
		entry.Description = label + " rejected"
	case req.Kind == models.KindDocument:
		entry.Description = "Document verified and stored in the content store"
	default:
		entry.Description = fmt.Sprintf("%s verified on blockchain", label)
	}
	return entry
}

func partyLabel(p *models.Party) string {
	if p == nil {
		return ""
	}
	if p.Email != "" {
		return p.Email
	}
	return p.Name
}

func verifiedAction(kind models.Kind) audit.AuditEvent {
	switch kind {
	case models.KindRegistration:
		return audit.EventRegistrationVerified
	case models.KindTransfer:
		return audit.EventTransferVerified
	default:
		return audit.EventDocumentVerified
	}
}

func rejectedAction(kind models.Kind) audit.AuditEvent {
	switch kind {
	case models.KindRegistration:
		return audit.EventRegistrationRejected
	case models.KindTransfer:
		return audit.EventTransferRejected
	default:
		return audit.EventDocumentRejected
	}
}

func (s *Service) recordFailedDecision(kind models.Kind, err error) {
	outcome := "failed"
	if dErrors.HasCode(err, dErrors.CodeAlreadyFinalized) {
		outcome = "already_finalized"
	}
	s.metrics.IncrementDecision(string(kind), outcome)
}
