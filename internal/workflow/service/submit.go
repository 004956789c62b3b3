package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	ledger "landregistry/internal/ledger/models"
	"landregistry/internal/syncbridge"
	"landregistry/internal/workflow/models"
	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
	"landregistry/pkg/platform/audit"
	"landregistry/pkg/requestcontext"
)

// Submit validates in for kind and stores a new pending request. Once the
// request is committed the sync bridge is called best effort; its outcome is
// reported but never fails the submission.
func (s *Service) Submit(ctx context.Context, kind models.Kind, in *models.SubmitRequest) (_ *models.SubmitResult, err error) {
	ctx, span := s.tracer.Start(ctx, "workflow.Submit", trace.WithAttributes(attribute.String("kind", string(kind))))
	defer func() { endSpan(span, err) }()

	if !kind.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown request kind")
	}
	if in == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := in.ValidateFor(kind); err != nil {
		return nil, err
	}
	actor := requestcontext.UserID(ctx)
	if actor.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	req := newRequest(ctx, kind, in, actor)
	err = s.uow.RunInTx(ctx, func(ctx context.Context, stores Stores) error {
		if err := stores.Requests.Create(ctx, req); err != nil {
			return translate(err)
		}
		return stores.Audit.Emit(ctx, s.auditEvent(ctx, submittedAction(kind), req, actor, ""))
	})
	if err != nil {
		s.logger.Error("failed to submit request",
			zap.String("kind", string(kind)),
			zap.String("request_id", req.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	s.metrics.IncrementSubmitted(string(kind))
	span.SetAttributes(attribute.String("request.id", req.ID.String()))

	outcome := s.syncOnSubmit(ctx, req)
	if outcome == models.SyncFailed {
		s.metrics.IncrementSyncFailure("submit_" + string(kind))
	}
	return &models.SubmitResult{Request: req, BlockchainSync: outcome}, nil
}

func newRequest(ctx context.Context, kind models.Kind, in *models.SubmitRequest, actor id.UserID) *models.Request {
	now := requestcontext.Now(ctx)
	requestID := id.NewRequestID(kind.Prefix())
	if kind == models.KindDocument && in.ID != "" {
		requestID = id.RequestID(in.ID)
	}
	req := &models.Request{
		ID:          requestID,
		Kind:        kind,
		Status:      models.StatusPending,
		Priority:    in.Priority,
		Property:    in.Property,
		Witnesses:   in.Witnesses,
		Appointment: in.Appointment,
		Documents:   in.Documents,
		CreatedBy:   actor,
		ClientIP:    requestcontext.ClientIP(ctx),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	switch kind {
	case models.KindRegistration:
		req.Owner = in.Owner
		if in.Property.Anchored() {
			req.Blockchain = &models.BlockchainInfo{
				BlockchainID:    in.Property.BlockchainID,
				TransactionHash: in.Property.TransactionHash,
			}
		}
	case models.KindTransfer:
		req.CurrentOwner = in.CurrentOwner
		req.NewOwner = in.NewOwner
		req.Blockchain = in.Blockchain
	case models.KindDocument:
		req.Personal = in.Personal
		req.Steps = models.InitialSteps(now)
	}
	return req
}

func (s *Service) syncOnSubmit(ctx context.Context, req *models.Request) models.SyncOutcome {
	if req.Kind == models.KindRegistration && !req.Property.Anchored() {
		return models.SyncSkipped
	}
	info, err := s.callBridge(ctx, req)
	if errors.Is(err, syncbridge.ErrSyncDisabled) {
		return models.SyncSkipped
	}
	if err != nil {
		s.logger.Warn("ledger sync on submit failed",
			zap.String("kind", string(req.Kind)),
			zap.String("request_id", req.ID.String()),
			zap.Error(err),
		)
		return models.SyncFailed
	}

	now := requestcontext.Now(ctx)
	err = s.uow.RunInTx(ctx, func(ctx context.Context, stores Stores) error {
		tx := ledger.Transaction{
			Type:         ledger.TxRegistration,
			TxHash:       info.TransactionHash,
			BlockNumber:  info.BlockNumber,
			GasUsed:      info.GasUsed,
			BlockchainID: info.BlockchainID,
			Timestamp:    now,
		}
		if _, err := stores.Ledger.AppendTransaction(ctx, req.LedgerKey(), tx, req.LedgerSeed()); err != nil {
			return err
		}
		return stores.Requests.SetBlockchain(ctx, req.ID, info)
	})
	if err == nil {
		s.metrics.IncrementLedgerEvent(string(ledger.TxRegistration))
	}
	if err != nil {
		s.logger.Error("failed to record ledger sync",
			zap.String("request_id", req.ID.String()),
			zap.Error(err),
		)
		return models.SyncFailed
	}
	req.Blockchain = &info
	return models.SyncCompleted
}

func (s *Service) callBridge(ctx context.Context, req *models.Request) (models.BlockchainInfo, error) {
	switch req.Kind {
	case models.KindDocument:
		res, err := s.bridge.SyncDocument(ctx, documentDescriptor(req))
		if err != nil {
			return models.BlockchainInfo{}, err
		}
		return models.BlockchainInfo{
			BlockchainID:    res.BlockchainID,
			TransactionHash: res.TxData.TransactionHash,
			BlockNumber:     res.TxData.BlockNumber,
			GasUsed:         res.TxData.GasUsed,
		}, nil
	default:
		res, err := s.bridge.SyncProperty(ctx, propertyDescriptor(req), req.Blockchain.TransactionHash)
		if err != nil {
			return models.BlockchainInfo{}, err
		}
		return models.BlockchainInfo{
			BlockchainID:    res.LedgerID,
			TransactionHash: res.Confirmation.TransactionHash,
			BlockNumber:     res.Confirmation.BlockNumber,
			GasUsed:         res.Confirmation.GasUsed,
		}, nil
	}
}

func propertyDescriptor(req *models.Request) syncbridge.PropertyDescriptor {
	d := syncbridge.PropertyDescriptor{PropertyID: req.PropertyID()}
	if req.Blockchain != nil {
		d.BlockchainID = req.Blockchain.BlockchainID
	}
	if p := req.Property; p != nil {
		d.Name = p.Name
		d.PropertyType = p.Type
		d.Locality = p.Locality
	}
	if owner := req.PropertyOwner(); owner != nil {
		d.OwnerWallet = owner.WalletAddress
	}
	return d
}

// documentDescriptor lists document names only. Personal details and file
// locations stay off chain.
func documentDescriptor(req *models.Request) syncbridge.DocumentDescriptor {
	names := make([]string, 0, len(req.Documents))
	for name := range req.Documents {
		names = append(names, name)
	}
	sort.Strings(names)
	d := syncbridge.DocumentDescriptor{
		RequestID:   req.ID.String(),
		Documents:   names,
		SubmittedBy: req.CreatedBy.String(),
		SubmittedAt: req.CreatedAt.UTC().Format(time.RFC3339),
	}
	if req.Personal != nil {
		d.DocumentType = req.Personal.DocumentType
	}
	return d
}

func submittedAction(kind models.Kind) audit.AuditEvent {
	switch kind {
	case models.KindRegistration:
		return audit.EventPropertyRegistration
	case models.KindTransfer:
		return audit.EventPropertyTransfer
	default:
		return audit.EventVerificationRequestSubmitted
	}
}

func (s *Service) auditEvent(ctx context.Context, action audit.AuditEvent, req *models.Request, actor id.UserID, notes string) audit.Event {
	event := audit.Event{
		Timestamp:  requestcontext.Now(ctx),
		Action:     string(action),
		ActorID:    actor,
		Subject:    req.ID.String(),
		Kind:       string(req.Kind),
		PropertyID: req.PropertyID(),
		Notes:      notes,
		RequestID:  requestcontext.RequestID(ctx),
		ClientIP:   requestcontext.ClientIP(ctx),
	}
	if b := req.Blockchain; b != nil {
		event.BlockchainID = b.BlockchainID
		event.TransactionHash = b.TransactionHash
	}
	if req.Review != nil && req.Review.Confirmation != nil {
		event.BlockchainID = req.Review.Confirmation.BlockchainID
		event.TransactionHash = req.Review.Confirmation.TransactionHash
	}
	return event
}
