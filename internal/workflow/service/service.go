// Package service is the verification workflow engine. Every reviewer
// decision runs in one unit of work that updates the request, the ledger
// mirror, the activity feed and the audit log together.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"landregistry/internal/activity"
	ledger "landregistry/internal/ledger/models"
	"landregistry/internal/platform/metrics"
	"landregistry/internal/syncbridge"
	"landregistry/internal/workflow/models"
	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
	"landregistry/pkg/platform/audit"
	"landregistry/pkg/platform/sentinel"
)

// RequestStore persists requests. FindForUpdate locks the row inside a unit
// of work; Finalize fails with sentinel.ErrInvalidState unless the stored
// request is still pending.
type RequestStore interface {
	Create(ctx context.Context, req *models.Request) error
	Find(ctx context.Context, key models.RequestKey) (*models.Request, error)
	FindForUpdate(ctx context.Context, key models.RequestKey) (*models.Request, error)
	Finalize(ctx context.Context, req *models.Request) error
	SetBlockchain(ctx context.Context, requestID id.RequestID, info models.BlockchainInfo) error
	ListByKind(ctx context.Context, kind models.Kind, statuses []models.Status) ([]models.Request, error)
	ListByCreator(ctx context.Context, createdBy id.UserID, kind models.Kind) ([]models.Request, error)
	Count(ctx context.Context, filter models.CountFilter) (int, error)
	FindLatestByBlockchain(ctx context.Context, kind models.Kind, field models.BlockchainField, value string) (*models.Request, error)
}

// LedgerAppender is the ledger mirror's write side.
type LedgerAppender interface {
	AppendTransaction(ctx context.Context, key string, tx ledger.Transaction, seed *ledger.Seed) (*ledger.Entry, error)
}

type ActivityStore interface {
	Append(ctx context.Context, entry activity.Entry) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// ContentStore stores verification envelopes and returns their hash.
type ContentStore interface {
	Put(ctx context.Context, envelope any) (string, error)
}

// LedgerBridge is the subset of the sync bridge the engine calls.
type LedgerBridge interface {
	SyncProperty(ctx context.Context, property syncbridge.PropertyDescriptor, txHash string) (*syncbridge.PropertySync, error)
	SyncDocument(ctx context.Context, document syncbridge.DocumentDescriptor) (*syncbridge.DocumentSync, error)
}

// Stores are the participants of one unit of work.
type Stores struct {
	Requests RequestStore
	Ledger   LedgerAppender
	Activity ActivityStore
	Audit    AuditPublisher
}

// UnitOfWork runs fn so that every write through stores commits or rolls
// back together.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}

type Service struct {
	uow      UnitOfWork
	requests RequestStore
	bridge   LedgerBridge
	content  ContentStore
	metrics  *metrics.Metrics
	logger   *zap.Logger
	tracer   trace.Tracer
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

const tracerName = "landregistry/workflow"

// Config lists the required collaborators. Requests is used for reads
// outside a unit of work.
type Config struct {
	UnitOfWork UnitOfWork
	Requests   RequestStore
	Bridge     LedgerBridge
	Content    ContentStore
}

func New(cfg Config, opts ...Option) (*Service, error) {
	if cfg.UnitOfWork == nil || cfg.Requests == nil || cfg.Content == nil {
		return nil, errors.New("workflow: unit of work, request store and content store are required")
	}
	bridge := cfg.Bridge
	if bridge == nil {
		bridge = syncbridge.Disabled{}
	}
	s := &Service{
		uow:      cfg.UnitOfWork,
		requests: cfg.Requests,
		bridge:   bridge,
		content:  cfg.Content,
		logger:   zap.NewNop(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// translate maps store sentinels onto domain errors. Errors that already
// carry a domain code pass through.
func translate(err error) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "request not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "a request with this id already exists")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeAlreadyFinalized, "request has already been finalized")
	default:
		return dErrors.Wrap(err, dErrors.CodeStoreTransactionFailure, "request store failure")
	}
}

func alreadyFinalized(req *models.Request) error {
	return dErrors.New(dErrors.CodeAlreadyFinalized, "request is already "+string(req.Status))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
