package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"landregistry/internal/auth/device"
	"landregistry/internal/auth/models"
	jwttoken "landregistry/internal/jwt_token"
	"landregistry/internal/platform/metrics"
	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
	audit "landregistry/pkg/platform/audit"
	"landregistry/pkg/requestcontext"
)

// SessionStore persists one session per (user, device).
type SessionStore interface {
	Find(ctx context.Context, userID id.UserID, deviceID id.DeviceID) (*models.Session, error)
	// FindForUpdate holds the row until the transaction in ctx ends.
	FindForUpdate(ctx context.Context, userID id.UserID, deviceID id.DeviceID) (*models.Session, error)
	Upsert(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, userID id.UserID, deviceID id.DeviceID) error
}

// InvalidationStore is the append-only record of truth for invalidated tokens.
type InvalidationStore interface {
	Append(ctx context.Context, token models.InvalidatedToken) error
	IsInvalidated(ctx context.Context, tokenHash string) (bool, error)
}

// InvalidationCache mirrors committed invalidations. A miss is never
// authoritative.
type InvalidationCache interface {
	Add(ctx context.Context, tokenHash string, ttl time.Duration) error
	Contains(ctx context.Context, tokenHash string) (bool, error)
}

type ReviewerStore interface {
	FindByEmail(ctx context.Context, email id.UserID) (*models.Reviewer, error)
	Save(ctx context.Context, reviewer *models.Reviewer) error
}

type TokenSigner interface {
	Sign(identity, displayName, issuedFor string, now time.Time, ttl time.Duration) (*jwttoken.Issued, error)
	ValidateToken(token string) (*jwttoken.Claims, error)
}

// AuditPublisher is the fail-closed compliance publisher.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the token and session manager.
type Service struct {
	tx               AuthStoreTx
	sessions         SessionStore
	invalidations    InvalidationStore
	cache            InvalidationCache
	reviewers        ReviewerStore
	signer           TokenSigner
	auditor          AuditPublisher
	trust            DeviceTrustPolicy
	devices          *device.Service
	metrics          *metrics.Metrics
	logger           *zap.Logger
	governmentDomain string
	tokenTTL         time.Duration
}

type Option func(*Service)

// WithCache enables the invalidated-token cache.
func WithCache(cache InvalidationCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithTrustPolicy replaces the default trust-on-first-use device policy.
func WithTrustPolicy(policy DeviceTrustPolicy) Option {
	return func(s *Service) {
		if policy != nil {
			s.trust = policy
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithDeviceService(devices *device.Service) Option {
	return func(s *Service) {
		if devices != nil {
			s.devices = devices
		}
	}
}

// Config carries the stores and collaborators every Service needs.
type Config struct {
	Tx               AuthStoreTx
	Sessions         SessionStore
	Invalidations    InvalidationStore
	Reviewers        ReviewerStore
	Signer           TokenSigner
	Auditor          AuditPublisher
	GovernmentDomain string
}

func New(cfg Config, opts ...Option) (*Service, error) {
	if cfg.Tx == nil || cfg.Sessions == nil || cfg.Invalidations == nil || cfg.Signer == nil {
		return nil, errors.New("auth service: tx, sessions, invalidations and signer are required")
	}
	if cfg.Reviewers == nil || cfg.Auditor == nil {
		return nil, errors.New("auth service: reviewers and auditor are required")
	}
	s := &Service{
		tx:               cfg.Tx,
		sessions:         cfg.Sessions,
		invalidations:    cfg.Invalidations,
		reviewers:        cfg.Reviewers,
		signer:           cfg.Signer,
		auditor:          cfg.Auditor,
		governmentDomain: cfg.GovernmentDomain,
		trust:            TrustOnFirstUse{},
		devices:          device.NewService(true),
		logger:           zap.NewNop(),
		tokenTTL:         models.TokenTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// validate checks signature, expiry and the invalidation list.
func (s *Service) validate(ctx context.Context, token string) (*jwttoken.Claims, string, error) {
	claims, err := s.signer.ValidateToken(token)
	if err != nil {
		return nil, "", err
	}
	hash := models.HashToken(token)
	invalidated, err := s.isInvalidated(ctx, hash)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to check token invalidation")
	}
	if invalidated {
		return nil, "", dErrors.New(dErrors.CodeUnauthorized, "token has been invalidated")
	}
	return claims, hash, nil
}

// isInvalidated consults the cache first. Cache errors and misses fall
// through to the store.
func (s *Service) isInvalidated(ctx context.Context, hash string) (bool, error) {
	if s.cache != nil {
		hit, err := s.cache.Contains(ctx, hash)
		if err != nil {
			s.logger.Warn("invalidation cache lookup failed", zap.Error(err))
		} else if hit {
			return true, nil
		}
	}
	return s.invalidations.IsInvalidated(ctx, hash)
}

// cacheInvalidation runs after commit. The store already holds the record,
// so a cache failure only costs a slower check later.
func (s *Service) cacheInvalidation(ctx context.Context, token models.InvalidatedToken) {
	if s.cache == nil {
		return
	}
	ttl := token.ExpiresAt.Sub(requestcontext.Now(ctx))
	if ttl <= 0 {
		return
	}
	if err := s.cache.Add(ctx, token.TokenHash, ttl); err != nil {
		s.logger.Warn("failed to cache invalidated token",
			zap.String("user_id", token.UserID.String()),
			zap.String("reason", string(token.Reason)),
			zap.Error(err),
		)
	}
}

func identityFrom(claims *jwttoken.Claims) *requestcontext.Identity {
	return &requestcontext.Identity{
		UserID:      id.UserID(claims.Identity),
		DisplayName: claims.DisplayName,
		IssuedFor:   claims.IssuedFor,
	}
}

func expiryOf(claims *jwttoken.Claims) time.Time {
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, actor id.UserID, subject string) error {
	return s.auditor.Emit(ctx, audit.Event{
		Action:    string(action),
		ActorID:   actor,
		Subject:   subject,
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		Timestamp: requestcontext.Now(ctx),
	})
}

func (s *Service) authEvent(event string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	s.metrics.IncrementAuthEvent(event, result)
}
