package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"landregistry/internal/auth/models"
	jwttoken "landregistry/internal/jwt_token"
	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
	audit "landregistry/pkg/platform/audit"
	"landregistry/pkg/platform/sentinel"
	"landregistry/pkg/requestcontext"
)

// Authenticate validates a bearer token. When deviceID is set the device
// trust policy binds the token to the device's session; the device is
// described from the request's User-Agent.
func (s *Service) Authenticate(ctx context.Context, token string, deviceID id.DeviceID) (*requestcontext.Identity, error) {
	claims, hash, err := s.validate(ctx, token)
	if err != nil {
		return nil, err
	}
	ident := identityFrom(claims)
	if deviceID == "" {
		return ident, nil
	}
	if _, err := s.bindDevice(ctx, claims, hash, deviceID, false); err != nil {
		return nil, err
	}
	return ident, nil
}

// Sync binds the token to the device like Authenticate and stamps LastSync.
func (s *Service) Sync(ctx context.Context, token string, deviceID id.DeviceID) (*models.Session, error) {
	if deviceID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "device id is required")
	}
	claims, hash, err := s.validate(ctx, token)
	if err != nil {
		return nil, err
	}
	session, err := s.bindDevice(ctx, claims, hash, deviceID, true)
	s.authEvent("sync", err)
	return session, err
}

func (s *Service) bindDevice(ctx context.Context, claims *jwttoken.Claims, hash string, deviceID id.DeviceID, sync bool) (*models.Session, error) {
	ident := identityFrom(claims)
	now := requestcontext.Now(ctx)
	info := s.devices.Describe(requestcontext.UserAgent(ctx))

	presented := models.Session{
		ID:          id.NewSessionID(),
		UserID:      ident.UserID,
		DeviceID:    deviceID,
		TokenHash:   hash,
		DisplayName: ident.DisplayName,
		IssuedFor:   id.Audience(ident.IssuedFor),
		DeviceName:  info.Name,
		Platform:    info.Platform,
		Fingerprint: info.Fingerprint,
		CreatedAt:   now,
		LastActive:  now,
	}

	existing, err := s.sessions.Find(ctx, ident.UserID, deviceID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
		}
		existing = nil
	}
	if existing != nil && info.Fingerprint != "" {
		if _, drift := s.devices.CompareFingerprints(existing.Fingerprint, info.Fingerprint); drift {
			s.logger.Info("device fingerprint changed",
				zap.String("user_id", ident.UserID.String()),
				zap.String("device_id", deviceID.String()),
			)
		}
	}

	policy := s.trust
	if sync {
		// An explicit sync enrols the device under every policy.
		policy = TrustOnFirstUse{}
	}
	session, err := policy.Admit(existing, presented)
	if err != nil {
		return nil, err
	}
	if sync {
		session.LastSync = &now
	}

	if existing != nil {
		if err := s.sessions.Upsert(ctx, session); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update session")
		}
		return session, nil
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, stores TxAuthStores) error {
		if err := stores.Sessions.Upsert(ctx, session); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
		}
		return s.emit(ctx, audit.EventSessionCreated, ident.UserID, deviceID.String())
	})
	if err != nil {
		return nil, err
	}
	s.authEvent("session_created", nil)
	return session, nil
}

// Invalidate logs a device out: its session is deleted and the token is
// recorded as invalidated, atomically.
func (s *Service) Invalidate(ctx context.Context, token string, deviceID id.DeviceID) error {
	err := s.invalidate(ctx, token, deviceID)
	s.authEvent("logout", err)
	return err
}

func (s *Service) invalidate(ctx context.Context, token string, deviceID id.DeviceID) error {
	if deviceID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "device id is required")
	}
	claims, hash, err := s.validate(ctx, token)
	if err != nil {
		return err
	}
	ident := identityFrom(claims)
	invalidated := models.InvalidatedToken{
		TokenHash:     hash,
		UserID:        ident.UserID,
		DeviceID:      deviceID,
		Reason:        models.ReasonLogout,
		InvalidatedAt: requestcontext.Now(ctx),
		ExpiresAt:     expiryOf(claims),
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, stores TxAuthStores) error {
		if err := stores.Sessions.Delete(ctx, ident.UserID, deviceID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete session")
		}
		if err := stores.Invalidations.Append(ctx, invalidated); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to invalidate token")
		}
		return s.emit(ctx, audit.EventSessionInvalidated, ident.UserID, deviceID.String())
	})
	if err != nil {
		s.logger.Error("logout failed",
			zap.String("request_id", requestcontext.RequestID(ctx)),
			zap.String("user_id", ident.UserID.String()),
			zap.Error(err),
		)
		return err
	}

	s.cacheInvalidation(ctx, invalidated)
	return nil
}

// CheckStatus is a read-only pre-flight: signature, expiry and invalidation.
func (s *Service) CheckStatus(ctx context.Context, token string) models.Status {
	if token == "" {
		return models.Status{Reason: "missing_token"}
	}
	claims, _, err := s.validate(ctx, token)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			de, _ := dErrors.As(err)
			return models.Status{Reason: de.Message}
		}
		s.logger.Error("token status check failed", zap.Error(err))
		return models.Status{Reason: "status unavailable"}
	}
	return models.Status{Valid: true, Identity: identityFrom(claims)}
}
