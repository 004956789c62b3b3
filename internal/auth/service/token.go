package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"landregistry/internal/auth/models"
	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
	"landregistry/pkg/email"
	audit "landregistry/pkg/platform/audit"
	"landregistry/pkg/platform/sentinel"
	"landregistry/pkg/requestcontext"
)

const tokenTypeBearer = "Bearer"

// Issue signs a token for claims. No server-side record is created.
func (s *Service) Issue(ctx context.Context, claims models.Claims) (string, error) {
	result, err := s.issue(ctx, claims)
	if err != nil {
		return "", err
	}
	return result.Token, nil
}

func (s *Service) issue(ctx context.Context, claims models.Claims) (*models.TokenResult, error) {
	if claims.UserID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "identity is required")
	}
	if !claims.IssuedFor.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown token audience")
	}
	issued, err := s.signer.Sign(claims.UserID.String(), claims.DisplayName, string(claims.IssuedFor), requestcontext.Now(ctx), s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return &models.TokenResult{
		Token:       issued.Token,
		TokenType:   tokenTypeBearer,
		ExpiresAt:   issued.ExpiresAt,
		Identity:    claims.UserID.String(),
		DisplayName: claims.DisplayName,
		IssuedFor:   string(claims.IssuedFor),
	}, nil
}

// Login issues a citizen token for identity claims asserted by the upstream
// identity provider.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResult, error) {
	userID, err := id.ParseUserID(req.Email)
	if err != nil {
		return nil, err
	}
	displayName := req.Name
	if displayName == "" {
		displayName = email.DeriveDisplayName(userID.String())
	}
	result, err := s.issue(ctx, models.Claims{
		UserID:      userID,
		DisplayName: displayName,
		IssuedFor:   id.AudienceCitizen,
	})
	s.authEvent("login", err)
	return result, err
}

// GovernmentLogin authenticates a reviewer by password. Only addresses in
// the configured government domain are considered.
func (s *Service) GovernmentLogin(ctx context.Context, req *models.GovernmentLoginRequest) (*models.TokenResult, error) {
	result, err := s.governmentLogin(ctx, req)
	s.authEvent("government_login", err)
	return result, err
}

func (s *Service) governmentLogin(ctx context.Context, req *models.GovernmentLoginRequest) (*models.TokenResult, error) {
	userID, err := id.ParseUserID(req.Email)
	if err != nil {
		return nil, err
	}
	if !email.HasDomain(userID.String(), s.governmentDomain) {
		s.logger.Warn("government login from outside the government domain",
			zap.String("request_id", requestcontext.RequestID(ctx)),
			zap.String("domain", email.Domain(userID.String())),
		)
		return nil, dErrors.New(dErrors.CodeForbidden, "not a government email address")
	}

	reviewer, err := s.reviewers.FindByEmail(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Burn comparable time so unknown accounts are not distinguishable.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load reviewer")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(reviewer.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("government login rejected",
			zap.String("request_id", requestcontext.RequestID(ctx)),
			zap.String("user_id", userID.String()),
		)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	result, err := s.issue(ctx, models.Claims{
		UserID:      reviewer.Email,
		DisplayName: reviewer.DisplayName,
		IssuedFor:   id.AudienceGovernment,
	})
	if err != nil {
		return nil, err
	}
	if err := s.emit(ctx, audit.EventGovernmentLogin, reviewer.Email, reviewer.Email.String()); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record login")
	}
	return result, nil
}

var dummyHash = mustHash("landregistry-timing-equalizer")

func mustHash(password string) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return hash
}

// RegisterReviewer creates or replaces a reviewer credential.
func (s *Service) RegisterReviewer(ctx context.Context, address, displayName, password string) (*models.Reviewer, error) {
	userID, err := id.ParseUserID(address)
	if err != nil {
		return nil, err
	}
	if !email.HasDomain(userID.String(), s.governmentDomain) {
		return nil, dErrors.New(dErrors.CodeValidation, "reviewers must use a government email address")
	}
	if len(password) < 12 || len(password) > 72 {
		return nil, dErrors.New(dErrors.CodeValidation, "password must be between 12 and 72 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	if displayName == "" {
		displayName = email.DeriveDisplayName(userID.String())
	}
	reviewer := &models.Reviewer{
		Email:        userID,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.reviewers.Save(ctx, reviewer); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save reviewer")
	}
	return reviewer, nil
}

// Refresh exchanges a valid token for a new one on a device that already has
// a session. The session update and the invalidation of the old token commit
// together. Sessions on other devices are untouched.
func (s *Service) Refresh(ctx context.Context, oldToken string, deviceID id.DeviceID) (*models.TokenResult, error) {
	result, err := s.refresh(ctx, oldToken, deviceID)
	s.authEvent("refresh", err)
	return result, err
}

func (s *Service) refresh(ctx context.Context, oldToken string, deviceID id.DeviceID) (*models.TokenResult, error) {
	if deviceID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "device id is required")
	}
	claims, oldHash, err := s.validate(ctx, oldToken)
	if err != nil {
		return nil, err
	}
	ident := identityFrom(claims)

	result, err := s.issue(ctx, models.Claims{
		UserID:      ident.UserID,
		DisplayName: ident.DisplayName,
		IssuedFor:   id.Audience(ident.IssuedFor),
	})
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	invalidated := models.InvalidatedToken{
		TokenHash:     oldHash,
		UserID:        ident.UserID,
		DeviceID:      deviceID,
		Reason:        models.ReasonRefresh,
		InvalidatedAt: now,
		ExpiresAt:     expiryOf(claims),
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, stores TxAuthStores) error {
		session, err := stores.Sessions.FindForUpdate(ctx, ident.UserID, deviceID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNoSession, "no session for this device")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
		}
		// The row lock queues a concurrent refresh of the same device behind
		// this one, so it sees the old token as spent once we commit.
		spent, err := stores.Invalidations.IsInvalidated(ctx, oldHash)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check token invalidation")
		}
		if spent {
			return dErrors.New(dErrors.CodeUnauthorized, "token has been invalidated")
		}

		session.TokenHash = models.HashToken(result.Token)
		session.DisplayName = ident.DisplayName
		session.LastActive = now
		if err := stores.Sessions.Upsert(ctx, session); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update session")
		}
		if err := stores.Invalidations.Append(ctx, invalidated); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to invalidate token")
		}
		return s.emit(ctx, audit.EventTokenRefreshed, ident.UserID, deviceID.String())
	})
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNoSession) && !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.logger.Error("token refresh failed",
				zap.String("request_id", requestcontext.RequestID(ctx)),
				zap.String("user_id", ident.UserID.String()),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.cacheInvalidation(ctx, invalidated)
	return result, nil
}
