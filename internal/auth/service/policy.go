package service

import (
	"landregistry/internal/auth/models"
	dErrors "landregistry/pkg/domain-errors"
)

// DeviceTrustPolicy decides how an authenticated token binds to a device.
// existing is nil when the device has no session. The returned session is
// written back to the store.
type DeviceTrustPolicy interface {
	Admit(existing *models.Session, presented models.Session) (*models.Session, error)
}

// TrustOnFirstUse creates a session the first time a device presents a valid
// token and afterwards rebinds the device to whichever valid token it
// presents.
type TrustOnFirstUse struct{}

func (TrustOnFirstUse) Admit(existing *models.Session, presented models.Session) (*models.Session, error) {
	if existing == nil {
		return &presented, nil
	}
	return rebind(existing, presented), nil
}

// KnownDevicesOnly refuses devices without a session. Sessions must be
// created through Service.Sync, which enrols the device regardless of policy.
type KnownDevicesOnly struct{}

func (KnownDevicesOnly) Admit(existing *models.Session, presented models.Session) (*models.Session, error) {
	if existing == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "device is not registered")
	}
	return rebind(existing, presented), nil
}

func rebind(existing *models.Session, presented models.Session) *models.Session {
	updated := *existing
	updated.TokenHash = presented.TokenHash
	updated.DisplayName = presented.DisplayName
	updated.IssuedFor = presented.IssuedFor
	updated.LastActive = presented.LastActive
	if presented.DeviceName != "" {
		updated.DeviceName = presented.DeviceName
		updated.Platform = presented.Platform
	}
	if presented.Fingerprint != "" {
		updated.Fingerprint = presented.Fingerprint
	}
	return &updated
}
