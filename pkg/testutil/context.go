package testutil

import (
	"net/http"

	id "landregistry/pkg/domain"
	"landregistry/pkg/requestcontext"
)

// WithIdentity attaches an authenticated citizen identity to the request, as
// the auth middleware would.
func WithIdentity(req *http.Request, email string) *http.Request {
	return withIdentity(req, email, string(id.AudienceCitizen))
}

// WithReviewer attaches a government reviewer identity to the request.
func WithReviewer(req *http.Request, email string) *http.Request {
	return withIdentity(req, email, string(id.AudienceGovernment))
}

// WithDevice attaches a device id to the request context.
func WithDevice(req *http.Request, deviceID string) *http.Request {
	ctx := requestcontext.WithDeviceID(req.Context(), id.DeviceID(deviceID))
	return req.WithContext(ctx)
}

func withIdentity(req *http.Request, email, issuedFor string) *http.Request {
	userID, err := id.ParseUserID(email)
	if err != nil {
		return req
	}
	ctx := requestcontext.WithIdentity(req.Context(), requestcontext.Identity{
		UserID:    userID,
		IssuedFor: issuedFor,
	})
	return req.WithContext(ctx)
}
