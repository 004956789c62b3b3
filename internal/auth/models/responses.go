package models

import (
	"time"

	"landregistry/pkg/requestcontext"
)

// TokenResult is returned by every operation that issues a token.
type TokenResult struct {
	Token       string    `json:"token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Identity    string    `json:"identity"`
	DisplayName string    `json:"display_name,omitempty"`
	IssuedFor   string    `json:"issued_for"`
}

// Status is the read-only pre-flight answer for a token.
type Status struct {
	Valid    bool                     `json:"valid"`
	Identity *requestcontext.Identity `json:"-"`
	Reason   string                   `json:"reason,omitempty"`
}

// StatusResponse is the wire form of Status.
type StatusResponse struct {
	Valid       bool   `json:"valid"`
	Identity    string `json:"identity,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	IssuedFor   string `json:"issued_for,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// ToResponse flattens a Status for JSON.
func (s Status) ToResponse() StatusResponse {
	resp := StatusResponse{Valid: s.Valid, Reason: s.Reason}
	if s.Identity != nil {
		resp.Identity = s.Identity.UserID.String()
		resp.DisplayName = s.Identity.DisplayName
		resp.IssuedFor = s.Identity.IssuedFor
	}
	return resp
}

// SessionResponse describes the caller's device session after a sync.
type SessionResponse struct {
	DeviceID   string     `json:"device_id"`
	DeviceName string     `json:"device_name,omitempty"`
	Platform   string     `json:"platform,omitempty"`
	LastActive time.Time  `json:"last_active"`
	LastSync   *time.Time `json:"last_sync,omitempty"`
}

func NewSessionResponse(s *Session) SessionResponse {
	return SessionResponse{
		DeviceID:   s.DeviceID.String(),
		DeviceName: s.DeviceName,
		Platform:   s.Platform,
		LastActive: s.LastActive,
		LastSync:   s.LastSync,
	}
}
