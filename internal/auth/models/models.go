package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	id "landregistry/pkg/domain"
)

// TokenTTL is the fixed lifetime of every bearer token.
const TokenTTL = 24 * time.Hour

// Session binds one device to one actor and tracks the device's current token.
type Session struct {
	ID          id.SessionID
	UserID      id.UserID
	DeviceID    id.DeviceID
	TokenHash   string
	DisplayName string
	IssuedFor   id.Audience
	DeviceName  string
	Platform    string
	Fingerprint string
	CreatedAt   time.Time
	LastActive  time.Time
	LastSync    *time.Time
}

// InvalidationReason records why a token was invalidated.
type InvalidationReason string

const (
	ReasonLogout  InvalidationReason = "logout"
	ReasonRefresh InvalidationReason = "refresh"
)

// InvalidatedToken is an append-only record of a token that must never
// authenticate again. Only the SHA-256 of the bearer string is kept.
type InvalidatedToken struct {
	TokenHash     string
	UserID        id.UserID
	DeviceID      id.DeviceID
	Reason        InvalidationReason
	InvalidatedAt time.Time
	ExpiresAt     time.Time
}

// Reviewer is a government account allowed to approve and reject requests.
type Reviewer struct {
	Email        id.UserID
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// HashToken returns the hex SHA-256 of a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
