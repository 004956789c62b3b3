// Package domain holds identifier primitives shared across bounded contexts.
// Parsing happens once at the trust boundary; past it, typed ids cannot be
// confused with each other.
package domain

import (
	mathrand "math/rand"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	dErrors "landregistry/pkg/domain-errors"
)

const maxKeyLength = 128

type (
	// UserID is the normalized (lower-case) email an actor authenticates as.
	UserID string
	// DeviceID is the client-chosen identifier a session is bound to.
	DeviceID string
	// RequestID identifies a workflow request.
	RequestID string
	// EntryID identifies a ledger mirror record.
	EntryID uuid.UUID
	// SessionID identifies a device session.
	SessionID uuid.UUID
)

func (u UserID) String() string    { return string(u) }
func (d DeviceID) String() string  { return string(d) }
func (r RequestID) String() string { return string(r) }
func (e EntryID) String() string   { return uuid.UUID(e).String() }
func (s SessionID) String() string { return uuid.UUID(s).String() }

func (u UserID) IsNil() bool    { return u == "" }
func (e EntryID) IsNil() bool   { return uuid.UUID(e) == uuid.Nil }
func (s SessionID) IsNil() bool { return uuid.UUID(s) == uuid.Nil }

// ParseUserID validates and normalizes an email identity.
func ParseUserID(s string) (UserID, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	if len(trimmed) > 254 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "user id is too long")
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed || addr.Name != "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "user id must be a plain email address")
	}
	return UserID(strings.ToLower(trimmed)), nil
}

// ParseDeviceID validates a device identifier sent by a client.
func ParseDeviceID(s string) (DeviceID, error) {
	if err := validateKey(s, "device id"); err != nil {
		return "", err
	}
	return DeviceID(s), nil
}

// ParseRequestID validates a caller-supplied or stored request id.
func ParseRequestID(s string) (RequestID, error) {
	if err := validateKey(s, "request id"); err != nil {
		return "", err
	}
	return RequestID(s), nil
}

// ParseEntryID parses a ledger entry id.
func ParseEntryID(s string) (EntryID, error) {
	u, err := parseUUID(s, "entry id")
	return EntryID(u), err
}

// ParseSessionID parses a session id.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session id")
	return SessionID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be nil")
	}
	return u, nil
}

// validateKey accepts the character set used by generated ids, property ids,
// and hex-encoded ledger references.
func validateKey(s, label string) error {
	if strings.TrimSpace(s) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	if len(s) > maxKeyLength {
		return dErrors.New(dErrors.CodeInvalidInput, label+" is too long")
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return dErrors.New(dErrors.CodeInvalidInput, label+" contains invalid characters")
		}
	}
	return nil
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// NewULID returns a lexicographically sortable identifier.
func NewULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewRequestID returns a server-generated request id with the given prefix.
func NewRequestID(prefix string) RequestID {
	return RequestID(prefix + "-" + NewULID())
}

// NewEntryID returns a fresh ledger entry id.
func NewEntryID() EntryID {
	return EntryID(uuid.New())
}

// NewSessionID returns a fresh session id.
func NewSessionID() SessionID {
	return SessionID(uuid.New())
}
