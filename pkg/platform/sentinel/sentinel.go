package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into domain errors:
// - ErrNotFound: no request, ledger entry, or session matches the key
// - ErrConflict: a unique key (request id, ledger key) is already taken
// - ErrExpired: token has passed its expiry
// - ErrInvalidState: request is no longer pending
// - ErrUnavailable: backing service (cache, bridge, object store) unreachable
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
