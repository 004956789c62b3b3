// Package domainerrors defines the typed error taxonomy shared by services and
// transports. Stores return sentinel errors; services translate them into one
// of these codes so handlers can map them onto HTTP responses without
// inspecting messages.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of domain failure.
type Code string

const (
	CodeBadRequest              Code = "bad_request"
	CodeValidation              Code = "validation_error"
	CodeInvalidInput            Code = "invalid_input"
	CodeUnauthorized            Code = "unauthorized"
	CodeForbidden               Code = "forbidden"
	CodeNotFound                Code = "not_found"
	CodeConflict                Code = "conflict"
	CodeTimeout                 Code = "timeout"
	CodeInternal                Code = "internal_error"
	CodeInvariantViolation      Code = "invariant_violation"
	CodeMissingBlockchainData   Code = "missing_blockchain_data"
	CodeAlreadyFinalized        Code = "already_finalized"
	CodeUpstreamSyncFailure     Code = "upstream_sync_failure"
	CodeStoreTransactionFailure Code = "store_transaction_failure"
	CodeNoSession               Code = "no_session"
)

// Error is a domain error carrying a stable code and a client-safe message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a domain error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// New creates a domain error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// As extracts the outermost domain error from err.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is is shorthand for HasCode, kept for handler readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// IsClientError reports whether the code describes a caller mistake whose
// message is safe to return verbatim.
func (c Code) IsClientError() bool {
	switch c {
	case CodeBadRequest, CodeValidation, CodeInvalidInput, CodeUnauthorized,
		CodeForbidden, CodeNotFound, CodeConflict, CodeMissingBlockchainData,
		CodeAlreadyFinalized, CodeNoSession:
		return true
	default:
		return false
	}
}
