package models

import (
	"strings"

	dErrors "landregistry/pkg/domain-errors"
)

type KeyField string

const (
	KeyRequestID  KeyField = "request_id"
	KeyPropertyID KeyField = "property_id"
)

// RequestKey addresses one request of a kind.
type RequestKey struct {
	Kind  Kind
	Field KeyField
	Value string
}

// ResolveKey decides which field raw refers to. Property requests accept
// either their generated request id or the property id; document requests
// are addressed by request id only.
func ResolveKey(kind Kind, raw string) (RequestKey, error) {
	if !kind.Valid() {
		return RequestKey{}, dErrors.New(dErrors.CodeBadRequest, "unknown request kind")
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return RequestKey{}, dErrors.New(dErrors.CodeBadRequest, "request key is required")
	}
	if kind == KindDocument || strings.HasPrefix(value, kind.Prefix()+"-") {
		return RequestKey{Kind: kind, Field: KeyRequestID, Value: value}, nil
	}
	return RequestKey{Kind: kind, Field: KeyPropertyID, Value: value}, nil
}

// Matches reports whether r is addressed by k.
func (k RequestKey) Matches(r *Request) bool {
	if r.Kind != k.Kind {
		return false
	}
	if k.Field == KeyRequestID {
		return string(r.ID) == k.Value
	}
	return r.PropertyID() == k.Value
}
