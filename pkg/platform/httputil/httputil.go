// Package httputil holds the JSON envelope helpers every handler uses.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	dErrors "landregistry/pkg/domain-errors"
	"landregistry/pkg/requestcontext"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	Detail           string `json:"detail,omitempty"`
	RequestID        string `json:"request_id,omitempty"`
}

type writeOptions struct {
	details   bool
	requestID string
}

// ErrorOption tunes WriteError.
type ErrorOption func(*writeOptions)

// WithDetails exposes internal error text. Only enabled in development mode.
func WithDetails(enabled bool) ErrorOption {
	return func(o *writeOptions) { o.details = enabled }
}

// WithRequestID echoes the correlation id in the envelope.
func WithRequestID(requestID string) ErrorOption {
	return func(o *writeOptions) { o.requestID = requestID }
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope. Client
// errors carry their message; everything else is reported generically.
func WriteError(w http.ResponseWriter, err error, opts ...ErrorOption) {
	var o writeOptions
	for _, opt := range opts {
		opt(&o)
	}

	code := dErrors.CodeInternal
	msg := ""
	if de, ok := dErrors.As(err); ok {
		code = de.Code
		msg = de.Message
	}

	resp := errorResponse{Error: string(code), RequestID: o.requestID}
	if code.IsClientError() {
		resp.ErrorDescription = msg
	} else if o.details && err != nil {
		resp.ErrorDescription = msg
		resp.Detail = err.Error()
	}
	WriteJSON(w, StatusFor(code), resp)
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput,
		dErrors.CodeMissingBlockchainData:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized, dErrors.CodeNoSession:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeAlreadyFinalized:
		return http.StatusConflict
	case dErrors.CodeUpstreamSyncFailure:
		return http.StatusBadGateway
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Preparable is implemented by request DTOs decoded from JSON bodies.
type Preparable interface {
	Normalize()
	Validate() error
}

// DecodeAndPrepare decodes the body into T, normalizes and validates it. On
// failure it writes the error response and returns false.
func DecodeAndPrepare[T any, PT interface {
	*T
	Preparable
}](w http.ResponseWriter, r *http.Request, logger *zap.Logger) (*T, bool) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var req T
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		logger.Warn("invalid request body",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		msg := "invalid request body"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = "request body too large"
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, msg), WithRequestID(requestID))
		return nil, false
	}

	p := PT(&req)
	p.Normalize()
	if err := p.Validate(); err != nil {
		logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		WriteError(w, err, WithRequestID(requestID))
		return nil, false
	}
	return &req, true
}
