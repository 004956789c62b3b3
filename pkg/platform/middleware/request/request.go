// Package request assigns a correlation id to every HTTP request.
package request

import (
	"net/http"

	id "landregistry/pkg/domain"
	"landregistry/pkg/requestcontext"
)

// HeaderRequestID is echoed on every response.
const HeaderRequestID = "X-Request-ID"

const maxInboundIDLength = 64

// RequestID reuses a well-formed inbound X-Request-ID or generates a ULID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" || len(requestID) > maxInboundIDLength {
			requestID = id.NewULID()
		} else if _, err := id.ParseRequestID(requestID); err != nil {
			requestID = id.NewULID()
		}
		w.Header().Set(HeaderRequestID, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the correlation id for the request in ctx.
var GetRequestID = requestcontext.RequestID
