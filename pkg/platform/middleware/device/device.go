// Package device binds the client-declared device id to the request context.
package device

import (
	"net/http"

	"go.uber.org/zap"

	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
	"landregistry/pkg/platform/httputil"
	"landregistry/pkg/requestcontext"
)

// HeaderDeviceID carries the device identifier sessions are keyed by.
const HeaderDeviceID = "X-Device-ID"

// Middleware validates X-Device-ID when present. Requests without the header
// proceed without device binding.
func Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(HeaderDeviceID)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			deviceID, err := id.ParseDeviceID(raw)
			if err != nil {
				requestID := requestcontext.RequestID(r.Context())
				logger.Warn("rejected malformed device id",
					zap.String("request_id", requestID),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid X-Device-ID header"), httputil.WithRequestID(requestID))
				return
			}
			ctx := requestcontext.WithDeviceID(r.Context(), deviceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
