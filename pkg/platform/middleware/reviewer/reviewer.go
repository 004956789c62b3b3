// Package reviewer gates government review endpoints.
package reviewer

import (
	"net/http"

	"go.uber.org/zap"

	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
	"landregistry/pkg/email"
	"landregistry/pkg/platform/httputil"
	"landregistry/pkg/requestcontext"
)

// RequireReviewer admits identities whose token was issued for government use
// and whose address belongs to the configured government domain. It must run
// after auth.RequireAuth.
func RequireReviewer(governmentDomain string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			ident, ok := requestcontext.CurrentIdentity(ctx)
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"), httputil.WithRequestID(requestID))
				return
			}
			if id.Audience(ident.IssuedFor) != id.AudienceGovernment || !email.HasDomain(ident.UserID.String(), governmentDomain) {
				logger.Warn("reviewer access denied",
					zap.String("request_id", requestID),
					zap.String("user_id", ident.UserID.String()),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "government reviewer access required"), httputil.WithRequestID(requestID))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
