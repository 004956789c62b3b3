package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
	"landregistry/pkg/platform/httputil"
	"landregistry/pkg/requestcontext"
)

// Authenticator validates a bearer token and, when a device id is present,
// applies the session trust policy.
type Authenticator interface {
	Authenticate(ctx context.Context, token string, deviceID id.DeviceID) (*requestcontext.Identity, error)
}

type contextKeyToken struct{}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const bearerPrefix = "Bearer "
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// Token returns the raw bearer token the request authenticated with. Refresh
// and logout need it to record the invalidation.
func Token(ctx context.Context) string {
	token, _ := ctx.Value(contextKeyToken{}).(string)
	return token
}

// WithToken injects a raw bearer token, for handler tests.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKeyToken{}, token)
}

// RequireAuth rejects requests without a valid, non-invalidated bearer token.
func RequireAuth(authenticator Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				logger.Warn("unauthorized access - missing token",
					zap.String("request_id", requestID),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"), httputil.WithRequestID(requestID))
				return
			}

			ident, err := authenticator.Authenticate(ctx, token, requestcontext.DeviceID(ctx))
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
					logger.Warn("unauthorized access - invalid token",
						zap.String("request_id", requestID),
						zap.Error(err),
					)
					httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"), httputil.WithRequestID(requestID))
					return
				}
				logger.Error("failed to authenticate token",
					zap.String("request_id", requestID),
					zap.Error(err),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "Failed to validate token"), httputil.WithRequestID(requestID))
				return
			}

			ctx = requestcontext.WithIdentity(ctx, *ident)
			ctx = WithToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
