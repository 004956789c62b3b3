package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"landregistry/internal/auth/models"
	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
	"landregistry/pkg/platform/httputil"
	"landregistry/pkg/platform/middleware/auth"
	"landregistry/pkg/requestcontext"
)

// Service defines the token and session operations exposed over HTTP.
type Service interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResult, error)
	GovernmentLogin(ctx context.Context, req *models.GovernmentLoginRequest) (*models.TokenResult, error)
	CheckStatus(ctx context.Context, token string) models.Status
	Sync(ctx context.Context, token string, deviceID id.DeviceID) (*models.Session, error)
	Refresh(ctx context.Context, token string, deviceID id.DeviceID) (*models.TokenResult, error)
	Invalidate(ctx context.Context, token string, deviceID id.DeviceID) error
}

// Handler serves /auth. Refresh, logout and sync validate the bearer token
// inside the operation rather than through RequireAuth, so a refresh on a
// device without a session is reported instead of silently provisioned.
type Handler struct {
	auth    Service
	logger  *zap.Logger
	details bool
}

func New(service Service, logger *zap.Logger, developmentMode bool) *Handler {
	return &Handler{auth: service, logger: logger, details: developmentMode}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.HandleLogin)
		r.Post("/gov-login", h.HandleGovernmentLogin)
		r.Get("/status", h.HandleStatus)
		r.Post("/sync", h.HandleSync)
		r.Post("/refresh", h.HandleRefresh)
		r.Post("/logout", h.HandleLogout)
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[models.LoginRequest](w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.auth.Login(r.Context(), req)
	if err != nil {
		h.writeError(w, r, "login failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleGovernmentLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[models.GovernmentLoginRequest](w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.auth.GovernmentLogin(r.Context(), req)
	if err != nil {
		h.writeError(w, r, "government login failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleStatus always answers 200; validity is in the body.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	token, _ := auth.BearerToken(r.Header.Get("Authorization"))
	status := h.auth.CheckStatus(r.Context(), token)
	httputil.WriteJSON(w, http.StatusOK, status.ToResponse())
}

func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	token, ok := h.bearer(w, r)
	if !ok {
		return
	}
	session, err := h.auth.Sync(r.Context(), token, requestcontext.DeviceID(r.Context()))
	if err != nil {
		h.writeError(w, r, "session sync failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewSessionResponse(session))
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	token, ok := h.bearer(w, r)
	if !ok {
		return
	}
	result, err := h.auth.Refresh(r.Context(), token, requestcontext.DeviceID(r.Context()))
	if err != nil {
		h.writeError(w, r, "token refresh failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := h.bearer(w, r)
	if !ok {
		return
	}
	if err := h.auth.Invalidate(r.Context(), token, requestcontext.DeviceID(r.Context())); err != nil {
		h.writeError(w, r, "logout failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) bearer(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, ok := auth.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"),
			httputil.WithRequestID(requestcontext.RequestID(r.Context())))
		return "", false
	}
	return token, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	requestID := requestcontext.RequestID(r.Context())
	if de, ok := dErrors.As(err); ok && de.Code.IsClientError() {
		h.logger.Warn(msg, zap.String("request_id", requestID), zap.Error(err))
	} else {
		h.logger.Error(msg, zap.String("request_id", requestID), zap.Error(err))
	}
	httputil.WriteError(w, err, httputil.WithRequestID(requestID), httputil.WithDetails(h.details))
}
