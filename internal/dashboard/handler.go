package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"landregistry/pkg/platform/httputil"
	"landregistry/pkg/requestcontext"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
	details bool
}

func NewHandler(service *Service, logger *zap.Logger, developmentMode bool) *Handler {
	return &Handler{service: service, logger: logger, details: developmentMode}
}

// Register mounts reviewer-only routes; the caller applies RequireReviewer.
func (h *Handler) Register(r chi.Router) {
	r.Get("/review/pending", h.HandlePendingRequests)
	r.Get("/review/documents/pending", h.HandlePendingDocuments)
	r.Get("/dashboard/metrics", h.HandleMetrics)
	r.Get("/dashboard/activity", h.HandleActivity)
}

func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.Metrics(r.Context())
	if err != nil {
		h.writeError(w, r, "dashboard metrics failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) HandlePendingRequests(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.PendingRequests(r.Context())
	if err != nil {
		h.writeError(w, r, "pending requests failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": items})
}

func (h *Handler) HandlePendingDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.PendingDocuments(r.Context())
	if err != nil {
		h.writeError(w, r, "pending documents failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (h *Handler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.RecentActivity(r.Context())
	if err != nil {
		h.writeError(w, r, "recent activity failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"activities": entries})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	requestID := requestcontext.RequestID(r.Context())
	h.logger.Error(msg, zap.String("request_id", requestID), zap.Error(err))
	httputil.WriteError(w, err, httputil.WithRequestID(requestID), httputil.WithDetails(h.details))
}
