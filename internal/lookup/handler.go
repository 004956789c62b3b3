package lookup

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	workflow "landregistry/internal/workflow/service"
	dErrors "landregistry/pkg/domain-errors"
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

// RegisterPublic mounts the unauthenticated lookups.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/ledger/blockchain/{id}", h.lookup("id", h.service.ByBlockchainID))
	r.Get("/ledger/tx/{hash}", h.lookup("hash", h.service.ByTransactionHash))
	r.Get("/ledger/property/{propertyId}", h.lookup("propertyId", h.service.ByBusinessID))
	r.Get("/ledger/content/{hash}", h.lookup("hash", h.service.ByContentHash))
	r.Get("/ledger/ids/{propertyId}", h.HandleBlockchainID)
}

// RegisterOwner mounts the caller's own listings; it expects RequireAuth.
func (h *Handler) RegisterOwner(r chi.Router) {
	r.Get("/me/properties", h.HandleOwnedProperties)
}

// RegisterReview mounts the reviewer-only sync route.
func (h *Handler) RegisterReview(r chi.Router) {
	r.Post("/ledger/sync", h.HandleSync)
}

func (h *Handler) lookup(param string, find func(context.Context, string) (*View, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := find(r.Context(), chi.URLParam(r, param))
		if err != nil {
			h.writeError(w, r, "ledger lookup failed", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, view)
	}
}

func (h *Handler) HandleBlockchainID(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "propertyId")
	blockchainID, err := h.service.BlockchainIDFor(r.Context(), propertyID)
	if err != nil {
		h.writeError(w, r, "blockchain id lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"property_id": propertyID, "blockchain_id": blockchainID})
}

func (h *Handler) HandleOwnedProperties(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.OwnedProperties(r.Context())
	if err != nil {
		h.writeError(w, r, "owned property listing failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"properties": views, "count": len(views)})
}

func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	in, ok := httputil.DecodeAndPrepare[workflow.SyncInput](w, r, h.logger)
	if !ok {
		return
	}
	view, err := h.service.Sync(r.Context(), in)
	if err != nil {
		h.writeError(w, r, "ledger sync failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	requestID := requestcontext.RequestID(r.Context())
	if de, ok := dErrors.As(err); ok && de.Code.IsClientError() {
		h.logger.Debug(msg, zap.String("request_id", requestID), zap.Error(err))
	} else {
		h.logger.Error(msg, zap.String("request_id", requestID), zap.Error(err))
	}
	httputil.WriteError(w, err, httputil.WithRequestID(requestID), httputil.WithDetails(h.details))
}
