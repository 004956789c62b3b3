package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"landregistry/internal/workflow/models"
	dErrors "landregistry/pkg/domain-errors"
	"landregistry/pkg/platform/httputil"
	"landregistry/pkg/requestcontext"
)

// Service is the workflow surface the handler needs.
type Service interface {
	Submit(ctx context.Context, kind models.Kind, in *models.SubmitRequest) (*models.SubmitResult, error)
	Get(ctx context.Context, kind models.Kind, key string) (*models.Request, error)
	ListMine(ctx context.Context, kind models.Kind) ([]models.Request, error)
	Approve(ctx context.Context, in *models.ApproveRequest) (*models.Request, error)
	Reject(ctx context.Context, in *models.RejectRequest) (*models.Request, error)
}

// FileStore accepts supporting document uploads.
type FileStore interface {
	Put(ctx context.Context, name string, r io.Reader) (string, error)
}

type Handler struct {
	workflow Service
	files    FileStore
	logger   *zap.Logger
	details  bool
}

func New(service Service, files FileStore, logger *zap.Logger, developmentMode bool) *Handler {
	return &Handler{workflow: service, files: files, logger: logger, details: developmentMode}
}

// RegisterRequests mounts the routes any authenticated user may call.
func (h *Handler) RegisterRequests(r chi.Router) {
	r.Post("/files", h.HandleUpload)
	r.Post("/requests/{kind}", h.HandleSubmit)
	r.Get("/requests/{kind}/{key}", h.HandleGet)
	r.Get("/me/requests/{kind}", h.HandleListMine)
}

// RegisterReview mounts the reviewer decisions. The caller wraps r with the
// reviewer middleware.
func (h *Handler) RegisterReview(r chi.Router) {
	r.Post("/review/{kind}/{key}/approve", h.HandleApprove)
	r.Post("/review/{kind}/{key}/reject", h.HandleReject)
}

type submitResponse struct {
	Request        *models.Request    `json:"request"`
	BlockchainSync models.SyncOutcome `json:"blockchain_sync"`
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.SubmitRequest](w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.workflow.Submit(r.Context(), kind, req)
	if err != nil {
		h.writeError(w, r, "submit failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, submitResponse{Request: result.Request, BlockchainSync: result.BlockchainSync})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	req, err := h.workflow.Get(r.Context(), kind, chi.URLParam(r, "key"))
	if err != nil {
		h.writeError(w, r, "get request failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	reqs, err := h.workflow.ListMine(r.Context(), kind)
	if err != nil {
		h.writeError(w, r, "list own requests failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": reqs, "count": len(reqs)})
}

func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	in, ok := httputil.DecodeAndPrepare[models.ApproveRequest](w, r, h.logger)
	if !ok {
		return
	}
	in.Kind = kind
	in.Key = chi.URLParam(r, "key")
	approved, err := h.workflow.Approve(r.Context(), in)
	if err != nil {
		h.writeError(w, r, "approve failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, approved)
}

func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	in, ok := httputil.DecodeAndPrepare[models.RejectRequest](w, r, h.logger)
	if !ok {
		return
	}
	in.Kind = kind
	in.Key = chi.URLParam(r, "key")
	rejected, err := h.workflow.Reject(r.Context(), in)
	if err != nil {
		h.writeError(w, r, "reject failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rejected)
}

func (h *Handler) kind(w http.ResponseWriter, r *http.Request) (models.Kind, bool) {
	kind := models.Kind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown request kind"),
			httputil.WithRequestID(requestcontext.RequestID(r.Context())))
		return "", false
	}
	return kind, true
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
