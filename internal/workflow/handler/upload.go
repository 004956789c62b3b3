package handler

import (
	"net/http"

	"landregistry/internal/storage/files"
	dErrors "landregistry/pkg/domain-errors"
	"landregistry/pkg/platform/httputil"
)

const maxMultipartMemory = 1 << 20

type uploadResponse struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// HandleUpload stores the multipart "file" field and returns the opaque path
// a later submission references.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, files.DefaultMaxBytes+maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		h.writeError(w, r, "invalid upload", dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart upload"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, "invalid upload", dErrors.Wrap(err, dErrors.CodeBadRequest, "file field is required"))
		return
	}
	defer file.Close()

	path, err := h.files.Put(r.Context(), header.Filename, file)
	if err != nil {
		h.writeError(w, r, "upload failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, uploadResponse{Path: path, Name: header.Filename})
}
