package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	dErrors "landregistry/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "bad_request" {
			t.Fatalf("expected error code bad_request, got %q", body["error"])
		}
		if body["error_description"] != "invalid input" {
			t.Fatalf("expected error_description to be returned for bad request")
		}
	})
}

func TestWriteErrorDomainCodes(t *testing.T) {
	cases := []struct {
		code   dErrors.Code
		status int
	}{
		{dErrors.CodeMissingBlockchainData, http.StatusBadRequest},
		{dErrors.CodeUnauthorized, http.StatusUnauthorized},
		{dErrors.CodeNotFound, http.StatusNotFound},
		{dErrors.CodeAlreadyFinalized, http.StatusConflict},
		{dErrors.CodeUpstreamSyncFailure, http.StatusBadGateway},
		{dErrors.CodeStoreTransactionFailure, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, dErrors.New(tc.code, "msg"))
			if w.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, w.Code)
			}
		})
	}
}

func TestWriteErrorDevelopmentDetails(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, dErrors.Wrap(errors.New("pq: deadlock detected"), dErrors.CodeStoreTransactionFailure, "approve failed"), WithDetails(true))

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(body["detail"], "deadlock") {
		t.Fatalf("expected detail to include cause, got %q", body["detail"])
	}
}

func TestWriteErrorPlainErrorIsInternal(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, errors.New("unexpected"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

type noteRequest struct {
	Notes string `json:"notes"`
}

func (r *noteRequest) Normalize() { r.Notes = strings.TrimSpace(r.Notes) }

func (r *noteRequest) Validate() error {
	if r.Notes == "" {
		return dErrors.New(dErrors.CodeValidation, "notes are required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := zap.NewNop()

	t.Run("normalizes and validates", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"notes":"  illegible scan "}`))
		w := httptest.NewRecorder()
		req, ok := DecodeAndPrepare[noteRequest](w, r, logger)
		if !ok {
			t.Fatalf("expected decode to succeed, got %d", w.Code)
		}
		if req.Notes != "illegible scan" {
			t.Fatalf("expected trimmed notes, got %q", req.Notes)
		}
	})

	t.Run("validation failure writes 400", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"notes":"   "}`))
		w := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[noteRequest](w, r, logger)
		if ok || w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("malformed json writes 400", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
		w := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[noteRequest](w, r, logger)
		if ok || w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}
