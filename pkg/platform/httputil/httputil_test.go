package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	dErrors "schemefinder/pkg/domain-errors"
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

type sampleBody struct {
	Value json.Number `json:"value"`
	valid bool
}

func (p *sampleBody) Validate() error {
	if p.Value == "" {
		return dErrors.New(dErrors.CodeValidation, "value is required")
	}
	p.valid = true
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := zap.NewNop()

	t.Run("decodes numbers without float conversion", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"value": 80000}`))
		w := httptest.NewRecorder()

		got, ok := DecodeAndPrepare[sampleBody](w, r, logger, "req-1")
		if !ok {
			t.Fatalf("expected decode to succeed, got status %d", w.Code)
		}
		if got.Value.String() != "80000" || !got.valid {
			t.Fatalf("unexpected decoded value %+v", got)
		}
	})

	t.Run("rejects non-object bodies", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`[1,2]`))
		w := httptest.NewRecorder()

		if _, ok := DecodeAndPrepare[sampleBody](w, r, logger, "req-2"); ok {
			t.Fatalf("expected decode to fail")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("empty body decodes as the zero value", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("  \n"))
		w := httptest.NewRecorder()

		if _, ok := DecodeAndPrepare[sampleBody](w, r, logger, "req-4"); ok {
			t.Fatalf("expected the zero value to fail validation")
		}
		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "validation_error" {
			t.Fatalf("expected Validate to run on an empty body, got %q", body["error"])
		}
	})

	t.Run("truncated body is still malformed", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"value":`))
		w := httptest.NewRecorder()

		if _, ok := DecodeAndPrepare[sampleBody](w, r, logger, "req-5"); ok {
			t.Fatalf("expected decode to fail")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("surfaces validation errors", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
		w := httptest.NewRecorder()

		if _, ok := DecodeAndPrepare[sampleBody](w, r, logger, "req-3"); ok {
			t.Fatalf("expected validation to fail")
		}
		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "validation_error" {
			t.Fatalf("expected validation_error, got %q", body["error"])
		}
	})
}
