package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alphafinder/rategate/internal/request"
	"github.com/google/uuid"
)

func TestRequestIDGenerated(t *testing.T) {
	t.Parallel()
	var fromCtx string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = request.RequestIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	id := w.Header().Get("X-Request-ID")
	if id == "" {
		t.Fatal("X-Request-ID header not set")
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("X-Request-ID = %q is not a UUID: %v", id, err)
	}
	if fromCtx != id {
		t.Errorf("context request ID = %q, want %q", fromCtx, id)
	}
}

func TestRequestIDPreserved(t *testing.T) {
	t.Parallel()
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Request-ID", "upstream-id")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if got := w.Header().Get("X-Request-ID"); got != "upstream-id" {
		t.Errorf("X-Request-ID = %q, want upstream-id", got)
	}
}
