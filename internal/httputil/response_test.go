package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSONError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSONError(rec, http.StatusNotFound, "run not found")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %s, want application/json", ct)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["error"] != "run not found" {
		t.Errorf("error = %s, want 'run not found'", resp["error"])
	}
}

func TestWriteJSONOK(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSONOK(rec, []int{1, 2})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "[1,2]\n" {
		t.Errorf("body = %q", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method string
		reject bool
	}{
		{http.MethodGet, false},
		{http.MethodHead, false},
		{http.MethodPost, true},
		{http.MethodDelete, true},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(tt.method, "/debug/runs", nil)
		if got := MethodNotAllowed(rec, req, http.MethodGet, http.MethodHead); got != tt.reject {
			t.Errorf("%s: rejected = %v, want %v", tt.method, got, tt.reject)
		}
		if tt.reject && rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: status = %d", tt.method, rec.Code)
		}
	}
}
