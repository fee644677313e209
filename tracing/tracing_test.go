package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseOTLPEndpoint(t *testing.T) {
	testCases := map[string]string{
		"tempo:4318":          "tempo:4318",
		"http://tempo:4318":   "tempo:4318",
		"https://collector":   "collector:4318",
		" http://otel:9999/ ": "otel:9999",
	}
	for in, want := range testCases {
		got, err := parseOTLPEndpoint(in)
		if err != nil {
			t.Fatalf("parseOTLPEndpoint(%q): unexpected error %v", in, err)
		}
		if got != want {
			t.Fatalf("parseOTLPEndpoint(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestInitDisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), "payment-pipeline-api", "")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("expected no-op shutdown, got %v", err)
	}
}

func TestMiddlewarePassesStatus(t *testing.T) {
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}
}
