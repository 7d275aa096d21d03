package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kaiwa-dev/kaiwa/internal/metrics"
)

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Fatalf("body = %q, want ok", rec.Body.String())
	}
}

func TestCountersSortedDump(t *testing.T) {
	reg := metrics.New()
	reg.Inc("rooms_created")
	reg.Inc("rooms_created")
	reg.Inc("messages_relayed")

	rec := httptest.NewRecorder()
	Counters(reg)(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	want := "messages_relayed 1\nrooms_created 2\n"
	if rec.Body.String() != want {
		t.Fatalf("body = %q, want %q", rec.Body.String(), want)
	}
}
