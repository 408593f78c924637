package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/friendsincode/norn_transit/internal/config"
	"github.com/friendsincode/norn_transit/internal/version"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Environment:     "development",
		HTTPBind:        "127.0.0.1",
		HTTPPort:        8080,
		Dataset:         "demo",
		SimRuns:         5,
		SimDistribution: "exp",
		SimSeed:         7,
		SimWorkers:      1,
		SolverBackend:   "branch-and-bound",
		MissPenalty:     12,
		RuleThreshold:   3,
		UnservedPenalty: 60,
		MissRateBase:    "baseline",
	}

	srv := New(cfg, zerolog.Nop())
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func TestServerHealthz(t *testing.T) {
	srv := newTestServer(t)

	rr := httptest.NewRecorder()
	srv.HTTPServer().Handler.ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", nil))
	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Fatalf("unexpected status: %q", resp["status"])
	}
}

func TestServerVersionEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rr := httptest.NewRecorder()
	srv.HTTPServer().Handler.ServeHTTP(rr, httptest.NewRequest("GET", "/version", nil))
	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp struct {
		CurrentVersion  string `json:"current_version"`
		UpdateAvailable bool   `json:"update_available"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// The checker never runs outside production, so only the current
	// version is populated.
	if resp.CurrentVersion != version.Version {
		t.Fatalf("current_version=%q, want %q", resp.CurrentVersion, version.Version)
	}
	if resp.UpdateAvailable {
		t.Fatal("update_available should be false before any check")
	}
}

func TestServerMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rr := httptest.NewRecorder()
	srv.HTTPServer().Handler.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "norn_api_active_connections") {
		t.Fatal("expected service metrics in /metrics output")
	}
}

func TestServerMountsAPI(t *testing.T) {
	srv := newTestServer(t)

	rr := httptest.NewRecorder()
	srv.HTTPServer().Handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/datasets", nil))
	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestServerSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	rr := httptest.NewRecorder()
	srv.HTTPServer().Handler.ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", nil))

	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options=%q, want nosniff", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options=%q, want DENY", got)
	}
	if got := rr.Header().Get("Referrer-Policy"); got != "strict-origin-when-cross-origin" {
		t.Fatalf("Referrer-Policy=%q, want strict-origin-when-cross-origin", got)
	}
}

func TestServerCloseTwice(t *testing.T) {
	srv := newTestServer(t)

	if err := srv.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
