/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/norn_transit/internal/api"
	"github.com/friendsincode/norn_transit/internal/config"
	"github.com/friendsincode/norn_transit/internal/server"
	"github.com/friendsincode/norn_transit/internal/simulation"
)

// startServer boots the full HTTP stack on an ephemeral listener.
func startServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Environment:     "test",
		HTTPBind:        "127.0.0.1",
		HTTPPort:        8080,
		Dataset:         "demo",
		SimRuns:         20,
		SimDistribution: "exp",
		SimSeed:         7,
		SimWorkers:      2,
		SolverBackend:   "branch-and-bound",
		MissPenalty:     12,
		RuleThreshold:   3,
		UnservedPenalty: 60,
		MissRateBase:    "baseline",
	}

	srv := server.New(cfg, zerolog.Nop())
	t.Cleanup(func() { _ = srv.Close() })

	ts := httptest.NewServer(srv.HTTPServer().Handler)
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestServerEndToEnd(t *testing.T) {
	ts := startServer(t)

	t.Run("healthz", func(t *testing.T) {
		var health map[string]string
		resp := getJSON(t, ts.URL+"/healthz", &health)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("unexpected status: %d", resp.StatusCode)
		}
		if health["status"] != "ok" {
			t.Fatalf("unexpected health payload: %v", health)
		}
	})

	t.Run("network summary", func(t *testing.T) {
		var network struct {
			Dataset    string `json:"dataset"`
			Events     int    `json:"events"`
			Activities int    `json:"activities"`
		}
		resp := getJSON(t, ts.URL+"/api/v1/network", &network)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("unexpected status: %d", resp.StatusCode)
		}
		if network.Dataset != "demo" || network.Events != 8 || network.Activities != 7 {
			t.Fatalf("unexpected network summary: %+v", network)
		}
	})

	t.Run("synchronous run", func(t *testing.T) {
		body := strings.NewReader(`{"runs": 10, "seed": 3}`)
		resp, err := http.Post(ts.URL+"/api/v1/simulations", "application/json", body)
		if err != nil {
			t.Fatalf("POST simulation: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			raw, _ := io.ReadAll(resp.Body)
			t.Fatalf("unexpected status %d: %s", resp.StatusCode, raw)
		}

		var run api.Run
		if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
			t.Fatalf("decode run: %v", err)
		}
		if run.Status != api.StatusCompleted {
			t.Fatalf("unexpected run status: %s", run.Status)
		}
		if run.Report == nil || run.Report.Meta.Runs != 10 || run.Report.Meta.Seed != 3 {
			t.Fatalf("unexpected report meta: %+v", run.Report)
		}
		if len(run.Report.Policies) != 3 {
			t.Fatalf("expected 3 policy results, got %d", len(run.Report.Policies))
		}

		// Completed runs stay queryable by id.
		var fetched api.Run
		getJSON(t, ts.URL+"/api/v1/simulations/"+run.ID, &fetched)
		if fetched.ID != run.ID || fetched.Status != api.StatusCompleted {
			t.Fatalf("run not queryable after completion: %+v", fetched)
		}
	})

	t.Run("asynchronous run", func(t *testing.T) {
		body := strings.NewReader(`{"runs": 5, "async": true}`)
		resp, err := http.Post(ts.URL+"/api/v1/simulations", "application/json", body)
		if err != nil {
			t.Fatalf("POST simulation: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("unexpected status: %d", resp.StatusCode)
		}

		var run api.Run
		if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
			t.Fatalf("decode run: %v", err)
		}

		deadline := time.Now().Add(5 * time.Second)
		var fetched api.Run
		for {
			getJSON(t, fmt.Sprintf("%s/api/v1/simulations/%s", ts.URL, run.ID), &fetched)
			if fetched.Status == api.StatusCompleted || fetched.Status == api.StatusFailed {
				break
			}
			if time.Now().After(deadline) {
				t.Fatalf("run %s still %s after deadline", run.ID, fetched.Status)
			}
			time.Sleep(10 * time.Millisecond)
		}
		if fetched.Status != api.StatusCompleted {
			t.Fatalf("async run did not complete: %+v", fetched)
		}
		if fetched.Report == nil || fetched.Report.Meta.Runs != 5 {
			t.Fatalf("unexpected async report: %+v", fetched.Report)
		}
	})

	t.Run("run list", func(t *testing.T) {
		var listing struct {
			Runs []api.Run `json:"runs"`
		}
		resp := getJSON(t, ts.URL+"/api/v1/simulations", &listing)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("unexpected status: %d", resp.StatusCode)
		}
		if len(listing.Runs) < 2 {
			t.Fatalf("expected at least 2 runs listed, got %d", len(listing.Runs))
		}
		for _, r := range listing.Runs {
			if r.Report != nil {
				t.Fatalf("listing should not embed reports: %s", r.ID)
			}
		}
	})

	t.Run("metrics after traffic", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/metrics")
		if err != nil {
			t.Fatalf("GET metrics: %v", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("read metrics: %v", err)
		}
		for _, metric := range []string{"norn_api_requests_total", "norn_simulation_runs_total"} {
			if !bytes.Contains(raw, []byte(metric)) {
				t.Errorf("metric %s missing from /metrics output", metric)
			}
		}
	})

	t.Run("policies agree across backends", func(t *testing.T) {
		reports := map[string]*simulation.Report{}
		for _, backend := range []string{"branch-and-bound", "enumeration"} {
			payload := fmt.Sprintf(`{"runs": 10, "seed": 11, "solver_backend": %q}`, backend)
			resp, err := http.Post(ts.URL+"/api/v1/simulations", "application/json", strings.NewReader(payload))
			if err != nil {
				t.Fatalf("POST simulation (%s): %v", backend, err)
			}
			var run api.Run
			if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
				t.Fatalf("decode run (%s): %v", backend, err)
			}
			resp.Body.Close()
			if run.Status != api.StatusCompleted {
				t.Fatalf("run (%s) did not complete: %+v", backend, run)
			}
			reports[backend] = run.Report
		}

		for _, policy := range []string{"no_management", "rule_based", "optimized"} {
			a, okA := reports["branch-and-bound"].PolicyByName(policy)
			b, okB := reports["enumeration"].PolicyByName(policy)
			if !okA || !okB {
				t.Fatalf("policy %s missing from reports", policy)
			}
			if a.AvgDelay != b.AvgDelay || a.MissRate != b.MissRate || a.AvgDoorToDoor != b.AvgDoorToDoor {
				t.Errorf("backends disagree on %s: %+v vs %+v", policy, a, b)
			}
		}
	})
}
