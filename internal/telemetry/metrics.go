/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package telemetry defines the Prometheus collectors and the HTTP
// instrumentation for the service.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APIRequestsTotal counts HTTP requests by method, route and status.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "norn_api_requests_total",
		Help: "HTTP requests served, by method, route pattern and status code.",
	}, []string{"method", "endpoint", "status"})

	// APIRequestDuration tracks request latency by method, route and status.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "norn_api_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	// APIActiveConnections gauges in-flight HTTP requests.
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "norn_api_active_connections",
		Help: "HTTP requests currently being served.",
	})

	// SimulationRunsTotal counts completed evaluations by dataset and
	// delay distribution.
	SimulationRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "norn_simulation_runs_total",
		Help: "Completed Monte Carlo evaluations.",
	}, []string{"dataset", "distribution"})

	// SimulationScenariosTotal counts individual sampled scenarios.
	SimulationScenariosTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "norn_simulation_scenarios_total",
		Help: "Sampled scenarios across all evaluations.",
	})

	// SimulationDurationSeconds tracks end-to-end evaluation time.
	SimulationDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "norn_simulation_duration_seconds",
		Help:    "Wall time of one full evaluation.",
		Buckets: prometheus.ExponentialBuckets(0.005, 4, 10),
	})

	// SolverDecisionsTotal counts wait-depart instances solved, by backend.
	SolverDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "norn_solver_decisions_total",
		Help: "Wait-depart instances solved, by solver backend.",
	}, []string{"backend"})
)

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
