/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/friendsincode/norn_transit/internal/dataset"
	"github.com/friendsincode/norn_transit/internal/decision"
	"github.com/friendsincode/norn_transit/internal/delays"
	"github.com/friendsincode/norn_transit/internal/simulation"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	AccessLog   bool

	// Dataset served by default when a request does not name one.
	Dataset string

	// Monte Carlo defaults, overridable per request.
	SimRuns         int
	SimDistribution string
	SimSeed         int64
	SimWorkers      int

	// Dispatching solver defaults.
	SolverBackend   string
	MissPenalty     float64
	RuleThreshold   float64
	UnservedPenalty float64
	MissRateBase    string

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64

	LegacyEnvWarnings []string
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	def := simulation.DefaultParams()

	cfg := &Config{
		Environment: getEnvAny([]string{"NORN_ENV", "NT_ENV"}, "development"),
		HTTPBind:    getEnvAny([]string{"NORN_HTTP_BIND", "NT_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:    getEnvIntAny([]string{"NORN_HTTP_PORT", "NT_HTTP_PORT"}, 8080),
		AccessLog:   getEnvBoolAny([]string{"NORN_HTTP_ACCESS_LOG", "NT_HTTP_ACCESS_LOG"}, true),

		Dataset: getEnvAny([]string{"NORN_DATASET", "NT_DATASET"}, dataset.DatasetDemo),

		SimRuns:         getEnvIntAny([]string{"NORN_SIM_RUNS", "NT_SIM_RUNS"}, def.Runs),
		SimDistribution: getEnvAny([]string{"NORN_SIM_DISTRIBUTION", "NT_SIM_DISTRIBUTION"}, def.Distribution),
		SimSeed:         int64(getEnvIntAny([]string{"NORN_SIM_SEED", "NT_SIM_SEED"}, int(def.Seed))),
		SimWorkers:      getEnvIntAny([]string{"NORN_SIM_WORKERS", "NT_SIM_WORKERS"}, def.Workers),

		SolverBackend:   getEnvAny([]string{"NORN_SOLVER_BACKEND", "NT_SOLVER_BACKEND"}, def.Backend),
		MissPenalty:     getEnvFloatAny([]string{"NORN_MISS_PENALTY", "NT_MISS_PENALTY"}, def.MissPenalty),
		RuleThreshold:   getEnvFloatAny([]string{"NORN_RULE_THRESHOLD", "NT_RULE_THRESHOLD"}, def.RuleThreshold),
		UnservedPenalty: getEnvFloatAny([]string{"NORN_UNSERVED_PENALTY", "NT_UNSERVED_PENALTY"}, def.UnservedPenalty),
		MissRateBase:    getEnvAny([]string{"NORN_MISS_RATE_BASE", "NT_MISS_RATE_BASE"}, def.MissRateBase),

		// Tracing configuration
		TracingEnabled:    getEnvBoolAny([]string{"NORN_TRACING_ENABLED", "NT_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"NORN_OTLP_ENDPOINT", "NT_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"NORN_TRACING_SAMPLE_RATE", "NT_TRACING_SAMPLE_RATE"}, 1.0),
	}

	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("NORN_HTTP_PORT %d is out of range", cfg.HTTPPort)
	}

	if _, err := dataset.Load(cfg.Dataset); err != nil {
		return nil, fmt.Errorf("NORN_DATASET: %w", err)
	}

	switch cfg.SolverBackend {
	case decision.BackendBranchAndBound, decision.BackendEnumeration:
	default:
		return nil, fmt.Errorf("unsupported solver backend %q", cfg.SolverBackend)
	}

	switch cfg.SimDistribution {
	case delays.DistributionExp, delays.DistributionNormal:
	default:
		return nil, fmt.Errorf("unsupported delay distribution %q", cfg.SimDistribution)
	}

	if err := cfg.SimulationParams().Validate(); err != nil {
		return nil, err
	}

	cfg.LegacyEnvWarnings = detectLegacyEnvWarnings()

	return cfg, nil
}

// SimulationParams maps the configured defaults onto evaluation parameters.
func (c *Config) SimulationParams() simulation.Params {
	return simulation.Params{
		Runs:            c.SimRuns,
		Distribution:    c.SimDistribution,
		Seed:            c.SimSeed,
		Backend:         c.SolverBackend,
		MissPenalty:     c.MissPenalty,
		RuleThreshold:   c.RuleThreshold,
		UnservedPenalty: c.UnservedPenalty,
		MissRateBase:    c.MissRateBase,
		Workers:         c.SimWorkers,
	}
}

// HTTPAddr returns the bind address for the API server.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTPBind, c.HTTPPort)
}

func detectLegacyEnvWarnings() []string {
	legacy := map[string]string{
		"ENVIRONMENT":     "use NORN_ENV (or NT_ENV)",
		"HTTP_PORT":       "use NORN_HTTP_PORT (or NT_HTTP_PORT)",
		"SIM_RUNS":        "use NORN_SIM_RUNS (or NT_SIM_RUNS)",
		"SOLVER_BACKEND":  "use NORN_SOLVER_BACKEND (or NT_SOLVER_BACKEND)",
		"TRACING_ENABLED": "use NORN_TRACING_ENABLED (or NT_TRACING_ENABLED)",
		"OTLP_ENDPOINT":   "use NORN_OTLP_ENDPOINT (or NT_OTLP_ENDPOINT)",
	}

	warnings := make([]string, 0, len(legacy))
	for key, recommendation := range legacy {
		if os.Getenv(key) != "" {
			warnings = append(warnings, fmt.Sprintf("legacy env key %s is set; %s", key, recommendation))
		}
	}
	return warnings
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}
