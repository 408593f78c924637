package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Environment != "development" {
		t.Fatalf("unexpected environment: %q", cfg.Environment)
	}
	if cfg.HTTPAddr() != "0.0.0.0:8080" {
		t.Fatalf("unexpected http addr: %q", cfg.HTTPAddr())
	}
	if cfg.Dataset != "demo" {
		t.Fatalf("unexpected dataset: %q", cfg.Dataset)
	}
	if cfg.SimRuns != 300 || cfg.SimSeed != 7 {
		t.Fatalf("unexpected simulation defaults: runs=%d seed=%d", cfg.SimRuns, cfg.SimSeed)
	}
	if cfg.SolverBackend != "branch-and-bound" {
		t.Fatalf("unexpected solver backend: %q", cfg.SolverBackend)
	}
	if cfg.TracingEnabled {
		t.Fatal("expected tracing disabled by default")
	}
	if cfg.OTLPEndpoint != "localhost:4317" {
		t.Fatalf("unexpected OTLP endpoint: %q", cfg.OTLPEndpoint)
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("NORN_HTTP_PORT", "9090")
	t.Setenv("NORN_DATASET", "twoline")
	t.Setenv("NORN_SIM_RUNS", "50")
	t.Setenv("NORN_SIM_DISTRIBUTION", "normal")
	t.Setenv("NORN_SOLVER_BACKEND", "enumeration")
	t.Setenv("NORN_MISS_PENALTY", "20.5")
	t.Setenv("NORN_TRACING_ENABLED", "true")
	t.Setenv("NORN_TRACING_SAMPLE_RATE", "0.25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != 9090 {
		t.Fatalf("unexpected http port: %d", cfg.HTTPPort)
	}
	if cfg.Dataset != "twoline" {
		t.Fatalf("unexpected dataset: %q", cfg.Dataset)
	}
	if cfg.SimRuns != 50 || cfg.SimDistribution != "normal" {
		t.Fatalf("unexpected simulation overrides: runs=%d dist=%q", cfg.SimRuns, cfg.SimDistribution)
	}
	if cfg.SolverBackend != "enumeration" {
		t.Fatalf("unexpected solver backend: %q", cfg.SolverBackend)
	}
	if cfg.MissPenalty != 20.5 {
		t.Fatalf("unexpected miss penalty: %v", cfg.MissPenalty)
	}
	if !cfg.TracingEnabled || cfg.TracingSampleRate != 0.25 {
		t.Fatalf("unexpected tracing overrides: enabled=%v rate=%v", cfg.TracingEnabled, cfg.TracingSampleRate)
	}
}

func TestLoadPrefersPrimaryPrefix(t *testing.T) {
	t.Setenv("NORN_SIM_RUNS", "40")
	t.Setenv("NT_SIM_RUNS", "80")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.SimRuns != 40 {
		t.Fatalf("expected primary prefix to win, got runs=%d", cfg.SimRuns)
	}
}

func TestLoadFallsBackToShortPrefix(t *testing.T) {
	t.Setenv("NT_SIM_SEED", "99")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.SimSeed != 99 {
		t.Fatalf("expected short prefix fallback, got seed=%d", cfg.SimSeed)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "port out of range", key: "NORN_HTTP_PORT", value: "70000"},
		{name: "unknown dataset", key: "NORN_DATASET", value: "mystery"},
		{name: "unknown backend", key: "NORN_SOLVER_BACKEND", value: "simplex"},
		{name: "unknown distribution", key: "NORN_SIM_DISTRIBUTION", value: "cauchy"},
		{name: "non-positive runs", key: "NORN_SIM_RUNS", value: "0"},
		{name: "negative penalty", key: "NORN_MISS_PENALTY", value: "-1"},
		{name: "unknown miss rate base", key: "NORN_MISS_RATE_BASE", value: "relative"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected load to fail with %s=%s", tc.key, tc.value)
			}
		})
	}
}

func TestLoadReportsLegacyEnvWarnings(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("TRACING_ENABLED", "")
	t.Setenv("OTLP_ENDPOINT", "")
	t.Setenv("SIM_RUNS", "100")
	t.Setenv("SOLVER_BACKEND", "enumeration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.LegacyEnvWarnings) != 2 {
		t.Fatalf("expected 2 legacy env warnings, got %d: %v", len(cfg.LegacyEnvWarnings), cfg.LegacyEnvWarnings)
	}
}
