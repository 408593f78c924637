/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/friendsincode/norn_transit/internal/dataset"
	"github.com/friendsincode/norn_transit/internal/simulation"
)

// Run flags
var (
	runDataset         string
	runRuns            int
	runDistribution    string
	runSeed            int64
	runBackend         string
	runMissPenalty     float64
	runRuleThreshold   float64
	runUnservedPenalty float64
	runMissRateBase    string
	runWorkers         int
	runOut             string
	runFormat          string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a Monte Carlo policy comparison",
	Long: `Evaluates the no-management, rule-based, and optimized dispatching policies
against sampled source delays and prints the averaged results. Unset flags
fall back to the configured defaults (NORN_SIM_* environment variables).

Examples:
  norntransit run
  norntransit run --dataset twoline --runs 1000 --seed 42
  norntransit run --distribution normal --solver enumeration --out report.yaml --format yaml`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runDataset, "dataset", "", "Built-in dataset name or YAML dataset file (default from config)")
	runCmd.Flags().IntVar(&runRuns, "runs", 0, "Number of Monte Carlo scenarios")
	runCmd.Flags().StringVar(&runDistribution, "distribution", "", "Source delay distribution: exp or normal")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "Base random seed; scenario i derives seed+i")
	runCmd.Flags().StringVar(&runBackend, "solver", "", "Decision solver: branch-and-bound or enumeration")
	runCmd.Flags().Float64Var(&runMissPenalty, "penalty", 0, "Per-passenger missed-connection penalty in minutes")
	runCmd.Flags().Float64Var(&runRuleThreshold, "rule-threshold", 0, "Incoming delay up to which the rule-based policy waits")
	runCmd.Flags().Float64Var(&runUnservedPenalty, "unserved-penalty", 0, "Travel time charged to unservable demand")
	runCmd.Flags().StringVar(&runMissRateBase, "miss-rate-base", "", "Miss rate denominator: baseline or scenario")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "Scenario workers; 0 means one per CPU")
	runCmd.Flags().StringVar(&runOut, "out", "", "Write the full report to this file")
	runCmd.Flags().StringVar(&runFormat, "format", "json", "Report encoding for --out: json or yaml")
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	p := cfg.SimulationParams()
	flags := cmd.Flags()
	if flags.Changed("runs") {
		p.Runs = runRuns
	}
	if runDistribution != "" {
		p.Distribution = runDistribution
	}
	if flags.Changed("seed") {
		p.Seed = runSeed
	}
	if runBackend != "" {
		p.Backend = runBackend
	}
	if flags.Changed("penalty") {
		p.MissPenalty = runMissPenalty
	}
	if flags.Changed("rule-threshold") {
		p.RuleThreshold = runRuleThreshold
	}
	if flags.Changed("unserved-penalty") {
		p.UnservedPenalty = runUnservedPenalty
	}
	if runMissRateBase != "" {
		p.MissRateBase = runMissRateBase
	}
	if flags.Changed("workers") {
		p.Workers = runWorkers
	}

	name := runDataset
	if name == "" {
		name = cfg.Dataset
	}
	ds, err := dataset.Resolve(name)
	if err != nil {
		return err
	}

	runner, err := simulation.NewRunner(p, logger)
	if err != nil {
		return err
	}

	rep, err := runner.Run(cmd.Context(), ds)
	if err != nil {
		return fmt.Errorf("run simulation: %w", err)
	}

	printSummary(rep)

	if runOut != "" {
		data, err := encodeReport(rep, runFormat)
		if err != nil {
			return err
		}
		if err := os.WriteFile(runOut, data, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("\nreport written to %s\n", runOut)
	}

	return nil
}

func printSummary(rep *simulation.Report) {
	m := rep.Meta
	fmt.Printf("run %s\n", m.RunID)
	fmt.Printf("dataset=%s runs=%d distribution=%s solver=%s seed=%d workers=%d (%.2fs)\n",
		m.Dataset, m.Runs, m.Distribution, m.Backend, m.Seed, m.Workers,
		float64(m.DurationMS)/1000)

	fmt.Println()
	fmt.Printf("%-16s %14s %12s %16s\n", "POLICY", "AVG DELAY", "MISS RATE", "DOOR-TO-DOOR")
	for _, p := range rep.Policies {
		fmt.Printf("%-16s %14.3f %12.3f %16.3f\n", p.Policy, p.AvgDelay, p.MissRate, p.AvgDoorToDoor)
	}

	fmt.Println()
	fmt.Printf("uncontrolled delay per scenario: total mean=%.3f max=%.3f, peak event delay mean=%.3f\n",
		rep.Delays.Total.Mean, rep.Delays.Total.Max, rep.Delays.Max.Mean)
}

func encodeReport(rep *simulation.Report, format string) ([]byte, error) {
	switch format {
	case "json":
		return json.MarshalIndent(rep, "", "  ")
	case "yaml":
		return yaml.Marshal(rep)
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}
