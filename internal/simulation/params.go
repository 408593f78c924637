/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package simulation

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/friendsincode/norn_transit/internal/decision"
	"github.com/friendsincode/norn_transit/internal/delays"
	"github.com/friendsincode/norn_transit/internal/routing"
)

// Policy names, in the order they appear in reports.
const (
	PolicyNoManagement = "no_management"
	PolicyRuleBased    = "rule_based"
	PolicyOptimized    = "optimized"
)

// Miss-rate normalization modes. Baseline divides broken-transfer load by
// the planned-timetable transfer volume; scenario divides by the volume the
// scenario's own uncontrolled assignment puts on transfers.
const (
	MissRateBaseline = "baseline"
	MissRateScenario = "scenario"
)

var (
	// ErrInvalidRuns indicates a non-positive scenario count.
	ErrInvalidRuns = errors.New("runs must be positive")

	// ErrInvalidMissRateBase indicates an unrecognized normalization mode.
	ErrInvalidMissRateBase = errors.New("miss rate base must be baseline or scenario")

	// ErrInvalidPenalty indicates a negative penalty parameter.
	ErrInvalidPenalty = errors.New("penalty must not be negative")
)

// Params configures a Monte Carlo evaluation.
type Params struct {
	Runs            int
	Distribution    string
	Seed            int64
	Backend         string
	MissPenalty     float64
	RuleThreshold   float64
	UnservedPenalty float64
	MissRateBase    string
	Workers         int
}

// DefaultParams returns the stock configuration: 300 exponential scenarios,
// seed 7, exact solver, 12 minute miss penalty, 3 minute rule threshold.
func DefaultParams() Params {
	return Params{
		Runs:            300,
		Distribution:    delays.DistributionExp,
		Seed:            7,
		Backend:         decision.BackendBranchAndBound,
		MissPenalty:     decision.DefaultMissPenalty,
		RuleThreshold:   3,
		UnservedPenalty: routing.DefaultUnservedPenalty,
		MissRateBase:    MissRateBaseline,
		Workers:         0,
	}
}

// Validate rejects parameter combinations before any sampling happens.
// Distribution and backend names are validated where their components are
// constructed.
func (p Params) Validate() error {
	if p.Runs <= 0 {
		return fmt.Errorf("runs %d: %w", p.Runs, ErrInvalidRuns)
	}
	switch p.MissRateBase {
	case MissRateBaseline, MissRateScenario:
	default:
		return fmt.Errorf("%q: %w", p.MissRateBase, ErrInvalidMissRateBase)
	}
	if p.MissPenalty < 0 {
		return fmt.Errorf("miss penalty %v: %w", p.MissPenalty, ErrInvalidPenalty)
	}
	if p.UnservedPenalty < 0 {
		return fmt.Errorf("unserved penalty %v: %w", p.UnservedPenalty, ErrInvalidPenalty)
	}
	return nil
}

// effectiveWorkers resolves the worker count: non-positive means one worker
// per CPU, and there is no point exceeding the scenario count.
func (p Params) effectiveWorkers() int {
	w := p.Workers
	if w <= 0 {
		w = runtime.NumCPU()
	}
	if w > p.Runs {
		w = p.Runs
	}
	if w < 1 {
		w = 1
	}
	return w
}
