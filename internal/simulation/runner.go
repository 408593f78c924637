/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package simulation runs Monte Carlo evaluations of delay-management
// policies. Each scenario samples source delays, propagates them, lets each
// policy pick which transfers to hold, and scores the resulting passenger
// outcomes against the planned timetable.
package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/friendsincode/norn_transit/internal/dataset"
	"github.com/friendsincode/norn_transit/internal/decision"
	"github.com/friendsincode/norn_transit/internal/delays"
	"github.com/friendsincode/norn_transit/internal/ean"
	"github.com/friendsincode/norn_transit/internal/propagation"
	"github.com/friendsincode/norn_transit/internal/routing"
	"github.com/friendsincode/norn_transit/internal/telemetry"
)

// Runner evaluates the three policies over many sampled scenarios.
type Runner struct {
	params  Params
	sampler *delays.Sampler
	engine  *decision.Engine
	logger  zerolog.Logger
}

// NewRunner validates the parameters and assembles the sampler and decision
// engine. Invalid runs, distribution, backend or normalization mode fail
// here, before any scenario is drawn.
func NewRunner(p Params, logger zerolog.Logger) (*Runner, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	sampler, err := delays.NewSampler(p.Distribution)
	if err != nil {
		return nil, err
	}
	engine, err := decision.NewEngine(p.Backend, logger)
	if err != nil {
		return nil, err
	}
	return &Runner{
		params:  p,
		sampler: sampler,
		engine:  engine,
		logger:  logger.With().Str("component", "simulation").Logger(),
	}, nil
}

// Params returns the runner's effective configuration.
func (r *Runner) Params() Params { return r.params }

// baseline holds the planned-timetable assignment every scenario is scored
// against: planned travel times per pair and the transfer loads that weight
// the decision objective.
type baseline struct {
	planned       ean.Timetable
	travel        map[ean.ODPair]float64
	transferLoads map[ean.ActivityID]float64
	transferTotal float64
}

func newBaseline(ds dataset.Dataset) baseline {
	planned := ds.Network.PlannedTimetable()
	asn := routing.Assign(ds.Network, planned, ds.Demand, nil, routing.DefaultUnservedPenalty)

	loads := make(map[ean.ActivityID]float64, len(ds.Transfers))
	var total float64
	for _, aid := range ds.Transfers {
		loads[aid] = asn.Loads[aid]
		total += asn.Loads[aid]
	}

	return baseline{
		planned:       planned,
		travel:        asn.TravelTimes,
		transferLoads: loads,
		transferTotal: total,
	}
}

type policyOutcome struct {
	delay float64
	miss  float64
	d2d   float64
}

type scenarioOutcome struct {
	policies   [3]policyOutcome
	eventDelay []float64
	backend    string
	err        error
}

// Run executes the configured number of scenarios against the dataset and
// aggregates a report. Scenario i derives its random stream from seed+i, so
// results do not depend on the worker count.
func (r *Runner) Run(ctx context.Context, ds dataset.Dataset) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	base := newBaseline(ds)

	outcomes := make([]scenarioOutcome, r.params.Runs)
	workers := r.params.effectiveWorkers()

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = r.runScenario(ctx, ds, base, i)
			}
		}()
	}

	var feedErr error
feed:
	for i := 0; i < r.params.Runs; i++ {
		select {
		case <-ctx.Done():
			feedErr = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if feedErr != nil {
		return nil, feedErr
	}
	for i := range outcomes {
		if outcomes[i].err != nil {
			return nil, fmt.Errorf("scenario %d: %w", i, outcomes[i].err)
		}
	}

	report := r.reduce(ds, outcomes, runID, start, workers)

	telemetry.SimulationRunsTotal.WithLabelValues(ds.Name, r.params.Distribution).Inc()
	telemetry.SimulationScenariosTotal.Add(float64(r.params.Runs))
	telemetry.SolverDecisionsTotal.WithLabelValues(report.Meta.Backend).Add(float64(r.params.Runs))
	telemetry.SimulationDurationSeconds.Observe(time.Since(start).Seconds())

	r.logger.Info().
		Str("run_id", runID).
		Str("dataset", ds.Name).
		Int("runs", r.params.Runs).
		Int("workers", workers).
		Str("backend", report.Meta.Backend).
		Dur("elapsed", time.Since(start)).
		Msg("evaluation complete")

	return report, nil
}

func (r *Runner) runScenario(ctx context.Context, ds dataset.Dataset, base baseline, i int) scenarioOutcome {
	if err := ctx.Err(); err != nil {
		return scenarioOutcome{err: err}
	}

	rng := rand.New(rand.NewSource(r.params.Seed + int64(i)))
	sampled := r.sampler.Sample(ds.Network, rng)
	src := delays.SourceTimes(ds.Network, sampled)

	// Uncontrolled propagation: what happens before any decision.
	pre := propagation.Propagate(ds.Network, src, nil)

	eventDelay := make([]float64, ds.Network.NumEvents())
	for _, e := range ds.Network.Events() {
		eventDelay[e.ID] = pre[e.ID] - e.PlannedTime
	}

	noDec := make(map[ean.ActivityID]int, len(ds.Transfers))
	for _, aid := range ds.Transfers {
		noDec[aid] = 0
	}
	ruleDec := ruleDecisions(ds, base.planned, pre, r.params.RuleThreshold)

	opt, err := r.engine.Solve(ds.Network, ds.Transfers, pre, base.transferLoads, r.params.MissPenalty)
	if err != nil {
		return scenarioOutcome{err: err}
	}

	missLoads, missTotal := base.transferLoads, base.transferTotal
	if r.params.MissRateBase == MissRateScenario {
		asn := routing.Assign(ds.Network, pre, ds.Demand, nil, r.params.UnservedPenalty)
		loads := make(map[ean.ActivityID]float64, len(ds.Transfers))
		missTotal = 0
		for _, aid := range ds.Transfers {
			loads[aid] = asn.Loads[aid]
			missTotal += asn.Loads[aid]
		}
		missLoads = loads
	}

	return scenarioOutcome{
		policies: [3]policyOutcome{
			r.evaluate(ds, base, src, noDec, missLoads, missTotal),
			r.evaluate(ds, base, src, ruleDec, missLoads, missTotal),
			r.evaluate(ds, base, src, opt.WaitDecisions, missLoads, missTotal),
		},
		eventDelay: eventDelay,
		backend:    opt.Backend,
	}
}

// ruleDecisions applies the fixed waiting rule: hold a transfer whenever its
// incoming delay is at or below the threshold, otherwise depart.
func ruleDecisions(ds dataset.Dataset, planned, pre ean.Timetable, threshold float64) map[ean.ActivityID]int {
	dec := make(map[ean.ActivityID]int, len(ds.Transfers))
	for _, aid := range ds.Transfers {
		a, _ := ds.Network.Activity(aid)
		if decision.IncomingDelay(a, planned, pre) <= threshold {
			dec[aid] = 1
		} else {
			dec[aid] = 0
		}
	}
	return dec
}

// evaluate scores one decision vector: deactivate its departed transfers,
// re-propagate, re-route, and compare against planned travel times.
func (r *Runner) evaluate(ds dataset.Dataset, base baseline, src ean.Timetable, dec map[ean.ActivityID]int, missLoads map[ean.ActivityID]float64, missTotal float64) policyOutcome {
	inactive := make(ean.ActivitySet)
	for _, aid := range ds.Transfers {
		if dec[aid] == 0 {
			inactive.Add(aid)
		}
	}

	realized := propagation.Propagate(ds.Network, src, inactive)
	asn := routing.Assign(ds.Network, realized, ds.Demand, inactive, r.params.UnservedPenalty)

	var delay float64
	for _, pair := range routing.SortedPairs(ds.Demand) {
		if cur, planned := asn.TravelTimes[pair], base.travel[pair]; cur > planned {
			delay += ds.Demand[pair] * (cur - planned)
		}
	}

	var broken float64
	for _, aid := range ds.Transfers {
		if dec[aid] == 0 {
			broken += missLoads[aid]
		}
	}
	var miss float64
	if missTotal > 0 {
		miss = broken / missTotal
	}

	return policyOutcome{
		delay: delay,
		miss:  miss,
		d2d:   asn.AverageTravelTime(ds.Demand),
	}
}

func (r *Runner) reduce(ds dataset.Dataset, outcomes []scenarioOutcome, runID string, start time.Time, workers int) *Report {
	runs := float64(len(outcomes))
	backend := r.engine.Backend()

	var sums [3]policyOutcome
	totals := make([]float64, len(outcomes))
	maxes := make([]float64, len(outcomes))
	perEvent := make([][]float64, ds.Network.NumEvents())

	for i, o := range outcomes {
		for k := range sums {
			sums[k].delay += o.policies[k].delay
			sums[k].miss += o.policies[k].miss
			sums[k].d2d += o.policies[k].d2d
		}
		var total, max float64
		for eid, d := range o.eventDelay {
			perEvent[eid] = append(perEvent[eid], d)
			total += d
			if d > max {
				max = d
			}
		}
		totals[i] = total
		maxes[i] = max
		backend = o.backend
	}

	names := []string{PolicyNoManagement, PolicyRuleBased, PolicyOptimized}
	policies := make([]PolicyResult, len(names))
	for k, name := range names {
		policies[k] = PolicyResult{
			Policy:        name,
			AvgDelay:      round3(sums[k].delay / runs),
			MissRate:      round3(sums[k].miss / runs),
			AvgDoorToDoor: round3(sums[k].d2d / runs),
		}
	}

	events := ds.Network.Events()
	eventStats := make([]EventDelayStats, len(events))
	for _, e := range events {
		xs := perEvent[e.ID]
		eventStats[e.ID] = EventDelayStats{
			EventID: int(e.ID),
			Station: e.Station,
			Type:    string(e.Type),
			Mean:    round3(mean(xs)),
			Std:     round3(stddev(xs)),
			Min:     round3(minOf(xs)),
			Max:     round3(maxOf(xs)),
			Median:  round3(percentile(xs, 0.5)),
			P95:     round3(percentile(xs, 0.95)),
		}
	}

	return &Report{
		Meta: Meta{
			RunID:           runID,
			Dataset:         ds.Name,
			Runs:            len(outcomes),
			Distribution:    r.params.Distribution,
			Backend:         backend,
			MissPenalty:     r.params.MissPenalty,
			RuleThreshold:   r.params.RuleThreshold,
			UnservedPenalty: r.params.UnservedPenalty,
			MissRateBase:    r.params.MissRateBase,
			Seed:            r.params.Seed,
			Workers:         workers,
			StartedAt:       start.UTC(),
			DurationMS:      time.Since(start).Milliseconds(),
		},
		Policies: policies,
		Delays: DelayReport{
			Total:  summarize(totals),
			Max:    summarize(maxes),
			Events: eventStats,
		},
	}
}
