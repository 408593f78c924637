/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package simulation

import "time"

// Report is the full outcome of one Monte Carlo evaluation. All averages
// are arithmetic means across scenarios, rounded to three decimals.
type Report struct {
	Meta     Meta           `json:"meta" yaml:"meta"`
	Policies []PolicyResult `json:"scenarios" yaml:"scenarios"`
	Delays   DelayReport    `json:"delay_stats" yaml:"delay_stats"`
}

// Meta records what produced the report: the instance, every effective
// parameter, and timing.
type Meta struct {
	RunID           string    `json:"run_id" yaml:"run_id"`
	Dataset         string    `json:"dataset" yaml:"dataset"`
	Runs            int       `json:"runs" yaml:"runs"`
	Distribution    string    `json:"distribution" yaml:"distribution"`
	Backend         string    `json:"solver_backend" yaml:"solver_backend"`
	MissPenalty     float64   `json:"penalty_t" yaml:"penalty_t"`
	RuleThreshold   float64   `json:"rule_threshold" yaml:"rule_threshold"`
	UnservedPenalty float64   `json:"unserved_penalty" yaml:"unserved_penalty"`
	MissRateBase    string    `json:"miss_rate_base" yaml:"miss_rate_base"`
	Seed            int64     `json:"seed" yaml:"seed"`
	Workers         int       `json:"workers" yaml:"workers"`
	StartedAt       time.Time `json:"started_at" yaml:"started_at"`
	DurationMS      int64     `json:"duration_ms" yaml:"duration_ms"`
}

// PolicyResult is one policy's averaged outcome. AvgDelay is the mean total
// passenger delay against planned travel times; MissRate the mean share of
// transfer passengers whose connection was dropped; AvgDoorToDoor the mean
// demand-weighted journey time.
type PolicyResult struct {
	Policy        string  `json:"scenario" yaml:"scenario"`
	AvgDelay      float64 `json:"avg_delay" yaml:"avg_delay"`
	MissRate      float64 `json:"miss_rate" yaml:"miss_rate"`
	AvgDoorToDoor float64 `json:"avg_door_to_door" yaml:"avg_door_to_door"`
}

// DelayReport summarizes uncontrolled delay propagation across scenarios:
// per-scenario network totals, per-scenario worst events, and per-event
// distributions.
type DelayReport struct {
	Total  SummaryStats      `json:"total" yaml:"total"`
	Max    SummaryStats      `json:"max" yaml:"max"`
	Events []EventDelayStats `json:"events" yaml:"events"`
}

// PolicyByName returns the named policy result.
func (r *Report) PolicyByName(name string) (PolicyResult, bool) {
	for _, p := range r.Policies {
		if p.Policy == name {
			return p, true
		}
	}
	return PolicyResult{}, false
}
