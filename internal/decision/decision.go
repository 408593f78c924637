/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package decision solves the binary wait-or-depart problem for controllable
// transfers. Given pre-control realized times and baseline transfer loads,
// it picks the 0/1 decision vector minimizing passenger-weighted waiting
// cost plus missed-connection penalties.
package decision

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/friendsincode/norn_transit/internal/ean"
	"github.com/friendsincode/norn_transit/internal/propagation"
)

const (
	// BackendBranchAndBound solves the decision problem exactly by
	// depth-first search with a piecewise-linear relaxation bound.
	BackendBranchAndBound = "branch-and-bound"

	// BackendEnumeration evaluates every decision vector. Exact, but
	// limited to EnumerationLimit transfers.
	BackendEnumeration = "enumeration"

	// EnumerationLimit caps exhaustive search at 2^20 candidates.
	EnumerationLimit = 20

	// DefaultMissPenalty is the per-passenger cost of a broken
	// connection, in minutes.
	DefaultMissPenalty = 12.0
)

var (
	// ErrUnknownBackend indicates a solver backend outside the recognized set.
	ErrUnknownBackend = errors.New("unknown solver backend")

	// ErrTooManyTransfers indicates an instance too large for enumeration.
	ErrTooManyTransfers = errors.New("too many transfers for enumeration")

	// ErrUnknownActivity indicates a transfer id absent from the network.
	ErrUnknownActivity = errors.New("unknown transfer activity")

	// ErrInsufficientInput indicates a transfer with no pre-control time
	// for its feeder event or no load entry.
	ErrInsufficientInput = errors.New("insufficient solver input")
)

// Result is a solved decision instance. WaitDecisions holds exactly one 0/1
// entry per requested transfer: 1 means the connecting vehicle waits, 0
// means it departs on schedule and the connection is dropped.
type Result struct {
	WaitDecisions map[ean.ActivityID]int
	Objective     float64
	Backend       string
}

// Inactive returns the transfers decided 0, as the set to deactivate before
// re-propagating times.
func (r Result) Inactive() ean.ActivitySet {
	s := make(ean.ActivitySet)
	for aid, z := range r.WaitDecisions {
		if z == 0 {
			s.Add(aid)
		}
	}
	return s
}

// IncomingDelay is the positive part of the lateness feeding a transfer:
// how far behind plan its feeder event runs under the pre-control times.
func IncomingDelay(a ean.Activity, planned, preControl ean.Timetable) float64 {
	d := preControl[a.From] - planned[a.From]
	if d < 0 {
		return 0
	}
	return d
}

// BigM returns the linearization constant for a set of incoming delays:
// large enough to free the waiting-time floor of any dropped transfer, and
// never below 60.
func BigM(incoming []float64) float64 {
	var max float64
	for _, d := range incoming {
		if d > max {
			max = d
		}
	}
	if max+60 < 60 {
		return 60
	}
	return max + 60
}

// Engine solves wait-or-depart instances with a fixed backend.
type Engine struct {
	backend string
	logger  zerolog.Logger
}

// NewEngine validates the backend name and returns an engine.
func NewEngine(backend string, logger zerolog.Logger) (*Engine, error) {
	switch backend {
	case BackendBranchAndBound, BackendEnumeration:
	default:
		return nil, fmt.Errorf("backend %q: %w", backend, ErrUnknownBackend)
	}
	return &Engine{
		backend: backend,
		logger:  logger.With().Str("component", "decision").Logger(),
	}, nil
}

// Backend reports the configured solver backend.
func (e *Engine) Backend() string { return e.backend }

// Solve decides wait-or-depart for the given transfers. Incoming delays are
// measured against the planned timetable from preControl; slack is taken on
// the planned timetable; transferLoad supplies the baseline passenger volume
// per transfer. Every transfer must have a preControl entry for its feeder
// event and a load entry, or Solve fails with ErrInsufficientInput rather
// than guess. Transfers in transferIDs keep their given order, which fixes
// how ties are broken.
func (e *Engine) Solve(n *ean.Network, transferIDs []ean.ActivityID, preControl ean.Timetable, transferLoad map[ean.ActivityID]float64, penalty float64) (Result, error) {
	p, err := newProblem(n, transferIDs, preControl, transferLoad, penalty)
	if err != nil {
		return Result{}, err
	}

	var res Result
	var nodes int
	switch e.backend {
	case BackendEnumeration:
		res, err = solveEnumeration(p)
		if err != nil {
			return Result{}, err
		}
	default:
		res, nodes = solveBranchAndBound(p)
	}

	e.logger.Debug().
		Str("backend", res.Backend).
		Int("transfers", len(transferIDs)).
		Int("nodes", nodes).
		Float64("objective", res.Objective).
		Msg("solved wait decisions")

	return res, nil
}

// problem is an assembled instance: parallel slices indexed the same way as
// the transfer id list.
type problem struct {
	ids      []ean.ActivityID
	incoming []float64
	slack    []float64
	load     []float64
	penalty  float64
	bigM     float64
}

func newProblem(n *ean.Network, transferIDs []ean.ActivityID, preControl ean.Timetable, transferLoad map[ean.ActivityID]float64, penalty float64) (*problem, error) {
	planned := n.PlannedTimetable()

	p := &problem{
		ids:      append([]ean.ActivityID(nil), transferIDs...),
		incoming: make([]float64, len(transferIDs)),
		slack:    make([]float64, len(transferIDs)),
		load:     make([]float64, len(transferIDs)),
		penalty:  penalty,
	}

	for i, aid := range transferIDs {
		a, ok := n.Activity(aid)
		if !ok {
			return nil, fmt.Errorf("transfer %d: %w", aid, ErrUnknownActivity)
		}
		if _, ok := preControl[a.From]; !ok {
			return nil, fmt.Errorf("transfer %d: no pre-control time for event %d: %w", aid, a.From, ErrInsufficientInput)
		}
		load, ok := transferLoad[aid]
		if !ok {
			return nil, fmt.Errorf("transfer %d: no load entry: %w", aid, ErrInsufficientInput)
		}
		p.incoming[i] = IncomingDelay(a, planned, preControl)
		p.slack[i] = propagation.Slack(a, planned)
		p.load[i] = load
	}
	p.bigM = BigM(p.incoming)

	return p, nil
}

// cost is the exact objective contribution of transfer i under decision z.
// Waiting charges the load for the residual delay past the slack; departing
// charges the miss penalty, plus any residual the linearization constant
// cannot absorb.
func (p *problem) cost(i, z int) float64 {
	w := p.load[i]
	if z == 1 {
		q := p.incoming[i] - p.slack[i]
		if q < 0 {
			q = 0
		}
		return w * q
	}
	q := p.incoming[i] - p.slack[i] - p.bigM
	if q < 0 {
		q = 0
	}
	return w*q + p.penalty*w
}

func (r *Result) decisionsFrom(ids []ean.ActivityID, bits []int) {
	r.WaitDecisions = make(map[ean.ActivityID]int, len(ids))
	for i, aid := range ids {
		r.WaitDecisions[aid] = bits[i]
	}
}
