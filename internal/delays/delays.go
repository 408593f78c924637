/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package delays samples stochastic source delays for arrival events.
package delays

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/friendsincode/norn_transit/internal/ean"
)

const (
	DistributionExp    = "exp"
	DistributionNormal = "normal"

	// DefaultExpLambda is the exponential rate, giving a 4 minute mean.
	DefaultExpLambda = 0.25

	DefaultNormalMu    = 2.0
	DefaultNormalSigma = 1.2
)

// ErrUnknownDistribution indicates a distribution outside the recognized set.
var ErrUnknownDistribution = errors.New("distribution must be exp or normal")

// Sampler draws independent source delays for every arrival event.
// Departures are never perturbed directly; their lateness only ever comes
// from propagation.
type Sampler struct {
	Distribution string
	ExpLambda    float64
	NormalMu     float64
	NormalSigma  float64
}

// NewSampler validates the distribution name and returns a sampler with
// default parameters.
func NewSampler(dist string) (*Sampler, error) {
	switch dist {
	case DistributionExp, DistributionNormal:
	default:
		return nil, fmt.Errorf("%q: %w", dist, ErrUnknownDistribution)
	}
	return &Sampler{
		Distribution: dist,
		ExpLambda:    DefaultExpLambda,
		NormalMu:     DefaultNormalMu,
		NormalSigma:  DefaultNormalSigma,
	}, nil
}

// Sample draws one delay per arrival event, in event id order so a seeded
// source always yields the same draw sequence. Normal draws clamp at zero;
// exponential draws are non-negative by construction.
func (s *Sampler) Sample(n *ean.Network, rng *rand.Rand) map[ean.EventID]float64 {
	out := make(map[ean.EventID]float64)
	for _, e := range n.Events() {
		if e.Type != ean.EventArrival {
			continue
		}
		switch s.Distribution {
		case DistributionExp:
			out[e.ID] = rng.ExpFloat64() / s.ExpLambda
		case DistributionNormal:
			d := rng.NormFloat64()*s.NormalSigma + s.NormalMu
			if d < 0 {
				d = 0
			}
			out[e.ID] = d
		}
	}
	return out
}

// SourceTimes converts sampled delays into the source timetable propagation
// starts from: planned time plus delay for each sampled event. Events with
// no entry keep their planned time implicitly.
func SourceTimes(n *ean.Network, sampled map[ean.EventID]float64) ean.Timetable {
	tt := make(ean.Timetable, len(sampled))
	for id, d := range sampled {
		if e, ok := n.Event(id); ok {
			tt[id] = e.PlannedTime + d
		}
	}
	return tt
}
