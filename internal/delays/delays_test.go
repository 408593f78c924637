/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package delays

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/friendsincode/norn_transit/internal/ean"
)

func sampleNetwork(t *testing.T) *ean.Network {
	t.Helper()

	n := ean.New()
	n.AddEvent("A", ean.EventDeparture, 0)
	n.AddEvent("B", ean.EventArrival, 10)
	n.AddEvent("B", ean.EventDeparture, 12)
	n.AddEvent("C", ean.EventArrival, 26)
	return n
}

func TestNewSamplerRejectsUnknownDistribution(t *testing.T) {
	if _, err := NewSampler("uniform"); !errors.Is(err, ErrUnknownDistribution) {
		t.Errorf("got %v, want ErrUnknownDistribution", err)
	}
}

func TestSampleArrivalsOnly(t *testing.T) {
	n := sampleNetwork(t)

	for _, dist := range []string{DistributionExp, DistributionNormal} {
		s, err := NewSampler(dist)
		if err != nil {
			t.Fatalf("NewSampler(%s): %v", dist, err)
		}

		got := s.Sample(n, rand.New(rand.NewSource(7)))
		if len(got) != 2 {
			t.Fatalf("%s: sampled %d events, want 2", dist, len(got))
		}
		for _, id := range []ean.EventID{1, 3} {
			d, ok := got[id]
			if !ok {
				t.Errorf("%s: arrival %d not sampled", dist, id)
			}
			if d < 0 {
				t.Errorf("%s: negative delay %v", dist, d)
			}
		}
		if _, ok := got[0]; ok {
			t.Errorf("%s: departure event sampled", dist)
		}
	}
}

func TestSampleDeterministicForSeed(t *testing.T) {
	n := sampleNetwork(t)
	s, _ := NewSampler(DistributionExp)

	a := s.Sample(n, rand.New(rand.NewSource(7)))
	b := s.Sample(n, rand.New(rand.NewSource(7)))

	for id, v := range a {
		if b[id] != v {
			t.Errorf("event %d: %v vs %v for same seed", id, v, b[id])
		}
	}
}

func TestSampleExpMean(t *testing.T) {
	n := ean.New()
	n.AddEvent("B", ean.EventArrival, 10)
	s, _ := NewSampler(DistributionExp)
	rng := rand.New(rand.NewSource(1))

	var sum float64
	const draws = 20000
	for i := 0; i < draws; i++ {
		sum += s.Sample(n, rng)[0]
	}

	// Rate 0.25 means a 4 minute mean; a wide band keeps this stable.
	mean := sum / draws
	if mean < 3.5 || mean > 4.5 {
		t.Errorf("mean = %v, want near 4", mean)
	}
}

func TestSampleNormalClampsAtZero(t *testing.T) {
	n := ean.New()
	n.AddEvent("B", ean.EventArrival, 10)
	s, _ := NewSampler(DistributionNormal)
	s.NormalMu = -5
	s.NormalSigma = 0.5

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		if d := s.Sample(n, rng)[0]; d != 0 {
			t.Fatalf("draw %d: delay = %v, want clamp to 0", i, d)
		}
	}
}

func TestSourceTimes(t *testing.T) {
	n := sampleNetwork(t)

	tt := SourceTimes(n, map[ean.EventID]float64{1: 2.5, 3: 0})
	if len(tt) != 2 {
		t.Fatalf("len = %d, want 2", len(tt))
	}
	if tt[1] != 12.5 {
		t.Errorf("event 1 = %v, want 12.5", tt[1])
	}
	if tt[3] != 26 {
		t.Errorf("event 3 = %v, want 26", tt[3])
	}

	// Unknown ids are dropped rather than invented.
	tt = SourceTimes(n, map[ean.EventID]float64{99: 1})
	if len(tt) != 0 {
		t.Errorf("unknown id produced entry: %v", tt)
	}
}
