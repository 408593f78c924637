/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package simulation

import (
	"math"
	"sort"
)

// SummaryStats condenses a sample into its first moments and range.
// Std is the population standard deviation.
type SummaryStats struct {
	Mean float64 `json:"mean" yaml:"mean"`
	Std  float64 `json:"std" yaml:"std"`
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
}

// EventDelayStats describes the distribution of one event's realized delay
// across all scenarios.
type EventDelayStats struct {
	EventID int     `json:"event_id" yaml:"event_id"`
	Station string  `json:"station" yaml:"station"`
	Type    string  `json:"type" yaml:"type"`
	Mean    float64 `json:"mean" yaml:"mean"`
	Std     float64 `json:"std" yaml:"std"`
	Min     float64 `json:"min" yaml:"min"`
	Max     float64 `json:"max" yaml:"max"`
	Median  float64 `json:"median" yaml:"median"`
	P95     float64 `json:"p95" yaml:"p95"`
}

func summarize(xs []float64) SummaryStats {
	if len(xs) == 0 {
		return SummaryStats{}
	}
	return SummaryStats{
		Mean: round3(mean(xs)),
		Std:  round3(stddev(xs)),
		Min:  round3(minOf(xs)),
		Max:  round3(maxOf(xs)),
	}
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	m := mean(xs)
	var sq float64
	for _, x := range xs {
		d := x - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

// percentile interpolates linearly between order statistics, with q in
// [0, 1]. The input is not mutated.
func percentile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}

	rank := q * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	frac := rank - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
