/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package propagation computes realized event times from source times by
// enforcing minimum-duration constraints across an event-activity network.
package propagation

import (
	"github.com/friendsincode/norn_transit/internal/ean"
)

// CriticalEpsilon is the slack threshold at or below which an activity is
// considered critical.
const CriticalEpsilon = 1e-9

// Propagate returns the earliest feasible time for every event given the
// source times. Events absent from times start at their planned time. The
// result satisfies out[to] >= out[from] + min_duration for every activity
// not listed in deactivated, and never falls below the source time of any
// event. The input map is not mutated.
//
// Relaxation runs label-correcting passes over activities in id order until
// no time moves, bounded by the event count. Because times only increase and
// each pass takes the max over incoming constraints, the fixpoint does not
// depend on relaxation order and the operation is idempotent. Upper duration
// bounds are advisory and play no part here.
func Propagate(n *ean.Network, times ean.Timetable, deactivated ean.ActivitySet) ean.Timetable {
	out := n.PlannedTimetable()
	for id, v := range times {
		out[id] = v
	}

	activities := n.Activities()
	for pass := 0; pass < n.NumEvents(); pass++ {
		changed := false
		for _, a := range activities {
			if deactivated.Contains(a.ID) {
				continue
			}
			if earliest := out[a.From] + a.MinDuration; earliest > out[a.To] {
				out[a.To] = earliest
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	return out
}

// EarliestTimes is the single-source form of Propagate: the source event
// runs late by delay minutes and every other event starts on plan.
func EarliestTimes(n *ean.Network, source ean.EventID, delay float64, deactivated ean.ActivitySet) ean.Timetable {
	src := ean.Timetable{}
	if ev, ok := n.Event(source); ok {
		src[ev.ID] = ev.PlannedTime + delay
	}
	return Propagate(n, src, deactivated)
}

// Slack returns the buffer an activity has under the given timetable: the
// scheduled gap between its endpoints minus its minimum duration. On a
// consistent timetable slack is non-negative.
func Slack(a ean.Activity, times ean.Timetable) float64 {
	return times[a.To] - times[a.From] - a.MinDuration
}

// CriticalActivities returns the ids of activities whose slack under the
// given timetable is at most CriticalEpsilon, in id order. These are the
// activities along which any further delay propagates immediately.
func CriticalActivities(n *ean.Network, times ean.Timetable) []ean.ActivityID {
	var out []ean.ActivityID
	for _, a := range n.Activities() {
		if Slack(a, times) <= CriticalEpsilon {
			out = append(out, a.ID)
		}
	}
	return out
}
