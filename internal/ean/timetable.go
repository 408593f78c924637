/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package ean

// Timetable maps events to times in minutes from the schedule epoch. A
// timetable may hold planned times, perturbed times, or propagated realized
// times; the type does not distinguish.
type Timetable map[EventID]float64

// Clone returns an independent copy.
func (t Timetable) Clone() Timetable {
	out := make(Timetable, len(t))
	for id, v := range t {
		out[id] = v
	}
	return out
}

// ODPair names an origin and destination station.
type ODPair struct {
	Origin      string `json:"origin" yaml:"origin"`
	Destination string `json:"destination" yaml:"destination"`
}

// ODMatrix maps origin-destination pairs to passenger demand.
type ODMatrix map[ODPair]float64

// TotalDemand sums all demand in the matrix.
func (m ODMatrix) TotalDemand() float64 {
	var total float64
	for _, d := range m {
		total += d
	}
	return total
}

// ActivitySet is a set of activity ids, used to mark activities excluded
// from propagation and routing.
type ActivitySet map[ActivityID]struct{}

// NewActivitySet builds a set from ids.
func NewActivitySet(ids ...ActivityID) ActivitySet {
	s := make(ActivitySet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports membership. A nil set contains nothing.
func (s ActivitySet) Contains(id ActivityID) bool {
	_, ok := s[id]
	return ok
}

// Add inserts an id.
func (s ActivitySet) Add(id ActivityID) {
	s[id] = struct{}{}
}
