/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package routing assigns passenger demand to journeys through an
// event-activity network under a given (planned or realized) timetable.
package routing

import (
	"container/heap"
	"sort"

	"github.com/friendsincode/norn_transit/internal/ean"
)

// DefaultUnservedPenalty is the travel time charged to a passenger whose
// origin-destination pair has no feasible journey, in minutes.
const DefaultUnservedPenalty = 60.0

// Path is a feasible journey: its door-to-door travel time measured from the
// passenger's start time, and the activities traversed in order.
type Path struct {
	TravelTime float64
	Activities []ean.ActivityID
}

// ShortestPath finds the fastest journey from origin to destination for a
// passenger ready at startTime, under the given event times. Every departure
// event at the origin whose time is at or after startTime seeds the search,
// charged with the wait until that departure. Activity cost is the realized
// gap between its endpoints, floored at zero. Activities in deactivated are
// not traversable. The second return value is false when no arrival at the
// destination is reachable.
func ShortestPath(n *ean.Network, times ean.Timetable, origin, destination string, startTime float64, deactivated ean.ActivitySet) (Path, bool) {
	dist := make(map[ean.EventID]float64)
	prev := make(map[ean.EventID]ean.ActivityID)
	settled := make(map[ean.EventID]bool)

	pq := &eventQueue{}
	heap.Init(pq)

	for _, dep := range n.StationDepartures(origin) {
		t := times[dep]
		if t < startTime {
			continue
		}
		d := t - startTime
		if cur, ok := dist[dep]; !ok || d < cur {
			dist[dep] = d
			heap.Push(pq, eventLabel{event: dep, dist: d})
		}
	}

	for pq.Len() > 0 {
		label := heap.Pop(pq).(eventLabel)
		if settled[label.event] {
			continue
		}
		settled[label.event] = true

		ev, _ := n.Event(label.event)
		if ev.Type == ean.EventArrival && ev.Station == destination {
			return Path{
				TravelTime: label.dist,
				Activities: reconstruct(prev, label.event, n),
			}, true
		}

		for _, a := range n.Outgoing(label.event) {
			if deactivated.Contains(a.ID) {
				continue
			}
			w := times[a.To] - times[a.From]
			if w < 0 {
				w = 0
			}
			nd := label.dist + w
			if cur, ok := dist[a.To]; !ok || nd < cur {
				dist[a.To] = nd
				prev[a.To] = a.ID
				heap.Push(pq, eventLabel{event: a.To, dist: nd})
			}
		}
	}

	return Path{}, false
}

func reconstruct(prev map[ean.EventID]ean.ActivityID, last ean.EventID, n *ean.Network) []ean.ActivityID {
	var rev []ean.ActivityID
	at := last
	for {
		aid, ok := prev[at]
		if !ok {
			break
		}
		rev = append(rev, aid)
		a, _ := n.Activity(aid)
		at = a.From
	}

	out := make([]ean.ActivityID, len(rev))
	for i, aid := range rev {
		out[len(rev)-1-i] = aid
	}
	return out
}

type eventLabel struct {
	event ean.EventID
	dist  float64
}

// eventQueue orders labels by distance, then event id so that runs are
// reproducible when distances tie.
type eventQueue []eventLabel

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].event < q[j].event
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) { *q = append(*q, x.(eventLabel)) }

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Assignment is the outcome of routing an OD matrix over a timetable.
type Assignment struct {
	// TravelTimes holds door-to-door time per pair; unserved pairs carry
	// the penalty time.
	TravelTimes map[ean.ODPair]float64

	// Loads holds passenger volume per activity, summed over all served
	// pairs whose shortest journey uses it.
	Loads map[ean.ActivityID]float64

	ServedDemand   float64
	UnservedDemand float64

	// UnservedPairs lists pairs with no feasible journey, sorted by
	// origin then destination.
	UnservedPairs []ean.ODPair
}

// Assign routes every OD pair over the timetable and accumulates activity
// loads. Passengers start at time zero. Pairs are processed in sorted order
// so repeated runs produce identical floating-point sums. Pairs without a
// feasible journey contribute unservedPenalty as travel time and no load.
func Assign(n *ean.Network, times ean.Timetable, od ean.ODMatrix, deactivated ean.ActivitySet, unservedPenalty float64) Assignment {
	out := Assignment{
		TravelTimes: make(map[ean.ODPair]float64, len(od)),
		Loads:       make(map[ean.ActivityID]float64),
	}

	for _, pair := range SortedPairs(od) {
		demand := od[pair]
		path, ok := ShortestPath(n, times, pair.Origin, pair.Destination, 0, deactivated)
		if !ok {
			out.TravelTimes[pair] = unservedPenalty
			out.UnservedDemand += demand
			out.UnservedPairs = append(out.UnservedPairs, pair)
			continue
		}
		out.TravelTimes[pair] = path.TravelTime
		out.ServedDemand += demand
		for _, aid := range path.Activities {
			out.Loads[aid] += demand
		}
	}

	return out
}

// AverageTravelTime returns the demand-weighted mean door-to-door time over
// all pairs in the matrix, penalty times included. Zero demand yields zero.
func (a Assignment) AverageTravelTime(od ean.ODMatrix) float64 {
	total := od.TotalDemand()
	if total == 0 {
		return 0
	}
	var weighted float64
	for _, pair := range SortedPairs(od) {
		weighted += od[pair] * a.TravelTimes[pair]
	}
	return weighted / total
}

// SortedPairs returns the matrix keys ordered by origin then destination.
func SortedPairs(od ean.ODMatrix) []ean.ODPair {
	pairs := make([]ean.ODPair, 0, len(od))
	for p := range od {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Origin != pairs[j].Origin {
			return pairs[i].Origin < pairs[j].Origin
		}
		return pairs[i].Destination < pairs[j].Destination
	})
	return pairs
}
