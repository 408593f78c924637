/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package ean models a transit timetable as an event-activity network: a
// directed graph whose nodes are scheduled arrival/departure events and whose
// edges are activities (drive, wait, transfer) with minimum durations.
package ean

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidReference indicates an activity endpoint that does not exist.
	ErrInvalidReference = errors.New("activity endpoint does not exist")

	// ErrInvalidType indicates an event or activity type outside the recognized set.
	ErrInvalidType = errors.New("unrecognized type")
)

// EventID identifies an event within a network.
type EventID int

// ActivityID identifies an activity within a network.
type ActivityID int

// EventType enumerates event kinds.
type EventType string

const (
	EventArrival   EventType = "arrival"
	EventDeparture EventType = "departure"
)

// Valid reports whether t is a recognized event type.
func (t EventType) Valid() bool {
	return t == EventArrival || t == EventDeparture
}

// ActivityType enumerates activity kinds.
type ActivityType string

const (
	ActivityDrive    ActivityType = "drive"
	ActivityWait     ActivityType = "wait"
	ActivityTransfer ActivityType = "transfer"
)

// Valid reports whether t is a recognized activity type.
func (t ActivityType) Valid() bool {
	return t == ActivityDrive || t == ActivityWait || t == ActivityTransfer
}

// Event is a scheduled arrival or departure at a station. Times are minutes
// from the schedule epoch. Events are immutable after creation; realized
// times live in Timetable maps, never on the event itself.
type Event struct {
	ID          EventID
	Station     string
	Type        EventType
	PlannedTime float64
}

// Activity is a directed edge between two events with a minimum duration.
// MaxDuration is optional and only meaningful for bounded transfer-style
// activities; nil means unbounded above. Controllable marks transfers whose
// wait-or-depart outcome is a decision variable.
type Activity struct {
	ID           ActivityID
	Type         ActivityType
	From         EventID
	To           EventID
	MinDuration  float64
	MaxDuration  *float64
	Controllable bool
}

// Network is an append-only event-activity network. IDs are dense and
// strictly increasing from zero in creation order. There is no deletion;
// policies exclude activities by passing an ActivitySet to the propagation
// and routing engines instead of mutating the graph.
type Network struct {
	events     []Event
	activities []Activity

	outgoing [][]ActivityID
	incoming [][]ActivityID

	stationDepartures map[string][]EventID
	stationArrivals   map[string][]EventID
}

// New creates an empty network.
func New() *Network {
	return &Network{
		stationDepartures: make(map[string][]EventID),
		stationArrivals:   make(map[string][]EventID),
	}
}

// AddEvent appends an event and returns its id.
func (n *Network) AddEvent(station string, typ EventType, plannedTime float64) (EventID, error) {
	if !typ.Valid() {
		return 0, fmt.Errorf("event type %q: %w", typ, ErrInvalidType)
	}

	id := EventID(len(n.events))
	n.events = append(n.events, Event{
		ID:          id,
		Station:     station,
		Type:        typ,
		PlannedTime: plannedTime,
	})
	n.outgoing = append(n.outgoing, nil)
	n.incoming = append(n.incoming, nil)

	switch typ {
	case EventDeparture:
		n.stationDepartures[station] = append(n.stationDepartures[station], id)
	case EventArrival:
		n.stationArrivals[station] = append(n.stationArrivals[station], id)
	}

	return id, nil
}

// AddActivity appends an unbounded activity and returns its id.
func (n *Network) AddActivity(typ ActivityType, from, to EventID, minDuration float64, controllable bool) (ActivityID, error) {
	return n.addActivity(typ, from, to, minDuration, nil, controllable)
}

// AddBoundedActivity appends an activity carrying an upper duration bound,
// as used by bounded transfers. maxDuration must not undercut minDuration.
func (n *Network) AddBoundedActivity(typ ActivityType, from, to EventID, minDuration, maxDuration float64, controllable bool) (ActivityID, error) {
	if maxDuration < minDuration {
		return 0, fmt.Errorf("max duration %v below min duration %v: %w", maxDuration, minDuration, ErrInvalidType)
	}
	return n.addActivity(typ, from, to, minDuration, &maxDuration, controllable)
}

func (n *Network) addActivity(typ ActivityType, from, to EventID, minDuration float64, maxDuration *float64, controllable bool) (ActivityID, error) {
	if !typ.Valid() {
		return 0, fmt.Errorf("activity type %q: %w", typ, ErrInvalidType)
	}
	if !n.hasEvent(from) {
		return 0, fmt.Errorf("from event %d: %w", from, ErrInvalidReference)
	}
	if !n.hasEvent(to) {
		return 0, fmt.Errorf("to event %d: %w", to, ErrInvalidReference)
	}
	if minDuration < 0 {
		return 0, fmt.Errorf("negative min duration %v: %w", minDuration, ErrInvalidType)
	}

	id := ActivityID(len(n.activities))
	n.activities = append(n.activities, Activity{
		ID:           id,
		Type:         typ,
		From:         from,
		To:           to,
		MinDuration:  minDuration,
		MaxDuration:  maxDuration,
		Controllable: controllable,
	})
	n.outgoing[from] = append(n.outgoing[from], id)
	n.incoming[to] = append(n.incoming[to], id)

	return id, nil
}

func (n *Network) hasEvent(id EventID) bool {
	return id >= 0 && int(id) < len(n.events)
}

// Event returns the event with the given id.
func (n *Network) Event(id EventID) (Event, bool) {
	if !n.hasEvent(id) {
		return Event{}, false
	}
	return n.events[id], true
}

// Activity returns the activity with the given id.
func (n *Network) Activity(id ActivityID) (Activity, bool) {
	if id < 0 || int(id) >= len(n.activities) {
		return Activity{}, false
	}
	return n.activities[id], true
}

// NumEvents returns the event count.
func (n *Network) NumEvents() int { return len(n.events) }

// NumActivities returns the activity count.
func (n *Network) NumActivities() int { return len(n.activities) }

// Events returns all events in id order. The slice is a snapshot.
func (n *Network) Events() []Event {
	out := make([]Event, len(n.events))
	copy(out, n.events)
	return out
}

// Activities returns all activities in id order. The slice is a snapshot.
func (n *Network) Activities() []Activity {
	out := make([]Activity, len(n.activities))
	copy(out, n.activities)
	return out
}

// Outgoing returns the activities departing the given event. The slice is a
// snapshot; it does not track later additions.
func (n *Network) Outgoing(id EventID) []Activity {
	if !n.hasEvent(id) {
		return nil
	}
	out := make([]Activity, 0, len(n.outgoing[id]))
	for _, aid := range n.outgoing[id] {
		out = append(out, n.activities[aid])
	}
	return out
}

// Incoming returns the activities ending at the given event. The slice is a
// snapshot.
func (n *Network) Incoming(id EventID) []Activity {
	if !n.hasEvent(id) {
		return nil
	}
	out := make([]Activity, 0, len(n.incoming[id]))
	for _, aid := range n.incoming[id] {
		out = append(out, n.activities[aid])
	}
	return out
}

// StationDepartures returns the departure event ids at a station, in
// creation order. The slice is a snapshot.
func (n *Network) StationDepartures(station string) []EventID {
	return append([]EventID(nil), n.stationDepartures[station]...)
}

// StationArrivals returns the arrival event ids at a station, in creation
// order. The slice is a snapshot.
func (n *Network) StationArrivals(station string) []EventID {
	return append([]EventID(nil), n.stationArrivals[station]...)
}

// ControllableActivities returns the ids of all controllable activities in
// id order.
func (n *Network) ControllableActivities() []ActivityID {
	var out []ActivityID
	for _, a := range n.activities {
		if a.Controllable {
			out = append(out, a.ID)
		}
	}
	return out
}

// PlannedTimetable returns a fresh timetable holding every event's planned
// time.
func (n *Network) PlannedTimetable() Timetable {
	tt := make(Timetable, len(n.events))
	for _, e := range n.events {
		tt[e.ID] = e.PlannedTime
	}
	return tt
}
