/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package routing

import (
	"math"
	"testing"

	"github.com/friendsincode/norn_transit/internal/ean"
)

func twoLineNetwork(t *testing.T) (*ean.Network, ean.ActivityID) {
	t.Helper()

	n := ean.New()
	depA, _ := n.AddEvent("A", ean.EventDeparture, 0)
	arrB, _ := n.AddEvent("B", ean.EventArrival, 10)
	depB, _ := n.AddEvent("B", ean.EventDeparture, 12)
	arrC, _ := n.AddEvent("C", ean.EventArrival, 26)
	depB2, _ := n.AddEvent("B", ean.EventDeparture, 13)
	arrD, _ := n.AddEvent("D", ean.EventArrival, 20)

	n.AddActivity(ean.ActivityDrive, depA, arrB, 10, false)
	n.AddActivity(ean.ActivityWait, arrB, depB, 2, false)
	n.AddActivity(ean.ActivityDrive, depB, arrC, 14, false)
	n.AddActivity(ean.ActivityDrive, depB2, arrD, 7, false)
	xfer, _ := n.AddActivity(ean.ActivityTransfer, arrB, depB2, 2, true)

	return n, xfer
}

func TestShortestPathDirect(t *testing.T) {
	n, _ := twoLineNetwork(t)

	path, ok := ShortestPath(n, n.PlannedTimetable(), "A", "C", 0, nil)
	if !ok {
		t.Fatal("no path found")
	}
	if path.TravelTime != 26 {
		t.Errorf("travel time = %v, want 26", path.TravelTime)
	}
	want := []ean.ActivityID{0, 1, 2}
	if len(path.Activities) != len(want) {
		t.Fatalf("path = %v, want %v", path.Activities, want)
	}
	for i, aid := range want {
		if path.Activities[i] != aid {
			t.Errorf("path[%d] = %d, want %d", i, path.Activities[i], aid)
		}
	}
}

func TestShortestPathViaTransfer(t *testing.T) {
	n, _ := twoLineNetwork(t)

	path, ok := ShortestPath(n, n.PlannedTimetable(), "A", "D", 0, nil)
	if !ok {
		t.Fatal("no path found")
	}
	if path.TravelTime != 20 {
		t.Errorf("travel time = %v, want 20", path.TravelTime)
	}
	want := []ean.ActivityID{0, 4, 3}
	for i, aid := range want {
		if path.Activities[i] != aid {
			t.Errorf("path[%d] = %d, want %d", i, path.Activities[i], aid)
		}
	}
}

func TestShortestPathExcludesDeactivated(t *testing.T) {
	n, xfer := twoLineNetwork(t)

	if _, ok := ShortestPath(n, n.PlannedTimetable(), "A", "D", 0, ean.NewActivitySet(xfer)); ok {
		t.Error("path found through deactivated transfer")
	}
}

func TestShortestPathStartTimeFiltersDepartures(t *testing.T) {
	n, _ := twoLineNetwork(t)

	// The only departure from A is at time 0, so a passenger ready at
	// time 1 has no journey.
	if _, ok := ShortestPath(n, n.PlannedTimetable(), "A", "C", 1, nil); ok {
		t.Error("path found despite missed departure")
	}
}

func TestShortestPathWaitsForLaterDeparture(t *testing.T) {
	n := ean.New()
	d1, _ := n.AddEvent("A", ean.EventDeparture, 0)
	a1, _ := n.AddEvent("B", ean.EventArrival, 10)
	d2, _ := n.AddEvent("A", ean.EventDeparture, 30)
	a2, _ := n.AddEvent("B", ean.EventArrival, 40)
	n.AddActivity(ean.ActivityDrive, d1, a1, 10, false)
	n.AddActivity(ean.ActivityDrive, d2, a2, 10, false)

	path, ok := ShortestPath(n, n.PlannedTimetable(), "A", "B", 1, nil)
	if !ok {
		t.Fatal("no path found")
	}
	// 29 minutes waiting plus the 10 minute drive.
	if path.TravelTime != 39 {
		t.Errorf("travel time = %v, want 39", path.TravelTime)
	}
}

func TestShortestPathMeasuresFromStartTime(t *testing.T) {
	n, _ := twoLineNetwork(t)
	realized := ean.Timetable{0: 5, 1: 15, 2: 17, 3: 31, 4: 17, 5: 24}

	path, ok := ShortestPath(n, realized, "A", "C", 1, nil)
	if !ok {
		t.Fatal("no path found")
	}
	if path.TravelTime != 30 {
		t.Errorf("travel time = %v, want 30", path.TravelTime)
	}
}

func TestShortestPathClampsNegativeGaps(t *testing.T) {
	n, _ := twoLineNetwork(t)
	// An inverted gap on the last drive must cost zero, not negative.
	times := ean.Timetable{0: 0, 1: 10, 2: 12, 3: 26, 4: 13, 5: 12}

	path, ok := ShortestPath(n, times, "A", "D", 0, nil)
	if !ok {
		t.Fatal("no path found")
	}
	if path.TravelTime != 13 {
		t.Errorf("travel time = %v, want 13", path.TravelTime)
	}
}

func TestAssign(t *testing.T) {
	n, _ := twoLineNetwork(t)
	od := ean.ODMatrix{
		{Origin: "A", Destination: "C"}: 80,
		{Origin: "A", Destination: "D"}: 60,
		{Origin: "B", Destination: "C"}: 40,
		{Origin: "Z", Destination: "C"}: 20,
	}

	got := Assign(n, n.PlannedTimetable(), od, nil, DefaultUnservedPenalty)

	if got.ServedDemand != 180 {
		t.Errorf("ServedDemand = %v, want 180", got.ServedDemand)
	}
	if got.UnservedDemand != 20 {
		t.Errorf("UnservedDemand = %v, want 20", got.UnservedDemand)
	}
	if len(got.UnservedPairs) != 1 || got.UnservedPairs[0].Origin != "Z" {
		t.Errorf("UnservedPairs = %v", got.UnservedPairs)
	}

	wantTimes := map[ean.ODPair]float64{
		{Origin: "A", Destination: "C"}: 26,
		{Origin: "A", Destination: "D"}: 20,
		{Origin: "B", Destination: "C"}: 26,
		{Origin: "Z", Destination: "C"}: 60,
	}
	for pair, want := range wantTimes {
		if got.TravelTimes[pair] != want {
			t.Errorf("travel time %v = %v, want %v", pair, got.TravelTimes[pair], want)
		}
	}

	wantLoads := map[ean.ActivityID]float64{0: 140, 1: 80, 2: 120, 3: 60, 4: 60}
	for aid, want := range wantLoads {
		if got.Loads[aid] != want {
			t.Errorf("load on activity %d = %v, want %v", aid, got.Loads[aid], want)
		}
	}
}

func TestAssignDeactivatedTransferSheds(t *testing.T) {
	n, xfer := twoLineNetwork(t)
	od := ean.ODMatrix{{Origin: "A", Destination: "D"}: 60}

	got := Assign(n, n.PlannedTimetable(), od, ean.NewActivitySet(xfer), DefaultUnservedPenalty)

	if got.ServedDemand != 0 {
		t.Errorf("ServedDemand = %v, want 0", got.ServedDemand)
	}
	if got.UnservedDemand != 60 {
		t.Errorf("UnservedDemand = %v, want 60", got.UnservedDemand)
	}
	if got.TravelTimes[ean.ODPair{Origin: "A", Destination: "D"}] != DefaultUnservedPenalty {
		t.Errorf("penalty time not applied: %v", got.TravelTimes)
	}
	if len(got.Loads) != 0 {
		t.Errorf("loads on deactivated route: %v", got.Loads)
	}
}

func TestAverageTravelTime(t *testing.T) {
	n, _ := twoLineNetwork(t)
	od := ean.ODMatrix{
		{Origin: "A", Destination: "C"}: 80,
		{Origin: "A", Destination: "D"}: 60,
		{Origin: "B", Destination: "C"}: 40,
		{Origin: "Z", Destination: "C"}: 20,
	}

	got := Assign(n, n.PlannedTimetable(), od, nil, DefaultUnservedPenalty)

	// (80*26 + 60*20 + 40*26 + 20*60) / 200 = 27.6
	if avg := got.AverageTravelTime(od); math.Abs(avg-27.6) > 1e-9 {
		t.Errorf("AverageTravelTime = %v, want 27.6", avg)
	}

	if avg := got.AverageTravelTime(ean.ODMatrix{}); avg != 0 {
		t.Errorf("empty matrix: got %v, want 0", avg)
	}
}

func TestSortedPairs(t *testing.T) {
	od := ean.ODMatrix{
		{Origin: "B", Destination: "C"}: 1,
		{Origin: "A", Destination: "D"}: 1,
		{Origin: "A", Destination: "C"}: 1,
	}

	got := SortedPairs(od)
	want := []ean.ODPair{
		{Origin: "A", Destination: "C"},
		{Origin: "A", Destination: "D"},
		{Origin: "B", Destination: "C"},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pair[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
