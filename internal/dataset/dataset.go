/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package dataset ships the built-in evaluation networks. Both are small by
// intent: results stay hand-checkable and a full policy comparison runs in
// well under a second.
package dataset

import (
	"errors"
	"fmt"
	"sort"

	"github.com/friendsincode/norn_transit/internal/ean"
)

const (
	// DatasetDemo is a 4 station, two line network with two controllable
	// transfers, the default evaluation case.
	DatasetDemo = "demo"

	// DatasetTwoLine is a 5 station pair of lines crossing at a hub with
	// bounded transfers in both directions.
	DatasetTwoLine = "twoline"
)

// ErrUnknownDataset indicates a dataset name outside the built-in set.
var ErrUnknownDataset = errors.New("unknown dataset")

// Dataset bundles a network with its demand matrix and the transfers the
// decision engine controls.
type Dataset struct {
	Name      string
	Network   *ean.Network
	Demand    ean.ODMatrix
	Transfers []ean.ActivityID
}

// Load returns the named built-in dataset.
func Load(name string) (Dataset, error) {
	switch name {
	case DatasetDemo:
		return Demo(), nil
	case DatasetTwoLine:
		return TwoLine(), nil
	default:
		return Dataset{}, fmt.Errorf("%q: %w", name, ErrUnknownDataset)
	}
}

// Names lists the built-in dataset names in sorted order.
func Names() []string {
	names := []string{DatasetDemo, DatasetTwoLine}
	sort.Strings(names)
	return names
}

// Demo builds the 4 station network. A feeder line A-B-C connects at B onto
// a branch B-D whose train continues D-C, giving two controllable transfers:
// hold the branch train at B for the feeder, and hold the C train at D for
// the branch.
func Demo() Dataset {
	n := ean.New()

	aDep, _ := n.AddEvent("A", ean.EventDeparture, 0)
	bArr, _ := n.AddEvent("B", ean.EventArrival, 10)
	bDep, _ := n.AddEvent("B", ean.EventDeparture, 12)
	cArr, _ := n.AddEvent("C", ean.EventArrival, 26)
	bDep2, _ := n.AddEvent("B", ean.EventDeparture, 13)
	dArr, _ := n.AddEvent("D", ean.EventArrival, 20)
	dDep, _ := n.AddEvent("D", ean.EventDeparture, 22)
	cArr2, _ := n.AddEvent("C", ean.EventArrival, 31)

	n.AddActivity(ean.ActivityDrive, aDep, bArr, 10, false)
	n.AddActivity(ean.ActivityDrive, bDep, cArr, 14, false)
	n.AddActivity(ean.ActivityDrive, bDep2, dArr, 7, false)
	n.AddActivity(ean.ActivityDrive, dDep, cArr2, 9, false)
	n.AddActivity(ean.ActivityWait, bArr, bDep, 2, false)
	holdAtB, _ := n.AddActivity(ean.ActivityTransfer, bArr, bDep2, 2, true)
	holdAtD, _ := n.AddActivity(ean.ActivityTransfer, dArr, dDep, 1, true)

	return Dataset{
		Name:    DatasetDemo,
		Network: n,
		Demand: ean.ODMatrix{
			{Origin: "A", Destination: "D"}: 60,
			{Origin: "A", Destination: "C"}: 80,
			{Origin: "B", Destination: "C"}: 40,
			{Origin: "D", Destination: "C"}: 20,
		},
		Transfers: []ean.ActivityID{holdAtB, holdAtD},
	}
}

// TwoLine builds a 5 station network: line one serves S1 through S5 with a
// stop at every station, line two runs express S1-S3-S5. The lines exchange
// passengers at S3 through bounded transfers in both directions.
func TwoLine() Dataset {
	n := ean.New()

	l1S1Dep, _ := n.AddEvent("S1", ean.EventDeparture, 0)
	l1S2Arr, _ := n.AddEvent("S2", ean.EventArrival, 10)
	l1S2Dep, _ := n.AddEvent("S2", ean.EventDeparture, 12)
	l1S3Arr, _ := n.AddEvent("S3", ean.EventArrival, 22)
	l1S3Dep, _ := n.AddEvent("S3", ean.EventDeparture, 24)
	l1S4Arr, _ := n.AddEvent("S4", ean.EventArrival, 34)
	l1S4Dep, _ := n.AddEvent("S4", ean.EventDeparture, 36)
	l1S5Arr, _ := n.AddEvent("S5", ean.EventArrival, 46)

	l2S1Dep, _ := n.AddEvent("S1", ean.EventDeparture, 5)
	l2S3Arr, _ := n.AddEvent("S3", ean.EventArrival, 20)
	l2S3Dep, _ := n.AddEvent("S3", ean.EventDeparture, 23)
	l2S5Arr, _ := n.AddEvent("S5", ean.EventArrival, 40)

	n.AddActivity(ean.ActivityDrive, l1S1Dep, l1S2Arr, 10, false)
	n.AddActivity(ean.ActivityWait, l1S2Arr, l1S2Dep, 2, false)
	n.AddActivity(ean.ActivityDrive, l1S2Dep, l1S3Arr, 10, false)
	n.AddActivity(ean.ActivityWait, l1S3Arr, l1S3Dep, 2, false)
	n.AddActivity(ean.ActivityDrive, l1S3Dep, l1S4Arr, 10, false)
	n.AddActivity(ean.ActivityWait, l1S4Arr, l1S4Dep, 2, false)
	n.AddActivity(ean.ActivityDrive, l1S4Dep, l1S5Arr, 10, false)

	n.AddActivity(ean.ActivityDrive, l2S1Dep, l2S3Arr, 15, false)
	n.AddActivity(ean.ActivityWait, l2S3Arr, l2S3Dep, 3, false)
	n.AddActivity(ean.ActivityDrive, l2S3Dep, l2S5Arr, 17, false)

	expressToLocal, _ := n.AddBoundedActivity(ean.ActivityTransfer, l2S3Arr, l1S3Dep, 3, 10, true)
	localToExpress, _ := n.AddBoundedActivity(ean.ActivityTransfer, l1S3Arr, l2S3Dep, 1, 5, true)

	return Dataset{
		Name:    DatasetTwoLine,
		Network: n,
		Demand: ean.ODMatrix{
			{Origin: "S1", Destination: "S5"}: 50,
			{Origin: "S1", Destination: "S4"}: 40,
			{Origin: "S2", Destination: "S5"}: 30,
			{Origin: "S2", Destination: "S3"}: 20,
		},
		Transfers: []ean.ActivityID{expressToLocal, localToExpress},
	}
}
