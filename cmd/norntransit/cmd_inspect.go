/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/friendsincode/norn_transit/internal/dataset"
	"github.com/friendsincode/norn_transit/internal/ean"
	"github.com/friendsincode/norn_transit/internal/propagation"
)

// Inspect flags
var (
	inspectDataset string
	inspectSource  int
	inspectDelay   float64
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print a dataset's network, slack, and critical activities",
	Long: `Prints the events and activities of a dataset together with each activity's
slack on the planned timetable and the critical activities along which delays
propagate without buffer. With --source, also propagates a single delayed
event and prints the resulting earliest feasible times.

Examples:
  norntransit inspect
  norntransit inspect --dataset twoline
  norntransit inspect --source 1 --delay 5`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&inspectDataset, "dataset", "", "Built-in dataset name or YAML dataset file (default from config)")
	inspectCmd.Flags().IntVar(&inspectSource, "source", -1, "Event id to delay for an earliest-times pass")
	inspectCmd.Flags().Float64Var(&inspectDelay, "delay", 5, "Source delay in minutes for --source")
}

func runInspect(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	name := inspectDataset
	if name == "" {
		name = cfg.Dataset
	}
	ds, err := dataset.Resolve(name)
	if err != nil {
		return err
	}

	n := ds.Network
	planned := n.PlannedTimetable()

	fmt.Printf("dataset %s: %d events, %d activities, %d OD pairs, total demand %.0f\n",
		ds.Name, n.NumEvents(), n.NumActivities(), len(ds.Demand), ds.Demand.TotalDemand())

	fmt.Println("\n=== EVENTS ===")
	for _, e := range n.Events() {
		fmt.Printf("%3d  %-4s %-9s planned=%g\n", e.ID, e.Station, e.Type, e.PlannedTime)
	}

	fmt.Println("\n=== ACTIVITIES ===")
	for _, a := range n.Activities() {
		line := fmt.Sprintf("%3d  %-8s %d->%d min=%g", a.ID, a.Type, a.From, a.To, a.MinDuration)
		if a.MaxDuration != nil {
			line += fmt.Sprintf(" max=%g", *a.MaxDuration)
		}
		if a.Controllable {
			line += " controllable"
		}
		fmt.Printf("%s slack=%g\n", line, propagation.Slack(a, planned))
	}

	fmt.Printf("\ncritical activities on the planned timetable: %v\n",
		propagation.CriticalActivities(n, planned))

	if inspectSource >= 0 {
		if _, ok := n.Event(ean.EventID(inspectSource)); !ok {
			return fmt.Errorf("event %d not in dataset %s", inspectSource, ds.Name)
		}
		times := propagation.EarliestTimes(n, ean.EventID(inspectSource), inspectDelay, nil)

		fmt.Printf("\n=== EARLIEST TIMES (event %d delayed %g) ===\n", inspectSource, inspectDelay)
		for _, e := range n.Events() {
			marker := ""
			if times[e.ID] > e.PlannedTime {
				marker = "  (+" + fmt.Sprintf("%g", times[e.ID]-e.PlannedTime) + ")"
			}
			fmt.Printf("%3d  %-4s %-9s planned=%g realized=%g%s\n",
				e.ID, e.Station, e.Type, e.PlannedTime, times[e.ID], marker)
		}
	}

	return nil
}
