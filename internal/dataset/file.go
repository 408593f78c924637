/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/friendsincode/norn_transit/internal/ean"
)

// ErrInvalidDataset indicates a dataset file whose content fails validation.
var ErrInvalidDataset = errors.New("invalid dataset")

// fileSchema mirrors the YAML layout of a dataset file. Activity endpoints
// reference events by list position, which is also their network id.
type fileSchema struct {
	Name   string `yaml:"name"`
	Events []struct {
		Station string  `yaml:"station"`
		Type    string  `yaml:"type"`
		Time    float64 `yaml:"time"`
	} `yaml:"events"`
	Activities []struct {
		Type         string   `yaml:"type"`
		From         int      `yaml:"from"`
		To           int      `yaml:"to"`
		MinDuration  float64  `yaml:"min_duration"`
		MaxDuration  *float64 `yaml:"max_duration"`
		Controllable bool     `yaml:"controllable"`
	} `yaml:"activities"`
	Demand []struct {
		Origin      string  `yaml:"origin"`
		Destination string  `yaml:"destination"`
		Passengers  float64 `yaml:"passengers"`
	} `yaml:"demand"`
}

// LoadFile reads a dataset definition from a YAML file. Controllable
// activities become the dispatching decision variables.
func LoadFile(path string) (Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset file: %w", err)
	}

	var spec fileSchema
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return Dataset{}, fmt.Errorf("parse dataset file %s: %w", path, err)
	}

	if len(spec.Events) == 0 {
		return Dataset{}, fmt.Errorf("%s has no events: %w", path, ErrInvalidDataset)
	}

	n := ean.New()
	for i, ev := range spec.Events {
		if _, err := n.AddEvent(ev.Station, ean.EventType(ev.Type), ev.Time); err != nil {
			return Dataset{}, fmt.Errorf("event %d: %w", i, err)
		}
	}
	for i, act := range spec.Activities {
		from, to := ean.EventID(act.From), ean.EventID(act.To)
		typ := ean.ActivityType(act.Type)
		if act.MaxDuration != nil {
			if _, err := n.AddBoundedActivity(typ, from, to, act.MinDuration, *act.MaxDuration, act.Controllable); err != nil {
				return Dataset{}, fmt.Errorf("activity %d: %w", i, err)
			}
			continue
		}
		if _, err := n.AddActivity(typ, from, to, act.MinDuration, act.Controllable); err != nil {
			return Dataset{}, fmt.Errorf("activity %d: %w", i, err)
		}
	}

	demand := make(ean.ODMatrix, len(spec.Demand))
	for i, d := range spec.Demand {
		if d.Passengers < 0 {
			return Dataset{}, fmt.Errorf("demand %d: negative passenger count %v: %w", i, d.Passengers, ErrInvalidDataset)
		}
		if len(n.StationDepartures(d.Origin)) == 0 {
			return Dataset{}, fmt.Errorf("demand %d: origin %q has no departures: %w", i, d.Origin, ErrInvalidDataset)
		}
		if len(n.StationArrivals(d.Destination)) == 0 {
			return Dataset{}, fmt.Errorf("demand %d: destination %q has no arrivals: %w", i, d.Destination, ErrInvalidDataset)
		}
		pair := ean.ODPair{Origin: d.Origin, Destination: d.Destination}
		if _, dup := demand[pair]; dup {
			return Dataset{}, fmt.Errorf("demand %d: duplicate pair %s-%s: %w", i, d.Origin, d.Destination, ErrInvalidDataset)
		}
		demand[pair] = d.Passengers
	}

	name := spec.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return Dataset{
		Name:      name,
		Network:   n,
		Demand:    demand,
		Transfers: n.ControllableActivities(),
	}, nil
}

// Resolve loads a builtin dataset by name, falling back to LoadFile when the
// argument names an existing file instead.
func Resolve(nameOrPath string) (Dataset, error) {
	ds, err := Load(nameOrPath)
	if err == nil {
		return ds, nil
	}
	if _, statErr := os.Stat(nameOrPath); statErr == nil {
		return LoadFile(nameOrPath)
	}
	return Dataset{}, err
}
