/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/friendsincode/norn_transit/internal/simulation"
)

// Run lifecycle states.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one submitted simulation and its lifecycle. Report is attached once
// the run completes and is immutable afterwards.
type Run struct {
	ID          string             `json:"id"`
	Status      string             `json:"status"`
	Dataset     string             `json:"dataset"`
	SubmittedAt time.Time          `json:"submitted_at"`
	FinishedAt  *time.Time         `json:"finished_at,omitempty"`
	Error       string             `json:"error,omitempty"`
	Report      *simulation.Report `json:"report,omitempty"`
}

// RunStore keeps submitted runs in memory, keyed by run id. Results are not
// persisted; a restart forgets them.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewRunStore returns an empty store.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]*Run)}
}

// Create registers a pending run and returns its id.
func (s *RunStore) Create(dataset string) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.runs[id] = &Run{
		ID:          id,
		Status:      StatusPending,
		Dataset:     dataset,
		SubmittedAt: time.Now().UTC(),
	}
	s.mu.Unlock()
	return id
}

// SetRunning marks the run as in progress.
func (s *RunStore) SetRunning(id string) {
	s.mu.Lock()
	if r, ok := s.runs[id]; ok {
		r.Status = StatusRunning
	}
	s.mu.Unlock()
}

// Complete attaches the finished report and marks the run completed.
func (s *RunStore) Complete(id string, rep *simulation.Report) {
	now := time.Now().UTC()
	s.mu.Lock()
	if r, ok := s.runs[id]; ok {
		r.Status = StatusCompleted
		r.Report = rep
		r.FinishedAt = &now
	}
	s.mu.Unlock()
}

// Fail records the error and marks the run failed.
func (s *RunStore) Fail(id string, err error) {
	now := time.Now().UTC()
	s.mu.Lock()
	if r, ok := s.runs[id]; ok {
		r.Status = StatusFailed
		r.Error = err.Error()
		r.FinishedAt = &now
	}
	s.mu.Unlock()
}

// Get returns a copy of the run.
func (s *RunStore) Get(id string) (Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return Run{}, false
	}
	return *r, true
}

// List returns a copy of every run, newest submission first.
func (s *RunStore) List() []Run {
	s.mu.RLock()
	out := make([]Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, *r)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Prune drops finished runs older than maxAge and reports how many went.
// Pending and running entries always survive.
func (s *RunStore) Prune(maxAge time.Duration) int {
	cutoff := time.Now().UTC().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()
	var dropped int
	for id, r := range s.runs {
		if r.FinishedAt == nil {
			continue
		}
		if r.FinishedAt.Before(cutoff) {
			delete(s.runs, id)
			dropped++
		}
	}
	return dropped
}
