/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/friendsincode/norn_transit/internal/dataset"
	"github.com/friendsincode/norn_transit/internal/ean"
	"github.com/friendsincode/norn_transit/internal/propagation"
	"github.com/friendsincode/norn_transit/internal/simulation"
	"github.com/friendsincode/norn_transit/internal/telemetry"
	"github.com/friendsincode/norn_transit/internal/version"
)

// API exposes HTTP handlers.
type API struct {
	defaults   simulation.Params
	defDataset string
	store      *RunStore
	logger     zerolog.Logger
}

// New creates the API router wrapper. Defaults fill in whatever a simulation
// request leaves unset.
func New(defaults simulation.Params, defaultDataset string, logger zerolog.Logger) *API {
	return &API{
		defaults:   defaults,
		defDataset: defaultDataset,
		store:      NewRunStore(),
		logger:     logger.With().Str("component", "api").Logger(),
	}
}

// Store exposes the run store for maintenance loops.
func (a *API) Store() *RunStore { return a.store }

// simulationRequest is the POST /simulations body. Zero values fall back to
// the configured defaults; pointer fields distinguish absent from zero where
// zero is meaningful.
type simulationRequest struct {
	Dataset         string   `json:"dataset"`
	Runs            int      `json:"runs"`
	Distribution    string   `json:"distribution"`
	Seed            *int64   `json:"seed"`
	Backend         string   `json:"solver_backend"`
	MissPenalty     *float64 `json:"penalty_t"`
	RuleThreshold   *float64 `json:"rule_threshold"`
	UnservedPenalty *float64 `json:"unserved_penalty"`
	MissRateBase    string   `json:"miss_rate_base"`
	Workers         int      `json:"workers"`
	Async           bool     `json:"async"`
}

type transferSummary struct {
	ID          ean.ActivityID `json:"id"`
	From        ean.EventID    `json:"from"`
	To          ean.EventID    `json:"to"`
	MinDuration float64        `json:"min_duration"`
	MaxDuration *float64       `json:"max_duration,omitempty"`
	Slack       float64        `json:"slack"`
}

type networkSummary struct {
	Dataset     string            `json:"dataset"`
	Stations    []string          `json:"stations"`
	Events      int               `json:"events"`
	Activities  int               `json:"activities"`
	ODPairs     int               `json:"od_pairs"`
	TotalDemand float64           `json:"total_demand"`
	Transfers   []transferSummary `json:"transfers"`
	Critical    []ean.ActivityID  `json:"critical_activities"`
}

// Routes mounts API routes on provided router.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)
		r.Get("/datasets", a.handleDatasets)
		r.Get("/network", a.handleNetwork)

		r.Route("/simulations", func(r chi.Router) {
			r.Get("/", a.handleSimulationsList)
			r.Post("/", a.handleSimulationsCreate)
			r.Get("/{runID}", a.handleSimulationsGet)
		})
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func (a *API) handleDatasets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"datasets": dataset.Names()})
}

func (a *API) handleNetwork(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("dataset")
	if name == "" {
		name = a.defDataset
	}

	ds, err := dataset.Load(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_dataset")
		return
	}

	planned := ds.Network.PlannedTimetable()

	seen := make(map[string]bool)
	var stations []string
	for _, e := range ds.Network.Events() {
		if !seen[e.Station] {
			seen[e.Station] = true
			stations = append(stations, e.Station)
		}
	}
	sort.Strings(stations)

	transfers := make([]transferSummary, 0, len(ds.Transfers))
	for _, aid := range ds.Transfers {
		act, ok := ds.Network.Activity(aid)
		if !ok {
			continue
		}
		transfers = append(transfers, transferSummary{
			ID:          act.ID,
			From:        act.From,
			To:          act.To,
			MinDuration: act.MinDuration,
			MaxDuration: act.MaxDuration,
			Slack:       propagation.Slack(act, planned),
		})
	}

	writeJSON(w, http.StatusOK, networkSummary{
		Dataset:     ds.Name,
		Stations:    stations,
		Events:      ds.Network.NumEvents(),
		Activities:  ds.Network.NumActivities(),
		ODPairs:     len(ds.Demand),
		TotalDemand: ds.Demand.TotalDemand(),
		Transfers:   transfers,
		Critical:    propagation.CriticalActivities(ds.Network, planned),
	})
}

func (a *API) handleSimulationsCreate(w http.ResponseWriter, r *http.Request) {
	var req simulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	p := a.defaults
	if req.Runs != 0 {
		p.Runs = req.Runs
	}
	if req.Distribution != "" {
		p.Distribution = req.Distribution
	}
	if req.Seed != nil {
		p.Seed = *req.Seed
	}
	if req.Backend != "" {
		p.Backend = req.Backend
	}
	if req.MissPenalty != nil {
		p.MissPenalty = *req.MissPenalty
	}
	if req.RuleThreshold != nil {
		p.RuleThreshold = *req.RuleThreshold
	}
	if req.UnservedPenalty != nil {
		p.UnservedPenalty = *req.UnservedPenalty
	}
	if req.MissRateBase != "" {
		p.MissRateBase = req.MissRateBase
	}
	if req.Workers != 0 {
		p.Workers = req.Workers
	}

	name := req.Dataset
	if name == "" {
		name = a.defDataset
	}
	ds, err := dataset.Load(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_dataset")
		return
	}

	runner, err := simulation.NewRunner(p, a.logger)
	if err != nil {
		a.logger.Debug().Err(err).Msg("rejected simulation request")
		writeError(w, http.StatusBadRequest, "invalid_params")
		return
	}

	id := a.store.Create(ds.Name)

	if req.Async {
		go a.execute(context.Background(), id, runner, ds)
		run, _ := a.store.Get(id)
		writeJSON(w, http.StatusAccepted, run)
		return
	}

	a.execute(r.Context(), id, runner, ds)
	run, _ := a.store.Get(id)
	status := http.StatusOK
	if run.Status == StatusFailed {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, run)
}

// execute drives one run through the store lifecycle. The stored report
// carries the store's run id.
func (a *API) execute(ctx context.Context, id string, runner *simulation.Runner, ds dataset.Dataset) {
	ctx, span := telemetry.StartSpan(ctx, "api", "execute")
	defer span.End()
	telemetry.AddSpanAttributes(span, map[string]any{
		"run_id":  id,
		"dataset": ds.Name,
	})

	a.store.SetRunning(id)

	rep, err := runner.Run(ctx, ds)
	if err != nil {
		telemetry.RecordError(span, err)
		a.logger.Error().Err(err).Str("run_id", id).Msg("simulation failed")
		a.store.Fail(id, err)
		return
	}

	rep.Meta.RunID = id
	a.store.Complete(id, rep)
}

func (a *API) handleSimulationsList(w http.ResponseWriter, r *http.Request) {
	runs := a.store.List()
	// Reports stay behind the per-run endpoint.
	for i := range runs {
		runs[i].Report = nil
	}
	writeJSON(w, http.StatusOK, map[string][]Run{"runs": runs})
}

func (a *API) handleSimulationsGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "runID")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_run_id")
		return
	}

	run, ok := a.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
