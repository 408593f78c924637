/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/friendsincode/norn_transit/internal/api"
	"github.com/friendsincode/norn_transit/internal/config"
	"github.com/friendsincode/norn_transit/internal/telemetry"
	"github.com/friendsincode/norn_transit/internal/version"
)

const (
	// runRetention is how long finished simulation runs stay queryable.
	runRetention = 24 * time.Hour

	pruneInterval = time.Hour
)

// Server bundles the HTTP API and its supporting services.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	api        *api.API
	checker    *version.Checker

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logger zerolog.Logger) *Server {
	for _, warn := range cfg.LegacyEnvWarnings {
		logger.Warn().Msg(warn)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	if cfg.AccessLog {
		router.Use(middleware.Logger)
	}
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.Middleware)
	router.Use(func(next http.Handler) http.Handler {
		timeout := middleware.Timeout(60 * time.Second)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Synchronous simulation runs take as long as the run takes.
			if r.Method == http.MethodPost && r.URL.Path == "/api/v1/simulations" {
				next.ServeHTTP(w, r)
				return
			}
			timeout(next).ServeHTTP(w, r)
		})
	})

	srv := &Server{
		cfg:     cfg,
		logger:  logger,
		router:  router,
		api:     api.New(cfg.SimulationParams(), cfg.Dataset, logger),
		checker: version.NewChecker(logger),
	}

	srv.configureRoutes()
	srv.startBackgroundWorkers()

	srv.httpServer = &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		// Synchronous simulation responses are written only after the run
		// finishes, so no write deadline; the middleware timeout covers
		// everything else.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	return srv
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// API exposes the handler layer.
func (s *Server) API() *api.API {
	return s.api
}

// Close stops background workers.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	return nil
}

func (s *Server) startBackgroundWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	// Update checks only make sense on deployed instances.
	if s.cfg.Environment == "production" {
		s.checker.Start(ctx)
	}

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if dropped := s.api.Store().Prune(runRetention); dropped > 0 {
					s.logger.Info().Int("dropped", dropped).Msg("pruned finished simulation runs")
				}
			}
		}
	}()
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.checker.Stop()
	s.bgWG.Wait()
	s.bgCancel = nil
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	s.router.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.checker.Info())
	})

	s.router.Handle("/metrics", telemetry.Handler())

	s.api.Routes(s.router)
}
