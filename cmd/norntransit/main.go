package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendsincode/norn_transit/internal/config"
	"github.com/friendsincode/norn_transit/internal/logging"
	"github.com/friendsincode/norn_transit/internal/server"
	"github.com/friendsincode/norn_transit/internal/telemetry"
	"github.com/friendsincode/norn_transit/internal/version"
)

// shutdownGrace bounds how long in-flight requests may keep running once a
// stop signal arrives.
const shutdownGrace = 10 * time.Second

var (
	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "norntransit",
	Short: "Norn Transit - Delay management policy evaluator",
	Long:  "Norn Transit evaluates dispatching policies for public transit delay management: it propagates stochastic delays through an event-activity network, solves wait-or-depart decisions at transfers, and compares policies by Monte Carlo simulation.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Norn Transit server",
	Long:  "Start the HTTP API server for submitting and querying simulation runs",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig fills the shared cfg and logger for commands that need them.
func loadConfig() error {
	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = c
	logger = logging.Setup(cfg.Environment)
	return nil
}

// initTracing starts the OTLP tracer when enabled and hands back its
// shutdown hook.
func initTracing(ctx context.Context) (func(), error) {
	tp, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
		ServiceName:    "norn-transit",
		ServiceVersion: version.Version,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TracingEnabled,
		SampleRate:     cfg.TracingSampleRate,
	}, logger)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("tracer shutdown failed")
		}
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	logger.Info().Str("version", version.Version).Msg("Norn Transit starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stopTracing, err := initTracing(ctx)
	if err != nil {
		return fmt.Errorf("initialize tracer: %w", err)
	}
	defer stopTracing()

	srv := server.New(cfg, logger)
	httpServer := srv.HTTPServer()

	listenErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr()).Msg("HTTP server listening")
		listenErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info().Msg("stop signal received, draining")

	graceCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(graceCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := srv.Close(); err != nil {
		logger.Error().Err(err).Msg("shutdown cleanup failed")
	}

	logger.Info().Msg("Norn Transit stopped")
	return nil
}
