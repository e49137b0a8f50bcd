// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

// Package main is the entry point for the Resonare server.
//
// Resonare serves content-based music recommendations over HTTP. A
// track catalog lives in DuckDB; the similarity model is trained from
// the catalog (or from request payloads) and answers nearest-neighbor
// queries over standardized audio attributes plus weighted artist and
// year signals.
//
// # Startup order
//
//  1. Configuration: Koanf v2 layering (defaults, config.yaml, env vars)
//  2. Logging: zerolog, configured from LOG_LEVEL / LOG_FORMAT
//  3. Catalog: DuckDB store at DUCKDB_PATH (empty path = in-memory)
//  4. Model: untrained similarity model with configured weights
//  5. Supervisor tree: bootstrap service (CSV import + initial training)
//     in the data layer, HTTP server in the API layer
//
// # Configuration
//
// Environment variables override config.yaml, which overrides built-in
// defaults. Commonly used variables:
//
//	HTTP_PORT=8080
//	DUCKDB_PATH=/data/resonare.duckdb
//	IMPORT_CSV_PATH=/data/tracks.csv
//	ARTIST_WEIGHT=100
//	YEAR_WEIGHT=10
//	TRAIN_ON_STARTUP=true
//	LOG_LEVEL=info
//
// # Signal handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server stops
// accepting connections, in-flight requests get the configured shutdown
// timeout, then the catalog is closed.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arlofinch/resonare/internal/api"
	"github.com/arlofinch/resonare/internal/catalog"
	"github.com/arlofinch/resonare/internal/config"
	"github.com/arlofinch/resonare/internal/logging"
	"github.com/arlofinch/resonare/internal/recommend"
	"github.com/arlofinch/resonare/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", api.Version).
		Str("db_path", cfg.Database.Path).
		Float64("artist_weight", cfg.Recommend.ArtistWeight).
		Float64("year_weight", cfg.Recommend.YearWeight).
		Msg("Starting Resonare")

	store, err := catalog.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize catalog")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing catalog")
		}
	}()
	logging.Info().Msg("Catalog initialized")

	model, err := recommend.NewModel(&recommend.Config{
		ArtistWeight: cfg.Recommend.ArtistWeight,
		YearWeight:   cfg.Recommend.YearWeight,
		Limits: recommend.Limits{
			DefaultN: cfg.Recommend.DefaultN,
			MaxN:     cfg.Recommend.MaxN,
		},
		Seed: cfg.Recommend.Seed,
	}, logging.WithComponent("model"))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create recommendation model")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	tree.AddDataService(supervisor.NewBootstrapService(
		store, model, cfg.Import.CSVPath, cfg.Recommend.TrainOnStartup))

	handler := api.NewHandler(model, store, cfg.Recommend.DefaultN)
	router := api.NewRouter(handler, &cfg.API)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain until the supervisor finishes shutting down.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Resonare stopped gracefully")
}
