// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arlofinch/resonare/internal/config"
	"github.com/arlofinch/resonare/internal/metrics"
	"github.com/arlofinch/resonare/internal/middleware"
)

// Router wires handlers and middleware into the HTTP routing tree.
type Router struct {
	handler *Handler
	cfg     *config.APIConfig
}

// NewRouter creates a router.
func NewRouter(handler *Handler, cfg *config.APIConfig) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// Setup builds the chi routing tree with the full middleware stack.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogging)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health endpoints: no rate limit, no prometheus labels.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Core API endpoints.
	r.Route("/api/v1", func(r chi.Router) {
		if !router.cfg.RateLimitDisabled {
			r.Use(router.rateLimiter())
		}
		r.Use(middleware.PrometheusMetrics)

		r.Route("/model", func(r chi.Router) {
			r.Post("/train", router.handler.Train)
			r.Post("/tracks", router.handler.UpdateTracks)
			r.Get("/status", router.handler.Status)
			r.Post("/skipped", router.handler.MarkSkipped)
			r.Delete("/skipped", router.handler.ClearSkipped)
		})

		r.Route("/recommendations/{trackID}", func(r chi.Router) {
			r.Get("/", router.handler.Recommendations)
			r.Get("/explanations", router.handler.Explanations)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// rateLimiter builds the per-IP limiter for API routes.
func (router *Router) rateLimiter() func(http.Handler) http.Handler {
	return httprate.Limit(
		router.cfg.RateLimitReqs,
		router.cfg.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RecordRateLimitHit(r.URL.Path)
			NewResponseWriter(w, r).Error(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "too many requests")
		}),
	)
}
