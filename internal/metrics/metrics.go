// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

// Package metrics exposes Prometheus instrumentation for the model
// lifecycle, the query path, the track catalog and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Model lifecycle metrics
	ModelTrainDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "model_train_duration_seconds",
			Help:    "Duration of model train and update operations in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"}, // "train", "update"
	)

	ModelTrainRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_train_runs_total",
			Help: "Total number of train and update operations",
		},
		[]string{"operation", "result"}, // result: "ok", "error"
	)

	ModelTracks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_tracks",
			Help: "Number of tracks in the current model snapshot",
		},
	)

	ModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_version",
			Help: "Version of the current model snapshot (increments on train and update)",
		},
	)

	// Query path metrics
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_query_duration_seconds",
			Help:    "Duration of recommendation queries in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
		[]string{"mode"}, // "exact", "diverse", "explain"
	)

	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_queries_total",
			Help: "Total number of recommendation queries",
		},
		[]string{"mode", "result"}, // result: "ok", "not_found", "untrained", "invalid", "error"
	)

	// Catalog metrics
	CatalogQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB catalog queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CatalogQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB catalog query errors",
		},
		[]string{"operation"},
	)

	CatalogTracks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_tracks",
			Help: "Number of tracks persisted in the catalog",
		},
	)

	CatalogImportRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_import_rows_total",
			Help: "Total number of rows processed by CSV import",
		},
		[]string{"result"}, // "imported", "skipped"
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)
)

// RecordTrain records a train or update operation.
func RecordTrain(operation string, duration time.Duration, err error) {
	ModelTrainDuration.WithLabelValues(operation).Observe(duration.Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	ModelTrainRuns.WithLabelValues(operation, result).Inc()
}

// UpdateModelState updates the snapshot gauges after a successful train or
// update.
func UpdateModelState(tracks, version int) {
	ModelTracks.Set(float64(tracks))
	ModelVersion.Set(float64(version))
}

// RecordQuery records a recommendation query and its outcome.
func RecordQuery(mode, result string, duration time.Duration) {
	QueryDuration.WithLabelValues(mode).Observe(duration.Seconds())
	QueriesTotal.WithLabelValues(mode, result).Inc()
}

// RecordCatalogQuery records a catalog operation.
func RecordCatalogQuery(operation string, duration time.Duration, err error) {
	CatalogQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		CatalogQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordImportRows records the outcome counts of a CSV import.
func RecordImportRows(imported, skipped int) {
	CatalogImportRows.WithLabelValues("imported").Add(float64(imported))
	CatalogImportRows.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordRateLimitHit records a rate limit rejection for an endpoint.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordAPIRequest records a completed API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
