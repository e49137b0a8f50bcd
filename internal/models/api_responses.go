// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

package models

import (
	"time"

	"github.com/arlofinch/resonare/internal/recommend"
)

// APIResponse is the standardized response wrapper used by all HTTP
// endpoints.
//
// Status is "success" or "error". Data carries the payload on success;
// Error carries structured details on failure. Metadata is always
// present.
//
// Example:
//
//	{
//	  "status": "success",
//	  "data": {"recommendations": [...]},
//	  "metadata": {"timestamp": "2026-08-23T12:00:00Z", "query_time_ms": 4}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is a structured error payload.
//
// Common codes:
//   - VALIDATION_ERROR: invalid input parameters
//   - NOT_FOUND: unknown track identifier
//   - MODEL_UNTRAINED: query before the model was trained
//   - DUPLICATE_TRACK: update with an existing identifier
//   - RATE_LIMIT_EXCEEDED: too many requests
//   - INTERNAL_ERROR: unexpected failure
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// TrainRequest is the body of POST /api/v1/model/train. Tracks may be
// omitted to train from the persisted catalog. Zero weights select the
// configured defaults.
type TrainRequest struct {
	Tracks       []recommend.Track `json:"tracks,omitempty"`
	ArtistWeight float64           `json:"artist_weight,omitempty" validate:"gte=0"`
	YearWeight   float64           `json:"year_weight,omitempty" validate:"gte=0"`
}

// UpdateRequest is the body of POST /api/v1/model/tracks.
type UpdateRequest struct {
	Tracks []recommend.Track `json:"tracks" validate:"required,min=1"`
}

// TrainResponse reports the outcome of a train or update operation.
type TrainResponse struct {
	Tracks  int `json:"tracks"`
	Version int `json:"version"`
}

// RecommendationsResponse wraps a recommendation result list.
type RecommendationsResponse struct {
	TrackID         string                    `json:"track_id"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
}

// ExplanationsResponse wraps an explained recommendation list.
type ExplanationsResponse struct {
	TrackID      string                  `json:"track_id"`
	Explanations []recommend.Explanation `json:"explanations"`
}

// SkippedRequest is the body of POST and DELETE /api/v1/model/skipped.
type SkippedRequest struct {
	TrackIDs []string `json:"track_ids" validate:"required,min=1,dive,required"`
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Trained bool   `json:"trained"`
}
