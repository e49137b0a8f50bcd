// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

/*
Package models defines shared data structures for the Resonare API.

It holds the standardized response envelope used by every HTTP endpoint
and the request bodies the handlers decode. Domain types (Track,
Recommendation, Status) live in internal/recommend; this package only
carries the transport-level shapes.

Usage Example - API Response:

	response := models.APIResponse{
	    Status: "success",
	    Data:   recommendations,
	    Metadata: models.Metadata{
	        Timestamp:   time.Now(),
	        QueryTimeMS: 4,
	    },
	}

	// Error response
	errorResponse := models.APIResponse{
	    Status: "error",
	    Error: &models.APIError{
	        Code:    "NOT_FOUND",
	        Message: "track not found",
	    },
	}

All models are plain data structures, safe for concurrent read access,
with snake_case JSON tags and RFC3339 timestamps.
*/
package models
