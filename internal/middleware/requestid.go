// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

// Package middleware provides HTTP middleware shared by the API router:
// request ID propagation, request logging and Prometheus
// instrumentation.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/arlofinch/resonare/internal/logging"
)

// RequestID assigns each request a unique ID, echoing an upstream
// X-Request-ID when present, and stores it in the response header and
// the request context for log correlation.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)
		ctx := logging.ContextWithRequestID(r.Context(), requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
