// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

// errors.go - failure taxonomy for the recommendation model
//
// All failures are reported synchronously to the caller; nothing is
// retried or swallowed inside the package. Callers branch on these
// sentinels with errors.Is.
package recommend

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates malformed or incomplete input to Train,
	// Update or a query: an empty record set, a record missing required
	// fields, or an out-of-range neighbor count.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUntrained indicates a query was issued before a successful Train.
	ErrUntrained = errors.New("model is not trained")

	// ErrNotFound indicates the seed track identifier is not part of the
	// trained corpus.
	ErrNotFound = errors.New("track not found")

	// ErrDuplicateTrack indicates Update was given a track identifier that
	// already exists in the model. Duplicates are rejected, never merged.
	ErrDuplicateTrack = errors.New("duplicate track identifier")
)

// invalidInputf wraps ErrInvalidInput with a formatted detail message.
func invalidInputf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
