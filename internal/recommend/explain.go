// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

package recommend

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Explanation thresholds.
const (
	similarEraYears     = 5
	similarTempoBPM     = 20
	similarAttributeGap = 0.2
	maxReasons          = 3
)

// Explain returns up to n recommendations for the seed track, each with
// human-readable reasons describing which attributes made it similar.
func (m *Model) Explain(ctx context.Context, trackID string, n int) ([]Explanation, error) {
	snap, neighbors, err := m.neighborsFor(ctx, trackID, n, 1)
	if err != nil {
		return nil, err
	}

	recs, err := FormatNeighbors(neighbors, snap.tracks)
	if err != nil {
		return nil, err
	}

	seed := &snap.tracks[snap.rows[trackID]]

	explanations := make([]Explanation, 0, len(recs))
	for i, rec := range recs {
		candidate := &snap.tracks[neighbors[i].Row]
		explanations = append(explanations, Explanation{
			Recommendation: rec,
			Reasons:        similarityReasons(seed, candidate),
		})
	}

	return explanations, nil
}

// similarityReasons lists the attributes on which two tracks match, most
// salient first, capped at maxReasons.
func similarityReasons(seed, candidate *Track) []string {
	reasons := make([]string, 0, maxReasons)

	if seed.Artist == candidate.Artist {
		reasons = append(reasons, fmt.Sprintf("Same artist (%s)", candidate.Artist))
	}
	if seed.Genre != "" && strings.EqualFold(seed.Genre, candidate.Genre) {
		reasons = append(reasons, fmt.Sprintf("Same genre (%s)", candidate.Genre))
	}
	if abs := seed.Year - candidate.Year; abs <= similarEraYears && abs >= -similarEraYears {
		reasons = append(reasons, fmt.Sprintf("Similar era (%d)", candidate.Year))
	}
	if math.Abs(seed.Tempo-candidate.Tempo) <= similarTempoBPM {
		reasons = append(reasons, fmt.Sprintf("Similar tempo (~%d BPM)", int(candidate.Tempo)))
	}

	for _, attr := range []struct {
		name       string
		seed, cand float64
	}{
		{"energy", seed.Energy, candidate.Energy},
		{"danceability", seed.Danceability, candidate.Danceability},
		{"valence", seed.Valence, candidate.Valence},
		{"acousticness", seed.Acousticness, candidate.Acousticness},
		{"instrumentalness", seed.Instrumentalness, candidate.Instrumentalness},
	} {
		if len(reasons) >= maxReasons {
			break
		}
		if math.Abs(attr.seed-attr.cand) < similarAttributeGap {
			reasons = append(reasons, fmt.Sprintf("Similar %s (%s)", attr.name, attributeLevel(attr.cand)))
		}
	}

	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}
	return reasons
}

// attributeLevel buckets a 0-1 attribute value into a wording level.
func attributeLevel(v float64) string {
	switch {
	case v > 0.7:
		return "high"
	case v > 0.3:
		return "medium"
	default:
		return "low"
	}
}
