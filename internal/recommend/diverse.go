// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

package recommend

import (
	"context"
	"math/rand"
)

// sampleEpsilon keeps the weight of a zero-distance neighbor finite.
const sampleEpsilon = 1e-6

// RecommendDiverse returns up to n recommendations sampled from a wider
// neighbor pool, trading some closeness for variety. Candidates are
// drawn without replacement with probability proportional to
// 1/(distance+epsilon), so nearer tracks remain more likely but distant
// ones can surface. Sampling uses the model's seeded random source, so
// results are deterministic for a fixed seed and call sequence.
func (m *Model) RecommendDiverse(ctx context.Context, trackID string, n int) ([]Recommendation, error) {
	snap, candidates, err := m.neighborsFor(ctx, trackID, n, 2)
	if err != nil {
		return nil, err
	}

	if len(candidates) > n {
		weights := make([]float64, len(candidates))
		for i, nb := range candidates {
			weights[i] = 1 / (nb.Distance + sampleEpsilon)
		}

		m.rngMu.Lock()
		picked := weightedSample(m.rng, weights, n)
		m.rngMu.Unlock()

		sampled := make([]Neighbor, 0, n)
		for _, idx := range picked {
			sampled = append(sampled, candidates[idx])
		}
		candidates = sampled
	}

	return FormatNeighbors(candidates, snap.tracks)
}

// weightedSample draws n distinct indices with probability proportional
// to their weights, without replacement.
func weightedSample(rng *rand.Rand, weights []float64, n int) []int {
	remaining := make([]int, len(weights))
	for i := range remaining {
		remaining[i] = i
	}

	var total float64
	for _, w := range weights {
		total += w
	}

	picked := make([]int, 0, n)
	for len(picked) < n && len(remaining) > 0 {
		target := rng.Float64() * total

		var cum float64
		chosen := len(remaining) - 1
		for i, idx := range remaining {
			cum += weights[idx]
			if target < cum {
				chosen = i
				break
			}
		}

		idx := remaining[chosen]
		picked = append(picked, idx)
		total -= weights[idx]
		remaining = append(remaining[:chosen], remaining[chosen+1:]...)
	}

	return picked
}
