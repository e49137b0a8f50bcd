// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

package recommend

// FormatNeighbors converts raw (row, distance) pairs into user-facing
// recommendation records, preserving the input order. Distance is passed
// through uninterpreted; Similarity is the 1/(1+distance) convenience
// mapping.
func FormatNeighbors(neighbors []Neighbor, tracks []Track) ([]Recommendation, error) {
	recs := make([]Recommendation, 0, len(neighbors))
	for _, nb := range neighbors {
		if nb.Row < 0 || nb.Row >= len(tracks) {
			return nil, invalidInputf("neighbor row %d out of range [0, %d)", nb.Row, len(tracks))
		}
		t := &tracks[nb.Row]
		recs = append(recs, Recommendation{
			TrackID:    t.ID,
			Name:       t.Name,
			Artist:     t.Artist,
			Year:       t.Year,
			Distance:   nb.Distance,
			Similarity: 1 / (1 + nb.Distance),
		})
	}
	return recs, nil
}
