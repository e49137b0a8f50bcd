// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

package recommend

import (
	"hash/fnv"
	"math"
	"strings"
)

// stdEpsilon is the floor applied to fitted standard deviations so a
// constant feature standardizes to zero instead of dividing by zero.
const stdEpsilon = 1e-9

// fittedStats holds the per-feature statistics captured at training time.
// They are immutable once fitted; Update standardizes new rows against
// these same statistics.
type fittedStats struct {
	means   [audioFeatureCount]float64
	stddevs [audioFeatureCount]float64

	// meanYear and yearSpan normalize the year signal. yearSpan is the
	// max-min range of training years, floored at 1.
	meanYear float64
	yearSpan float64
}

// Encoder turns track records into numeric feature vectors.
//
// Fit computes per-feature mean and standard deviation over the training
// corpus. Transform standardizes each continuous attribute to
// (value-mean)/max(std, epsilon) and appends the weighted artist and year
// signals. An Encoder is fitted exactly once; refitting requires a new
// Encoder.
type Encoder struct {
	fitted bool
	stats  fittedStats
}

// NewEncoder returns an unfitted encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Fit computes standardization statistics over the given records.
// It fails with ErrInvalidInput if the record set is empty.
func (e *Encoder) Fit(tracks []Track) error {
	if len(tracks) == 0 {
		return invalidInputf("cannot fit encoder on empty record set")
	}

	n := float64(len(tracks))

	var sums, sqSums [audioFeatureCount]float64
	var yearSum float64
	minYear, maxYear := tracks[0].Year, tracks[0].Year

	for i := range tracks {
		v := tracks[i].audioVector()
		for j, x := range v {
			sums[j] += x
			sqSums[j] += x * x
		}
		yearSum += float64(tracks[i].Year)
		if tracks[i].Year < minYear {
			minYear = tracks[i].Year
		}
		if tracks[i].Year > maxYear {
			maxYear = tracks[i].Year
		}
	}

	var stats fittedStats
	for j := range stats.means {
		mean := sums[j] / n
		stats.means[j] = mean
		// Population variance; clamp tiny negatives from float error.
		variance := sqSums[j]/n - mean*mean
		if variance < 0 {
			variance = 0
		}
		stats.stddevs[j] = math.Sqrt(variance)
	}

	stats.meanYear = yearSum / n
	stats.yearSpan = float64(maxYear - minYear)
	if stats.yearSpan < 1 {
		stats.yearSpan = 1
	}

	e.stats = stats
	e.fitted = true
	return nil
}

// Transform produces one feature vector per record using the fitted
// statistics. It fails with ErrInvalidInput if the encoder has not been
// fitted or the record set is empty.
func (e *Encoder) Transform(tracks []Track, artistWeight, yearWeight float64) ([][]float64, error) {
	if !e.fitted {
		return nil, invalidInputf("encoder has not been fitted")
	}
	if len(tracks) == 0 {
		return nil, invalidInputf("cannot transform empty record set")
	}

	matrix := make([][]float64, len(tracks))
	for i := range tracks {
		matrix[i] = e.encode(&tracks[i], artistWeight, yearWeight)
	}
	return matrix, nil
}

// encode builds a single feature vector.
func (e *Encoder) encode(t *Track, artistWeight, yearWeight float64) []float64 {
	vec := make([]float64, 0, vectorDimensions)

	audio := t.audioVector()
	for j, x := range audio {
		std := e.stats.stddevs[j]
		if std < stdEpsilon {
			std = stdEpsilon
		}
		vec = append(vec, (x-e.stats.means[j])/std)
	}

	vec = append(vec, artistSignal(t.Artist)*artistWeight)
	vec = append(vec, (float64(t.Year)-e.stats.meanYear)/e.stats.yearSpan*yearWeight)

	return vec
}

// artistSignal maps an artist name to a stable coordinate in [0, 1).
//
// A stable hash rather than a categorical index keeps an artist's
// coordinate fixed across Train and Update, which the frozen-statistics
// update policy requires. Tracks by the same artist collide exactly, so
// the weighted signal contributes zero distance between them and up to
// artistWeight between different artists.
func artistSignal(artist string) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(artist))))
	return float64(h.Sum64()) / float64(math.MaxUint64)
}
