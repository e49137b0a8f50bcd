// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

package recommend

import (
	"math"
	"sort"
)

// Index answers k-nearest-row queries over a feature matrix under
// Euclidean distance.
//
// Implementations are immutable once built; an updated matrix requires
// building a new Index. The interface keeps the search algorithm
// swappable (brute force today, tree-based or approximate later) without
// touching the Model.
type Index interface {
	// Query returns the k rows nearest to the given vector, sorted
	// ascending by distance with ties broken by ascending row index.
	// It fails with ErrInvalidInput if k < 1, k exceeds the number of
	// indexed rows, or the vector dimensionality does not match.
	Query(vector []float64, k int) ([]Neighbor, error)

	// Len returns the number of indexed rows.
	Len() int
}

// bruteForceIndex is an exact linear-scan index. For a moderate catalog
// the full scan is fast enough and always exact, which keeps query
// results deterministic.
type bruteForceIndex struct {
	matrix [][]float64
	dims   int
}

// BuildBruteForceIndex constructs an exact nearest-neighbor index over
// the matrix. The matrix must be non-empty and rectangular; the index
// holds a reference to it, so callers must not mutate the rows afterward.
func BuildBruteForceIndex(matrix [][]float64) (Index, error) {
	if len(matrix) == 0 {
		return nil, invalidInputf("cannot build index over empty matrix")
	}

	dims := len(matrix[0])
	if dims == 0 {
		return nil, invalidInputf("cannot build index over zero-dimension rows")
	}
	for i, row := range matrix {
		if len(row) != dims {
			return nil, invalidInputf("ragged matrix: row %d has %d dims, want %d", i, len(row), dims)
		}
	}

	return &bruteForceIndex{matrix: matrix, dims: dims}, nil
}

func (idx *bruteForceIndex) Len() int {
	return len(idx.matrix)
}

func (idx *bruteForceIndex) Query(vector []float64, k int) ([]Neighbor, error) {
	if k < 1 {
		return nil, invalidInputf("k must be >= 1, got %d", k)
	}
	if k > len(idx.matrix) {
		return nil, invalidInputf("k (%d) exceeds indexed rows (%d)", k, len(idx.matrix))
	}
	if len(vector) != idx.dims {
		return nil, invalidInputf("query vector has %d dims, index has %d", len(vector), idx.dims)
	}

	neighbors := make([]Neighbor, len(idx.matrix))
	for row, candidate := range idx.matrix {
		neighbors[row] = Neighbor{
			Row:      row,
			Distance: math.Sqrt(squaredDistance(vector, candidate)),
		}
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Distance != neighbors[j].Distance {
			return neighbors[i].Distance < neighbors[j].Distance
		}
		return neighbors[i].Row < neighbors[j].Row
	})

	return neighbors[:k], nil
}

// squaredDistance computes the squared Euclidean distance between two
// vectors of equal length.
func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
