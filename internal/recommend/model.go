// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

package recommend

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// snapshot is the atomic unit of published model state: the feature
// matrix, the fitted encoder, the id-to-row mapping, the metadata table
// and the index are replaced together or not at all.
type snapshot struct {
	encoder *Encoder
	index   Index
	matrix  [][]float64

	// rows maps track ID to feature matrix row; tracks is the inverse,
	// holding the full record for each row.
	rows   map[string]int
	tracks []Track

	// Weights fixed at train time.
	artistWeight float64
	yearWeight   float64

	version   int
	trainedAt time.Time
}

// Model orchestrates training, incremental updates and similarity
// queries. It is safe for concurrent use: queries load the current
// snapshot and never block, while Train and Update are serialized and
// publish a fully built replacement snapshot with one atomic swap.
type Model struct {
	config *Config
	logger zerolog.Logger

	snap    atomic.Pointer[snapshot]
	trainMu sync.Mutex

	// skipped tracks are filtered from every result list.
	skipMu  sync.RWMutex
	skipped map[string]struct{}

	// rng drives diverse-mode sampling; seeded for determinism.
	rng   *rand.Rand
	rngMu sync.Mutex

	lastTrainDurationMS atomic.Int64
}

// TrainOptions overrides the configured weight hyperparameters for a
// single Train call. Zero values fall back to the model configuration.
type TrainOptions struct {
	ArtistWeight float64 `json:"artist_weight"`
	YearWeight   float64 `json:"year_weight"`
}

// NewModel creates an untrained model.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewModel(cfg *Config, logger zerolog.Logger) (*Model, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = 42
	}

	return &Model{
		config:  cfg,
		logger:  logger.With().Str("component", "recommend").Logger(),
		skipped: make(map[string]struct{}),
		rng:     rand.New(rand.NewSource(seed)), //nolint:gosec // sampling, not crypto
	}, nil
}

// Train fits the model on the given records, replacing any prior trained
// state. It fails with ErrInvalidInput on an empty or malformed record
// set and leaves the published snapshot untouched on any failure.
func (m *Model) Train(ctx context.Context, tracks []Track, opts TrainOptions) error {
	m.trainMu.Lock()
	defer m.trainMu.Unlock()

	start := time.Now()

	if err := checkRecords(tracks); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	artistWeight := opts.ArtistWeight
	if artistWeight == 0 {
		artistWeight = m.config.ArtistWeight
	}
	yearWeight := opts.YearWeight
	if yearWeight == 0 {
		yearWeight = m.config.YearWeight
	}

	next, err := m.buildSnapshot(tracks, artistWeight, yearWeight)
	if err != nil {
		return err
	}

	if prev := m.snap.Load(); prev != nil {
		next.version = prev.version + 1
	} else {
		next.version = 1
	}

	m.snap.Store(next)
	m.lastTrainDurationMS.Store(time.Since(start).Milliseconds())

	m.logger.Info().
		Int("tracks", len(tracks)).
		Int("dimensions", vectorDimensions).
		Float64("artist_weight", artistWeight).
		Float64("year_weight", yearWeight).
		Int("version", next.version).
		Dur("elapsed", time.Since(start)).
		Msg("model trained")

	return nil
}

// buildSnapshot fits an encoder and builds a complete snapshot off to the
// side. Nothing is published here.
func (m *Model) buildSnapshot(tracks []Track, artistWeight, yearWeight float64) (*snapshot, error) {
	encoder := NewEncoder()
	if err := encoder.Fit(tracks); err != nil {
		return nil, err
	}

	matrix, err := encoder.Transform(tracks, artistWeight, yearWeight)
	if err != nil {
		return nil, err
	}

	index, err := BuildBruteForceIndex(matrix)
	if err != nil {
		return nil, err
	}

	rows := make(map[string]int, len(tracks))
	stored := make([]Track, len(tracks))
	copy(stored, tracks)
	for i := range stored {
		rows[stored[i].ID] = i
	}

	return &snapshot{
		encoder:      encoder,
		index:        index,
		matrix:       matrix,
		rows:         rows,
		tracks:       stored,
		artistWeight: artistWeight,
		yearWeight:   yearWeight,
		trainedAt:    time.Now(),
	}, nil
}

// Update appends new tracks to the trained model. New rows are
// standardized against the statistics fitted at Train time (statistics
// are frozen, not recomputed), the index is rebuilt over the combined
// matrix, and the whole snapshot is swapped atomically. An identifier
// that already exists is rejected with ErrDuplicateTrack; the published
// snapshot is untouched on any failure.
func (m *Model) Update(ctx context.Context, tracks []Track) error {
	m.trainMu.Lock()
	defer m.trainMu.Unlock()

	prev := m.snap.Load()
	if prev == nil {
		return ErrUntrained
	}

	start := time.Now()

	if err := checkRecords(tracks); err != nil {
		return err
	}
	for i := range tracks {
		if _, exists := prev.rows[tracks[i].ID]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateTrack, tracks[i].ID)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	newRows, err := prev.encoder.Transform(tracks, prev.artistWeight, prev.yearWeight)
	if err != nil {
		return err
	}

	combined := make([][]float64, 0, len(prev.matrix)+len(newRows))
	combined = append(combined, prev.matrix...)
	combined = append(combined, newRows...)

	index, err := BuildBruteForceIndex(combined)
	if err != nil {
		return err
	}

	rows := make(map[string]int, len(prev.rows)+len(tracks))
	for id, row := range prev.rows {
		rows[id] = row
	}
	stored := make([]Track, 0, len(prev.tracks)+len(tracks))
	stored = append(stored, prev.tracks...)
	for i := range tracks {
		rows[tracks[i].ID] = len(stored)
		stored = append(stored, tracks[i])
	}

	next := &snapshot{
		encoder:      prev.encoder,
		index:        index,
		matrix:       combined,
		rows:         rows,
		tracks:       stored,
		artistWeight: prev.artistWeight,
		yearWeight:   prev.yearWeight,
		version:      prev.version + 1,
		trainedAt:    time.Now(),
	}

	m.snap.Store(next)
	m.lastTrainDurationMS.Store(time.Since(start).Milliseconds())

	m.logger.Info().
		Int("added", len(tracks)).
		Int("tracks", len(stored)).
		Int("version", next.version).
		Dur("elapsed", time.Since(start)).
		Msg("model updated")

	return nil
}

// Recommend returns up to n tracks most similar to the seed track,
// ordered by ascending distance. The seed itself and any skipped tracks
// are never included. n is clamped to the configured maximum and to
// trackCount-1; a small corpus returns fewer results without error.
func (m *Model) Recommend(ctx context.Context, trackID string, n int) ([]Recommendation, error) {
	snap, neighbors, err := m.neighborsFor(ctx, trackID, n, 1)
	if err != nil {
		return nil, err
	}
	return FormatNeighbors(neighbors, snap.tracks)
}

// neighborsFor runs the shared query path: snapshot lookup, parameter
// clamping, the over-fetch that compensates for the self-match and the
// skip list, and filtering. overFetch multiplies the requested n before
// clamping, for callers (diverse mode) that need surplus candidates.
func (m *Model) neighborsFor(ctx context.Context, trackID string, n, overFetch int) (*snapshot, []Neighbor, error) {
	snap := m.snap.Load()
	if snap == nil {
		return nil, nil, ErrUntrained
	}
	if n < 1 {
		return nil, nil, invalidInputf("n_recommendations must be >= 1, got %d", n)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	if n > m.config.Limits.MaxN {
		n = m.config.Limits.MaxN
	}
	n *= overFetch
	if limit := len(snap.tracks) - 1; n > limit {
		n = limit
	}

	row, ok := snap.rows[trackID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrNotFound, trackID)
	}

	if n == 0 {
		// Single-track corpus: nothing to recommend.
		return snap, []Neighbor{}, nil
	}

	skipped := m.skippedSet()

	// The seed is its own nearest neighbor at distance zero, and skipped
	// tracks are dropped after the query, so fetch enough extra rows to
	// still fill n results.
	k := n + 1 + len(skipped)
	if k > snap.index.Len() {
		k = snap.index.Len()
	}

	raw, err := snap.index.Query(snap.matrix[row], k)
	if err != nil {
		return nil, nil, err
	}

	neighbors := make([]Neighbor, 0, n)
	for _, nb := range raw {
		if nb.Row == row {
			continue
		}
		if _, skip := skipped[snap.tracks[nb.Row].ID]; skip {
			continue
		}
		neighbors = append(neighbors, nb)
		if len(neighbors) == n {
			break
		}
	}

	return snap, neighbors, nil
}

// MarkSkipped adds track IDs to the skip list. Skipped tracks are
// filtered from all subsequent results until cleared.
func (m *Model) MarkSkipped(trackIDs ...string) {
	m.skipMu.Lock()
	defer m.skipMu.Unlock()
	for _, id := range trackIDs {
		if id != "" {
			m.skipped[id] = struct{}{}
		}
	}
}

// ClearSkipped empties the skip list.
func (m *Model) ClearSkipped() {
	m.skipMu.Lock()
	defer m.skipMu.Unlock()
	m.skipped = make(map[string]struct{})
}

// skippedSet returns a point-in-time copy of the skip list.
func (m *Model) skippedSet() map[string]struct{} {
	m.skipMu.RLock()
	defer m.skipMu.RUnlock()
	set := make(map[string]struct{}, len(m.skipped))
	for id := range m.skipped {
		set[id] = struct{}{}
	}
	return set
}

// Status reports the current model state.
func (m *Model) Status() Status {
	m.skipMu.RLock()
	skippedCount := len(m.skipped)
	m.skipMu.RUnlock()

	status := Status{
		Dimensions:          vectorDimensions,
		LastTrainDurationMS: m.lastTrainDurationMS.Load(),
		SkippedCount:        skippedCount,
	}

	if snap := m.snap.Load(); snap != nil {
		status.Trained = true
		status.TrackCount = len(snap.tracks)
		status.Version = snap.version
		status.ArtistWeight = snap.artistWeight
		status.YearWeight = snap.yearWeight
		status.TrainedAt = snap.trainedAt
	}

	return status
}

// checkRecords validates the schema of an incoming record set: required
// identity fields present, numeric attributes finite, identifiers unique
// within the batch.
func checkRecords(tracks []Track) error {
	if len(tracks) == 0 {
		return invalidInputf("empty record set")
	}

	seen := make(map[string]struct{}, len(tracks))
	for i := range tracks {
		t := &tracks[i]
		switch {
		case t.ID == "":
			return invalidInputf("record %d: missing track_id", i)
		case t.Name == "":
			return invalidInputf("record %d (%s): missing name", i, t.ID)
		case t.Artist == "":
			return invalidInputf("record %d (%s): missing artist", i, t.ID)
		case t.Year <= 0:
			return invalidInputf("record %d (%s): missing year", i, t.ID)
		case t.DurationMS <= 0:
			return invalidInputf("record %d (%s): missing duration_ms", i, t.ID)
		}

		if _, dup := seen[t.ID]; dup {
			return invalidInputf("record %d: track_id %q appears twice in batch", i, t.ID)
		}
		seen[t.ID] = struct{}{}

		for _, x := range t.audioVector() {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return invalidInputf("record %d (%s): non-finite audio attribute", i, t.ID)
			}
		}
	}

	return nil
}
