// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/arlofinch/resonare/internal/logging"
	"github.com/arlofinch/resonare/internal/metrics"
	"github.com/arlofinch/resonare/internal/recommend"
)

// importBatchSize bounds the per-transaction insert size during import.
const importBatchSize = 500

// ImportResult reports the outcome of a CSV import.
type ImportResult struct {
	Imported int
	Skipped  int
}

// ImportCSV reads a track dataset from a CSV file into the catalog.
// The header row maps columns by name; rows with missing identity
// fields or unparseable numbers are skipped, not fatal. Rows whose ID
// already exists in the catalog are skipped as well.
func (s *Store) ImportCSV(ctx context.Context, path string) (*ImportResult, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	return s.importCSV(ctx, f, path)
}

func (s *Store) importCSV(ctx context.Context, r io.Reader, source string) (*ImportResult, error) {
	logger := logging.WithComponent("import")

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"id", "name", "artists", "year"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv missing required column %q", required)
		}
	}

	existing := make(map[string]struct{})
	if known, listErr := s.ListTracks(ctx); listErr == nil {
		for i := range known {
			existing[known[i].ID] = struct{}{}
		}
	}

	result := &ImportResult{}
	batch := make([]recommend.Track, 0, importBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.InsertTracks(ctx, batch); err != nil {
			return err
		}
		result.Imported += len(batch)
		batch = batch[:0]
		return nil
	}

	for line := 2; ; line++ {
		record, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			result.Skipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		track, ok := parseCSVTrack(record, cols)
		if !ok {
			result.Skipped++
			continue
		}
		if _, dup := existing[track.ID]; dup {
			result.Skipped++
			continue
		}
		existing[track.ID] = struct{}{}

		batch = append(batch, track)
		if len(batch) == importBatchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	metrics.RecordImportRows(result.Imported, result.Skipped)
	logger.Info().
		Str("source", source).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Msg("csv import finished")

	return result, nil
}

// parseCSVTrack builds a Track from one CSV record. Returns false when
// required fields are missing or numeric columns fail to parse.
func parseCSVTrack(record []string, cols map[string]int) (recommend.Track, bool) {
	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	t := recommend.Track{
		ID:     field("id"),
		Name:   field("name"),
		Artist: cleanArtists(field("artists")),
		Genre:  field("genre"),
	}
	if t.ID == "" || t.Name == "" || t.Artist == "" {
		return recommend.Track{}, false
	}

	year, err := strconv.Atoi(field("year"))
	if err != nil || year <= 0 {
		return recommend.Track{}, false
	}
	t.Year = year

	numeric := []struct {
		name string
		dst  *float64
	}{
		{"duration_ms", &t.DurationMS},
		{"danceability", &t.Danceability},
		{"energy", &t.Energy},
		{"key", &t.Key},
		{"loudness", &t.Loudness},
		{"mode", &t.Mode},
		{"speechiness", &t.Speechiness},
		{"acousticness", &t.Acousticness},
		{"instrumentalness", &t.Instrumentalness},
		{"liveness", &t.Liveness},
		{"valence", &t.Valence},
		{"tempo", &t.Tempo},
		{"time_signature", &t.TimeSignature},
	}
	for _, col := range numeric {
		v, parseErr := strconv.ParseFloat(field(col.name), 64)
		if parseErr != nil {
			return recommend.Track{}, false
		}
		*col.dst = v
	}
	if t.DurationMS <= 0 {
		return recommend.Track{}, false
	}

	return t, true
}

// cleanArtists normalizes the artists column, which some datasets ship
// as a list literal like "['Billie Holiday', 'Teddy Wilson']".
func cleanArtists(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")

	parts := strings.Split(raw, ",")
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.Trim(p, `'"`)
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return strings.Join(cleaned, ", ")
}
