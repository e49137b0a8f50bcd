// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/arlofinch/resonare/internal/recommend"
)

const csvHeader = "id,name,artists,year,genre,duration_ms,danceability,energy,key,loudness,mode,speechiness,acousticness,instrumentalness,liveness,valence,tempo,time_signature"

func csvRow(id, name, artists string, year int) string {
	return strings.Join([]string{
		id, name, artists,
		strconv.Itoa(year),
		"jazz", "180000", "0.5", "0.6", "5", "-8", "1", "0.05", "0.3", "0.0", "0.1", "0.4", "120", "4",
	}, ",")
}

func TestImportCSV(t *testing.T) {
	s := newTestStore(t)

	content := strings.Join([]string{
		csvHeader,
		csvRow("t1", "Strange Fruit", "['Billie Holiday']", 1939),
		csvRow("t2", "So What", "['Miles Davis']", 1959),
		"badrow,only,three",                     // unparseable numerics
		csvRow("", "No ID", "['Nobody']", 1990), // missing ID
		csvRow("t1", "Duplicate", "['Billie Holiday']", 1939),
	}, "\n")

	path := filepath.Join(t.TempDir(), "tracks.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	result, err := s.ImportCSV(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if result.Imported != 2 {
		t.Errorf("Imported = %d, want 2", result.Imported)
	}
	if result.Skipped != 3 {
		t.Errorf("Skipped = %d, want 3", result.Skipped)
	}

	tracks, err := s.ListTracks(context.Background())
	if err != nil {
		t.Fatalf("ListTracks: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}
	if tracks[0].Artist != "Billie Holiday" {
		t.Errorf("Artist = %q, want list literal cleaned to %q", tracks[0].Artist, "Billie Holiday")
	}
}

func TestImportCSVSkipsExistingCatalogRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.InsertTracks(ctx, []recommend.Track{sampleTrack("t1")}); err != nil {
		t.Fatalf("InsertTracks: %v", err)
	}

	content := strings.Join([]string{
		csvHeader,
		csvRow("t1", "Already There", "['Someone']", 1980),
		csvRow("t2", "New Track", "['Someone Else']", 1985),
	}, "\n")

	path := filepath.Join(t.TempDir(), "tracks.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	result, err := s.ImportCSV(ctx, path)
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if result.Imported != 1 || result.Skipped != 1 {
		t.Errorf("result = %+v, want 1 imported, 1 skipped", result)
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Errorf("Count = %d, want 2", count)
	}
}

func TestImportCSVMissingColumn(t *testing.T) {
	s := newTestStore(t)

	path := filepath.Join(t.TempDir(), "tracks.csv")
	if err := os.WriteFile(path, []byte("id,name,year\n"), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	if _, err := s.ImportCSV(context.Background(), path); err == nil {
		t.Fatal("ImportCSV = nil error, want missing-column failure")
	}
}

func TestCleanArtists(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"['Billie Holiday']", "Billie Holiday"},
		{`['Billie Holiday', 'Teddy Wilson']`, "Billie Holiday, Teddy Wilson"},
		{"Miles Davis", "Miles Davis"},
		{`["Quoted Name"]`, "Quoted Name"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cleanArtists(tt.in); got != tt.want {
			t.Errorf("cleanArtists(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
