// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExplain(t *testing.T) {
	m := newTestModel(t, nil)
	tracks := corpus(10)

	// Make T2 an obvious match for T1 on every explained axis.
	tracks[1].Artist = tracks[0].Artist
	tracks[1].Genre = tracks[0].Genre
	tracks[1].Year = tracks[0].Year + 2
	tracks[1].Tempo = tracks[0].Tempo + 5
	tracks[1].Energy = tracks[0].Energy

	if err := m.Train(context.Background(), tracks, TrainOptions{}); err != nil {
		t.Fatalf("Train: %v", err)
	}

	explanations, err := m.Explain(context.Background(), "T1", 3)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if len(explanations) != 3 {
		t.Fatalf("got %d explanations, want 3", len(explanations))
	}

	if explanations[0].TrackID != "T2" {
		t.Fatalf("nearest = %s, want the engineered match T2", explanations[0].TrackID)
	}
	reasons := explanations[0].Reasons
	if len(reasons) == 0 || len(reasons) > maxReasons {
		t.Fatalf("got %d reasons, want 1..%d", len(reasons), maxReasons)
	}
	if !strings.Contains(reasons[0], "Same artist") {
		t.Errorf("first reason = %q, want the artist match leading", reasons[0])
	}

	for i, ex := range explanations {
		if len(ex.Reasons) > maxReasons {
			t.Errorf("explanation %d has %d reasons, want <= %d", i, len(ex.Reasons), maxReasons)
		}
		if i > 0 && explanations[i-1].Distance > ex.Distance {
			t.Errorf("explanations not ordered by distance at %d", i)
		}
	}
}

func TestExplainErrors(t *testing.T) {
	m := newTestModel(t, nil)
	if _, err := m.Explain(context.Background(), "T1", 3); !errors.Is(err, ErrUntrained) {
		t.Fatalf("untrained error = %v, want ErrUntrained", err)
	}

	trainCorpus(t, m, 5)
	if _, err := m.Explain(context.Background(), "missing", 3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown seed error = %v, want ErrNotFound", err)
	}
}

func TestSimilarityReasons(t *testing.T) {
	base := encoderTrack("a", "Nina Simone", 1965, 0.8, 95)
	base.Genre = "jazz"

	tests := []struct {
		name   string
		mutate func(*Track)
		want   string
	}{
		{"same artist", func(c *Track) {}, "Same artist (Nina Simone)"},
		{
			"genre case-insensitive",
			func(c *Track) { c.Artist = "Other"; c.Genre = "Jazz" },
			"Same genre (Jazz)",
		},
		{
			"similar era",
			func(c *Track) { c.Artist = "Other"; c.Genre = "soul"; c.Year = 1968; c.Tempo = 160 },
			"Similar era (1968)",
		},
		{
			"similar tempo",
			func(c *Track) { c.Artist = "Other"; c.Genre = "soul"; c.Year = 1990; c.Tempo = 100 },
			"Similar tempo (~100 BPM)",
		},
		{
			"high energy",
			func(c *Track) {
				c.Artist = "Other"
				c.Genre = "soul"
				c.Year = 1990
				c.Tempo = 160
				c.Energy = 0.9
			},
			"Similar energy (high)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := base
			tt.mutate(&candidate)
			reasons := similarityReasons(&base, &candidate)
			found := false
			for _, r := range reasons {
				if r == tt.want {
					found = true
				}
			}
			if !found {
				t.Errorf("reasons = %v, want to contain %q", reasons, tt.want)
			}
		})
	}
}

func TestAttributeLevel(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0.9, "high"},
		{0.71, "high"},
		{0.7, "medium"},
		{0.31, "medium"},
		{0.3, "low"},
		{0, "low"},
	}
	for _, tt := range tests {
		if got := attributeLevel(tt.v); got != tt.want {
			t.Errorf("attributeLevel(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}
