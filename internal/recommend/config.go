// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

package recommend

import "fmt"

// Config holds the model hyperparameters and query limits.
type Config struct {
	// ArtistWeight scales the artist-identity signal in the feature
	// vector. A larger weight makes an artist mismatch contribute
	// proportionally more to squared distance.
	ArtistWeight float64 `json:"artist_weight" koanf:"artist_weight"`

	// YearWeight scales the release-year signal in the feature vector.
	YearWeight float64 `json:"year_weight" koanf:"year_weight"`

	// Limits bounds query parameters.
	Limits Limits `json:"limits" koanf:"limits"`

	// Seed seeds the random source used by diverse recommendations.
	// Zero selects the default seed; a fixed seed makes sampling
	// deterministic.
	Seed int64 `json:"seed" koanf:"seed"`
}

// Limits bounds query parameters.
type Limits struct {
	// DefaultN is the number of recommendations returned when the caller
	// does not specify one.
	DefaultN int `json:"default_n" koanf:"default_n"`

	// MaxN caps the number of recommendations per query.
	MaxN int `json:"max_n" koanf:"max_n"`
}

// DefaultConfig returns the default model configuration.
func DefaultConfig() *Config {
	return &Config{
		ArtistWeight: 100,
		YearWeight:   10,
		Limits: Limits{
			DefaultN: 5,
			MaxN:     100,
		},
		Seed: 42,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.ArtistWeight < 0 {
		return fmt.Errorf("artist_weight must be >= 0, got %v", c.ArtistWeight)
	}
	if c.YearWeight < 0 {
		return fmt.Errorf("year_weight must be >= 0, got %v", c.YearWeight)
	}
	if c.Limits.DefaultN < 1 {
		return fmt.Errorf("limits.default_n must be >= 1, got %d", c.Limits.DefaultN)
	}
	if c.Limits.MaxN < c.Limits.DefaultN {
		return fmt.Errorf("limits.max_n (%d) must be >= limits.default_n (%d)", c.Limits.MaxN, c.Limits.DefaultN)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
