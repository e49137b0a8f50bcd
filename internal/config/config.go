// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

// Package config loads and validates the application configuration using
// layered sources: built-in defaults, an optional YAML file, then
// environment variables. Precedence is ENV > file > defaults.
package config

import (
	"fmt"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Recommend RecommendConfig `koanf:"recommend"`
	Import    ImportConfig    `koanf:"import"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds DuckDB catalog settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file. Empty selects an in-memory
	// database, which does not survive restarts.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// RecommendConfig holds the model hyperparameters.
type RecommendConfig struct {
	ArtistWeight   float64 `koanf:"artist_weight"`
	YearWeight     float64 `koanf:"year_weight"`
	DefaultN       int     `koanf:"default_n"`
	MaxN           int     `koanf:"max_n"`
	Seed           int64   `koanf:"seed"`
	TrainOnStartup bool    `koanf:"train_on_startup"`
}

// ImportConfig holds CSV bootstrap settings.
type ImportConfig struct {
	// CSVPath, when set, is imported into the catalog at startup.
	CSVPath string `koanf:"csv_path"`
}

// APIConfig holds API behavior settings.
type APIConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}
	if c.Recommend.ArtistWeight < 0 {
		return fmt.Errorf("recommend.artist_weight must be >= 0, got %v", c.Recommend.ArtistWeight)
	}
	if c.Recommend.YearWeight < 0 {
		return fmt.Errorf("recommend.year_weight must be >= 0, got %v", c.Recommend.YearWeight)
	}
	if c.Recommend.DefaultN < 1 {
		return fmt.Errorf("recommend.default_n must be >= 1, got %d", c.Recommend.DefaultN)
	}
	if c.Recommend.MaxN < c.Recommend.DefaultN {
		return fmt.Errorf("recommend.max_n (%d) must be >= recommend.default_n (%d)",
			c.Recommend.MaxN, c.Recommend.DefaultN)
	}
	if !c.API.RateLimitDisabled {
		if c.API.RateLimitReqs < 1 {
			return fmt.Errorf("api.rate_limit_requests must be >= 1, got %d", c.API.RateLimitReqs)
		}
		if c.API.RateLimitWindow <= 0 {
			return fmt.Errorf("api.rate_limit_window must be positive, got %v", c.API.RateLimitWindow)
		}
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// Addr returns the listen address in host:port form.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
