// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

// Package catalog persists the track library in DuckDB. The catalog is
// the durable source the model trains from; the model itself is derived
// state and rebuilt on startup.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/arlofinch/resonare/internal/config"
	"github.com/arlofinch/resonare/internal/logging"
	"github.com/arlofinch/resonare/internal/metrics"
	"github.com/arlofinch/resonare/internal/recommend"
)

// ErrTrackExists is returned when inserting a track whose ID is already
// in the catalog.
var ErrTrackExists = errors.New("track already exists in catalog")

const schema = `
CREATE TABLE IF NOT EXISTS tracks (
    track_id         VARCHAR PRIMARY KEY,
    name             VARCHAR NOT NULL,
    artist           VARCHAR NOT NULL,
    year             INTEGER NOT NULL,
    genre            VARCHAR,
    duration_ms      DOUBLE NOT NULL,
    danceability     DOUBLE NOT NULL,
    energy           DOUBLE NOT NULL,
    key              DOUBLE NOT NULL,
    loudness         DOUBLE NOT NULL,
    mode             DOUBLE NOT NULL,
    speechiness      DOUBLE NOT NULL,
    acousticness     DOUBLE NOT NULL,
    instrumentalness DOUBLE NOT NULL,
    liveness         DOUBLE NOT NULL,
    valence          DOUBLE NOT NULL,
    tempo            DOUBLE NOT NULL,
    time_signature   DOUBLE NOT NULL,
    created_at       TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tracks_artist ON tracks(artist);
`

// Store wraps the DuckDB connection holding the track catalog.
type Store struct {
	conn *sql.DB
}

// New opens (or creates) the catalog database and initializes the
// schema. An empty path opens an in-memory database.
func New(cfg *config.DatabaseConfig) (*Store, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	connStr := ""
	if cfg.Path != "" {
		// 0750 per gosec G301
		if dbDir := filepath.Dir(cfg.Path); dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
		connStr = fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
			cfg.Path, numThreads, cfg.MaxMemory)
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(runtime.NumCPU())
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)

	s := &Store{conn: conn}
	if err := s.initialize(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	logger := logging.WithComponent("catalog")
	logger.Info().
		Str("path", cfg.Path).
		Msg("catalog opened")

	return s, nil
}

func (s *Store) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := s.conn.ExecContext(ctx, schema)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// InsertTracks inserts the given tracks in a single transaction. The
// whole batch is rolled back if any row fails; an existing track ID
// fails the batch with ErrTrackExists.
func (s *Store) InsertTracks(ctx context.Context, tracks []recommend.Track) (err error) {
	if len(tracks) == 0 {
		return nil
	}

	start := time.Now()
	defer func() { metrics.RecordCatalogQuery("insert_tracks", time.Since(start), err) }()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	existsStmt, err := tx.PrepareContext(ctx, `SELECT 1 FROM tracks WHERE track_id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare existence check: %w", err)
	}
	defer existsStmt.Close()

	insertStmt, err := tx.PrepareContext(ctx, `
        INSERT INTO tracks (
            track_id, name, artist, year, genre, duration_ms,
            danceability, energy, key, loudness, mode, speechiness,
            acousticness, instrumentalness, liveness, valence, tempo,
            time_signature
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer insertStmt.Close()

	for i := range tracks {
		t := &tracks[i]

		var one int
		row := existsStmt.QueryRowContext(ctx, t.ID)
		if scanErr := row.Scan(&one); scanErr == nil {
			err = fmt.Errorf("%w: %q", ErrTrackExists, t.ID)
			return err
		} else if !errors.Is(scanErr, sql.ErrNoRows) {
			err = fmt.Errorf("failed to check track %q: %w", t.ID, scanErr)
			return err
		}

		if _, err = insertStmt.ExecContext(ctx,
			t.ID, t.Name, t.Artist, t.Year, t.Genre, t.DurationMS,
			t.Danceability, t.Energy, t.Key, t.Loudness, t.Mode, t.Speechiness,
			t.Acousticness, t.Instrumentalness, t.Liveness, t.Valence, t.Tempo,
			t.TimeSignature,
		); err != nil {
			err = fmt.Errorf("failed to insert track %q: %w", t.ID, err)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	if count, countErr := s.Count(ctx); countErr == nil {
		metrics.CatalogTracks.Set(float64(count))
	}

	return nil
}

// ListTracks returns all tracks ordered by insertion, for training the
// model.
func (s *Store) ListTracks(ctx context.Context) (tracks []recommend.Track, err error) {
	start := time.Now()
	defer func() { metrics.RecordCatalogQuery("list_tracks", time.Since(start), err) }()

	rows, err := s.conn.QueryContext(ctx, `
        SELECT track_id, name, artist, year, genre, duration_ms,
               danceability, energy, key, loudness, mode, speechiness,
               acousticness, instrumentalness, liveness, valence, tempo,
               time_signature
        FROM tracks
        ORDER BY created_at, track_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t recommend.Track
		var genre sql.NullString
		if err = rows.Scan(
			&t.ID, &t.Name, &t.Artist, &t.Year, &genre, &t.DurationMS,
			&t.Danceability, &t.Energy, &t.Key, &t.Loudness, &t.Mode, &t.Speechiness,
			&t.Acousticness, &t.Instrumentalness, &t.Liveness, &t.Valence, &t.Tempo,
			&t.TimeSignature,
		); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		t.Genre = genre.String
		tracks = append(tracks, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tracks: %w", err)
	}

	return tracks, nil
}

// Count returns the number of tracks in the catalog.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracks`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}
