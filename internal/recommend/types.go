// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

package recommend

import "time"

// Track is one catalog record: display metadata plus the numeric audio
// attributes the model encodes into the feature vector.
//
// Danceability through Tempo are the eleven continuous audio attributes.
// Key and Mode are categorical in origin but numeric-compatible and are
// standardized like any other continuous attribute, as are TimeSignature
// and DurationMS.
type Track struct {
	// ID is the unique track identifier.
	ID string `json:"track_id" validate:"required"`

	// Name is the track title.
	Name string `json:"name" validate:"required"`

	// Artist is the primary artist name.
	Artist string `json:"artist" validate:"required"`

	// Year is the release year.
	Year int `json:"year" validate:"required,gte=1000,lte=2100"`

	// Genre is the primary genre label. Used for explanations only; it
	// does not participate in the distance computation.
	Genre string `json:"genre"`

	// DurationMS is the track duration in milliseconds.
	DurationMS float64 `json:"duration_ms" validate:"required,gt=0"`

	// Audio attributes, Spotify-style ranges.
	Danceability     float64 `json:"danceability" validate:"gte=0,lte=1"`
	Energy           float64 `json:"energy" validate:"gte=0,lte=1"`
	Key              float64 `json:"key" validate:"gte=0,lte=11"`
	Loudness         float64 `json:"loudness"`
	Mode             float64 `json:"mode" validate:"gte=0,lte=1"`
	Speechiness      float64 `json:"speechiness" validate:"gte=0,lte=1"`
	Acousticness     float64 `json:"acousticness" validate:"gte=0,lte=1"`
	Instrumentalness float64 `json:"instrumentalness" validate:"gte=0,lte=1"`
	Liveness         float64 `json:"liveness" validate:"gte=0,lte=1"`
	Valence          float64 `json:"valence" validate:"gte=0,lte=1"`
	Tempo            float64 `json:"tempo" validate:"gt=0"`

	// TimeSignature is beats per bar (3, 4, 5, ...).
	TimeSignature float64 `json:"time_signature" validate:"gte=0"`
}

// audioFeatureCount is the number of standardized attributes per track.
const audioFeatureCount = 13

// vectorDimensions is the full feature vector length: the standardized
// attributes plus the artist signal and the year signal.
const vectorDimensions = audioFeatureCount + 2

// audioVector returns the standardizable attributes in their fixed column
// order. The order is part of the model contract: fitted statistics are
// stored positionally.
func (t *Track) audioVector() [audioFeatureCount]float64 {
	return [audioFeatureCount]float64{
		t.DurationMS,
		t.Danceability,
		t.Energy,
		t.Key,
		t.Loudness,
		t.Mode,
		t.Speechiness,
		t.Acousticness,
		t.Instrumentalness,
		t.Liveness,
		t.Valence,
		t.Tempo,
		t.TimeSignature,
	}
}

// Neighbor is a raw nearest-neighbor result: a row of the feature matrix
// and its Euclidean distance from the query vector.
type Neighbor struct {
	// Row is the feature matrix row index.
	Row int `json:"row"`

	// Distance is the non-negative Euclidean distance. Lower is more
	// similar.
	Distance float64 `json:"distance"`
}

// Recommendation is one user-facing result record. Results are ordered by
// ascending distance from the seed track.
type Recommendation struct {
	// TrackID is the recommended track's identifier.
	TrackID string `json:"track_id"`

	// Name is the track title.
	Name string `json:"name"`

	// Artist is the primary artist name.
	Artist string `json:"artist"`

	// Year is the release year.
	Year int `json:"year"`

	// Distance is the raw feature-space distance to the seed track,
	// uninterpreted. Lower means more similar.
	Distance float64 `json:"distance"`

	// Similarity is 1/(1+Distance), a convenience mapping of the distance
	// into (0, 1]. It carries no information beyond Distance.
	Similarity float64 `json:"similarity"`
}

// Explanation pairs a recommendation with the human-readable reasons the
// track was considered similar to the seed.
type Explanation struct {
	Recommendation

	// Reasons lists up to three matching attributes, most salient first.
	Reasons []string `json:"reasons"`
}

// Status reports the current model state for operational endpoints.
type Status struct {
	// Trained indicates whether a successful Train has completed.
	Trained bool `json:"trained"`

	// TrackCount is the number of tracks in the current snapshot.
	TrackCount int `json:"track_count"`

	// Dimensions is the feature vector length.
	Dimensions int `json:"dimensions"`

	// Version increments on every successful Train or Update.
	Version int `json:"version"`

	// ArtistWeight and YearWeight are the hyperparameters fixed at train
	// time.
	ArtistWeight float64 `json:"artist_weight"`
	YearWeight   float64 `json:"year_weight"`

	// TrainedAt is when the current snapshot was published.
	TrainedAt time.Time `json:"trained_at"`

	// LastTrainDurationMS is how long the last Train or Update took.
	LastTrainDurationMS int64 `json:"last_train_duration_ms"`

	// SkippedCount is the number of track IDs currently marked skipped.
	SkippedCount int `json:"skipped_count"`
}
