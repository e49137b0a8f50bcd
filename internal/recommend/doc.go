// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

// Package recommend implements the content-based music similarity model.
//
// The model encodes each track of the catalog into a fixed-length numeric
// feature vector (standardized audio attributes plus weighted artist and
// year signals), indexes the vectors for exact Euclidean nearest-neighbor
// search, and answers "tracks similar to this one" queries.
//
// # Components
//
//   - Encoder: converts track records into feature vectors. Standardization
//     statistics are fitted once at training time and frozen afterwards.
//   - Index: immutable nearest-neighbor structure over the feature matrix.
//   - Model: orchestrates training, incremental updates and queries. It owns
//     the id-to-row mapping and the track metadata table.
//   - FormatNeighbors: turns raw (row, distance) pairs into user-facing
//     recommendation records.
//
// # Concurrency
//
// The feature matrix, fitted statistics, id-to-row mapping and index form
// one immutable snapshot. Queries load the current snapshot pointer and
// never block; Train and Update build a complete replacement snapshot off
// to the side and publish it with a single atomic swap. A failed Train or
// Update leaves the published snapshot untouched.
package recommend
