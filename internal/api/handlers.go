// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/arlofinch/resonare/internal/catalog"
	"github.com/arlofinch/resonare/internal/logging"
	"github.com/arlofinch/resonare/internal/metrics"
	"github.com/arlofinch/resonare/internal/models"
	"github.com/arlofinch/resonare/internal/recommend"
	"github.com/arlofinch/resonare/internal/validation"
)

// Version is the service version reported by the health endpoint. Set
// via -ldflags at build time.
var Version = "dev"

// TrackStore is the catalog surface the handlers need. *catalog.Store
// satisfies it; tests substitute a mock.
type TrackStore interface {
	InsertTracks(ctx context.Context, tracks []recommend.Track) error
	ListTracks(ctx context.Context) ([]recommend.Track, error)
	Ping(ctx context.Context) error
}

// Handler holds the dependencies of all HTTP handlers.
type Handler struct {
	model    *recommend.Model
	store    TrackStore
	defaultN int
	logger   zerolog.Logger
}

// NewHandler creates the handler set.
func NewHandler(model *recommend.Model, store TrackStore, defaultN int) *Handler {
	if defaultN < 1 {
		defaultN = 5
	}
	return &Handler{
		model:    model,
		store:    store,
		defaultN: defaultN,
		logger:   logging.WithComponent("api"),
	}
}

// Train handles POST /api/v1/model/train. With a track list in the body
// it trains on those records; with an empty body it retrains from the
// persisted catalog.
func (h *Handler) Train(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.TrainRequest
	if err := decodeBody(r, &req); err != nil {
		rw.BadRequest("invalid JSON body: " + err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	tracks := req.Tracks
	if len(tracks) == 0 {
		loaded, err := h.store.ListTracks(r.Context())
		if err != nil {
			h.logger.Error().Err(err).Msg("failed to load catalog for training")
			rw.InternalError("failed to load catalog")
			return
		}
		tracks = loaded
	}

	start := time.Now()
	err := h.model.Train(r.Context(), tracks, recommend.TrainOptions{
		ArtistWeight: req.ArtistWeight,
		YearWeight:   req.YearWeight,
	})
	metrics.RecordTrain("train", time.Since(start), err)
	if err != nil {
		h.respondModelError(rw, err)
		return
	}

	status := h.model.Status()
	metrics.UpdateModelState(status.TrackCount, status.Version)
	rw.Success(models.TrainResponse{Tracks: status.TrackCount, Version: status.Version})
}

// UpdateTracks handles POST /api/v1/model/tracks. New tracks are added
// to the live model first and persisted to the catalog only after the
// model accepts them.
func (h *Handler) UpdateTracks(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.UpdateRequest
	if err := decodeBody(r, &req); err != nil {
		rw.BadRequest("invalid JSON body: " + err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	start := time.Now()
	err := h.model.Update(r.Context(), req.Tracks)
	metrics.RecordTrain("update", time.Since(start), err)
	if err != nil {
		h.respondModelError(rw, err)
		return
	}

	if err := h.store.InsertTracks(r.Context(), req.Tracks); err != nil {
		// The model already accepted the tracks; a catalog failure here
		// is surfaced but leaves the live model serving them.
		h.logger.Error().Err(err).Int("tracks", len(req.Tracks)).Msg("failed to persist update to catalog")
	}

	status := h.model.Status()
	metrics.UpdateModelState(status.TrackCount, status.Version)
	rw.Created(models.TrainResponse{Tracks: status.TrackCount, Version: status.Version})
}

// Recommendations handles GET /api/v1/recommendations/{trackID}.
// Query parameters: n (result count), diverse (weighted sampling mode).
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	trackID := chi.URLParam(r, "trackID")
	n, ok := h.parseN(rw, r)
	if !ok {
		return
	}

	diverse := r.URL.Query().Get("diverse") == "true"
	mode := "exact"
	if diverse {
		mode = "diverse"
	}

	start := time.Now()
	var recs []recommend.Recommendation
	var err error
	if diverse {
		recs, err = h.model.RecommendDiverse(r.Context(), trackID, n)
	} else {
		recs, err = h.model.Recommend(r.Context(), trackID, n)
	}
	metrics.RecordQuery(mode, queryResult(err), time.Since(start))
	if err != nil {
		h.respondModelError(rw, err)
		return
	}

	rw.Success(models.RecommendationsResponse{TrackID: trackID, Recommendations: recs})
}

// Explanations handles GET /api/v1/recommendations/{trackID}/explanations.
func (h *Handler) Explanations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	trackID := chi.URLParam(r, "trackID")
	n, ok := h.parseN(rw, r)
	if !ok {
		return
	}

	start := time.Now()
	explanations, err := h.model.Explain(r.Context(), trackID, n)
	metrics.RecordQuery("explain", queryResult(err), time.Since(start))
	if err != nil {
		h.respondModelError(rw, err)
		return
	}

	rw.Success(models.ExplanationsResponse{TrackID: trackID, Explanations: explanations})
}

// MarkSkipped handles POST /api/v1/model/skipped.
func (h *Handler) MarkSkipped(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.SkippedRequest
	if err := decodeBody(r, &req); err != nil {
		rw.BadRequest("invalid JSON body: " + err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	h.model.MarkSkipped(req.TrackIDs...)
	rw.Success(map[string]int{"skipped": h.model.Status().SkippedCount})
}

// ClearSkipped handles DELETE /api/v1/model/skipped.
func (h *Handler) ClearSkipped(w http.ResponseWriter, r *http.Request) {
	h.model.ClearSkipped()
	NewResponseWriter(w, r).Success(map[string]int{"skipped": 0})
}

// Status handles GET /api/v1/model/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.model.Status())
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(models.HealthResponse{
		Status:  "ok",
		Version: Version,
		Trained: h.model.Status().Trained,
	})
}

// HealthLive handles GET /api/v1/health/live: process liveness only.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "ok"})
}

// HealthReady handles GET /api/v1/health/ready: the catalog must be
// reachable for the service to be ready.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if err := h.store.Ping(r.Context()); err != nil {
		rw.Error(http.StatusServiceUnavailable, ErrCodeInternalError, "catalog unavailable")
		return
	}
	rw.Success(map[string]string{"status": "ready"})
}

// parseN reads the n query parameter, defaulting when absent. Returns
// false after writing an error response.
func (h *Handler) parseN(rw *ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("n")
	if raw == "" {
		return h.defaultN, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		rw.BadRequest("n must be an integer")
		return 0, false
	}
	return n, true
}

// respondModelError maps domain errors to HTTP status codes.
func (h *Handler) respondModelError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, recommend.ErrInvalidInput):
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
	case errors.Is(err, recommend.ErrNotFound):
		rw.Error(http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, recommend.ErrUntrained):
		rw.Error(http.StatusConflict, ErrCodeModelUntrained, err.Error())
	case errors.Is(err, recommend.ErrDuplicateTrack), errors.Is(err, catalog.ErrTrackExists):
		rw.Error(http.StatusConflict, ErrCodeDuplicateTrack, err.Error())
	default:
		h.logger.Error().Err(err).Msg("unexpected model error")
		rw.InternalError("internal error")
	}
}

// queryResult classifies a query error for metrics labels.
func queryResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, recommend.ErrNotFound):
		return "not_found"
	case errors.Is(err, recommend.ErrUntrained):
		return "untrained"
	case errors.Is(err, recommend.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}

func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
