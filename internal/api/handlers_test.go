// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/arlofinch/resonare/internal/config"
	"github.com/arlofinch/resonare/internal/models"
	"github.com/arlofinch/resonare/internal/recommend"
)

// mockStore is a hand-written TrackStore for handler tests.
type mockStore struct {
	tracks   []recommend.Track
	inserted [][]recommend.Track
	pingErr  error
	listErr  error
}

func (m *mockStore) InsertTracks(_ context.Context, tracks []recommend.Track) error {
	m.inserted = append(m.inserted, tracks)
	m.tracks = append(m.tracks, tracks...)
	return nil
}

func (m *mockStore) ListTracks(_ context.Context) ([]recommend.Track, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.tracks, nil
}

func (m *mockStore) Ping(_ context.Context) error {
	return m.pingErr
}

func apiTrack(i int) recommend.Track {
	f := float64(i)
	return recommend.Track{
		ID:               fmt.Sprintf("T%d", i),
		Name:             fmt.Sprintf("Track %d", i),
		Artist:           fmt.Sprintf("Artist %d", (i%5)+1),
		Year:             1980 + i%40,
		Genre:            "rock",
		DurationMS:       180000 + f*500,
		Danceability:     math.Mod(0.2+f*0.31, 1),
		Energy:           math.Mod(0.3+f*0.17, 1),
		Key:              math.Mod(f, 12),
		Loudness:         -15 + math.Mod(f*1.3, 12),
		Mode:             float64(i % 2),
		Speechiness:      math.Mod(0.05+f*0.07, 1),
		Acousticness:     math.Mod(0.4+f*0.19, 1),
		Instrumentalness: math.Mod(f*0.11, 1),
		Liveness:         math.Mod(0.1+f*0.23, 1),
		Valence:          math.Mod(0.5+f*0.29, 1),
		Tempo:            90 + math.Mod(f*5, 80),
		TimeSignature:    4,
	}
}

func apiCorpus(n int) []recommend.Track {
	tracks := make([]recommend.Track, 0, n)
	for i := 1; i <= n; i++ {
		tracks = append(tracks, apiTrack(i))
	}
	return tracks
}

// newTestServer builds the full routing tree around a model and mock
// store. trained=false leaves the model untrained.
func newTestServer(t *testing.T, trained bool) (*httptest.Server, *recommend.Model, *mockStore) {
	t.Helper()

	model, err := recommend.NewModel(nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	store := &mockStore{tracks: apiCorpus(20)}
	if trained {
		if err := model.Train(context.Background(), store.tracks, recommend.TrainOptions{}); err != nil {
			t.Fatalf("Train: %v", err)
		}
	}

	cfg := &config.APIConfig{RateLimitDisabled: true, CORSOrigins: []string{"*"}}
	router := NewRouter(NewHandler(model, store, 5), cfg)
	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)

	return srv, model, store
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, models.APIResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	var envelope models.APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp, envelope
}

func wantErrorCode(t *testing.T, resp *http.Response, envelope models.APIResponse, status int, code string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("status = %d, want %d", resp.StatusCode, status)
	}
	if envelope.Status != "error" || envelope.Error == nil {
		t.Fatalf("envelope = %+v, want error payload", envelope)
	}
	if envelope.Error.Code != code {
		t.Fatalf("error code = %q, want %q", envelope.Error.Code, code)
	}
}

func TestTrainEndpointWithBody(t *testing.T) {
	srv, model, _ := newTestServer(t, false)

	resp, envelope := doJSON(t, http.MethodPost, srv.URL+"/api/v1/model/train",
		models.TrainRequest{Tracks: apiCorpus(10)})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%+v)", resp.StatusCode, envelope.Error)
	}
	if !model.Status().Trained {
		t.Fatal("model not trained after train call")
	}
	if model.Status().TrackCount != 10 {
		t.Fatalf("TrackCount = %d, want 10", model.Status().TrackCount)
	}
}

func TestTrainEndpointFromCatalog(t *testing.T) {
	srv, model, store := newTestServer(t, false)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/model/train", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := model.Status().TrackCount; got != len(store.tracks) {
		t.Fatalf("TrackCount = %d, want %d from catalog", got, len(store.tracks))
	}
}

func TestTrainEndpointRejectsNegativeWeight(t *testing.T) {
	srv, _, _ := newTestServer(t, false)

	resp, envelope := doJSON(t, http.MethodPost, srv.URL+"/api/v1/model/train",
		models.TrainRequest{Tracks: apiCorpus(5), ArtistWeight: -3})
	wantErrorCode(t, resp, envelope, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestRecommendationsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t, true)

	resp, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/recommendations/T1?n=4", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%+v)", resp.StatusCode, envelope.Error)
	}

	raw, err := json.Marshal(envelope.Data)
	if err != nil {
		t.Fatalf("re-marshal data: %v", err)
	}
	var data models.RecommendationsResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}

	if data.TrackID != "T1" {
		t.Errorf("TrackID = %q, want T1", data.TrackID)
	}
	if len(data.Recommendations) != 4 {
		t.Fatalf("got %d recommendations, want 4", len(data.Recommendations))
	}
	for i, rec := range data.Recommendations {
		if rec.TrackID == "T1" {
			t.Error("seed track in results")
		}
		if i > 0 && data.Recommendations[i-1].Distance > rec.Distance {
			t.Errorf("distances not ascending at %d", i)
		}
	}
}

func TestRecommendationsDefaultN(t *testing.T) {
	srv, _, _ := newTestServer(t, true)

	resp, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/recommendations/T2", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	raw, _ := json.Marshal(envelope.Data)
	var data models.RecommendationsResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data.Recommendations) != 5 {
		t.Fatalf("got %d recommendations, want default 5", len(data.Recommendations))
	}
}

func TestRecommendationsErrors(t *testing.T) {
	t.Run("unknown track", func(t *testing.T) {
		srv, _, _ := newTestServer(t, true)
		resp, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/recommendations/nope", nil)
		wantErrorCode(t, resp, envelope, http.StatusNotFound, "NOT_FOUND")
	})

	t.Run("untrained model", func(t *testing.T) {
		srv, _, _ := newTestServer(t, false)
		resp, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/recommendations/T1", nil)
		wantErrorCode(t, resp, envelope, http.StatusConflict, "MODEL_UNTRAINED")
	})

	t.Run("non-integer n", func(t *testing.T) {
		srv, _, _ := newTestServer(t, true)
		resp, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/recommendations/T1?n=abc", nil)
		wantErrorCode(t, resp, envelope, http.StatusBadRequest, "BAD_REQUEST")
	})

	t.Run("zero n", func(t *testing.T) {
		srv, _, _ := newTestServer(t, true)
		resp, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/recommendations/T1?n=0", nil)
		wantErrorCode(t, resp, envelope, http.StatusBadRequest, "VALIDATION_ERROR")
	})
}

func TestExplanationsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t, true)

	resp, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/recommendations/T1/explanations?n=3", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%+v)", resp.StatusCode, envelope.Error)
	}
	raw, _ := json.Marshal(envelope.Data)
	var data models.ExplanationsResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data.Explanations) != 3 {
		t.Fatalf("got %d explanations, want 3", len(data.Explanations))
	}
}

func TestUpdateEndpoint(t *testing.T) {
	srv, model, store := newTestServer(t, true)

	newTrack := apiTrack(100)
	resp, envelope := doJSON(t, http.MethodPost, srv.URL+"/api/v1/model/tracks",
		models.UpdateRequest{Tracks: []recommend.Track{newTrack}})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%+v)", resp.StatusCode, envelope.Error)
	}

	if got := model.Status().TrackCount; got != 21 {
		t.Errorf("TrackCount = %d, want 21", got)
	}
	if len(store.inserted) != 1 || store.inserted[0][0].ID != "T100" {
		t.Errorf("catalog insert missing: %+v", store.inserted)
	}
}

func TestUpdateEndpointDuplicate(t *testing.T) {
	srv, _, store := newTestServer(t, true)

	resp, envelope := doJSON(t, http.MethodPost, srv.URL+"/api/v1/model/tracks",
		models.UpdateRequest{Tracks: []recommend.Track{apiTrack(1)}})
	wantErrorCode(t, resp, envelope, http.StatusConflict, "DUPLICATE_TRACK")

	if len(store.inserted) != 0 {
		t.Errorf("rejected update reached the catalog: %+v", store.inserted)
	}
}

func TestUpdateEndpointEmptyBody(t *testing.T) {
	srv, _, _ := newTestServer(t, true)

	resp, envelope := doJSON(t, http.MethodPost, srv.URL+"/api/v1/model/tracks",
		models.UpdateRequest{})
	wantErrorCode(t, resp, envelope, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestSkippedEndpoints(t *testing.T) {
	srv, model, _ := newTestServer(t, true)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/model/skipped",
		models.SkippedRequest{TrackIDs: []string{"T2", "T3"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mark status = %d, want 200", resp.StatusCode)
	}
	if got := model.Status().SkippedCount; got != 2 {
		t.Fatalf("SkippedCount = %d, want 2", got)
	}

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/model/skipped", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("clear status = %d, want 200", resp.StatusCode)
	}
	if got := model.Status().SkippedCount; got != 0 {
		t.Fatalf("SkippedCount after clear = %d, want 0", got)
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t, true)

	resp, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/model/status", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	raw, _ := json.Marshal(envelope.Data)
	var status recommend.Status
	if err := json.Unmarshal(raw, &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Trained || status.TrackCount != 20 {
		t.Fatalf("status = %+v, want trained with 20 tracks", status)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _, store := newTestServer(t, true)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/v1/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d, want 200", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/health/live", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("live status = %d, want 200", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/health/ready", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ready status = %d, want 200", resp.StatusCode)
	}

	store.pingErr = errors.New("closed")
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/health/ready", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("ready status = %d, want 503 when catalog is down", resp.StatusCode)
	}
}

func TestRequestIDHeaderPresent(t *testing.T) {
	srv, _, _ := newTestServer(t, true)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/v1/health", nil)
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("X-Request-ID header missing")
	}
}
