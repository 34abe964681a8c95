// Copyright 2026 The Recoord Authors
//
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/recoord/resolve"
	"github.com/jcodagnone/recoord/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockResolver struct {
	result *resolve.Result
	err    error
}

func (m *mockResolver) Resolve(_ context.Context, _ string) (*resolve.Result, error) {
	return m.result, m.err
}

type mockRepository struct {
	recent []*resolve.Resolution
}

func (m *mockRepository) CreateSchema() error                     { return nil }
func (m *mockRepository) Get(_ string) (*resolve.Resolution, error) { return nil, nil }
func (m *mockRepository) Save(_ *resolve.Resolution) error        { return nil }
func (m *mockRepository) Recent(limit int) ([]*resolve.Resolution, error) {
	if limit < len(m.recent) {
		return m.recent[:limit], nil
	}

	return m.recent, nil
}

func (m *mockRepository) Nearest(_ spatial.Coordinate, _ int) ([]*resolve.Resolution, error) {
	return nil, nil
}
func (m *mockRepository) Count() (int, error) { return len(m.recent), nil }
func (m *mockRepository) DB() *sql.DB         { return nil }

func setupServerTest(t *testing.T, resolver resolve.Resolver, repo resolve.Repository) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	return NewServer(resolver, repo).Router()
}

func doGet(t *testing.T, router *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)

	var body map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}

	return w, body
}

func TestHealthAPI(t *testing.T) {
	router := setupServerTest(t, nil, nil)

	w, body := doGet(t, router, "/api/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestParseAPI(t *testing.T) {
	router := setupServerTest(t, nil, nil)

	tests := []struct {
		name      string
		path      string
		status    int
		latitude  float64
		longitude float64
		format    string
	}{
		{
			name:      "decimal degrees explicit",
			path:      "/api/parse?text=10.5,-20.25&format=dd",
			status:    http.StatusOK,
			latitude:  10.5,
			longitude: -20.25,
			format:    "dd",
		},
		{
			name:      "dms detected",
			path:      "/api/parse?text=50%C2%B010%2720%22N%2010%C2%B025%2730%22E",
			status:    http.StatusOK,
			latitude:  50.172222,
			longitude: 10.425,
			format:    "dms",
		},
		{
			name:      "geohash explicit",
			path:      "/api/parse?text=ezs42&format=geohash",
			status:    http.StatusOK,
			latitude:  42.60498046875,
			longitude: -5.60302734375,
			format:    "geohash",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := doGet(t, router, tt.path)

			require.Equal(t, tt.status, w.Code, w.Body.String())
			assert.InDelta(t, tt.latitude, body["latitude"], 1e-6)
			assert.InDelta(t, tt.longitude, body["longitude"], 1e-6)
			assert.Equal(t, tt.format, body["format"])
		})
	}
}

func TestParseAPIGeohashErrorBounds(t *testing.T) {
	router := setupServerTest(t, nil, nil)

	w, body := doGet(t, router, "/api/parse?text=ezs42&format=geohash")

	require.Equal(t, http.StatusOK, w.Code)

	bounds, ok := body["error_bounds"].(map[string]any)
	require.True(t, ok, "missing error_bounds for a geohash")
	assert.InDelta(t, 0.02197265625, bounds["latitude"], 1e-12)
	assert.InDelta(t, 0.02197265625, bounds["longitude"], 1e-12)
}

func TestParseAPIErrors(t *testing.T) {
	router := setupServerTest(t, nil, nil)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"missing text", "/api/parse", http.StatusBadRequest},
		{"unknown format", "/api/parse?text=1,2&format=utm", http.StatusBadRequest},
		{"malformed dd", "/api/parse?text=abc&format=dd", http.StatusBadRequest},
		{"out of range dd", "/api/parse?text=95,20&format=dd", http.StatusUnprocessableEntity},
		{"geohash bad symbol", "/api/parse?text=ez!42&format=geohash", http.StatusBadRequest},
		{"nothing matches", "/api/parse?text=%3F%3F%3F", http.StatusBadRequest},
		{"bad precision", "/api/parse?text=1,2&format=dd&precision=x", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := doGet(t, router, tt.path)

			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestFormatAPI(t *testing.T) {
	router := setupServerTest(t, nil, nil)

	tests := []struct {
		name   string
		path   string
		status int
		text   string
	}{
		{
			name:   "default dd",
			path:   "/api/format?lat=10.5&lng=-20.25",
			status: http.StatusOK,
			text:   "10.500000,-20.250000",
		},
		{
			name:   "dd custom precision",
			path:   "/api/format?lat=10.5&lng=-20.25&format=dd&precision=2",
			status: http.StatusOK,
			text:   "10.50,-20.25",
		},
		{
			name:   "dms",
			path:   "/api/format?lat=50.172222&lng=10.425&format=dms&precision=0",
			status: http.StatusOK,
			text:   `50°10'20"N 10°25'30"E`,
		},
		{
			name:   "geohash custom length",
			path:   "/api/format?lat=42.605&lng=-5.603&format=geohash&precision=5",
			status: http.StatusOK,
			text:   "ezs42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := doGet(t, router, tt.path)

			require.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.text, body["text"])
		})
	}
}

func TestFormatAPIErrors(t *testing.T) {
	router := setupServerTest(t, nil, nil)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"missing lat", "/api/format?lng=10", http.StatusBadRequest},
		{"missing lng", "/api/format?lat=10", http.StatusBadRequest},
		{"out of range", "/api/format?lat=95&lng=10", http.StatusUnprocessableEntity},
		{"unknown format", "/api/format?lat=1&lng=2&format=utm", http.StatusBadRequest},
		{"negative precision", "/api/format?lat=1&lng=2&precision=-1", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := doGet(t, router, tt.path)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func mustNew(t *testing.T, lat, lng float64) spatial.Coordinate {
	t.Helper()

	c, err := spatial.New(lat, lng)
	require.NoError(t, err)

	return c
}

func TestResolveAPI(t *testing.T) {
	resolver := &mockResolver{
		result: &resolve.Result{
			Coordinate:  mustNew(t, -34.9066, -56.2006),
			DisplayName: "Plaza Independencia, Montevideo",
			Confidence:  "high",
			Provider:    "nominatim",
		},
	}

	router := setupServerTest(t, resolver, nil)

	w, body := doGet(t, router, "/api/resolve?q=plaza+independencia")

	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, -34.9066, body["latitude"], 1e-6)
	assert.InDelta(t, -56.2006, body["longitude"], 1e-6)
	assert.Equal(t, "Plaza Independencia, Montevideo", body["display_name"])
	assert.Equal(t, "high", body["confidence"])
	assert.Equal(t, "nominatim", body["provider"])
}

func TestResolveAPIErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", &resolve.ResolveError{Type: resolve.ErrorTypeNotFound, Message: "no results"}, http.StatusNotFound},
		{"rate limited", &resolve.ResolveError{Type: resolve.ErrorTypeRateLimit, Message: "slow down"}, http.StatusTooManyRequests},
		{"quota", &resolve.ResolveError{Type: resolve.ErrorTypeQuotaExceeded, Message: "quota"}, http.StatusForbidden},
		{"timeout", &resolve.ResolveError{Type: resolve.ErrorTypeTimeout, Message: "timeout"}, http.StatusGatewayTimeout},
		{"invalid request", &resolve.ResolveError{Type: resolve.ErrorTypeInvalidRequest, Message: "bad"}, http.StatusBadRequest},
		{"network", &resolve.ResolveError{Type: resolve.ErrorTypeNetworkError, Message: "down"}, http.StatusBadGateway},
		{"unknown", &resolve.ResolveError{Type: resolve.ErrorTypeUnknown, Message: "boom"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupServerTest(t, &mockResolver{err: tt.err}, nil)

			w, _ := doGet(t, router, "/api/resolve?q=anywhere")

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestResolveAPIMissingQuery(t *testing.T) {
	router := setupServerTest(t, &mockResolver{}, nil)

	w, _ := doGet(t, router, "/api/resolve")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolveAPIUnconfigured(t *testing.T) {
	router := setupServerTest(t, nil, nil)

	w, _ := doGet(t, router, "/api/resolve?q=anywhere")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListResolutionsAPI(t *testing.T) {
	repo := &mockRepository{
		recent: []*resolve.Resolution{
			{
				Address:     "plaza independencia",
				DisplayName: "Plaza Independencia, Montevideo",
				Coordinate:  mustNew(t, -34.9066, -56.2006),
				Provider:    "nominatim",
				Confidence:  "high",
			},
			{
				Address:     "teatro solis",
				DisplayName: "Teatro Solís, Montevideo",
				Coordinate:  mustNew(t, -34.9076, -56.2030),
				Provider:    "google",
				Confidence:  "medium",
			},
		},
	}

	router := setupServerTest(t, nil, repo)

	w, body := doGet(t, router, "/api/resolutions")

	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, body["total"])

	resolutions, ok := body["resolutions"].([]any)
	require.True(t, ok)
	require.Len(t, resolutions, 2)

	first, ok := resolutions[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "plaza independencia", first["address"])

	coordinate, ok := first["coordinate"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, -34.9066, coordinate["latitude"], 1e-6)
}

func TestListResolutionsAPILimit(t *testing.T) {
	repo := &mockRepository{
		recent: []*resolve.Resolution{
			{Address: "a"}, {Address: "b"}, {Address: "c"},
		},
	}

	router := setupServerTest(t, nil, repo)

	w, body := doGet(t, router, "/api/resolutions?limit=2")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["resolutions"], 2)

	w, _ = doGet(t, router, "/api/resolutions?limit=0")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
