// Copyright 2026 The Recoord Authors
//
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNominatimServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Nominatim) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	resolver := NewNominatim(&NominatimOptions{Endpoint: server.URL})

	return server, resolver
}

func TestNominatimResolve(t *testing.T) {
	var gotQuery string

	_, resolver := newNominatimServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")

		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"lat": "-34.9058916",
				"lon": "-56.1913095",
				"display_name": "Palacio Salvo, Plaza Independencia, Montevideo, Uruguay",
				"importance": 0.72
			}
		]`))
	})

	result, err := resolver.Resolve(context.Background(), "  Palacio   Salvo, Montevideo ")
	require.NoError(t, err)

	assert.Equal(t, "palacio salvo, montevideo", gotQuery)
	assert.InDelta(t, -34.9058916, result.Coordinate.Lat(), 1e-9)
	assert.InDelta(t, -56.1913095, result.Coordinate.Lng(), 1e-9)
	assert.Equal(t, "Palacio Salvo, Plaza Independencia, Montevideo, Uruguay", result.DisplayName)
	assert.Equal(t, "high", result.Confidence)
	assert.Equal(t, "nominatim", result.Provider)
}

func TestNominatimResolveFirstCandidateWins(t *testing.T) {
	_, resolver := newNominatimServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"lat": "18.4", "lon": "-66.0", "display_name": "first", "importance": 0.4},
			{"lat": "40.0", "lon": "-3.7", "display_name": "second", "importance": 0.9}
		]`))
	})

	result, err := resolver.Resolve(context.Background(), "ambiguous place")
	require.NoError(t, err)

	assert.Equal(t, "first", result.DisplayName)
	assert.Equal(t, "medium", result.Confidence)
}

func TestNominatimResolveNotFound(t *testing.T) {
	_, resolver := newNominatimServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	result, err := resolver.Resolve(context.Background(), "nowhere at all")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, IsNotFoundError(err))
}

func TestNominatimResolveEmptyAddress(t *testing.T) {
	_, resolver := newNominatimServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should never reach the server")
	})

	_, err := resolver.Resolve(context.Background(), "   ")
	require.Error(t, err)

	var resErr *ResolveError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, ErrorTypeInvalidRequest, resErr.Type)
}

func TestNominatimResolveRateLimited(t *testing.T) {
	_, resolver := newNominatimServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := resolver.Resolve(context.Background(), "somewhere")
	require.Error(t, err)
	assert.True(t, IsRateLimitError(err))
}

func TestNominatimResolveMalformedCoordinate(t *testing.T) {
	_, resolver := newNominatimServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"lat": "not-a-number", "lon": "10", "display_name": "x"}]`))
	})

	_, err := resolver.Resolve(context.Background(), "somewhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed latitude")
}

func TestNominatimResolveOutOfRangeCoordinate(t *testing.T) {
	_, resolver := newNominatimServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"lat": "95.0", "lon": "10", "display_name": "x"}]`))
	})

	_, err := resolver.Resolve(context.Background(), "somewhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid coordinate")
}

func TestNominatimResolveCanceledContext(t *testing.T) {
	_, resolver := newNominatimServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := resolver.Resolve(ctx, "somewhere")
	require.Error(t, err)

	var resErr *ResolveError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, ErrorTypeNetworkError, resErr.Type)
}
