// Copyright 2026 The Recoord Authors
//
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jcodagnone/recoord/spatial"
	"github.com/jcodagnone/recoord/utils/httputils"
)

const defaultNominatimEndpoint = "https://nominatim.openstreetmap.org/search"

// NominatimOptions configures the Nominatim resolver.
type NominatimOptions struct {
	// Endpoint overrides the public OSM instance, mainly for tests and
	// self-hosted deployments.
	Endpoint string

	// UserAgent identifies this client; the public instance rejects
	// anonymous ones.
	UserAgent string

	// Timeout bounds each lookup.
	Timeout time.Duration

	// Trace enables light HTTP tracing when non-nil.
	Trace io.Writer
}

// Nominatim resolves addresses through the OpenStreetMap Nominatim service.
type Nominatim struct {
	endpoint   string
	httpClient *http.Client
}

// NewNominatim creates a Nominatim resolver with the provided options.
func NewNominatim(options *NominatimOptions) *Nominatim {
	if options == nil {
		options = &NominatimOptions{}
	}

	endpoint := options.Endpoint
	if endpoint == "" {
		endpoint = defaultNominatimEndpoint
	}

	userAgent := options.UserAgent
	if userAgent == "" {
		userAgent = "recoord (+https://github.com/jcodagnone/recoord)"
	}

	timeout := options.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Nominatim{
		endpoint:   endpoint,
		httpClient: httputils.NewClient(timeout, userAgent, options.Trace, false),
	}
}

// nominatimPlace is one candidate in the search response. Nominatim returns
// coordinates as JSON strings.
type nominatimPlace struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
}

// Resolve implements the Resolver interface. The first candidate wins;
// malformed or out-of-bounds coordinates surface as errors, never as clamped
// values.
func (n *Nominatim) Resolve(ctx context.Context, address string) (*Result, error) {
	query := normalizeAddress(address)
	if query == "" {
		return nil, &ResolveError{Type: ErrorTypeInvalidRequest, Message: "empty address"}
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", query)
	params.Set("limit", "1")

	reqURL := n.endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPStatus(resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(places) == 0 {
		return nil, &ResolveError{
			Type:    ErrorTypeNotFound,
			Message: fmt.Sprintf("no results found for address: %s", address),
		}
	}

	place := places[0]

	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed latitude %q: %w", place.Lat, err)
	}

	lng, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed longitude %q: %w", place.Lon, err)
	}

	coordinate, err := spatial.New(lat, lng)
	if err != nil {
		return nil, fmt.Errorf("provider returned invalid coordinate: %w", err)
	}

	return &Result{
		Coordinate:  coordinate,
		DisplayName: place.DisplayName,
		Confidence:  nominatimConfidence(place.Importance),
		Provider:    ProviderNominatim,
	}, nil
}

// nominatimConfidence buckets the importance score the way providers with
// discrete location types are bucketed.
func nominatimConfidence(importance float64) string {
	switch {
	case importance >= 0.6:
		return "high"
	case importance >= 0.3:
		return "medium"
	default:
		return "low"
	}
}

func classifyTransportError(err error) error {
	var timeoutErr interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &timeoutErr) && timeoutErr.Timeout()) {
		return &ResolveError{Type: ErrorTypeTimeout, Message: "resolution timed out", Err: err}
	}

	return &ResolveError{Type: ErrorTypeNetworkError, Message: "resolution request failed", Err: err}
}
