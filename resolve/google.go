// Copyright 2026 The Recoord Authors
//
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"github.com/jcodagnone/recoord/spatial"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
)

// apiKeyDisplayName is the display name of the API key resource looked up
// through Application Default Credentials when GOOGLE_MAPS_API_KEY is unset.
const apiKeyDisplayName = "recoord-geocoding"

const defaultGoogleMapsEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleMaps resolves addresses through the Google Maps Geocoding API.
type GoogleMaps struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewGoogleMaps creates a new Google Maps resolver.
func NewGoogleMaps(apiKey string) *GoogleMaps {
	return &GoogleMaps{
		apiKey:   apiKey,
		endpoint: defaultGoogleMapsEndpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewGoogleMapsFromEnv builds the resolver from GOOGLE_MAPS_API_KEY, falling
// back to retrieving the key resource via Application Default Credentials.
func NewGoogleMapsFromEnv(ctx context.Context) (*GoogleMaps, error) {
	apiKey := os.Getenv("GOOGLE_MAPS_API_KEY")
	if apiKey == "" {
		var err error

		apiKey, err = apiKeyFromADC(ctx)
		if err != nil {
			return nil, fmt.Errorf("GOOGLE_MAPS_API_KEY is not set and ADC lookup failed: %w", err)
		}
	}

	return NewGoogleMaps(apiKey), nil
}

func apiKeyFromADC(ctx context.Context) (string, error) {
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return "", fmt.Errorf("finding default credentials: %w", err)
	}

	projectID := creds.ProjectID
	if projectID == "" {
		return "", errors.New("no project ID in default credentials")
	}

	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating apikeys client: %w", err)
	}

	defer client.Close()

	it := client.ListKeys(ctx, &apikeyspb.ListKeysRequest{
		Parent: fmt.Sprintf("projects/%s/locations/global", projectID),
	})

	for {
		key, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("listing keys: %w", err)
		}

		if key.DisplayName != apiKeyDisplayName {
			continue
		}

		// ListKeys redacts the KeyString; GetKeyString retrieves the secret.
		resp, err := client.GetKeyString(ctx, &apikeyspb.GetKeyStringRequest{Name: key.Name})
		if err != nil {
			return "", fmt.Errorf("getting key string: %w", err)
		}

		if resp.KeyString == "" {
			return "", fmt.Errorf("key %q found but its key string is empty", apiKeyDisplayName)
		}

		return resp.KeyString, nil
	}

	return "", fmt.Errorf("key with display name %q not found in project %s", apiKeyDisplayName, projectID)
}

type googleMapsResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"` // ROOFTOP, RANGE_INTERPOLATED, GEOMETRIC_CENTER, APPROXIMATE
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status string `json:"status"` // OK, ZERO_RESULTS, etc.
}

// Resolve implements the Resolver interface.
func (g *GoogleMaps) Resolve(ctx context.Context, address string) (*Result, error) {
	if address == "" {
		return nil, &ResolveError{Type: ErrorTypeInvalidRequest, Message: "empty address"}
	}

	params := url.Values{}
	params.Set("address", address)
	params.Set("key", g.apiKey)

	reqURL := g.endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPStatus(resp.StatusCode)
	}

	var gmResp googleMapsResponse
	if err := json.NewDecoder(resp.Body).Decode(&gmResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	switch gmResp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, &ResolveError{
			Type:    ErrorTypeNotFound,
			Message: fmt.Sprintf("no results found for address: %s", address),
		}
	case "OVER_QUERY_LIMIT":
		return nil, &ResolveError{Type: ErrorTypeQuotaExceeded, Message: "google maps quota exceeded"}
	default:
		return nil, fmt.Errorf("google maps status: %s", gmResp.Status)
	}

	if len(gmResp.Results) == 0 {
		return nil, &ResolveError{
			Type:    ErrorTypeNotFound,
			Message: fmt.Sprintf("no results found for address: %s", address),
		}
	}

	result := gmResp.Results[0]

	coordinate, err := spatial.New(result.Geometry.Location.Lat, result.Geometry.Location.Lng)
	if err != nil {
		return nil, fmt.Errorf("provider returned invalid coordinate: %w", err)
	}

	// Confidence follows the geometry precision reported by the API.
	confidence := "low"

	switch result.Geometry.LocationType {
	case "ROOFTOP", "RANGE_INTERPOLATED":
		confidence = "high"
	case "GEOMETRIC_CENTER":
		confidence = "medium"
	case "APPROXIMATE":
		confidence = "low"
	}

	return &Result{
		Coordinate:  coordinate,
		DisplayName: result.FormattedAddress,
		Confidence:  confidence,
		Provider:    ProviderGoogle,
	}, nil
}
