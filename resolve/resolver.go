// Copyright 2026 The Recoord Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package resolve turns free-text addresses into coordinates through external
// geocoding providers, with a persistent lookup cache.
package resolve

import (
	"context"

	"github.com/jcodagnone/recoord/spatial"
	"github.com/jcodagnone/recoord/utils/textutils"
)

// Provider names as reported in results and stored in the resolution cache.
const (
	ProviderNominatim = "nominatim"
	ProviderGoogle    = "google"
)

// normalizeAddress produces the canonical form of an address, used both as
// the cache key and as the provider query so the two can never drift.
func normalizeAddress(address string) string {
	return textutils.CollapseSpaces(textutils.LowerASCIIFolding(address))
}

// Result represents an address resolution from any provider.
type Result struct {
	Coordinate  spatial.Coordinate
	DisplayName string
	Confidence  string // high, medium, low
	Provider    string
}

// Resolver interface for different geocoding providers.
type Resolver interface {
	Resolve(ctx context.Context, address string) (*Result, error)
}
