// Copyright 2026 The Recoord Authors
//
// SPDX-License-Identifier: Apache-2.0

package resolve

import "fmt"

var validConfidence = map[string]bool{
	"high":   true,
	"medium": true,
	"low":    true,
}

var validProviders = map[string]bool{
	ProviderNominatim: true,
	ProviderGoogle:    true,
}

// validateResolution rejects resolutions that would poison the cache.
func validateResolution(r *Resolution) error {
	if r == nil {
		return fmt.Errorf("resolution is nil")
	}

	if r.Address == "" {
		return fmt.Errorf("resolution has an empty address")
	}

	if r.DisplayName == "" {
		return fmt.Errorf("resolution %q has an empty display name", r.Address)
	}

	if !validProviders[r.Provider] {
		return fmt.Errorf("resolution %q has an unknown provider %q", r.Address, r.Provider)
	}

	if !validConfidence[r.Confidence] {
		return fmt.Errorf("resolution %q has an unknown confidence %q", r.Address, r.Confidence)
	}

	return nil
}
