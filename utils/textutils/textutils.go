// Copyright 2026 The Recoord Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package textutils normalizes free-text input before it reaches external
// services.
package textutils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LowerASCIIFolding normalizes a string by removing accents, lowercasing, and
// trimming spaces. Resolver lookups fold addresses through this so "Málaga"
// and "malaga" share a cache entry.
func LowerASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

// CollapseSpaces replaces runs of whitespace with a single space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
