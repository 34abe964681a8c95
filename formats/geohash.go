// Copyright 2026 The Recoord Authors
//
// SPDX-License-Identifier: Apache-2.0
package formats

import (
	"fmt"
	"strings"

	"github.com/jcodagnone/recoord/spatial"
)

// geohashAlphabet is the base-32 alphabet; the index of a character is its
// 5-bit value. a, i, l and o are excluded to avoid visual ambiguity.
const geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// Geohash encodes and decodes base-32 geohash strings such as "ezs42". Each
// character carries 5 bits, alternating between longitude and latitude
// starting with longitude, so a hash denotes a bounding box whose size is
// determined by the string length alone.
type Geohash struct {
	// Length is the number of characters Format emits.
	Length int
}

// Name implements the Codec interface.
func (Geohash) Name() string { return "geohash" }

// Parse implements the Codec interface. It replays the midpoint-narrowing
// process for every bit of the hash and returns the center of the final
// bounding box. Parsing is case-insensitive; characters outside the alphabet
// fail with an unknown-symbol error.
func (Geohash) Parse(text string) (spatial.Coordinate, error) {
	hash := strings.ToLower(strings.TrimSpace(text))
	if hash == "" {
		return spatial.Coordinate{}, newParseError("geohash", KindInvalidFormat, "empty geohash")
	}

	latMin, latMax := spatial.MinLatitude, spatial.MaxLatitude
	lngMin, lngMax := spatial.MinLongitude, spatial.MaxLongitude
	longitudeBit := true

	for pos := 0; pos < len(hash); pos++ {
		value := strings.IndexByte(geohashAlphabet, hash[pos])
		if value < 0 {
			return spatial.Coordinate{}, newParseError("geohash", KindUnknownSymbol,
				"character %q at position %d is not in the geohash alphabet", string(hash[pos]), pos)
		}

		for bit := 4; bit >= 0; bit-- {
			high := value&(1<<bit) != 0

			if longitudeBit {
				mid := (lngMin + lngMax) / 2
				if high {
					lngMin = mid
				} else {
					lngMax = mid
				}
			} else {
				mid := (latMin + latMax) / 2
				if high {
					latMin = mid
				} else {
					latMax = mid
				}
			}

			longitudeBit = !longitudeBit
		}
	}

	coordinate, err := spatial.New((latMin+latMax)/2, (lngMin+lngMax)/2)
	if err != nil {
		return spatial.Coordinate{}, outOfRange("geohash", err)
	}

	return coordinate, nil
}

// Format implements the Codec interface. For each of Length·5 bits it halves
// the active axis range at its midpoint, emitting 1 when the coordinate lies
// in the upper half. Bits alternate starting with longitude, which therefore
// receives the extra bit when the total count is odd; Parse relies on the
// same order to invert Format exactly.
func (g Geohash) Format(c spatial.Coordinate) (string, error) {
	if g.Length <= 0 {
		return "", fmt.Errorf("geohash: length must be positive, got %d", g.Length)
	}

	latMin, latMax := spatial.MinLatitude, spatial.MaxLatitude
	lngMin, lngMax := spatial.MinLongitude, spatial.MaxLongitude
	longitudeBit := true

	var out strings.Builder

	out.Grow(g.Length)

	value := 0

	for bit := 0; bit < g.Length*5; bit++ {
		if longitudeBit {
			mid := (lngMin + lngMax) / 2
			if c.Lng() >= mid {
				value = value<<1 | 1
				lngMin = mid
			} else {
				value <<= 1
				lngMax = mid
			}
		} else {
			mid := (latMin + latMax) / 2
			if c.Lat() >= mid {
				value = value<<1 | 1
				latMin = mid
			} else {
				value <<= 1
				latMax = mid
			}
		}

		longitudeBit = !longitudeBit

		if bit%5 == 4 {
			out.WriteByte(geohashAlphabet[value])

			value = 0
		}
	}

	return out.String(), nil
}

// ErrorBounds returns the half-width of the bounding box a hash of the given
// length denotes, per axis in degrees. Longitude gets the extra bit when the
// total bit count is odd.
func ErrorBounds(length int) (latErr, lngErr float64) {
	bits := length * 5
	lngBits := (bits + 1) / 2
	latBits := bits / 2

	latErr = spatial.MaxLatitude
	for i := 0; i < latBits; i++ {
		latErr /= 2
	}

	lngErr = spatial.MaxLongitude
	for i := 0; i < lngBits; i++ {
		lngErr /= 2
	}

	return latErr, lngErr
}
