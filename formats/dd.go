// Copyright 2026 The Recoord Authors
//
// SPDX-License-Identifier: Apache-2.0
package formats

import (
	"fmt"
	"strconv"

	"github.com/jcodagnone/recoord/spatial"
)

// DD parses and formats decimal-degree text such as "15.7445,20.345346" or
// "15.7445 N, 20.345346 E".
type DD struct {
	// Precision is the number of fractional digits Format emits per axis.
	Precision int
}

// Name implements the Codec interface.
func (DD) Name() string { return "dd" }

// Parse implements the Codec interface. The grammar is two signed decimal
// numbers in latitude, longitude order, separated by a comma and/or
// whitespace. Each number may carry a trailing hemisphere letter (N/S for
// latitude, E/W for longitude) that replaces the leading sign; combining an
// explicit sign with a hemisphere letter is rejected unless the sign is "+"
// and the hemisphere is the positive one. Exponents and thousands separators
// are not part of the grammar.
func (DD) Parse(text string) (spatial.Coordinate, error) {
	sc := &ddScanner{s: text}
	sc.skipSpaces()

	lat, err := sc.axis('N', 'S')
	if err != nil {
		return spatial.Coordinate{}, err
	}

	if err := sc.separator(); err != nil {
		return spatial.Coordinate{}, err
	}

	lng, err := sc.axis('E', 'W')
	if err != nil {
		return spatial.Coordinate{}, err
	}

	sc.skipSpaces()

	if !sc.eof() {
		return spatial.Coordinate{}, newParseError("dd", KindInvalidFormat,
			"unexpected trailing input %q", sc.s[sc.i:])
	}

	coordinate, err := spatial.New(lat, lng)
	if err != nil {
		return spatial.Coordinate{}, outOfRange("dd", err)
	}

	return coordinate, nil
}

// Format implements the Codec interface. Both axes are printed with exactly
// Precision fractional digits, comma separated, sign preserved, no
// hemisphere letters.
func (d DD) Format(c spatial.Coordinate) (string, error) {
	if d.Precision < 0 {
		return "", fmt.Errorf("dd: precision must be non-negative, got %d", d.Precision)
	}

	return fmt.Sprintf("%.*f,%.*f", d.Precision, c.Lat(), d.Precision, c.Lng()), nil
}

// ddScanner is a single-pass cursor over the input text.
type ddScanner struct {
	s string
	i int
}

func (sc *ddScanner) eof() bool {
	return sc.i >= len(sc.s)
}

func (sc *ddScanner) peek() byte {
	if sc.eof() {
		return 0
	}

	return sc.s[sc.i]
}

func (sc *ddScanner) skipSpaces() int {
	n := 0
	for !sc.eof() && (sc.s[sc.i] == ' ' || sc.s[sc.i] == '\t') {
		sc.i++
		n++
	}

	return n
}

// separator consumes the token boundary between latitude and longitude:
// a comma and/or whitespace, at least one of them.
func (sc *ddScanner) separator() error {
	seen := sc.skipSpaces()

	if sc.peek() == ',' {
		sc.i++
		seen++
	}

	sc.skipSpaces()

	if seen == 0 {
		return newParseError("dd", KindInvalidFormat,
			"expected comma or whitespace between latitude and longitude")
	}

	return nil
}

// axis scans one signed decimal number with its optional hemisphere suffix
// and returns the signed degree value.
func (sc *ddScanner) axis(positive, negative byte) (float64, error) {
	var explicitSign byte

	if c := sc.peek(); c == '+' || c == '-' {
		explicitSign = c
		sc.i++
	}

	start := sc.i
	for !sc.eof() && isDigit(sc.s[sc.i]) {
		sc.i++
	}

	if sc.i == start {
		return 0, newParseError("dd", KindInvalidFormat,
			"expected a number at position %d", sc.i)
	}

	if sc.peek() == '.' {
		sc.i++

		fracStart := sc.i
		for !sc.eof() && isDigit(sc.s[sc.i]) {
			sc.i++
		}

		if sc.i == fracStart {
			return 0, newParseError("dd", KindInvalidFormat,
				"expected fractional digits after '.'")
		}
	}

	magnitude, err := strconv.ParseFloat(sc.s[start:sc.i], 64)
	if err != nil {
		return 0, newParseError("dd", KindInvalidFormat, "number %q: %v", sc.s[start:sc.i], err)
	}

	// Optional hemisphere letter, possibly after spaces ("15 N").
	mark := sc.i
	sc.skipSpaces()

	if c := upper(sc.peek()); c == positive || c == negative {
		sc.i++

		if explicitSign != 0 && !(explicitSign == '+' && c == positive) {
			return 0, newParseError("dd", KindInvalidFormat,
				"sign %q conflicts with hemisphere %q", string(explicitSign), string(c))
		}

		if c == negative {
			return -magnitude, nil
		}

		return magnitude, nil
	}

	sc.i = mark

	if explicitSign == '-' {
		return -magnitude, nil
	}

	return magnitude, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}

	return c
}
