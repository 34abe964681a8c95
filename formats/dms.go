// Copyright 2026 The Recoord Authors
//
// SPDX-License-Identifier: Apache-2.0
package formats

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/jcodagnone/recoord/spatial"
)

// DMS parses and formats sexagesimal degree-minute-second text such as
// `50°10'20"N 10°25'30"E`.
type DMS struct {
	// SecondsPrecision is the number of fractional digits Format emits for
	// the seconds field.
	SecondsPrecision int
}

// Name implements the Codec interface.
func (DMS) Name() string { return "dms" }

// Parse implements the Codec interface. The input is two whitespace-separated
// axis tokens, latitude first. Each token is `<deg>°<min>'<sec>"<hemi>` with
// minutes in [0,59] (one or two digits), seconds a non-negative real in
// [0,60) and the hemisphere letter N/S for latitude, E/W for longitude.
func (DMS) Parse(text string) (spatial.Coordinate, error) {
	tokens := strings.Fields(text)
	if len(tokens) != 2 {
		return spatial.Coordinate{}, newParseError("dms", KindInvalidFormat,
			"expected two axis tokens, got %d", len(tokens))
	}

	lat, err := parseDMSAxis(tokens[0], 'N', 'S')
	if err != nil {
		return spatial.Coordinate{}, err
	}

	lng, err := parseDMSAxis(tokens[1], 'E', 'W')
	if err != nil {
		return spatial.Coordinate{}, err
	}

	coordinate, err := spatial.New(lat, lng)
	if err != nil {
		return spatial.Coordinate{}, outOfRange("dms", err)
	}

	return coordinate, nil
}

// Format implements the Codec interface. Each axis is decomposed as
// degrees = floor(|v|), minutes = floor(frac·60), seconds = remainder·3600
// rounded to SecondsPrecision digits. A rounding carry that pushes seconds to
// 60 propagates to minutes, and minutes to degrees, so the output never
// contains 60" or 60'. The hemisphere letter comes from the sign; zero maps
// to N/E.
func (d DMS) Format(c spatial.Coordinate) (string, error) {
	if d.SecondsPrecision < 0 {
		return "", fmt.Errorf("dms: seconds precision must be non-negative, got %d", d.SecondsPrecision)
	}

	return formatDMSAxis(c.Lat(), d.SecondsPrecision, 'N', 'S') + " " +
		formatDMSAxis(c.Lng(), d.SecondsPrecision, 'E', 'W'), nil
}

func parseDMSAxis(token string, positive, negative rune) (float64, error) {
	r := []rune(token)
	i := 0

	degrees, i, err := scanDMSInt(r, i, "degrees")
	if err != nil {
		return 0, err
	}

	if i, err = expectRune(r, i, '°'); err != nil {
		return 0, err
	}

	start := i
	minutes, i, err := scanDMSInt(r, i, "minutes")
	if err != nil {
		return 0, err
	}

	if width := i - start; width > 2 {
		return 0, newParseError("dms", KindInvalidFormat,
			"minutes must be one or two digits, got %q", string(r[start:i]))
	}

	if minutes > 59 {
		return 0, newParseError("dms", KindInvalidFormat, "minutes %d not in [0,59]", minutes)
	}

	if i, err = expectRune(r, i, '\''); err != nil {
		return 0, err
	}

	seconds, i, err := scanDMSSeconds(r, i)
	if err != nil {
		return 0, err
	}

	if i, err = expectRune(r, i, '"'); err != nil {
		return 0, err
	}

	if i >= len(r) {
		return 0, newParseError("dms", KindInvalidFormat, "missing hemisphere letter in %q", token)
	}

	hemisphere := unicode.ToUpper(r[i])
	i++

	if i != len(r) {
		return 0, newParseError("dms", KindInvalidFormat,
			"unexpected trailing input %q", string(r[i:]))
	}

	if hemisphere != positive && hemisphere != negative {
		return 0, newParseError("dms", KindInvalidFormat,
			"hemisphere %q not valid for this axis (want %c or %c)", string(hemisphere), positive, negative)
	}

	value := float64(degrees) + float64(minutes)/60 + seconds/3600
	if hemisphere == negative {
		value = -value
	}

	return value, nil
}

func formatDMSAxis(value float64, precision int, positive, negative rune) string {
	hemisphere := positive

	if value < 0 {
		hemisphere = negative
		value = -value
	}

	degrees := math.Floor(value)
	remainder := value - degrees
	minutes := math.Floor(remainder * 60)

	seconds := (remainder - minutes/60) * 3600
	if seconds < 0 {
		seconds = 0
	}

	// Round first, then propagate carries so 60" or 60' never appears.
	scale := math.Pow(10, float64(precision))
	seconds = math.Round(seconds*scale) / scale

	if seconds >= 60 {
		seconds -= 60
		minutes++
	}

	if minutes >= 60 {
		minutes -= 60
		degrees++
	}

	return fmt.Sprintf("%d°%d'%s\"%c",
		int(degrees), int(minutes), strconv.FormatFloat(seconds, 'f', precision, 64), hemisphere)
}

// scanDMSInt consumes one or more ASCII digits starting at i.
func scanDMSInt(r []rune, i int, field string) (int, int, error) {
	start := i
	for i < len(r) && r[i] >= '0' && r[i] <= '9' {
		i++
	}

	if i == start {
		return 0, 0, newParseError("dms", KindInvalidFormat, "expected %s digits", field)
	}

	value, err := strconv.Atoi(string(r[start:i]))
	if err != nil {
		return 0, 0, newParseError("dms", KindInvalidFormat, "%s %q: %v", field, string(r[start:i]), err)
	}

	return value, i, nil
}

// scanDMSSeconds consumes digits with an optional fractional part and
// enforces the [0,60) bound.
func scanDMSSeconds(r []rune, i int) (float64, int, error) {
	start := i
	for i < len(r) && r[i] >= '0' && r[i] <= '9' {
		i++
	}

	if i == start {
		return 0, 0, newParseError("dms", KindInvalidFormat, "expected seconds digits")
	}

	if i < len(r) && r[i] == '.' {
		i++

		fracStart := i
		for i < len(r) && r[i] >= '0' && r[i] <= '9' {
			i++
		}

		if i == fracStart {
			return 0, 0, newParseError("dms", KindInvalidFormat, "expected fractional digits after '.'")
		}
	}

	value, err := strconv.ParseFloat(string(r[start:i]), 64)
	if err != nil {
		return 0, 0, newParseError("dms", KindInvalidFormat, "seconds %q: %v", string(r[start:i]), err)
	}

	if value >= 60 {
		return 0, 0, newParseError("dms", KindInvalidFormat, "seconds %v not in [0,60)", value)
	}

	return value, i, nil
}

func expectRune(r []rune, i int, want rune) (int, error) {
	if i >= len(r) || r[i] != want {
		got := "end of input"
		if i < len(r) {
			got = strconv.QuoteRune(r[i])
		}

		return 0, newParseError("dms", KindInvalidFormat, "expected %q, got %s", string(want), got)
	}

	return i + 1, nil
}
