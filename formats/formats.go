// Copyright 2026 The Recoord Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package formats converts coordinates between the canonical spatial.Coordinate
// and the supported textual encodings: decimal degrees, degree-minute-second
// and geohash.
package formats

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jcodagnone/recoord/spatial"
)

// Codec is the uniform parse/format contract every encoding implements.
// Formatting options (precision, length) travel as fields of the codec value,
// so a configured Codec is safe to share between goroutines.
type Codec interface {
	// Name identifies the encoding ("dd", "dms", "geohash").
	Name() string

	// Parse converts text into a validated Coordinate. Failures are
	// *ParseError values carrying the failure kind.
	Parse(text string) (spatial.Coordinate, error)

	// Format renders the coordinate in this encoding.
	Format(c spatial.Coordinate) (string, error)
}

// ErrorKind classifies a parse failure.
type ErrorKind int

const (
	// KindInvalidFormat means the text does not match the target grammar.
	KindInvalidFormat ErrorKind = iota
	// KindOutOfRange means the text parsed but the value violates the
	// [-90,90]/[-180,180] degree invariant.
	KindOutOfRange
	// KindUnknownSymbol means a geohash character outside the base-32
	// alphabet.
	KindUnknownSymbol
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidFormat:
		return "invalid format"
	case KindOutOfRange:
		return "out of range"
	case KindUnknownSymbol:
		return "unknown symbol"
	default:
		return fmt.Sprintf("error kind %d", int(k))
	}
}

// ParseError is the typed failure returned by every codec's Parse.
type ParseError struct {
	Format  string
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Format, e.Kind, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s: %s", e.Format, e.Kind, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(format string, kind ErrorKind, msg string, args ...any) *ParseError {
	return &ParseError{Format: format, Kind: kind, Message: fmt.Sprintf(msg, args...)}
}

// outOfRange wraps a spatial.ErrOutOfRange failure into a ParseError.
func outOfRange(format string, err error) *ParseError {
	return &ParseError{Format: format, Kind: KindOutOfRange, Message: "value outside valid degrees", Err: err}
}

// IsInvalidFormat reports whether err is a grammar-mismatch parse failure.
func IsInvalidFormat(err error) bool { return hasKind(err, KindInvalidFormat) }

// IsOutOfRange reports whether err is a well-formed-but-out-of-bounds failure.
func IsOutOfRange(err error) bool { return hasKind(err, KindOutOfRange) }

// IsUnknownSymbol reports whether err is a geohash alphabet violation.
func IsUnknownSymbol(err error) bool { return hasKind(err, KindUnknownSymbol) }

func hasKind(err error, kind ErrorKind) bool {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Kind == kind
	}

	return false
}

// DetectError aggregates the per-codec failures of a Detect call so the
// caller can diagnose which grammar almost matched.
type DetectError struct {
	Errs []error
}

func (e *DetectError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}

	return "no format matched: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the individual codec errors to errors.Is and errors.As.
func (e *DetectError) Unwrap() []error {
	return e.Errs
}

// DefaultCodecs returns the codecs Detect tries, in order.
func DefaultCodecs() []Codec {
	return []Codec{
		DD{Precision: 6},
		DMS{SecondsPrecision: 2},
		Geohash{Length: 9},
	}
}

// Detect tries each codec in the fixed order DD, DMS, Geohash and returns the
// first successful parse along with the codec that matched. When no codec
// matches, the returned *DetectError lists every codec's failure.
func Detect(text string) (spatial.Coordinate, Codec, error) {
	var errs []error

	for _, codec := range DefaultCodecs() {
		coordinate, err := codec.Parse(text)
		if err == nil {
			return coordinate, codec, nil
		}

		errs = append(errs, err)
	}

	return spatial.Coordinate{}, nil, &DetectError{Errs: errs}
}
