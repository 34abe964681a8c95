// Copyright 2026 The Recoord Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

const earthRadius = 6371e3 // meters

// Valid degree bounds for WGS84-style latitude and longitude.
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// ErrOutOfRange is returned when a latitude or longitude falls outside the
// valid degree bounds. Values are never clamped.
var ErrOutOfRange = errors.New("coordinate out of range")

// Coordinate is a validated geographic position in degrees. The zero value is
// (0, 0). Coordinates are plain immutable values and safe to copy and share.
type Coordinate struct {
	lat float64
	lng float64
}

// New validates lat and lng and returns the Coordinate. Latitude must be in
// [-90, 90] and longitude in [-180, 180], both inclusive.
func New(lat, lng float64) (Coordinate, error) {
	if math.IsNaN(lat) || lat < MinLatitude || lat > MaxLatitude {
		return Coordinate{}, fmt.Errorf("%w: latitude %v not in [%v, %v]",
			ErrOutOfRange, lat, MinLatitude, MaxLatitude)
	}

	if math.IsNaN(lng) || lng < MinLongitude || lng > MaxLongitude {
		return Coordinate{}, fmt.Errorf("%w: longitude %v not in [%v, %v]",
			ErrOutOfRange, lng, MinLongitude, MaxLongitude)
	}

	return Coordinate{lat: lat, lng: lng}, nil
}

// Lat returns the latitude in degrees.
func (c Coordinate) Lat() float64 { return c.lat }

// Lng returns the longitude in degrees.
func (c Coordinate) Lng() float64 { return c.lng }

// ApproxEqual reports whether both axes of c and other differ by at most
// epsilon. Codecs with bounded-precision round trips compare through this
// rather than ==.
func (c Coordinate) ApproxEqual(other Coordinate, epsilon float64) bool {
	return math.Abs(c.lat-other.lat) <= epsilon &&
		math.Abs(c.lng-other.lng) <= epsilon
}

// String returns the coordinate as "<lat>,<lng>" with shortest-form decimals.
func (c Coordinate) String() string {
	return strconv.FormatFloat(c.lat, 'f', -1, 64) + "," +
		strconv.FormatFloat(c.lng, 'f', -1, 64)
}

// Distance calculates the haversine distance to other in meters.
func (c Coordinate) Distance(other Coordinate) float64 {
	lat1 := c.lat * math.Pi / 180
	lat2 := other.lat * math.Pi / 180
	dLat := (other.lat - c.lat) * math.Pi / 180
	dLng := (other.lng - c.lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	h := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * h
}

// coordinateJSON is the wire shape of a Coordinate.
type coordinateJSON struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// MarshalJSON implements the json.Marshaler interface.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal(coordinateJSON{Latitude: c.lat, Longitude: c.lng})
}

// UnmarshalJSON implements the json.Unmarshaler interface. Out-of-range
// values are rejected, so a decoded Coordinate always holds the invariant.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var wire coordinateJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	parsed, err := New(wire.Latitude, wire.Longitude)
	if err != nil {
		return err
	}

	*c = parsed

	return nil
}

// Value implements the driver.Valuer interface for database serialization.
func (c Coordinate) Value() (driver.Value, error) {
	return fmt.Sprintf("POINT(%f %f)", c.lng, c.lat), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (c *Coordinate) Scan(value interface{}) error {
	if value == nil {
		*c = Coordinate{}

		return nil
	}

	switch v := value.(type) {
	case []byte:
		// The format from DuckDB is "POINT (lng lat)"
		var lat, lng float64
		if _, err := fmt.Sscanf(string(v), "POINT (%f %f)", &lng, &lat); err != nil {
			return err
		}

		parsed, err := New(lat, lng)
		if err != nil {
			return err
		}

		*c = parsed

		return nil
	case map[string]interface{}:
		x, okX := v["x"].(float64)
		y, okY := v["y"].(float64)

		if !okX || !okY {
			return fmt.Errorf("spatial: invalid map for coordinate: expected 'x' and 'y' float64 fields, got %+v", v)
		}

		parsed, err := New(y, x)
		if err != nil {
			return err
		}

		*c = parsed

		return nil
	default:
		return fmt.Errorf("spatial: unsupported type for Coordinate scan: %T", value)
	}
}
