// Copyright 2026 The Recoord Authors
//
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jcodagnone/recoord/formats"
	"github.com/jcodagnone/recoord/spatial"
	"github.com/uber/h3-go/v4"
)

// resolutionGeohashLength is the precision of the geohash stored with every
// cached resolution, about ±2.4 meters.
const resolutionGeohashLength = 9

// Resolution is a persisted address resolution.
type Resolution struct {
	Address     string             `json:"address"` // normalized lookup key
	DisplayName string             `json:"display_name"`
	Coordinate  spatial.Coordinate `json:"coordinate"`
	Geohash     string             `json:"geohash"`
	Provider    string             `json:"provider"`
	Confidence  string             `json:"confidence"`
	ResolvedAt  time.Time          `json:"resolved_at"`
	H3Res7      int64              `json:"-"`
	H3Res8      int64              `json:"-"`
	H3Res9      int64              `json:"-"`
}

// computeIndexes fills the H3 cells and the geohash from the coordinate.
func (r *Resolution) computeIndexes() error {
	latLng := h3.NewLatLng(r.Coordinate.Lat(), r.Coordinate.Lng())

	for res := 7; res <= 9; res++ {
		cell, err := h3.LatLngToCell(latLng, res)
		if err != nil {
			return fmt.Errorf("converting to h3 cell at res %d: %w", res, err)
		}

		switch res {
		case 7:
			r.H3Res7 = int64(cell)
		case 8:
			r.H3Res8 = int64(cell)
		case 9:
			r.H3Res9 = int64(cell)
		}
	}

	hash, err := formats.Geohash{Length: resolutionGeohashLength}.Format(r.Coordinate)
	if err != nil {
		return fmt.Errorf("computing geohash: %w", err)
	}

	r.Geohash = hash

	return nil
}

// Repository handles persistence of address resolutions.
type Repository interface {
	// CreateSchema creates the resolutions table
	CreateSchema() error

	// Get returns the resolution stored for a normalized address, or nil
	// when the address was never resolved
	Get(address string) (*Resolution, error)

	// Save stores or replaces a resolution
	Save(resolution *Resolution) error

	// Recent returns the most recently resolved entries
	Recent(limit int) ([]*Resolution, error)

	// Nearest returns cached resolutions around a coordinate, closest first
	Nearest(c spatial.Coordinate, limit int) ([]*Resolution, error)

	// Count returns the total number of cached resolutions
	Count() (int, error)

	// DB returns the underlying database connection
	DB() *sql.DB
}

type sqlResolutionRepository struct {
	db *sql.DB
}

// NewRepository creates a DuckDB-backed resolution repository.
func NewRepository(db *sql.DB) Repository {
	return &sqlResolutionRepository{db: db}
}

// DB returns the underlying database connection for advanced queries.
func (r *sqlResolutionRepository) DB() *sql.DB {
	return r.db
}

func (r *sqlResolutionRepository) CreateSchema() error {
	// DuckDB needs to load the spatial extension
	_, err := r.db.Exec(`INSTALL spatial; LOAD spatial;`)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		CREATE TABLE IF NOT EXISTS resolutions (
			address VARCHAR PRIMARY KEY,
			display_name VARCHAR NOT NULL,
			point POINT_2D NOT NULL,
			geohash VARCHAR NOT NULL,
			provider VARCHAR NOT NULL,
			confidence VARCHAR NOT NULL,
			resolved_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			h3_res7 UBIGINT,
			h3_res8 UBIGINT,
			h3_res9 UBIGINT
		);
	`)

	return err
}

func (r *sqlResolutionRepository) Save(resolution *Resolution) error {
	if err := validateResolution(resolution); err != nil {
		return err
	}

	if err := resolution.computeIndexes(); err != nil {
		return err
	}

	if resolution.ResolvedAt.IsZero() {
		resolution.ResolvedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO resolutions(
			address,
			display_name,
			point,
			geohash,
			provider,
			confidence,
			resolved_at,
			h3_res7,
			h3_res8,
			h3_res9
		) VALUES (?, ?, ST_Point(?, ?), ?, ?, ?, ?, ?, ?)
	`,
		resolution.Address,
		resolution.DisplayName,
		resolution.Coordinate.Lng(),
		resolution.Coordinate.Lat(),
		resolution.Geohash,
		resolution.Provider,
		resolution.Confidence,
		resolution.ResolvedAt,
		resolution.H3Res7,
		resolution.H3Res8,
		resolution.H3Res9,
	)

	return err
}

const resolutionColumns = `
	address,
	display_name,
	point,
	geohash,
	provider,
	confidence,
	resolved_at,
	h3_res7,
	h3_res8,
	h3_res9
`

func scanResolution(row interface{ Scan(...any) error }) (*Resolution, error) {
	var resolution Resolution

	err := row.Scan(
		&resolution.Address,
		&resolution.DisplayName,
		&resolution.Coordinate,
		&resolution.Geohash,
		&resolution.Provider,
		&resolution.Confidence,
		&resolution.ResolvedAt,
		&resolution.H3Res7,
		&resolution.H3Res8,
		&resolution.H3Res9,
	)
	if err != nil {
		return nil, err
	}

	return &resolution, nil
}

func (r *sqlResolutionRepository) Get(address string) (*Resolution, error) {
	row := r.db.QueryRow(`
		SELECT `+resolutionColumns+`
		FROM resolutions
		WHERE address = ?
	`, address)

	resolution, err := scanResolution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("loading resolution for %q: %w", address, err)
	}

	return resolution, nil
}

func (r *sqlResolutionRepository) Recent(limit int) ([]*Resolution, error) {
	rows, err := r.db.Query(`
		SELECT `+resolutionColumns+`
		FROM resolutions
		ORDER BY resolved_at DESC, address
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var resolutions []*Resolution

	for rows.Next() {
		resolution, err := scanResolution(rows)
		if err != nil {
			return nil, err
		}

		resolutions = append(resolutions, resolution)
	}

	return resolutions, rows.Err()
}

// Nearest narrows candidates to the res-7 H3 neighborhood of c (one ring,
// cells of roughly 5 km²) and orders them by haversine distance.
func (r *sqlResolutionRepository) Nearest(c spatial.Coordinate, limit int) ([]*Resolution, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(c.Lat(), c.Lng()), 7)
	if err != nil {
		return nil, fmt.Errorf("converting to h3 cell: %w", err)
	}

	disk, err := cell.GridDisk(1)
	if err != nil {
		return nil, fmt.Errorf("computing h3 neighborhood: %w", err)
	}

	placeholders := ""
	args := make([]any, 0, len(disk))

	for i, neighbor := range disk {
		if i > 0 {
			placeholders += ", "
		}

		placeholders += "?"

		args = append(args, int64(neighbor))
	}

	rows, err := r.db.Query(`
		SELECT `+resolutionColumns+`
		FROM resolutions
		WHERE h3_res7 IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var resolutions []*Resolution

	for rows.Next() {
		resolution, err := scanResolution(rows)
		if err != nil {
			return nil, err
		}

		resolutions = append(resolutions, resolution)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(resolutions, func(i, j int) bool {
		return c.Distance(resolutions[i].Coordinate) < c.Distance(resolutions[j].Coordinate)
	})

	if limit > 0 && len(resolutions) > limit {
		resolutions = resolutions[:limit]
	}

	return resolutions, nil
}

func (r *sqlResolutionRepository) Count() (int, error) {
	var count int

	err := r.db.QueryRow(`SELECT count(*) FROM resolutions`).Scan(&count)

	return count, err
}
