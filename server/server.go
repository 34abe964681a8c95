// Copyright 2026 The Recoord Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the coordinate codecs and the address resolver over
// a small JSON API.
package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/recoord/formats"
	"github.com/jcodagnone/recoord/resolve"
	"github.com/jcodagnone/recoord/spatial"
)

type Server struct {
	resolver resolve.Resolver
	repo     resolve.Repository
}

// NewServer wires the API handlers. The resolver and the repository may be
// nil, in which case the resolution endpoints answer 503.
func NewServer(resolver resolve.Resolver, repo resolve.Repository) *Server {
	return &Server{
		resolver: resolver,
		repo:     repo,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/api/health", s.health)
	r.GET("/api/parse", s.parse)
	r.GET("/api/format", s.format)
	r.GET("/api/resolve", s.resolveAddress)
	r.GET("/api/resolutions", s.listResolutions)

	return r
}

// Run serves the API on addr until the listener fails.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *Server) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// codecFor builds the codec for a format name, honoring the optional
// precision parameter (decimal places for dd/dms, characters for geohash).
func codecFor(name string, precision *int) (formats.Codec, bool) {
	switch name {
	case "dd":
		codec := formats.DD{Precision: 6}
		if precision != nil {
			codec.Precision = *precision
		}

		return codec, true
	case "dms":
		codec := formats.DMS{SecondsPrecision: 2}
		if precision != nil {
			codec.SecondsPrecision = *precision
		}

		return codec, true
	case "geohash":
		codec := formats.Geohash{Length: 9}
		if precision != nil {
			codec.Length = *precision
		}

		return codec, true
	default:
		return nil, false
	}
}

func intQuery(ctx *gin.Context, name string) (*int, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, true
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " parameter"})

		return nil, false
	}

	return &value, true
}

// parseStatus maps codec errors onto HTTP statuses. Out-of-range values are
// well-formed but unrepresentable, which is 422 rather than 400.
func parseStatus(err error) int {
	if formats.IsOutOfRange(err) {
		return http.StatusUnprocessableEntity
	}

	return http.StatusBadRequest
}

func (s *Server) parse(ctx *gin.Context) {
	text := ctx.Query("text")
	if text == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "text query parameter is required"})

		return
	}

	precision, ok := intQuery(ctx, "precision")
	if !ok {
		return
	}

	formatName := ctx.Query("format")

	var (
		coordinate spatial.Coordinate
		codec      formats.Codec
		err        error
	)

	if formatName == "" {
		coordinate, codec, err = formats.Detect(text)
	} else {
		codec, ok = codecFor(formatName, precision)
		if !ok {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "unknown format: " + formatName})

			return
		}

		coordinate, err = codec.Parse(text)
	}

	if err != nil {
		ctx.JSON(parseStatus(err), gin.H{"error": err.Error()})

		return
	}

	response := gin.H{
		"latitude":  coordinate.Lat(),
		"longitude": coordinate.Lng(),
		"format":    codec.Name(),
	}

	// geohashes identify a cell, not a point, so report the cell size
	if codec.Name() == "geohash" {
		latErr, lngErr := formats.ErrorBounds(len(strings.TrimSpace(text)))
		response["error_bounds"] = gin.H{
			"latitude":  latErr,
			"longitude": lngErr,
		}
	}

	ctx.JSON(http.StatusOK, response)
}

func (s *Server) format(ctx *gin.Context) {
	lat, err := strconv.ParseFloat(ctx.Query("lat"), 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat parameter"})

		return
	}

	lng, err := strconv.ParseFloat(ctx.Query("lng"), 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid lng parameter"})

		return
	}

	precision, ok := intQuery(ctx, "precision")
	if !ok {
		return
	}

	formatName := ctx.Query("format")
	if formatName == "" {
		formatName = "dd"
	}

	codec, ok := codecFor(formatName, precision)
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "unknown format: " + formatName})

		return
	}

	coordinate, err := spatial.New(lat, lng)
	if err != nil {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

		return
	}

	text, err := codec.Format(coordinate)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"text":   text,
		"format": codec.Name(),
	})
}

// resolveStatus maps resolution errors onto HTTP statuses.
func resolveStatus(err error) int {
	var resErr *resolve.ResolveError
	if !errors.As(err, &resErr) {
		return http.StatusInternalServerError
	}

	switch resErr.Type {
	case resolve.ErrorTypeNotFound:
		return http.StatusNotFound
	case resolve.ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case resolve.ErrorTypeQuotaExceeded:
		return http.StatusForbidden
	case resolve.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	case resolve.ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case resolve.ErrorTypeNetworkError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) resolveAddress(ctx *gin.Context) {
	if s.resolver == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "no resolver configured"})

		return
	}

	address := ctx.Query("q")
	if address == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required"})

		return
	}

	result, err := s.resolver.Resolve(ctx.Request.Context(), address)
	if err != nil {
		log.Printf("resolving %q: %v", address, err)
		ctx.JSON(resolveStatus(err), gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"latitude":     result.Coordinate.Lat(),
		"longitude":    result.Coordinate.Lng(),
		"display_name": result.DisplayName,
		"confidence":   result.Confidence,
		"provider":     result.Provider,
	})
}

func (s *Server) listResolutions(ctx *gin.Context) {
	if s.repo == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "no resolution cache configured"})

		return
	}

	limit := 50

	raw, ok := intQuery(ctx, "limit")
	if !ok {
		return
	}

	if raw != nil {
		if *raw <= 0 || *raw > 1000 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})

			return
		}

		limit = *raw
	}

	resolutions, err := s.repo.Recent(limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	count, err := s.repo.Count()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if resolutions == nil {
		resolutions = []*resolve.Resolution{}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"total":       count,
		"resolutions": resolutions,
	})
}
