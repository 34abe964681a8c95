// Copyright 2026 The Recoord Authors
//
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"
	"log"
	"time"
)

// Cached wraps a Resolver with a persistent Repository lookup. Hits never
// reach the inner resolver; misses are stored after a successful lookup.
type Cached struct {
	inner Resolver
	repo  Repository
}

// NewCached decorates resolver with the repository cache.
func NewCached(resolver Resolver, repo Repository) *Cached {
	return &Cached{inner: resolver, repo: repo}
}

func (c *Cached) Resolve(ctx context.Context, address string) (*Result, error) {
	key := normalizeAddress(address)

	cached, err := c.repo.Get(key)
	if err != nil {
		return nil, err
	}

	if cached != nil {
		return &Result{
			Coordinate:  cached.Coordinate,
			DisplayName: cached.DisplayName,
			Confidence:  cached.Confidence,
			Provider:    cached.Provider,
		}, nil
	}

	result, err := c.inner.Resolve(ctx, address)
	if err != nil {
		return nil, err
	}

	resolution := &Resolution{
		Address:     key,
		DisplayName: result.DisplayName,
		Coordinate:  result.Coordinate,
		Provider:    result.Provider,
		Confidence:  result.Confidence,
		ResolvedAt:  time.Now(),
	}

	// a failed save only costs a repeated lookup next time
	if err := c.repo.Save(resolution); err != nil {
		log.Printf("unable to cache resolution for %q: %v", key, err)
	}

	return result, nil
}
