// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixedpoint

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultTickCacheSize is the number of tick conversions kept by default.
const DefaultTickCacheSize = 4096

// TickCache memoizes TickToSqrtRatio. The inverse conversion goes through
// the cache as well, so repeated price-to-tick lookups around the same
// price only compute a handful of ratios.
type TickCache struct {
	ratios *lru.Cache[int32, SqrtRatio]
}

// NewTickCache creates a cache holding up to size conversions.
func NewTickCache(size int) (*TickCache, error) {
	if size <= 0 {
		size = DefaultTickCacheSize
	}
	ratios, err := lru.New[int32, SqrtRatio](size)
	if err != nil {
		return nil, err
	}
	return &TickCache{ratios: ratios}, nil
}

// SqrtRatio returns the cached sqrt ratio of tick.
func (c *TickCache) SqrtRatio(tick int32) (SqrtRatio, error) {
	if r, ok := c.ratios.Get(tick); ok {
		return r, nil
	}
	r, err := TickToSqrtRatio(tick)
	if err != nil {
		return SqrtRatio{}, err
	}
	c.ratios.Add(tick, r)
	return r, nil
}

// Tick returns the greatest tick whose sqrt ratio is at most r.
func (c *TickCache) Tick(r SqrtRatio) (int32, error) {
	return sqrtRatioToTick(r, c.SqrtRatio)
}

// Len returns the number of cached conversions.
func (c *TickCache) Len() int {
	return c.ratios.Len()
}
