// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	lru "github.com/hashicorp/golang-lru"
)

// ARC is an adaptive replacement cache that records hit/miss stats.
type ARC struct {
	*lru.ARCCache
	stats Stats
}

// NewARC creates an ARC cache. maxSize below 1 is raised to 1.
func NewARC(maxSize int) *ARC {
	if maxSize < 1 {
		maxSize = 1
	}
	c, _ := lru.NewARC(maxSize)
	return &ARC{ARCCache: c}
}

// GetOrLoad returns the value associated with the key if it exists in the cache.
// Otherwise, it calls the load function to get the value and adds it to the cache.
// It returns the value, a boolean indicating whether the value was loaded, and an error if any.
func (c *ARC) GetOrLoad(key any, load func() (any, error)) (any, bool, error) {
	if value, ok := c.Get(key); ok {
		c.stats.Hit()
		return value, false, nil
	}
	c.stats.Miss()
	value, err := load()
	if err != nil {
		return nil, true, err
	}
	c.Add(key, value)
	return value, true, nil
}

// Stats returns the hit/miss collector of the cache.
func (c *ARC) Stats() *Stats {
	return &c.stats
}
