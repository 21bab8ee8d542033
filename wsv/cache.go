// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package wsv

import (
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/permledger/ledgerd/cache"
)

const (
	accountPrefix = "a:"
	rolePrefix    = "r:"
	domainPrefix  = "d:"
	assetPrefix   = "s:"
	peersKey      = "p"
)

// entityCache caches committed entities for the read side.
// A load racing with a commit is never stored, the generation guards it.
// Loads are shared per generation, so a reader arriving after a commit never
// joins a load started before it.
type entityCache struct {
	arc   *cache.ARC
	group singleflight.Group

	mu  sync.Mutex
	gen uint64
}

func newEntityCache(size int) *entityCache {
	return &entityCache{arc: cache.NewARC(size)}
}

func (c *entityCache) get(key string, load func() (any, error)) (any, error) {
	if v, ok := c.arc.Get(key); ok {
		c.arc.Stats().Hit()
		return v, nil
	}
	c.arc.Stats().Miss()

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	v, err, _ := c.group.Do(strconv.FormatUint(gen, 10)+"/"+key, func() (any, error) {
		v, err := load()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gen == gen {
			c.arc.Add(key, v)
		}
		c.mu.Unlock()
		return v, nil
	})
	return v, err
}

func (c *entityCache) invalidate(cs *ChangeSet) {
	if cs.Empty() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	if cs.Cleared {
		c.arc.Purge()
		return
	}
	for id := range cs.Accounts {
		c.arc.Remove(accountPrefix + id)
	}
	for id := range cs.Roles {
		c.arc.Remove(rolePrefix + id)
	}
	for id := range cs.Domains {
		c.arc.Remove(domainPrefix + id)
	}
	for id := range cs.Assets {
		c.arc.Remove(assetPrefix + id)
	}
	if cs.Peers {
		c.arc.Remove(peersKey)
	}
}
