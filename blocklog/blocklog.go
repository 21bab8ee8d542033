// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package blocklog is the append-only, height-keyed store of blocks.
package blocklog

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/permledger/ledgerd/block"
	"github.com/permledger/ledgerd/cache"
	"github.com/permledger/ledgerd/kv"
	"github.com/permledger/ledgerd/lvldb"
)

var errNotFound = errors.New("block not found")

// IsNotFound returns whether the error means the block is absent.
func IsNotFound(err error) bool {
	return errors.Cause(err) == errNotFound
}

// HeightError is returned by Insert when a block does not extend the log by exactly one.
type HeightError struct {
	Want, Got uint64
}

func (e *HeightError) Error() string {
	return fmt.Sprintf("block log: expected height %d, got %d", e.Want, e.Got)
}

// BlockLog stores blocks by height. Heights are 1-based and gapless.
type BlockLog struct {
	store  kv.Store
	blocks kv.Store
	props  kv.Store
	closer func() error

	mu     sync.RWMutex
	height uint64
	cache  *cache.ARC
}

// New opens a block log over the store.
func New(store kv.Store, cacheSize int) (*BlockLog, error) {
	props := kv.Bucket(propStoreName).NewStore(store)
	height, err := loadMaxHeight(props)
	if err != nil {
		return nil, errors.Wrap(err, "load max height")
	}
	return &BlockLog{
		store:  store,
		blocks: kv.Bucket(blockStoreName).NewStore(store),
		props:  props,
		height: height,
		cache:  cache.NewARC(cacheSize),
	}, nil
}

// NewTemporary creates an in-memory block log whose next insert must be base+1.
// It holds only the blocks inserted into it.
func NewTemporary(base uint64) (*BlockLog, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return nil, err
	}
	bl, err := New(db, 16)
	if err != nil {
		db.Close()
		return nil, err
	}
	bl.height = base
	bl.closer = db.Close
	return bl, nil
}

// Insert appends blk. It fails unless blk.Height() == Size()+1.
func (bl *BlockLog) Insert(blk *block.Block) error {
	return bl.Append([]*block.Block{blk})
}

// Append inserts consecutive blocks starting at Size()+1 in one write.
// Either all of them are stored or none is.
func (bl *BlockLog) Append(blks []*block.Block) error {
	if len(blks) == 0 {
		return nil
	}
	bl.mu.Lock()
	defer bl.mu.Unlock()

	bulk := bl.store.Bulk()
	blocks := kv.Bucket(blockStoreName).NewPutter(bulk)
	props := kv.Bucket(propStoreName).NewPutter(bulk)
	for i, blk := range blks {
		if want := bl.height + uint64(i) + 1; blk.Height() != want {
			return &HeightError{Want: want, Got: blk.Height()}
		}
		if err := saveBlock(blocks, props, blk); err != nil {
			return err
		}
	}
	if err := bulk.Write(); err != nil {
		return errors.Wrap(err, "write blocks")
	}

	for _, blk := range blks {
		bl.cache.Add(blk.Height(), blk)
	}
	bl.height = blks[len(blks)-1].Height()
	metricHeight().Set(int64(bl.height))
	return nil
}

// Fetch returns the block at height.
func (bl *BlockLog) Fetch(height uint64) (*block.Block, error) {
	blk, _, err := bl.cache.GetOrLoad(height, func() (any, error) {
		data, err := bl.blocks.Get(heightKey(height))
		if err != nil {
			if bl.blocks.IsNotFound(err) {
				return nil, errNotFound
			}
			return nil, err
		}
		return decodeBlock(data)
	})
	if err != nil {
		return nil, err
	}

	if changed, hit, miss := bl.cache.Stats().Stats(); changed {
		metricCacheHitMiss().SetWithLabel(hit, map[string]string{"event": "hit"})
		metricCacheHitMiss().SetWithLabel(miss, map[string]string{"event": "miss"})
	}
	return blk.(*block.Block), nil
}

// Size returns the current max height.
func (bl *BlockLog) Size() uint64 {
	bl.mu.RLock()
	defer bl.mu.RUnlock()
	return bl.height
}

// ForEach visits every stored block in height order. It stops at the first error returned by fn.
func (bl *BlockLog) ForEach(fn func(blk *block.Block) error) error {
	iter := bl.blocks.Iterate(kv.Range{})
	defer iter.Release()

	for iter.Next() {
		blk, err := decodeBlock(iter.Value())
		if err != nil {
			return errors.Wrapf(err, "decode block %x", iter.Key())
		}
		if err := fn(blk); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Close releases the backing store of a temporary log. It is a no-op otherwise.
func (bl *BlockLog) Close() error {
	if bl.closer != nil {
		return bl.closer()
	}
	return nil
}
