// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package blocklog

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/golang/snappy"

	"github.com/permledger/ledgerd/block"
	"github.com/permledger/ledgerd/kv"
)

const (
	blockStoreName = "b"
	propStoreName  = "p"
)

var maxHeightKey = []byte("max-height")

// heightKey encodes height in big-endian so keys sort by height.
func heightKey(height uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], height)
	return k[:]
}

func encodeBlock(blk *block.Block) ([]byte, error) {
	data, err := rlp.EncodeToBytes(blk)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, data), nil
}

func decodeBlock(data []byte) (*block.Block, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, err
	}
	var blk block.Block
	if err := rlp.DecodeBytes(raw, &blk); err != nil {
		return nil, err
	}
	return &blk, nil
}

func saveBlock(w kv.Putter, props kv.Putter, blk *block.Block) error {
	data, err := encodeBlock(blk)
	if err != nil {
		return err
	}
	if err := w.Put(heightKey(blk.Height()), data); err != nil {
		return err
	}
	return props.Put(maxHeightKey, heightKey(blk.Height()))
}

func loadMaxHeight(r kv.Getter) (uint64, error) {
	data, err := r.Get(maxHeightKey)
	if err != nil {
		if r.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return binary.BigEndian.Uint64(data), nil
}
