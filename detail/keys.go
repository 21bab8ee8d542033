// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package detail

import (
	"bytes"
	"encoding/binary"

	"github.com/permledger/ledgerd/kv"
)

// Delimiter separates identifiers in composite keys. Identifiers never contain it.
const Delimiter = 0x01

const (
	recordStoreName  = "r"
	writerStoreName  = "w"
	counterStoreName = "c"
)

// counter kinds
const (
	byWriter        byte = 'w'
	byAccount       byte = 'a'
	byWriterAccount byte = 'x'
	byAccountKey    byte = 'k'
)

func join(parts ...string) []byte {
	var b []byte
	for i, p := range parts {
		if i > 0 {
			b = append(b, Delimiter)
		}
		b = append(b, p...)
	}
	return b
}

// prefix returns the joined parts followed by a trailing delimiter.
func prefix(parts ...string) []byte {
	return append(join(parts...), Delimiter)
}

func split3(k []byte) (a, b, c string, ok bool) {
	parts := bytes.Split(k, []byte{Delimiter})
	if len(parts) != 3 {
		return "", "", "", false
	}
	return string(parts[0]), string(parts[1]), string(parts[2]), true
}

func counterKey(kind byte, parts ...string) []byte {
	return append([]byte{kind}, join(parts...)...)
}

func loadCounter(r kv.Getter, key []byte) (uint64, error) {
	data, err := r.Get(key)
	if err != nil {
		if r.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return binary.BigEndian.Uint64(data), nil
}

func saveCounter(w kv.Putter, key []byte, n uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	return w.Put(key, b[:])
}
