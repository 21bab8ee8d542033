// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// Hash is a 32-byte digest identifying blocks and transactions.
type Hash [32]byte

var (
	_ json.Marshaler   = (*Hash)(nil)
	_ json.Unmarshaler = (*Hash)(nil)
)

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// AbbrevString returns abbrev string presentation.
func (h Hash) AbbrevString() string {
	return fmt.Sprintf("0x%x…%x", h[:4], h[28:])
}

// Bytes returns byte slice form of the hash.
func (h Hash) Bytes() []byte {
	return h[:]
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

// MarshalJSON implements json.Marshaler.
func (h *Hash) MarshalJSON() ([]byte, error) {
	if h == nil {
		return json.Marshal(nil)
	}
	return json.Marshal(h.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash parses a hex string, with or without 0x prefix.
func ParseHash(s string) (Hash, error) {
	if len(s) == 32*2+2 {
		if strings.ToLower(s[:2]) != "0x" {
			return Hash{}, errors.New("invalid prefix")
		}
		s = s[2:]
	} else if len(s) != 32*2 {
		return Hash{}, errors.New("invalid length")
	}

	var h Hash
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return Hash{}, err
	}
	return h, nil
}

// MustParseHash parses s and panics on error.
func MustParseHash(s string) Hash {
	h, err := ParseHash(s)
	if err != nil {
		panic(err)
	}
	return h
}

// BytesToHash converts b into Hash, cropping from the left when b is longer
// and padding from the left when it is shorter.
func BytesToHash(b []byte) (h Hash) {
	if len(b) > len(h) {
		b = b[len(b)-len(h):]
	}
	copy(h[len(h)-len(b):], b)
	return
}

// Blake2b computes blake2b-256 checksum for given data.
func Blake2b(data ...[]byte) Hash {
	if len(data) == 1 {
		return blake2b.Sum256(data[0])
	}
	return Blake2bFn(func(w io.Writer) {
		for _, b := range data {
			w.Write(b)
		}
	})
}

// Blake2bFn computes blake2b-256 checksum for the provided writer.
func Blake2bFn(fn func(w io.Writer)) (h Hash) {
	w := blake2bStatePool.Get().(*blake2bState)
	fn(w)
	w.Sum(w.b32[:0])
	h = w.b32
	w.Reset()
	blake2bStatePool.Put(w)
	return
}

type blake2bState struct {
	hash.Hash
	b32 Hash
}

var blake2bStatePool = sync.Pool{
	New: func() any {
		h, _ := blake2b.New256(nil)
		return &blake2bState{Hash: h}
	},
}
