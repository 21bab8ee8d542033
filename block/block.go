// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/permledger/ledgerd/ledger"
	"github.com/permledger/ledgerd/tx"
)

// Block is an immutable block type.
type Block struct {
	body       body
	signatures tx.Signatures

	cache struct {
		hash atomic.Pointer[ledger.Hash]
	}
}

type body struct {
	Height           uint64
	PrevHash         ledger.Hash
	CreatedTime      uint64
	Txs              tx.Transactions
	RejectedTxHashes []ledger.Hash
}

// Hash returns the block hash, computed over everything but signatures.
func (b *Block) Hash() ledger.Hash {
	if cached := b.cache.hash.Load(); cached != nil {
		return *cached
	}
	h := ledger.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, &b.body)
	})
	b.cache.hash.Store(&h)
	return h
}

// Height returns the 1-based block height.
func (b *Block) Height() uint64 {
	return b.body.Height
}

// PrevHash returns hash of the parent block.
func (b *Block) PrevHash() ledger.Hash {
	return b.body.PrevHash
}

// CreatedTime returns creation time in milliseconds.
func (b *Block) CreatedTime() uint64 {
	return b.body.CreatedTime
}

// Transactions returns a copy of transactions.
func (b *Block) Transactions() tx.Transactions {
	return b.body.Txs.Copy()
}

// RejectedTxHashes returns hashes of txs rejected while building the block.
func (b *Block) RejectedTxHashes() []ledger.Hash {
	return append([]ledger.Hash(nil), b.body.RejectedTxHashes...)
}

// Signatures returns a copy of signatures.
func (b *Block) Signatures() tx.Signatures {
	return b.signatures.Copy()
}

// WithSignatures creates a new block object with signatures appended.
func (b *Block) WithSignatures(sigs ...tx.Signature) *Block {
	nb := Block{body: b.body}
	nb.signatures = append(b.signatures.Copy(), tx.Signatures(sigs).Copy()...)
	return &nb
}

func (b *Block) String() string {
	return fmt.Sprintf("Block(%v %v txs=%d rejected=%d)", b.body.Height, b.Hash().AbbrevString(),
		len(b.body.Txs), len(b.body.RejectedTxHashes))
}

// EncodeRLP implements rlp.Encoder.
func (b *Block) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, []any{&b.body, b.signatures})
}

// DecodeRLP implements rlp.Decoder.
func (b *Block) DecodeRLP(s *rlp.Stream) error {
	var payload struct {
		Body       body
		Signatures tx.Signatures
	}
	if err := s.Decode(&payload); err != nil {
		return err
	}
	*b = Block{body: payload.Body, signatures: payload.Signatures}
	return nil
}
