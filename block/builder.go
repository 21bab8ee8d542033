// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block

import (
	"github.com/permledger/ledgerd/ledger"
	"github.com/permledger/ledgerd/tx"
)

// Builder to make it easy to build a block object.
type Builder struct {
	body body
	sigs tx.Signatures
}

// Height sets block height.
func (b *Builder) Height(h uint64) *Builder {
	b.body.Height = h
	return b
}

// PrevHash sets the parent hash.
func (b *Builder) PrevHash(h ledger.Hash) *Builder {
	b.body.PrevHash = h
	return b
}

// CreatedTime sets creation time in milliseconds.
func (b *Builder) CreatedTime(ms uint64) *Builder {
	b.body.CreatedTime = ms
	return b
}

// Transaction adds transactions.
func (b *Builder) Transaction(txs ...*tx.Transaction) *Builder {
	b.body.Txs = append(b.body.Txs, txs...)
	return b
}

// Rejected adds hashes of rejected transactions.
func (b *Builder) Rejected(hashes ...ledger.Hash) *Builder {
	b.body.RejectedTxHashes = append(b.body.RejectedTxHashes, hashes...)
	return b
}

// Signature adds a signature.
func (b *Builder) Signature(publicKey string, sig []byte) *Builder {
	b.sigs = append(b.sigs, tx.Signature{PublicKey: publicKey, Signature: append([]byte(nil), sig...)})
	return b
}

// Build builds a block object.
func (b *Builder) Build() *Block {
	blk := Block{body: b.body, signatures: b.sigs.Copy()}
	blk.body.Txs = b.body.Txs.Copy()
	blk.body.RejectedTxHashes = append([]ledger.Hash(nil), b.body.RejectedTxHashes...)
	return &blk
}
