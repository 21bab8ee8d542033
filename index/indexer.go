// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package index maintains the transaction lookup tables derived from applied blocks.
package index

import (
	"context"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/permledger/ledgerd/block"
	"github.com/permledger/ledgerd/ledger"
	"github.com/permledger/ledgerd/tx"
	"github.com/permledger/ledgerd/wsv"
)

var logger = log.New("pkg", "index")

// Indexer writes the index entries of blocks inside a session. All writes
// between two flushes share one savepoint, so they land or vanish together.
type Indexer struct {
	s   *wsv.Tx
	ctx context.Context
	q   wsv.Querier
	sp  *wsv.Savepoint
	err error
}

// New creates an indexer over the session.
func New(s *wsv.Tx) *Indexer {
	return &Indexer{s: s, ctx: s.Context(), q: s.Querier()}
}

// Index records the transactions of an applied block. Errors are kept and
// reported by Flush.
func (ix *Indexer) Index(blk *block.Block) {
	if ix.err != nil {
		return
	}
	if ix.sp == nil {
		if ix.sp, ix.err = ix.s.Savepoint("index"); ix.err != nil {
			return
		}
	}
	ix.err = ix.index(blk)
}

func (ix *Indexer) index(blk *block.Block) error {
	height := blk.Height()
	txs := blk.Transactions()
	for i, trx := range txs {
		pos := Position{height, uint32(i)}
		if err := ix.putTx(trx.Hash(), pos, Committed); err != nil {
			return err
		}
		if _, err := ix.q.ExecContext(ix.ctx,
			"INSERT OR IGNORE INTO tx_position_by_creator (creator_id, height, idx) VALUES (?, ?, ?)",
			trx.CreatorAccountID(), pos.Height, pos.Index); err != nil {
			return err
		}
		for _, cmd := range trx.Commands() {
			transfer, ok := cmd.(tx.TransferAsset)
			if !ok {
				continue
			}
			for _, account := range []string{trx.CreatorAccountID(), transfer.SrcAccountID, transfer.DestAccountID} {
				if _, err := ix.q.ExecContext(ix.ctx,
					"INSERT OR IGNORE INTO tx_position_by_account_asset (account_id, asset_id, height, idx) VALUES (?, ?, ?, ?)",
					account, transfer.AssetID, pos.Height, pos.Index); err != nil {
					return err
				}
			}
		}
	}
	for i, h := range blk.RejectedTxHashes() {
		if err := ix.putTx(h, Position{height, uint32(len(txs) + i)}, Rejected); err != nil {
			return err
		}
	}
	return nil
}

func (ix *Indexer) putTx(h ledger.Hash, pos Position, status Status) error {
	if _, err := ix.q.ExecContext(ix.ctx,
		"INSERT OR REPLACE INTO tx_position_by_hash (hash, height, idx) VALUES (?, ?, ?)",
		h.Bytes(), pos.Height, pos.Index); err != nil {
		return err
	}
	_, err := ix.q.ExecContext(ix.ctx,
		"INSERT OR REPLACE INTO tx_status_by_hash (hash, status) VALUES (?, ?)", h.Bytes(), status)
	return err
}

// Flush keeps the writes since the last flush, or drops them all when any
// failed. The failure is returned and the indexer can be reused.
func (ix *Indexer) Flush() error {
	sp, err := ix.sp, ix.err
	ix.sp, ix.err = nil, nil

	if sp == nil {
		return err
	}
	if err != nil {
		if rerr := sp.Rollback(); rerr != nil {
			logger.Error("failed to roll back index", "err", rerr)
			return rerr
		}
		metricFlushFailureCount().Add(1)
		return errors.Wrap(err, "index")
	}
	return sp.Release()
}

// Clear deletes every index entry inside the session, for rebuilding.
func Clear(s *wsv.Tx) error {
	for _, table := range indexTables {
		if _, err := s.Querier().ExecContext(s.Context(), "DELETE FROM "+table); err != nil {
			return errors.Wrapf(err, "clear %v", table)
		}
	}
	return nil
}

// ClearLedgerStates deletes every recorded ledger state inside the session.
func ClearLedgerStates(s *wsv.Tx) error {
	_, err := s.Querier().ExecContext(s.Context(), "DELETE FROM ledger_state")
	return errors.Wrap(err, "clear ledger_state")
}

// SaveLedgerState records the ledger state reached at its height.
func SaveLedgerState(s *wsv.Tx, st *ledger.LedgerState) error {
	peers, err := rlp.EncodeToBytes(st.Peers)
	if err != nil {
		return err
	}
	_, err = s.Querier().ExecContext(s.Context(),
		"INSERT OR REPLACE INTO ledger_state (height, hash, peers) VALUES (?, ?, ?)",
		st.Height, st.Hash.Bytes(), peers)
	return err
}
