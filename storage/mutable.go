// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"context"
	"iter"
	"time"

	"github.com/pkg/errors"

	"github.com/permledger/ledgerd/block"
	"github.com/permledger/ledgerd/blocklog"
	"github.com/permledger/ledgerd/executor"
	"github.com/permledger/ledgerd/index"
	"github.com/permledger/ledgerd/ledger"
	"github.com/permledger/ledgerd/wsv"
)

var errSessionDone = errors.New("storage: session already committed or discarded")

// Predicate decides whether blk may be applied on top of the ledger state st.
type Predicate func(blk *block.Block, st *ledger.LedgerState) bool

// ChainPredicate accepts a block linked to st by its previous hash.
func ChainPredicate(blk *block.Block, st *ledger.LedgerState) bool {
	return blk.PrevHash() == st.Hash
}

// MutableStorage applies blocks inside one world state session.
// Each block is applied as a unit under its own savepoint: a failing block is
// undone alone and the blocks applied before it stay. Nothing is visible to
// readers until the session is committed with Storage.Commit, and Discard
// throws the whole session away.
//
// It is not safe for concurrent use.
type MutableStorage struct {
	s        *wsv.Tx
	exec     *executor.TxExecutor
	indexer  *index.Indexer
	blocks   *blocklog.BlockLog // nil when replaying the block log
	state    *ledger.LedgerState
	validate bool

	indexFailures []uint64
	done          bool
}

func newMutableStorage(ctx context.Context, db *wsv.DB, validate bool) (_ *MutableStorage, err error) {
	s, err := db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			s.Rollback()
		}
	}()

	// the session, not the facade, knows the state it starts from
	st, err := index.NewReader(s.Querier()).LatestLedgerState(ctx)
	if err != nil {
		if !index.IsNotFound(err) {
			return nil, errors.Wrap(err, "load ledger state")
		}
		st = &ledger.LedgerState{}
	}
	blocks, err := blocklog.NewTemporary(st.Height)
	if err != nil {
		return nil, err
	}
	return &MutableStorage{
		s:        s,
		exec:     executor.NewTxExecutor(s),
		indexer:  index.New(s),
		blocks:   blocks,
		state:    st,
		validate: validate,
	}, nil
}

// LedgerState returns the state reached by the last applied block.
func (ms *MutableStorage) LedgerState() *ledger.LedgerState {
	return ms.state
}

// Queries returns typed access to the uncommitted world state of the session.
func (ms *MutableStorage) Queries() *wsv.Queries {
	return ms.s.Queries
}

// Apply applies blk if it extends the current state by one height.
func (ms *MutableStorage) Apply(blk *block.Block) (bool, error) {
	return ms.ApplyIf(blk, nil)
}

// ApplyIf applies blk if it extends the current state by one height and pred,
// when not nil, accepts it. It returns false when the block was rejected, either
// by the checks or by one of its transactions, and leaves the session as it was.
// A returned error means a storage fault, and the session should be discarded.
func (ms *MutableStorage) ApplyIf(blk *block.Block, pred Predicate) (applied bool, err error) {
	if ms.done {
		return false, errSessionDone
	}

	start := time.Now()
	defer func() {
		result := "applied"
		if err != nil {
			result = "error"
		} else if !applied {
			result = "rejected"
		}
		metricBlockApplyCount().AddWithLabel(1, map[string]string{"result": result})
		metricBlockApplyDuration().Observe(time.Since(start).Milliseconds())
	}()

	if blk.Height() != ms.state.Height+1 {
		logger.Debug("block skipped, height mismatch", "want", ms.state.Height+1, "got", blk.Height())
		return false, nil
	}
	if pred != nil && !pred(blk, ms.state) {
		logger.Debug("block skipped by predicate", "height", blk.Height(), "hash", blk.Hash())
		return false, nil
	}

	sp, err := ms.s.Savepoint("block")
	if err != nil {
		return false, err
	}
	defer sp.Rollback()

	for _, trx := range blk.Transactions() {
		if err := ms.exec.Execute(trx, ms.validate); err != nil {
			if executor.IsRejected(err) {
				logger.Debug("block rejected", "height", blk.Height(), "err", err)
				return false, nil
			}
			return false, errors.WithMessagef(err, "apply block %v", blk.Height())
		}
	}

	peers, err := ms.s.Peers(ms.s.Context())
	if err != nil {
		return false, errors.Wrap(err, "load peers")
	}
	state := ledger.NewLedgerState(blk.Height(), blk.Hash(), peers)
	if err := index.SaveLedgerState(ms.s, state); err != nil {
		return false, errors.Wrap(err, "save ledger state")
	}

	ms.indexer.Index(blk)
	if err := ms.indexer.Flush(); err != nil {
		// indexes can be rebuilt from the block log, the block stays
		logger.Error("failed to index block", "height", blk.Height(), "err", err)
		ms.indexFailures = append(ms.indexFailures, blk.Height())
	}

	if ms.blocks != nil {
		if err := ms.blocks.Insert(blk); err != nil {
			return false, err
		}
	}
	if err := sp.Release(); err != nil {
		return false, err
	}
	ms.state = state
	return true, nil
}

// ApplySeq applies the blocks of seq in order and stops at the first one not
// applied. It returns whether all of them were applied.
func (ms *MutableStorage) ApplySeq(seq iter.Seq[*block.Block], pred Predicate) (bool, error) {
	for blk := range seq {
		applied, err := ms.ApplyIf(blk, pred)
		if err != nil || !applied {
			return false, err
		}
	}
	return true, nil
}

// Discard rolls the session back. It is a no-op once committed or discarded.
func (ms *MutableStorage) Discard() {
	if ms.done {
		return
	}
	ms.done = true
	if err := ms.s.Rollback(); err != nil {
		logger.Warn("failed to roll back session", "err", err)
	}
	ms.closeBlocks()
}

func (ms *MutableStorage) closeBlocks() {
	if ms.blocks == nil {
		return
	}
	if err := ms.blocks.Close(); err != nil {
		logger.Warn("failed to close session block log", "err", err)
	}
}
