// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package storage ties the world state, the block log and the indexes together.
package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/permledger/ledgerd/block"
	"github.com/permledger/ledgerd/blocklog"
	"github.com/permledger/ledgerd/co"
	"github.com/permledger/ledgerd/detail"
	"github.com/permledger/ledgerd/index"
	"github.com/permledger/ledgerd/kv"
	"github.com/permledger/ledgerd/ledger"
	"github.com/permledger/ledgerd/lvldb"
	"github.com/permledger/ledgerd/wsv"
)

var logger = log.New("pkg", "storage")

// ErrDiverged is the cause of session failures while the world state and the
// block log disagree on the height. Rebuild repairs it.
var ErrDiverged = errors.New("storage: world state and block log diverge")

// IsDiverged returns whether err was caused by ErrDiverged.
func IsDiverged(err error) bool {
	return errors.Cause(err) == ErrDiverged
}

const (
	wsvFileName   = "wsv.db"
	blocksDirName = "blocks"
)

// CommitResult describes a committed session.
type CommitResult struct {
	LedgerState *ledger.LedgerState
	// IndexFailures lists the heights applied without their index entries.
	// Reindex repairs them.
	IndexFailures []uint64
}

// Storage is the entry point to the ledger storage. Write sessions are
// serialized, and readers only observe committed sessions.
//
// It's thread-safe.
type Storage struct {
	db       *wsv.DB
	blocks   *blocklog.BlockLog
	validate bool
	closers  []io.Closer

	state    atomic.Pointer[ledger.LedgerState]
	commitMu sync.Mutex
	tick     co.Signal[*ledger.LedgerState]
}

// Open opens the storage kept in dir, creating it when absent.
func Open(dir string, opts Options) (_ *Storage, err error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "create data dir")
	}
	db, err := wsv.Open(filepath.Join(dir, wsvFileName), opts.WSV)
	if err != nil {
		return nil, errors.Wrap(err, "open world state")
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()
	ldb, err := lvldb.New(filepath.Join(dir, blocksDirName), opts.BlockLog)
	if err != nil {
		return nil, errors.Wrap(err, "open block log")
	}
	defer func() {
		if err != nil {
			ldb.Close()
		}
	}()

	s, err := New(db, ldb, opts)
	if err != nil {
		return nil, err
	}
	s.closers = []io.Closer{ldb, db}
	logger.Info("storage opened", "dir", dir, "height", s.LedgerState().Height)
	return s, nil
}

// New creates a storage over an opened world state and a block store.
// The caller keeps ownership of both.
func New(db *wsv.DB, blockStore kv.Store, opts Options) (*Storage, error) {
	if err := db.Migrate(context.Background(), index.Schema); err != nil {
		return nil, errors.Wrap(err, "migrate index")
	}
	blocks, err := blocklog.New(blockStore, opts.BlockCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "load block log")
	}

	s := &Storage{db: db, blocks: blocks, validate: opts.ValidateOnApply}

	st, err := index.NewReader(db.Querier()).LatestLedgerState(context.Background())
	if err != nil {
		if !index.IsNotFound(err) {
			return nil, errors.Wrap(err, "load ledger state")
		}
		st = &ledger.LedgerState{}
	}
	s.state.Store(st)

	if size := blocks.Size(); size != st.Height {
		logger.Warn("world state and block log diverge, rebuild required", "wsv", st.Height, "blocks", size)
	}
	return s, nil
}

// LedgerState returns the state of the last committed block.
func (s *Storage) LedgerState() *ledger.LedgerState {
	return s.state.Load()
}

// BlockLog returns the committed blocks.
func (s *Storage) BlockLog() *blocklog.BlockLog {
	return s.blocks
}

// View returns the permission checked queries on the committed world state.
func (s *Storage) View() *wsv.ReadView {
	return s.db.View()
}

// Details returns the committed account details, without permission checks.
func (s *Storage) Details(ctx context.Context) *detail.Store {
	return s.db.Details(ctx)
}

// Index returns the reader of the committed indexes.
func (s *Storage) Index() *index.Reader {
	return index.NewReader(s.db.Querier())
}

// CheckTxPresence reports whether a transaction was committed, rejected or never seen.
func (s *Storage) CheckTxPresence(ctx context.Context, h ledger.Hash) (index.Status, error) {
	return s.Index().CheckTxPresence(ctx, h)
}

// NewWaiter creates a waiter signalled by every commit, carrying the new ledger state.
func (s *Storage) NewWaiter() co.Waiter[*ledger.LedgerState] {
	return s.tick.NewWaiter()
}

// CreateMutableStorage opens a write session. It waits while another session,
// mutable or temporary, is open.
func (s *Storage) CreateMutableStorage(ctx context.Context) (*MutableStorage, error) {
	return s.newSession(ctx, s.validate)
}

func (s *Storage) newSession(ctx context.Context, validate bool) (*MutableStorage, error) {
	ms, err := newMutableStorage(ctx, s.db, validate)
	if err != nil {
		return nil, err
	}
	// the session holds the writer, so no commit moves either height meanwhile
	if size := s.blocks.Size(); size != ms.state.Height {
		ms.Discard()
		return nil, errors.Wrapf(ErrDiverged, "world state at %v, block log at %v", ms.state.Height, size)
	}
	return ms, nil
}

// Commit makes the blocks applied by ms visible. ms is finished afterwards.
// The blocks reach the block log before the world state commits, so a failed
// append leaves both untouched and is returned.
func (s *Storage) Commit(ms *MutableStorage) (*CommitResult, error) {
	if ms.done {
		return nil, errSessionDone
	}
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	ms.done = true
	defer ms.closeBlocks()

	var blks []*block.Block
	if ms.blocks != nil {
		if err := ms.blocks.ForEach(func(blk *block.Block) error {
			blks = append(blks, blk)
			return nil
		}); err != nil {
			ms.s.Rollback()
			return nil, errors.Wrap(err, "read session blocks")
		}
	}
	if err := s.blocks.Append(blks); err != nil {
		ms.s.Rollback()
		return nil, errors.Wrap(err, "append block log")
	}
	if err := ms.s.Commit(); err != nil {
		if len(blks) > 0 {
			logger.Error("world state commit failed after block log append",
				"height", ms.state.Height, "blocks", s.blocks.Size(), "err", err)
		}
		return nil, err
	}

	s.state.Store(ms.state)
	metricCommitCount().Add(1)
	s.tick.Broadcast(ms.state)

	logger.Debug("session committed", "height", ms.state.Height, "hash", ms.state.Hash)
	return &CommitResult{
		LedgerState:   ms.state,
		IndexFailures: ms.indexFailures,
	}, nil
}

// WithMutableStorage runs fn in a new session and commits it when fn succeeds.
// The session is discarded otherwise.
func (s *Storage) WithMutableStorage(ctx context.Context, fn func(ms *MutableStorage) error) (*CommitResult, error) {
	ms, err := s.CreateMutableStorage(ctx)
	if err != nil {
		return nil, err
	}
	defer ms.Discard()

	if err := fn(ms); err != nil {
		return nil, err
	}
	return s.Commit(ms)
}

// InsertBlock applies blk without validation and commits it. It is meant for
// the genesis block.
func (s *Storage) InsertBlock(ctx context.Context, blk *block.Block) error {
	ms, err := s.newSession(ctx, false)
	if err != nil {
		return err
	}
	defer ms.Discard()

	applied, err := ms.Apply(blk)
	if err != nil {
		return err
	}
	if !applied {
		return errors.Errorf("block %v not applicable at height %v", blk.Height(), ms.state.Height)
	}
	_, err = s.Commit(ms)
	return err
}

// Reindex rebuilds every index from the block log.
func (s *Storage) Reindex(ctx context.Context) error {
	t, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer t.Rollback()

	// the session is taken first, so that no commit waits for the lock while holding it
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if err := index.Clear(t); err != nil {
		return err
	}
	ix := index.New(t)
	if err := s.blocks.ForEach(func(blk *block.Block) error {
		ix.Index(blk)
		return nil
	}); err != nil {
		return errors.Wrap(err, "read block log")
	}
	if err := ix.Flush(); err != nil {
		return err
	}
	if err := t.Commit(); err != nil {
		return err
	}
	logger.Info("indexes rebuilt", "blocks", s.blocks.Size())
	return nil
}

// Rebuild drops the world state and replays every block of the block log
// without validation. It is how a diverged storage is repaired.
func (s *Storage) Rebuild(ctx context.Context) (*CommitResult, error) {
	ms, err := newMutableStorage(ctx, s.db, false)
	if err != nil {
		return nil, err
	}
	defer ms.Discard()

	for _, reset := range []func(*wsv.Tx) error{
		(*wsv.Tx).Clear,
		index.Clear,
		index.ClearLedgerStates,
	} {
		if err := reset(ms.s); err != nil {
			return nil, err
		}
	}
	ms.closeBlocks()
	ms.blocks = nil
	ms.state = &ledger.LedgerState{}

	if err := s.blocks.ForEach(func(blk *block.Block) error {
		applied, err := ms.Apply(blk)
		if err != nil {
			return err
		}
		if !applied {
			return errors.Errorf("block %v does not apply", blk.Height())
		}
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "replay block log")
	}
	return s.Commit(ms)
}

// Close closes what Open opened.
func (s *Storage) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
