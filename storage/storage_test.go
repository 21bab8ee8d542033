// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permledger/ledgerd/block"
	"github.com/permledger/ledgerd/executor"
	"github.com/permledger/ledgerd/index"
	"github.com/permledger/ledgerd/kv"
	"github.com/permledger/ledgerd/ledger"
	"github.com/permledger/ledgerd/lvldb"
	"github.com/permledger/ledgerd/perm"
	"github.com/permledger/ledgerd/storage"
	"github.com/permledger/ledgerd/tx"
	"github.com/permledger/ledgerd/wsv"
)

const (
	admin = "admin@d1"
	alice = "alice@d1"
	bob   = "bob@d1"
	coin  = "coin#d1"
)

func genesisBlock() *block.Block {
	trx := tx.NewBuilder("").
		Command(
			tx.CreateRole{RoleName: "admin", Permissions: perm.AllRoles()},
			tx.CreateRole{RoleName: "user", Permissions: perm.NewRoleSet(perm.TransferMyAssetsRole, perm.Receive)},
			tx.CreateDomain{DomainID: "d1", DefaultRole: "user"},
			tx.CreateAccount{AccountName: "admin", DomainID: "d1", PublicKey: "pk_admin"},
			tx.AppendRole{AccountID: admin, RoleName: "admin"},
			tx.CreateAccount{AccountName: "alice", DomainID: "d1", PublicKey: "pk_alice"},
			tx.CreateAccount{AccountName: "bob", DomainID: "d1", PublicKey: "pk_bob"},
			tx.CreateAsset{AssetName: "coin", DomainID: "d1", Precision: 2},
			tx.AddPeer{Peer: ledger.Peer{Address: "127.0.0.1:10001", PublicKey: "peer1"}},
		).
		CreatedTime(1).
		Build()
	return new(block.Builder).Height(1).Transaction(trx).Build()
}

func next(prev *block.Block, txs ...*tx.Transaction) *block.Block {
	return new(block.Builder).
		Height(prev.Height() + 1).
		PrevHash(prev.Hash()).
		Transaction(txs...).
		Build()
}

func transfer(src, dst, amount string) *tx.Transaction {
	return tx.NewBuilder(src).
		Command(tx.TransferAsset{
			SrcAccountID:  src,
			DestAccountID: dst,
			AssetID:       coin,
			Amount:        ledger.MustParseAmount(amount),
		}).
		Signature("pk_"+src[:len(src)-3], []byte{1}).
		Build()
}

func mint(amount string, to string) *tx.Transaction {
	return tx.NewBuilder(admin).
		Command(
			tx.AddAssetQuantity{AssetID: coin, Amount: ledger.MustParseAmount(amount)},
			tx.TransferAsset{SrcAccountID: admin, DestAccountID: to, AssetID: coin, Amount: ledger.MustParseAmount(amount)},
		).
		Signature("pk_admin", []byte{1}).
		Build()
}

type testStorage struct {
	*storage.Storage
	t       *testing.T
	ctx     context.Context
	db      *wsv.DB
	genesis *block.Block
}

// newTestStorage creates a storage holding the genesis block, with the block
// log in memory.
func newTestStorage(t *testing.T, opts storage.Options) *testStorage {
	ldb, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { ldb.Close() })
	return newTestStorageWith(t, opts, ldb)
}

func newTestStorageWith(t *testing.T, opts storage.Options, blockStore kv.Store) *testStorage {
	db, err := wsv.Open(filepath.Join(t.TempDir(), "wsv.db"), opts.WSV)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := storage.New(db, blockStore, opts)
	require.NoError(t, err)

	ctx := context.Background()
	genesis := genesisBlock()
	require.NoError(t, s.InsertBlock(ctx, genesis))
	return &testStorage{Storage: s, t: t, ctx: ctx, db: db, genesis: genesis}
}

func (ts *testStorage) balance(q *wsv.Queries, account string) uint64 {
	ts.t.Helper()
	aa, err := q.AccountAsset(ts.ctx, account, coin)
	if wsv.IsNotFound(err) {
		return 0
	}
	require.NoError(ts.t, err)
	return aa.Balance.Uint64()
}

// commit applies blocks in one session, requiring each of them to apply.
func (ts *testStorage) commit(blocks ...*block.Block) *storage.CommitResult {
	ts.t.Helper()
	res, err := ts.WithMutableStorage(ts.ctx, func(ms *storage.MutableStorage) error {
		for _, blk := range blocks {
			applied, err := ms.Apply(blk)
			if err != nil {
				return err
			}
			require.True(ts.t, applied, spew.Sdump(blk.Height(), ms.LedgerState()))
		}
		return nil
	})
	require.NoError(ts.t, err)
	return res
}

func TestGenesis(t *testing.T) {
	ts := newTestStorage(t, storage.DefaultOptions())

	st := ts.LedgerState()
	assert.Equal(t, uint64(1), st.Height)
	assert.Equal(t, ts.genesis.Hash(), st.Hash)
	assert.Equal(t, []ledger.Peer{{Address: "127.0.0.1:10001", PublicKey: "peer1"}}, st.Peers)
	assert.Equal(t, uint64(1), ts.BlockLog().Size())

	status, err := ts.CheckTxPresence(ts.ctx, ts.genesis.Transactions()[0].Hash())
	require.NoError(t, err)
	assert.Equal(t, index.Committed, status)

	// genesis can not be inserted twice
	assert.Error(t, ts.InsertBlock(ts.ctx, ts.genesis))
}

func TestBlockAtomicity(t *testing.T) {
	ts := newTestStorage(t, storage.DefaultOptions())
	b2 := next(ts.genesis, mint("100", alice))
	ts.commit(b2)

	ms, err := ts.CreateMutableStorage(ts.ctx)
	require.NoError(t, err)
	defer ms.Discard()

	// the first transfer passes, the second overdraws alice
	bad := next(b2, transfer(alice, bob, "40"), transfer(alice, bob, "150"))
	applied, err := ms.Apply(bad)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, uint64(2), ms.LedgerState().Height)
	assert.Equal(t, uint64(10000), ts.balance(ms.Queries(), alice))
	assert.Equal(t, uint64(0), ts.balance(ms.Queries(), bob))

	good := next(b2, transfer(alice, bob, "40"))
	applied, err = ms.Apply(good)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, uint64(6000), ts.balance(ms.Queries(), alice))
	assert.Equal(t, uint64(4000), ts.balance(ms.Queries(), bob))

	// nothing is visible before commit
	assert.Equal(t, uint64(2), ts.LedgerState().Height)
	assert.Equal(t, uint64(0), ts.balance(ts.db.Queries(), bob))

	res, err := ts.Commit(ms)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), res.LedgerState.Height)
	assert.Equal(t, good.Hash(), res.LedgerState.Hash)
	assert.Empty(t, res.IndexFailures)
	assert.Equal(t, res.LedgerState, ts.LedgerState())
	assert.Equal(t, uint64(3), ts.BlockLog().Size())
	assert.Equal(t, uint64(4000), ts.balance(ts.db.Queries(), bob))

	stored, err := ts.BlockLog().Fetch(3)
	require.NoError(t, err)
	assert.Equal(t, good.Hash(), stored.Hash())

	status, err := ts.CheckTxPresence(ts.ctx, bad.Transactions()[1].Hash())
	require.NoError(t, err)
	assert.Equal(t, index.Missing, status)
}

func TestHeightGap(t *testing.T) {
	ts := newTestStorage(t, storage.DefaultOptions())
	b2 := next(ts.genesis)
	b3 := next(b2)
	ts.commit(b2, b3)
	require.Equal(t, uint64(3), ts.LedgerState().Height)

	b5 := new(block.Builder).Height(5).PrevHash(b3.Hash()).Build()
	res, err := ts.WithMutableStorage(ts.ctx, func(ms *storage.MutableStorage) error {
		applied, err := ms.Apply(b5)
		assert.False(t, applied)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), res.LedgerState.Height)
	assert.Equal(t, uint64(3), ts.LedgerState().Height)
	assert.Equal(t, uint64(3), ts.BlockLog().Size())

	// replaying an applied height is refused too
	res, err = ts.WithMutableStorage(ts.ctx, func(ms *storage.MutableStorage) error {
		applied, err := ms.Apply(b3)
		assert.False(t, applied)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, b3.Hash(), res.LedgerState.Hash)
}

func TestChainPredicate(t *testing.T) {
	ts := newTestStorage(t, storage.DefaultOptions())
	b2 := next(ts.genesis)
	forked := new(block.Builder).Height(2).PrevHash(ledger.Blake2b([]byte("fork"))).Build()

	ms, err := ts.CreateMutableStorage(ts.ctx)
	require.NoError(t, err)
	defer ms.Discard()

	applied, err := ms.ApplyIf(forked, storage.ChainPredicate)
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = ms.ApplyIf(b2, storage.ChainPredicate)
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestApplySeq(t *testing.T) {
	ts := newTestStorage(t, storage.DefaultOptions())
	b2 := next(ts.genesis, mint("10", alice))
	b3 := next(b2, transfer(alice, bob, "50"))
	b4 := next(b3)

	ms, err := ts.CreateMutableStorage(ts.ctx)
	require.NoError(t, err)
	defer ms.Discard()

	ok, err := ms.ApplySeq(slices.Values([]*block.Block{b2, b3, b4}), storage.ChainPredicate)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, uint64(2), ms.LedgerState().Height)

	b3 = next(b2, transfer(alice, bob, "5"))
	ok, err = ms.ApplySeq(slices.Values([]*block.Block{b3, next(b3)}), storage.ChainPredicate)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(4), ms.LedgerState().Height)
}

func TestDiscard(t *testing.T) {
	ts := newTestStorage(t, storage.DefaultOptions())
	before := ts.LedgerState()

	b2 := next(ts.genesis, mint("1", alice))
	ms, err := ts.CreateMutableStorage(ts.ctx)
	require.NoError(t, err)
	applied, err := ms.Apply(b2)
	require.NoError(t, err)
	require.True(t, applied)

	ms.Discard()
	ms.Discard()

	_, err = ms.Apply(next(b2))
	assert.Error(t, err)
	_, err = ts.Commit(ms)
	assert.Error(t, err)

	assert.Equal(t, before, ts.LedgerState())
	assert.Equal(t, uint64(1), ts.BlockLog().Size())
	status, err := ts.CheckTxPresence(ts.ctx, b2.Transactions()[0].Hash())
	require.NoError(t, err)
	assert.Equal(t, index.Missing, status)

	// the write session was released
	ts.commit(b2)
	assert.Equal(t, uint64(2), ts.LedgerState().Height)
}

func TestWithMutableStorageRollsBack(t *testing.T) {
	ts := newTestStorage(t, storage.DefaultOptions())
	b2 := next(ts.genesis, mint("10", alice))
	abort := errors.New("abort")

	apply := func(ms *storage.MutableStorage) {
		applied, err := ms.Apply(b2)
		require.NoError(t, err)
		require.True(t, applied)
	}

	_, err := ts.WithMutableStorage(ts.ctx, func(ms *storage.MutableStorage) error {
		apply(ms)
		return abort
	})
	assert.Equal(t, abort, err)
	assert.Equal(t, uint64(1), ts.LedgerState().Height)
	assert.Equal(t, uint64(0), ts.balance(ts.db.Queries(), alice))

	assert.Panics(t, func() {
		ts.WithMutableStorage(ts.ctx, func(ms *storage.MutableStorage) error {
			apply(ms)
			panic("boom")
		})
	})
	assert.Equal(t, uint64(1), ts.LedgerState().Height)
	assert.Equal(t, uint64(1), ts.BlockLog().Size())
	assert.Equal(t, uint64(0), ts.balance(ts.db.Queries(), alice))
	status, err := ts.CheckTxPresence(ts.ctx, b2.Transactions()[0].Hash())
	require.NoError(t, err)
	assert.Equal(t, index.Missing, status)

	// the write session was released on both paths
	ts.commit(b2)
	assert.Equal(t, uint64(1000), ts.balance(ts.db.Queries(), alice))
}

// failingStore fails bulk writes while fail is set.
type failingStore struct {
	kv.Store
	fail bool
}

func (s *failingStore) Bulk() kv.Bulk {
	bulk := s.Store.Bulk()
	return &struct {
		kv.Putter
		kv.WriteFunc
	}{
		bulk,
		func() error {
			if s.fail {
				return errors.New("disk full")
			}
			return bulk.Write()
		},
	}
}

func TestBlockLogWriteFailure(t *testing.T) {
	ldb, err := lvldb.NewMem()
	require.NoError(t, err)
	defer ldb.Close()
	store := &failingStore{Store: ldb}
	ts := newTestStorageWith(t, storage.DefaultOptions(), store)

	b2 := next(ts.genesis, mint("10", alice))
	b3 := next(b2, transfer(alice, bob, "1"))

	store.fail = true
	_, err = ts.WithMutableStorage(ts.ctx, func(ms *storage.MutableStorage) error {
		_, err := ms.Apply(b2)
		return err
	})
	require.Error(t, err)
	assert.Equal(t, uint64(1), ts.LedgerState().Height)
	assert.Equal(t, uint64(1), ts.BlockLog().Size())
	assert.Equal(t, uint64(0), ts.balance(ts.db.Queries(), alice))
	status, err := ts.CheckTxPresence(ts.ctx, b2.Transactions()[0].Hash())
	require.NoError(t, err)
	assert.Equal(t, index.Missing, status)

	store.fail = false
	ts.commit(b2)
	ts.commit(b3)
	assert.Equal(t, uint64(3), ts.LedgerState().Height)
	assert.Equal(t, uint64(3), ts.BlockLog().Size())
	assert.Equal(t, uint64(900), ts.balance(ts.db.Queries(), alice))
}

func TestDivergedStorage(t *testing.T) {
	ts := newTestStorage(t, storage.DefaultOptions())
	b2 := next(ts.genesis, mint("10", alice))

	// a block log ahead of the world state, as left by a failed world state commit
	require.NoError(t, ts.BlockLog().Insert(b2))

	_, err := ts.CreateMutableStorage(ts.ctx)
	assert.True(t, storage.IsDiverged(err), "got %v", err)
	assert.True(t, storage.IsDiverged(ts.InsertBlock(ts.ctx, next(b2))))

	res, err := ts.Rebuild(ts.ctx)
	require.NoError(t, err)
	assert.Equal(t, b2.Hash(), res.LedgerState.Hash)
	assert.Equal(t, uint64(1000), ts.balance(ts.db.Queries(), alice))

	ts.commit(next(b2))
	assert.Equal(t, uint64(3), ts.LedgerState().Height)
	assert.Equal(t, uint64(3), ts.BlockLog().Size())
}

func TestRejectedTxIndex(t *testing.T) {
	ts := newTestStorage(t, storage.DefaultOptions())
	rejected := ledger.Blake2b([]byte("rejected tx"))
	b2 := new(block.Builder).Height(2).PrevHash(ts.genesis.Hash()).Rejected(rejected).Build()
	ts.commit(b2)

	status, err := ts.CheckTxPresence(ts.ctx, rejected)
	require.NoError(t, err)
	assert.Equal(t, index.Rejected, status)
}

func TestValidateOnApply(t *testing.T) {
	opts := storage.DefaultOptions()
	opts.ValidateOnApply = true
	ts := newTestStorage(t, opts)

	byBob := tx.NewBuilder(bob).
		Command(tx.CreateDomain{DomainID: "d2", DefaultRole: "user"}).
		Signature("pk_bob", []byte{1}).
		Build()
	unsigned := tx.NewBuilder(admin).Command(tx.CreateDomain{DomainID: "d2", DefaultRole: "user"}).Build()
	byAdmin := tx.NewBuilder(admin).
		Command(tx.CreateDomain{DomainID: "d2", DefaultRole: "user"}).
		Signature("pk_admin", []byte{1}).
		Build()

	ms, err := ts.CreateMutableStorage(ts.ctx)
	require.NoError(t, err)
	defer ms.Discard()

	for _, trx := range []*tx.Transaction{byBob, unsigned} {
		applied, err := ms.Apply(next(ts.genesis, trx))
		require.NoError(t, err)
		assert.False(t, applied)
	}
	applied, err := ms.Apply(next(ts.genesis, byAdmin))
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestWaiter(t *testing.T) {
	ts := newTestStorage(t, storage.DefaultOptions())
	w := ts.NewWaiter()

	select {
	case <-w.C():
		t.Fatal("signalled before commit")
	default:
	}

	b2 := next(ts.genesis)
	ts.commit(b2)

	select {
	case <-w.C():
	case <-time.After(5 * time.Second):
		t.Fatal("commit not signalled")
	}
	st, ok := w.Value()
	require.True(t, ok)
	assert.Equal(t, b2.Hash(), st.Hash)
}

func TestTemporaryWSV(t *testing.T) {
	ts := newTestStorage(t, storage.DefaultOptions())
	ts.commit(next(ts.genesis, mint("10", alice)))

	tw, err := ts.CreateTemporaryWSV(ts.ctx)
	require.NoError(t, err)

	require.NoError(t, tw.Apply(transfer(alice, bob, "6")))
	// the first transfer is seen by the second
	err = tw.Apply(transfer(alice, bob, "6"))
	txErr, ok := executor.AsTxError(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, ledger.NotEnoughBalance, txErr.Code())

	unsigned := tx.NewBuilder(alice).
		Command(tx.TransferAsset{SrcAccountID: alice, DestAccountID: bob, AssetID: coin, Amount: ledger.MustParseAmount("1")}).
		Build()
	txErr, ok = executor.AsTxError(tw.Apply(unsigned))
	require.True(t, ok)
	assert.Equal(t, ledger.SignatureQuorumNotMet, txErr.Code())

	assert.Equal(t, uint64(400), ts.balance(tw.Queries(), alice))
	require.NoError(t, tw.Close())

	assert.Equal(t, uint64(1000), ts.balance(ts.db.Queries(), alice))
	assert.Equal(t, uint64(0), ts.balance(ts.db.Queries(), bob))
}

func TestReindex(t *testing.T) {
	ts := newTestStorage(t, storage.DefaultOptions())
	b2 := next(ts.genesis, mint("10", alice))
	ts.commit(b2)
	trx := b2.Transactions()[0]

	s, err := ts.db.Begin(ts.ctx)
	require.NoError(t, err)
	require.NoError(t, index.Clear(s))
	require.NoError(t, s.Commit())

	status, err := ts.CheckTxPresence(ts.ctx, trx.Hash())
	require.NoError(t, err)
	require.Equal(t, index.Missing, status)

	require.NoError(t, ts.Reindex(ts.ctx))

	status, err = ts.CheckTxPresence(ts.ctx, trx.Hash())
	require.NoError(t, err)
	assert.Equal(t, index.Committed, status)
	pos, err := ts.Index().TxPositionsByAccountAsset(ts.ctx, alice, coin, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []index.Position{{Height: 2, Index: 0}}, pos)
}

func TestRebuild(t *testing.T) {
	ts := newTestStorage(t, storage.DefaultOptions())
	b2 := next(ts.genesis, mint("10", alice))
	b3 := next(b2, transfer(alice, bob, "3"))
	ts.commit(b2, b3)
	want := ts.LedgerState()

	res, err := ts.Rebuild(ts.ctx)
	require.NoError(t, err)
	assert.Equal(t, want, res.LedgerState)
	assert.Equal(t, uint64(3), ts.BlockLog().Size())
	assert.Equal(t, uint64(700), ts.balance(ts.db.Queries(), alice))
	assert.Equal(t, uint64(300), ts.balance(ts.db.Queries(), bob))

	st, err := ts.Index().LedgerStateAt(ts.ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, b2.Hash(), st.Hash)
}

func TestReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	genesis := genesisBlock()
	b2 := next(genesis, mint("10", alice))

	s, err := storage.Open(dir, storage.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, s.InsertBlock(ctx, genesis))
	_, err = s.WithMutableStorage(ctx, func(ms *storage.MutableStorage) error {
		_, err := ms.Apply(b2)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = storage.Open(dir, storage.DefaultOptions())
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, uint64(2), s.LedgerState().Height)
	assert.Equal(t, b2.Hash(), s.LedgerState().Hash)
	assert.Equal(t, uint64(2), s.BlockLog().Size())

	assets, err := s.View().GetAccountAssets(ctx, admin, alice)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, uint64(1000), assets[0].Balance.Uint64())
}

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
block-cache-size: 32
validate-on-apply: true
wsv:
  busy-timeout: 100
block-log:
  cache-size: 64
`), 0o600))

	opts, err := storage.LoadOptions(path)
	require.NoError(t, err)
	def := storage.DefaultOptions()
	assert.Equal(t, 32, opts.BlockCacheSize)
	assert.True(t, opts.ValidateOnApply)
	assert.Equal(t, 100, opts.WSV.BusyTimeout)
	assert.Equal(t, def.WSV.CacheSize, opts.WSV.CacheSize)
	assert.Equal(t, 64, opts.BlockLog.CacheSize)
	assert.Equal(t, def.BlockLog.OpenFilesCacheCapacity, opts.BlockLog.OpenFilesCacheCapacity)

	_, err = storage.LoadOptions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
