// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package wsv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permledger/ledgerd/kv"
	"github.com/permledger/ledgerd/ledger"
	"github.com/permledger/ledgerd/perm"
)

func openTestDB(t *testing.T) *DB {
	db, err := Open(filepath.Join(t.TempDir(), "wsv.db"), Options{CacheSize: 64})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

type account struct {
	id    string
	perms perm.RoleSet
}

// seed creates one role per account, holding the given permissions.
func seed(t *testing.T, db *DB, accounts ...account) {
	ctx := context.Background()
	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	require.NoError(t, tx.InsertRole(ctx, &Role{ID: "none"}))
	domains := map[string]bool{}
	for _, a := range accounts {
		d := ledger.AccountDomain(a.id)
		if !domains[d] {
			require.NoError(t, tx.InsertDomain(ctx, &Domain{ID: d, DefaultRole: "none"}))
			domains[d] = true
		}
		role := "r_" + a.id
		require.NoError(t, tx.InsertRole(ctx, &Role{ID: role, Permissions: a.perms}))
		require.NoError(t, tx.InsertAccount(ctx, &Account{ID: a.id, DomainID: d, Quorum: 1}))
		require.NoError(t, tx.InsertSignatory(ctx, a.id, "pk_"+a.id))
		require.NoError(t, tx.AttachRole(ctx, a.id, role))
	}
	require.NoError(t, tx.Commit())
}

func TestSessionVisibility(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seed(t, db, account{"alice@d1", 0})

	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SetQuorum(ctx, "alice@d1", 2))

	// not visible before commit
	acc, err := db.Queries().Account(ctx, "alice@d1")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), acc.Quorum)

	require.NoError(t, tx.Commit())
	acc, err = db.Queries().Account(ctx, "alice@d1")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), acc.Quorum)

	assert.Error(t, tx.Commit())
	assert.NoError(t, tx.Rollback())
}

func TestRollbackDiscards(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seed(t, db, account{"alice@d1", 0})

	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertPeer(ctx, &ledger.Peer{Address: "127.0.0.1:10001", PublicKey: "p1"}))
	require.NoError(t, tx.Rollback())
	require.NoError(t, tx.Rollback())

	peers, err := db.Queries().Peers(ctx)
	require.NoError(t, err)
	assert.Empty(t, peers)
}

func TestSavepoint(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seed(t, db, account{"alice@d1", 0})

	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	sp, err := tx.Savepoint("outer")
	require.NoError(t, err)
	require.NoError(t, tx.SetQuorum(ctx, "alice@d1", 3))

	inner, err := tx.Savepoint("inner")
	require.NoError(t, err)
	require.NoError(t, tx.PutSetting(ctx, "k", "v"))
	require.NoError(t, inner.Rollback())
	require.NoError(t, inner.Rollback())
	require.NoError(t, inner.Release())
	require.NoError(t, sp.Release())

	_, ok, err := tx.Setting(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	acc, err := tx.Account(ctx, "alice@d1")
	require.NoError(t, err)
	assert.Equal(t, uint32(3), acc.Quorum)

	_, err = tx.Savepoint("bad name")
	assert.Error(t, err)
}

func TestWithSavepoint(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seed(t, db, account{"alice@d1", 0})

	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	failure := assert.AnError
	err = tx.WithSavepoint("tx", func() error {
		require.NoError(t, tx.SetQuorum(ctx, "alice@d1", 5))
		return failure
	})
	assert.Equal(t, failure, err)

	acc, err := tx.Account(ctx, "alice@d1")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), acc.Quorum)
}

func TestConstraintError(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seed(t, db, account{"alice@d1", 0})

	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	err = tx.InsertRole(ctx, &Role{ID: "none"})
	assert.True(t, IsConstraint(err))
	assert.True(t, IsNotFound(tx.DeleteSignatory(ctx, "alice@d1", "nope")))
}

func TestBalances(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seed(t, db, account{"alice@d1", 0})

	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertAsset(ctx, &Asset{ID: "coin#d1", DomainID: "d1", Precision: 2}))
	_, err = tx.AccountAsset(ctx, "alice@d1", "coin#d1")
	assert.True(t, IsNotFound(err))

	require.NoError(t, tx.PutBalance(ctx, "alice@d1", "coin#d1", uint256.NewInt(12345)))
	require.NoError(t, tx.PutBalance(ctx, "alice@d1", "coin#d1", uint256.NewInt(100)))
	require.NoError(t, tx.Commit())

	aa, err := db.Queries().AccountAsset(ctx, "alice@d1", "coin#d1")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), aa.Balance.Uint64())
	assert.Equal(t, uint8(2), aa.Precision)

	all, err := db.Queries().AccountAssets(ctx, "alice@d1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRolePermissionsAggregate(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seed(t, db, account{"alice@d1", perm.NewRoleSet(perm.GetMyAccount)})

	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertRole(ctx, &Role{ID: "extra", Permissions: perm.NewRoleSet(perm.GetPeers)}))
	require.NoError(t, tx.AttachRole(ctx, "alice@d1", "extra"))
	acc, err := tx.Account(ctx, "alice@d1")
	require.NoError(t, err)
	assert.Equal(t, perm.NewRoleSet(perm.GetMyAccount, perm.GetPeers), acc.Permissions)

	require.NoError(t, tx.DetachRole(ctx, "alice@d1", "extra"))
	acc, err = tx.Account(ctx, "alice@d1")
	require.NoError(t, err)
	assert.Equal(t, perm.NewRoleSet(perm.GetMyAccount), acc.Permissions)
	assert.True(t, IsNotFound(tx.DetachRole(ctx, "alice@d1", "extra")))
}

func TestKVTableIterate(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	table := newKVTable(ctx, tx.c, detailTable)
	bulk := table.Bulk()
	for _, k := range []string{"b2", "a1", "b1", "c1"} {
		require.NoError(t, bulk.Put([]byte(k), []byte("v"+k)))
	}
	require.NoError(t, bulk.Delete([]byte("c1")))
	require.NoError(t, bulk.Write())

	var keys []string
	it := table.Iterate(kv.PrefixRange([]byte("b")))
	for it.Next() {
		keys = append(keys, string(it.Key()))
		assert.Equal(t, "v"+string(it.Key()), string(it.Value()))
	}
	it.Release()
	require.NoError(t, it.Error())
	assert.Equal(t, []string{"b1", "b2"}, keys)

	_, err = table.Get([]byte("c1"))
	assert.True(t, table.IsNotFound(err))
	has, err := table.Has([]byte("a1"))
	require.NoError(t, err)
	assert.True(t, has)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seed(t, db, account{"alice@d1", perm.NewRoleSet(perm.GetMyAccount)})

	_, err := db.View().GetAccount(ctx, "alice@d1", "alice@d1")
	require.NoError(t, err)

	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Details().Put("alice@d1", "k", "alice@d1", "v"))
	require.NoError(t, tx.Clear())
	require.NoError(t, tx.Commit())

	_, err = db.View().GetAccount(ctx, "alice@d1", "alice@d1")
	qe, ok := AsQueryError(err)
	require.True(t, ok)
	assert.Equal(t, ledger.NoCreatorAccount, qe.Code)
}

func TestEntityCacheLoadAcrossCommit(t *testing.T) {
	c := newEntityCache(16)
	started, release := make(chan struct{}), make(chan struct{})
	stale := make(chan any, 1)
	go func() {
		v, _ := c.get(accountPrefix+"alice", func() (any, error) {
			close(started)
			<-release
			return "before", nil
		})
		stale <- v
	}()
	<-started
	c.invalidate(&ChangeSet{Accounts: map[string]struct{}{"alice": {}}})

	// a reader after the commit loads afresh instead of joining the pending load
	v, err := c.get(accountPrefix+"alice", func() (any, error) { return "after", nil })
	require.NoError(t, err)
	assert.Equal(t, "after", v)

	close(release)
	assert.Equal(t, "before", <-stale)

	v, err = c.get(accountPrefix+"alice", func() (any, error) { return "reloaded", nil })
	require.NoError(t, err)
	assert.Equal(t, "after", v, "a load older than the commit must not be cached")
}

func TestStmtCache(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	sc := db.readStmts
	n := sc.Len()

	for i := 0; i < 3; i++ {
		var v int
		require.NoError(t, db.Querier().QueryRowContext(ctx, "SELECT 1 + ?", i).Scan(&v))
		assert.Equal(t, i+1, v)
	}
	assert.Equal(t, n+1, sc.Len())
	_, hit, miss := sc.stats.Stats()
	assert.Equal(t, int64(2), hit)
	assert.Equal(t, int64(1), miss)

	_, err := sc.Prepare(ctx, "SELEC nothing")
	assert.ErrorContains(t, err, "SELEC nothing")
	assert.Equal(t, n+1, sc.Len())

	sc.Clear()
	assert.Equal(t, 0, sc.Len())
}
