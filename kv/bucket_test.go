// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permledger/ledgerd/kv"
	"github.com/permledger/ledgerd/lvldb"
)

func newStore(t *testing.T) kv.Store {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBucketGetPut(t *testing.T) {
	src := newStore(t)
	require.NoError(t, src.Put([]byte("k1"), []byte("v1")))
	require.NoError(t, src.Put([]byte("k2"), []byte("v2")))

	tests := []struct {
		b    kv.Bucket
		key  string
		want string
	}{
		{kv.Bucket(""), "k1", "v1"},
		{kv.Bucket("k"), "k1", ""},
		{kv.Bucket("k"), "1", "v1"},
		{kv.Bucket("k"), "2", "v2"},
		{kv.Bucket("k1"), "", "v1"},
	}
	for _, tt := range tests {
		t.Run(string(tt.b)+"/"+tt.key, func(t *testing.T) {
			got, err := tt.b.NewGetter(src).Get([]byte(tt.key))
			if tt.want == "" {
				assert.True(t, src.IsNotFound(err))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}

	b := kv.Bucket("x").NewStore(src)
	require.NoError(t, b.Put([]byte("1"), []byte("y")))
	got, err := src.Get([]byte("x1"))
	assert.NoError(t, err)
	assert.Equal(t, "y", string(got))

	require.NoError(t, b.Delete([]byte("1")))
	has, err := src.Has([]byte("x1"))
	assert.NoError(t, err)
	assert.False(t, has)
}

func TestBucketIterate(t *testing.T) {
	src := newStore(t)
	for _, k := range []string{"a1", "b1", "b2", "b3", "c1"} {
		require.NoError(t, src.Put([]byte(k), []byte(k)))
	}
	b := kv.Bucket("b").NewStore(src)

	collect := func(r kv.Range) (keys []string) {
		iter := b.Iterate(r)
		defer iter.Release()
		for iter.Next() {
			keys = append(keys, string(iter.Key()))
		}
		require.NoError(t, iter.Error())
		return
	}
	assert.Equal(t, []string{"1", "2", "3"}, collect(kv.Range{}))
	assert.Equal(t, []string{"2", "3"}, collect(kv.Range{Start: []byte("2")}))
	assert.Equal(t, []string{"1", "2"}, collect(kv.Range{Limit: []byte("3")}))
}

func TestBucketBulk(t *testing.T) {
	src := newStore(t)
	b := kv.Bucket("p").NewStore(src)

	bulk := b.Bulk()
	require.NoError(t, bulk.Put([]byte("1"), []byte("v")))
	has, _ := src.Has([]byte("p1"))
	assert.False(t, has)

	require.NoError(t, bulk.Write())
	has, _ = src.Has([]byte("p1"))
	assert.True(t, has)
}
