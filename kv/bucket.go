// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Bucket is a key prefix carving a logical store out of a shared one.
// Bucket names must not be prefixes of each other within the same store.
type Bucket string

// PrefixRange returns the range covering every key with the given prefix.
func PrefixRange(prefix []byte) Range {
	r := util.BytesPrefix(prefix)
	return Range{Start: r.Start, Limit: r.Limit}
}

func (b Bucket) key(key []byte) []byte {
	k := make([]byte, 0, len(b)+len(key))
	return append(append(k, b...), key...)
}

// Range maps r, relative to the bucket, to the range of the source store.
// An open limit stops at the end of the bucket.
func (b Bucket) Range(r Range) Range {
	out := Range{Start: b.key(r.Start)}
	if len(r.Limit) == 0 {
		out.Limit = PrefixRange([]byte(b)).Limit
	} else {
		out.Limit = b.key(r.Limit)
	}
	return out
}

// NewGetter creates a bucket getter from the source getter.
func (b Bucket) NewGetter(src Getter) Getter {
	return bucketGetter{b, src}
}

// NewPutter creates a bucket putter from the source putter.
func (b Bucket) NewPutter(src Putter) Putter {
	return bucketPutter{b, src}
}

// NewStore creates a bucket store from the source store.
func (b Bucket) NewStore(src Store) Store {
	return bucketStore{bucketGetter{b, src}, bucketPutter{b, src}, src}
}

type bucketGetter struct {
	b   Bucket
	src Getter
}

func (g bucketGetter) Get(key []byte) ([]byte, error) { return g.src.Get(g.b.key(key)) }
func (g bucketGetter) Has(key []byte) (bool, error)   { return g.src.Has(g.b.key(key)) }
func (g bucketGetter) IsNotFound(err error) bool      { return g.src.IsNotFound(err) }

type bucketPutter struct {
	b   Bucket
	src Putter
}

func (p bucketPutter) Put(key, val []byte) error { return p.src.Put(p.b.key(key), val) }
func (p bucketPutter) Delete(key []byte) error   { return p.src.Delete(p.b.key(key)) }

type bucketStore struct {
	bucketGetter
	bucketPutter
	src Store
}

func (s bucketStore) Bulk() Bulk {
	bulk := s.src.Bulk()
	return &struct {
		Putter
		WriteFunc
	}{
		bucketPutter{s.bucketGetter.b, bulk},
		bulk.Write,
	}
}

func (s bucketStore) Iterate(r Range) Iterator {
	return &bucketIter{s.src.Iterate(s.bucketGetter.b.Range(r)), len(s.bucketGetter.b)}
}

// bucketIter strips the bucket from the keys of the source iterator.
type bucketIter struct {
	Iterator
	n int
}

func (it *bucketIter) Key() []byte { return it.Iterator.Key()[it.n:] }
