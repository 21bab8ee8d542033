// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package detail stores account details as (account, key, writer) -> value
// records with precomputed match counts.
package detail

import (
	"github.com/pkg/errors"

	"github.com/permledger/ledgerd/kv"
)

var errBadPaginationMeta = errors.New("detail: cursor requires both parts set")

// IsBadPaginationMeta returns whether the error is caused by a half-specified cursor.
func IsBadPaginationMeta(err error) bool {
	return errors.Cause(err) == errBadPaginationMeta
}

// Record is one detail entry.
type Record struct {
	Account string
	Key     string
	Writer  string
	Value   string
}

// Cursor is the position of a record to resume iteration from, inclusive.
// Find uses Key and Writer; ByWriter uses Account and Key.
type Cursor struct {
	Account string
	Key     string
	Writer  string
}

// Filter selects records of an account, optionally narrowed by key and writer.
type Filter struct {
	Account string
	Key     string
	Writer  string
}

// Page is one page of matching records.
type Page struct {
	Records []Record
	// Total counts every record matching the filter, regardless of the cursor.
	Total uint64
	// Next is where the following page starts, nil when exhausted.
	Next *Cursor
}

// Store is the account detail store.
type Store struct {
	src      kv.Store
	records  kv.Store
	writers  kv.Store
	counters kv.Store
}

// New creates a detail store over src.
func New(src kv.Store) *Store {
	return &Store{
		src:      src,
		records:  kv.Bucket(recordStoreName).NewStore(src),
		writers:  kv.Bucket(writerStoreName).NewStore(src),
		counters: kv.Bucket(counterStoreName).NewStore(src),
	}
}

// Put upserts a value. Counters only change when the triple is new.
func (s *Store) Put(account, key, writer, value string) error {
	rk := join(account, key, writer)
	exists, err := s.records.Has(rk)
	if err != nil {
		return err
	}

	bulk := s.src.Bulk()
	if err := kv.Bucket(recordStoreName).NewPutter(bulk).Put(rk, []byte(value)); err != nil {
		return err
	}
	if !exists {
		if err := kv.Bucket(writerStoreName).NewPutter(bulk).Put(join(writer, account, key), []byte{}); err != nil {
			return err
		}
		counters := kv.Bucket(counterStoreName).NewPutter(bulk)
		for _, ck := range [][]byte{
			counterKey(byWriter, writer),
			counterKey(byAccount, account),
			counterKey(byWriterAccount, writer, account),
			counterKey(byAccountKey, account, key),
		} {
			n, err := loadCounter(s.counters, ck)
			if err != nil {
				return err
			}
			if err := saveCounter(counters, ck, n+1); err != nil {
				return err
			}
		}
	}
	return bulk.Write()
}

// Get returns the value stored for the exact triple.
func (s *Store) Get(account, key, writer string) (string, bool, error) {
	val, err := s.records.Get(join(account, key, writer))
	if err != nil {
		if s.records.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(val), true, nil
}

// Find returns up to limit records matching f, ordered by key then writer,
// starting at cursor. A limit below 1 means 1.
func (s *Store) Find(f Filter, cursor *Cursor, limit int) (*Page, error) {
	if cursor != nil && (cursor.Key == "") != (cursor.Writer == "") {
		return nil, errBadPaginationMeta
	}
	if limit < 1 {
		limit = 1
	}

	var (
		page = &Page{}
		pfx  []byte
		err  error
	)
	switch {
	case f.Key != "" && f.Writer != "":
		_, ok, err := s.Get(f.Account, f.Key, f.Writer)
		if err != nil {
			return nil, err
		}
		if ok {
			page.Total = 1
		}
		pfx = prefix(f.Account, f.Key)
	case f.Key != "":
		page.Total, err = loadCounter(s.counters, counterKey(byAccountKey, f.Account, f.Key))
		pfx = prefix(f.Account, f.Key)
	case f.Writer != "":
		page.Total, err = loadCounter(s.counters, counterKey(byWriterAccount, f.Writer, f.Account))
		pfx = prefix(f.Account)
	default:
		page.Total, err = loadCounter(s.counters, counterKey(byAccount, f.Account))
		pfx = prefix(f.Account)
	}
	if err != nil {
		return nil, err
	}
	if page.Total == 0 {
		return page, nil
	}

	rng := kv.PrefixRange(pfx)
	if cursor != nil && cursor.Key != "" {
		start := join(f.Account, cursor.Key, cursor.Writer)
		if string(start) > string(rng.Start) {
			rng.Start = start
		}
	}

	iter := s.records.Iterate(rng)
	defer iter.Release()
	for iter.Next() {
		account, key, writer, ok := split3(iter.Key())
		if !ok || account != f.Account {
			continue
		}
		if f.Writer != "" && writer != f.Writer {
			continue
		}
		if len(page.Records) == limit {
			page.Next = &Cursor{Key: key, Writer: writer}
			break
		}
		page.Records = append(page.Records, Record{account, key, writer, string(iter.Value())})
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return page, nil
}

// ByWriter returns up to limit records written by writer, ordered by account
// then key, starting at cursor. A limit below 1 means 1.
func (s *Store) ByWriter(writer string, cursor *Cursor, limit int) (*Page, error) {
	if cursor != nil && (cursor.Account == "") != (cursor.Key == "") {
		return nil, errBadPaginationMeta
	}
	if limit < 1 {
		limit = 1
	}

	total, err := s.CountByWriter(writer)
	if err != nil {
		return nil, err
	}
	page := &Page{Total: total}
	if total == 0 {
		return page, nil
	}

	rng := kv.PrefixRange(prefix(writer))
	if cursor != nil && cursor.Account != "" {
		rng.Start = join(writer, cursor.Account, cursor.Key)
	}

	iter := s.writers.Iterate(rng)
	defer iter.Release()
	for iter.Next() {
		_, account, key, ok := split3(iter.Key())
		if !ok {
			continue
		}
		if len(page.Records) == limit {
			page.Next = &Cursor{Account: account, Key: key}
			break
		}
		value, found, err := s.Get(account, key, writer)
		if err != nil {
			return nil, err
		}
		if found {
			page.Records = append(page.Records, Record{account, key, writer, value})
		}
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return page, nil
}

// CountByWriter returns the number of distinct records written by writer.
func (s *Store) CountByWriter(writer string) (uint64, error) {
	return loadCounter(s.counters, counterKey(byWriter, writer))
}
