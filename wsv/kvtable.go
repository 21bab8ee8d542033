// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package wsv

import (
	"context"
	"database/sql"

	"github.com/permledger/ledgerd/kv"
)

// kvTable exposes a (k BLOB PRIMARY KEY, v BLOB) table as a kv.Store.
type kvTable struct {
	ctx  context.Context
	c    *conn
	name string
}

func newKVTable(ctx context.Context, c *conn, name string) *kvTable {
	return &kvTable{ctx, c, name}
}

func (t *kvTable) Get(key []byte) ([]byte, error) {
	var v []byte
	if err := t.c.QueryRowContext(t.ctx, "SELECT v FROM "+t.name+" WHERE k = ?", key).Scan(&v); err != nil {
		return nil, noRows(err)
	}
	if v == nil {
		v = []byte{}
	}
	return v, nil
}

func (t *kvTable) Has(key []byte) (bool, error) {
	var one int
	if err := t.c.QueryRowContext(t.ctx, "SELECT 1 FROM "+t.name+" WHERE k = ?", key).Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (t *kvTable) IsNotFound(err error) bool {
	return IsNotFound(err)
}

func (t *kvTable) Put(key, val []byte) error {
	_, err := t.c.ExecContext(t.ctx, "INSERT OR REPLACE INTO "+t.name+" (k, v) VALUES (?, ?)", key, val)
	return err
}

func (t *kvTable) Delete(key []byte) error {
	_, err := t.c.ExecContext(t.ctx, "DELETE FROM "+t.name+" WHERE k = ?", key)
	return err
}

// Bulk buffers writes. Being run inside the enclosing sql transaction, they
// become visible to others only on commit.
func (t *kvTable) Bulk() kv.Bulk {
	type op struct {
		key, val []byte
		del      bool
	}
	var ops []op
	return &struct {
		kv.PutFunc
		kv.DeleteFunc
		kv.WriteFunc
	}{
		func(key, val []byte) error {
			ops = append(ops, op{key: append([]byte(nil), key...), val: append([]byte(nil), val...)})
			return nil
		},
		func(key []byte) error {
			ops = append(ops, op{key: append([]byte(nil), key...), del: true})
			return nil
		},
		func() error {
			for _, o := range ops {
				var err error
				if o.del {
					err = t.Delete(o.key)
				} else {
					err = t.Put(o.key, o.val)
				}
				if err != nil {
					return err
				}
			}
			ops = ops[:0]
			return nil
		},
	}
}

func (t *kvTable) Iterate(r kv.Range) kv.Iterator {
	query := "SELECT k, v FROM " + t.name + " WHERE 1"
	var args []any
	if len(r.Start) > 0 {
		query += " AND k >= ?"
		args = append(args, r.Start)
	}
	if len(r.Limit) > 0 {
		query += " AND k < ?"
		args = append(args, r.Limit)
	}
	query += " ORDER BY k"

	rows, err := t.c.QueryContext(t.ctx, query, args...)
	return &rowsIter{rows: rows, err: err}
}

type rowsIter struct {
	rows     *sql.Rows
	key, val []byte
	err      error
}

func (it *rowsIter) Next() bool {
	if it.err != nil || it.rows == nil {
		return false
	}
	if !it.rows.Next() {
		it.err = it.rows.Err()
		return false
	}
	var k, v []byte
	if err := it.rows.Scan(&k, &v); err != nil {
		it.err = err
		return false
	}
	it.key, it.val = k, v
	return true
}

func (it *rowsIter) Key() []byte   { return it.key }
func (it *rowsIter) Value() []byte { return it.val }
func (it *rowsIter) Error() error  { return it.err }

func (it *rowsIter) Release() {
	if it.rows != nil {
		it.rows.Close()
		it.rows = nil
	}
}
