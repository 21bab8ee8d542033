// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package wsv

import (
	"context"
	"fmt"
	"regexp"

	"github.com/pkg/errors"

	"github.com/permledger/ledgerd/detail"
)

var (
	errTxDone       = errors.New("wsv: session already finished")
	savepointNameRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
)

// Tx is a write session. Nothing it writes is visible to readers until Commit.
// A Tx must not be used concurrently.
type Tx struct {
	*Queries
	ctx     context.Context
	db      *DB
	c       *conn
	changes ChangeSet
	details *detail.Store
	seq     int
	done    bool
}

// Begin opens a write session. It waits while another session is open.
func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	sqlTx, err := db.writer.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin session")
	}
	t := &Tx{ctx: ctx, db: db, c: txConn(sqlTx)}
	t.Queries = &Queries{c: t.c, changes: &t.changes}
	t.details = detail.New(newKVTable(ctx, t.c, detailTable))
	metricSessionCount().Add(1)
	return t, nil
}

// Context returns the context the session was opened with.
func (t *Tx) Context() context.Context { return t.ctx }

// Querier returns raw access inside the session.
func (t *Tx) Querier() Querier { return t.c }

// Details returns the account detail store of the session.
func (t *Tx) Details() *detail.Store { return t.details }

// Changes returns the entities written so far.
func (t *Tx) Changes() *ChangeSet { return &t.changes }

// Savepoint opens a nested savepoint named after name.
func (t *Tx) Savepoint(name string) (*Savepoint, error) {
	if t.done {
		return nil, errTxDone
	}
	if !savepointNameRe.MatchString(name) {
		return nil, errors.Errorf("wsv: invalid savepoint name %q", name)
	}
	t.seq++
	sp := &Savepoint{t: t, name: fmt.Sprintf("%s_%d", name, t.seq)}
	if err := t.c.raw(t.ctx, "SAVEPOINT "+sp.name); err != nil {
		return nil, errors.Wrapf(err, "savepoint %v", sp.name)
	}
	return sp, nil
}

// WithSavepoint runs fn inside a savepoint, releasing it when fn succeeds and
// rolling it back otherwise. fn's error is returned unless the rollback fails.
func (t *Tx) WithSavepoint(name string, fn func() error) error {
	sp, err := t.Savepoint(name)
	if err != nil {
		return err
	}
	if err := fn(); err != nil {
		if rerr := sp.Rollback(); rerr != nil {
			return rerr
		}
		return err
	}
	return sp.Release()
}

// Commit makes the session's writes visible and drops stale cache entries.
func (t *Tx) Commit() error {
	if t.done {
		return errTxDone
	}
	t.done = true
	if err := t.c.tx.Commit(); err != nil {
		return errors.Wrap(err, "commit session")
	}
	t.db.cache.invalidate(&t.changes)
	return nil
}

// Rollback discards the session. It is a no-op once finished.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.c.tx.Rollback()
}

// Done returns whether the session was committed or rolled back.
func (t *Tx) Done() bool { return t.done }

// Clear deletes the whole world state inside the session.
func (t *Tx) Clear() error {
	for _, table := range wsvTables {
		if err := t.c.raw(t.ctx, "DELETE FROM "+table); err != nil {
			return errors.Wrapf(err, "clear %v", table)
		}
	}
	t.changes.Cleared = true
	return nil
}

// Savepoint is a nested rollback point. Release and Rollback end it, and
// further calls are no-ops.
type Savepoint struct {
	t    *Tx
	name string
	done bool
}

func (sp *Savepoint) Name() string { return sp.name }

// Release keeps the writes made since the savepoint.
func (sp *Savepoint) Release() error {
	if sp.done {
		return nil
	}
	sp.done = true
	return sp.t.c.raw(sp.t.ctx, "RELEASE SAVEPOINT "+sp.name)
}

// Rollback undoes the writes made since the savepoint.
func (sp *Savepoint) Rollback() error {
	if sp.done {
		return nil
	}
	sp.done = true
	if err := sp.t.c.raw(sp.t.ctx, "ROLLBACK TO SAVEPOINT "+sp.name); err != nil {
		return err
	}
	return sp.t.c.raw(sp.t.ctx, "RELEASE SAVEPOINT "+sp.name)
}
