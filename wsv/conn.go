// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package wsv

import (
	"context"
	"database/sql"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Querier runs raw sql against the world state database.
// It is implemented by sessions and by the read-only pool.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn runs prepared statements either on a pool or pinned to a sql.Tx.
type conn struct {
	pool  *stmtCache
	tx    *sql.Tx
	stmts map[string]*sql.Stmt
}

func poolConn(sc *stmtCache) *conn {
	return &conn{pool: sc}
}

func txConn(tx *sql.Tx) *conn {
	return &conn{tx: tx, stmts: make(map[string]*sql.Stmt)}
}

// statements of a tx are closed by database/sql when the tx ends.
func (c *conn) stmt(ctx context.Context, query string) (*sql.Stmt, error) {
	if c.tx == nil {
		return c.pool.Prepare(ctx, query)
	}
	if s, ok := c.stmts[query]; ok {
		return s, nil
	}
	s, err := c.tx.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	c.stmts[query] = s
	return s, nil
}

func (c *conn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	s, err := c.stmt(ctx, query)
	if err != nil {
		return nil, err
	}
	res, err := s.ExecContext(ctx, args...)
	if err != nil {
		return nil, wrapConstraint(err)
	}
	return res, nil
}

func (c *conn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	s, err := c.stmt(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.QueryContext(ctx, args...)
}

// QueryRowContext defers prepare errors to Scan, like sql.DB does.
func (c *conn) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	if c.tx != nil {
		if s, ok := c.stmts[query]; ok {
			return s.QueryRowContext(ctx, args...)
		}
		s, err := c.tx.PrepareContext(ctx, query)
		if err != nil {
			return c.tx.QueryRowContext(ctx, query, args...)
		}
		c.stmts[query] = s
		return s.QueryRowContext(ctx, args...)
	}
	s, err := c.pool.Prepare(ctx, query)
	if err != nil {
		return c.pool.db.QueryRowContext(ctx, query, args...)
	}
	return s.QueryRowContext(ctx, args...)
}

// raw executes unprepared statements, used for savepoint control.
func (c *conn) raw(ctx context.Context, query string) error {
	var err error
	if c.tx != nil {
		_, err = c.tx.ExecContext(ctx, query)
	} else {
		_, err = c.pool.db.ExecContext(ctx, query)
	}
	return err
}

// ConstraintError reports a write rejected by a schema constraint.
type ConstraintError struct {
	cause error
}

func (e *ConstraintError) Error() string { return "wsv: constraint violated: " + e.cause.Error() }
func (e *ConstraintError) Unwrap() error { return e.cause }

// IsConstraint returns whether the error is a constraint violation.
func IsConstraint(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce)
}

func wrapConstraint(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		return &ConstraintError{err}
	}
	return err
}
