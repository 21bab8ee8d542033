// Copyright (c) 2020 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package wsv

import (
	"context"
	"database/sql"
	"sync"

	"github.com/pkg/errors"

	"github.com/permledger/ledgerd/cache"
)

// stmtCache keeps the read pool's prepared statements by query text.
// Statements prepared on a pool are safe for concurrent use, and are
// re-prepared on whichever connection runs them.
type stmtCache struct {
	db    *sql.DB
	m     sync.Map // query -> *sql.Stmt
	stats cache.Stats
}

func newStmtCache(db *sql.DB) *stmtCache {
	return &stmtCache{db: db}
}

func (sc *stmtCache) Prepare(ctx context.Context, query string) (*sql.Stmt, error) {
	if cached, ok := sc.m.Load(query); ok {
		sc.stats.Hit()
		return cached.(*sql.Stmt), nil
	}
	sc.stats.Miss()

	stmt, err := sc.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "prepare %q", query)
	}
	actual, loaded := sc.m.LoadOrStore(query, stmt)
	if loaded {
		_ = stmt.Close()
	}
	sc.report()
	return actual.(*sql.Stmt), nil
}

// report publishes the hit and miss counts when the hit rate moved.
func (sc *stmtCache) report() {
	if changed, hit, miss := sc.stats.Stats(); changed {
		metricStmtCacheHitMiss().SetWithLabel(hit, map[string]string{"event": "hit"})
		metricStmtCacheHitMiss().SetWithLabel(miss, map[string]string{"event": "miss"})
	}
}

// Len returns the number of cached statements.
func (sc *stmtCache) Len() (n int) {
	sc.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return
}

// Clear closes and forgets every statement.
func (sc *stmtCache) Clear() {
	sc.m.Range(func(k, v any) bool {
		_ = v.(*sql.Stmt).Close()
		sc.m.Delete(k)
		return true
	})
}
