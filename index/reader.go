// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package index

import (
	"context"
	"database/sql"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/permledger/ledgerd/ledger"
	"github.com/permledger/ledgerd/wsv"
)

var errNotFound = errors.New("not found")

// IsNotFound returns whether the error means the entry is not indexed.
func IsNotFound(err error) bool {
	return errors.Is(err, errNotFound)
}

// DefaultLimit applies to position queries given no positive limit.
const DefaultLimit = 100

// Reader answers index lookups.
type Reader struct {
	q wsv.Querier
}

// NewReader creates a reader, usually over the committed read pool.
func NewReader(q wsv.Querier) *Reader {
	return &Reader{q}
}

// CheckTxPresence tells whether a transaction was committed, rejected or never seen.
func (r *Reader) CheckTxPresence(ctx context.Context, h ledger.Hash) (Status, error) {
	var status Status
	if err := r.q.QueryRowContext(ctx,
		"SELECT status FROM tx_status_by_hash WHERE hash = ?", h.Bytes(),
	).Scan(&status); err != nil {
		if err == sql.ErrNoRows {
			return Missing, nil
		}
		return Missing, err
	}
	return status, nil
}

func (r *Reader) TxPosition(ctx context.Context, h ledger.Hash) (*Position, error) {
	var pos Position
	if err := r.q.QueryRowContext(ctx,
		"SELECT height, idx FROM tx_position_by_hash WHERE hash = ?", h.Bytes(),
	).Scan(&pos.Height, &pos.Index); err != nil {
		if err == sql.ErrNoRows {
			return nil, errNotFound
		}
		return nil, err
	}
	return &pos, nil
}

// TxPositionsByCreator lists positions of transactions created by account,
// ascending, strictly after the given position when set.
func (r *Reader) TxPositionsByCreator(ctx context.Context, account string, after *Position, limit int) ([]Position, error) {
	return r.positions(ctx,
		"SELECT height, idx FROM tx_position_by_creator WHERE creator_id = ?",
		[]any{account}, after, limit)
}

// TxPositionsByAccountAsset lists positions of transfers of asset involving account.
func (r *Reader) TxPositionsByAccountAsset(ctx context.Context, account, asset string, after *Position, limit int) ([]Position, error) {
	return r.positions(ctx,
		"SELECT height, idx FROM tx_position_by_account_asset WHERE account_id = ? AND asset_id = ?",
		[]any{account, asset}, after, limit)
}

func (r *Reader) positions(ctx context.Context, query string, args []any, after *Position, limit int) ([]Position, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if after != nil {
		query += " AND (height > ? OR (height = ? AND idx > ?))"
		args = append(args, after.Height, after.Height, after.Index)
	}
	query += " ORDER BY height, idx LIMIT ?"
	args = append(args, limit)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Position
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.Height, &p.Index); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LedgerStateAt returns the ledger state reached at height.
func (r *Reader) LedgerStateAt(ctx context.Context, height uint64) (*ledger.LedgerState, error) {
	return r.ledgerState(ctx, "SELECT height, hash, peers FROM ledger_state WHERE height = ?", height)
}

// LatestLedgerState returns the ledger state of the highest applied block.
func (r *Reader) LatestLedgerState(ctx context.Context) (*ledger.LedgerState, error) {
	return r.ledgerState(ctx, "SELECT height, hash, peers FROM ledger_state ORDER BY height DESC LIMIT 1")
}

func (r *Reader) ledgerState(ctx context.Context, query string, args ...any) (*ledger.LedgerState, error) {
	var (
		st          ledger.LedgerState
		hash, peers []byte
	)
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&st.Height, &hash, &peers); err != nil {
		if err == sql.ErrNoRows {
			return nil, errNotFound
		}
		return nil, err
	}
	st.Hash = ledger.BytesToHash(hash)
	if err := rlp.DecodeBytes(peers, &st.Peers); err != nil {
		return nil, errors.Wrap(err, "decode peers")
	}
	return &st, nil
}
