// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"context"

	"github.com/permledger/ledgerd/executor"
	"github.com/permledger/ledgerd/tx"
	"github.com/permledger/ledgerd/wsv"
)

// TemporaryWSV checks transactions against the committed world state without
// ever committing them. Transactions that pass stay visible to the following
// ones until Close.
//
// It holds the write session, so it must be closed before the next block is applied.
type TemporaryWSV struct {
	s    *wsv.Tx
	exec *executor.TxExecutor
}

// CreateTemporaryWSV opens a throwaway session.
func (s *Storage) CreateTemporaryWSV(ctx context.Context) (*TemporaryWSV, error) {
	t, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &TemporaryWSV{s: t, exec: executor.NewTxExecutor(t)}, nil
}

// Apply fully validates and executes trx. A rejected transaction leaves no
// trace and is reported as *executor.TxError.
func (tw *TemporaryWSV) Apply(trx *tx.Transaction) error {
	return tw.exec.Execute(trx, true)
}

// Queries returns typed access to the session's world state.
func (tw *TemporaryWSV) Queries() *wsv.Queries {
	return tw.s.Queries
}

// Close discards everything applied.
func (tw *TemporaryWSV) Close() error {
	return tw.s.Rollback()
}
