// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package executor

import (
	"strconv"

	"github.com/permledger/ledgerd/ledger"
	"github.com/permledger/ledgerd/tx"
	"github.com/permledger/ledgerd/wsv"
)

const signaturesCheck = "ValidateSignatures"

// TxExecutor runs whole transactions, each under its own savepoint.
type TxExecutor struct {
	s    *wsv.Tx
	exec *Executor
}

func NewTxExecutor(s *wsv.Tx) *TxExecutor {
	return &TxExecutor{s: s, exec: New(s)}
}

// ValidateSignatures checks that the distinct signer keys registered as
// signatories of the creator reach the creator's quorum. Signatures are
// assumed verified upstream.
func (te *TxExecutor) ValidateSignatures(t *tx.Transaction) error {
	ctx := te.s.Context()
	creator := t.CreatorAccountID()
	reject := func(code ledger.ErrorCode, context string) error {
		return &TxError{
			TxHash:       t.Hash(),
			CommandIndex: -1,
			Err:          &CommandError{CommandName: signaturesCheck, Code: code, Context: context},
		}
	}

	acc, err := te.s.Account(ctx, creator)
	if err != nil {
		if wsv.IsNotFound(err) {
			return reject(ledger.NoCreatorAccount, fields("creator", creator))
		}
		return err
	}
	keys, err := te.s.Signatories(ctx, creator)
	if err != nil {
		return err
	}
	signers := t.Signatures().Signers()
	n := 0
	for _, k := range keys {
		if _, ok := signers[k]; ok {
			n++
		}
	}
	if n < int(acc.Quorum) {
		return reject(ledger.SignatureQuorumNotMet, fields(
			"creator", creator,
			"quorum", strconv.Itoa(int(acc.Quorum)),
			"signatures", strconv.Itoa(n)))
	}
	return nil
}

// Execute runs the commands of t in order, stopping at the first rejection.
// A rejected transaction leaves no trace and is reported as *TxError.
func (te *TxExecutor) Execute(t *tx.Transaction, validate bool) error {
	err := te.s.WithSavepoint("tx", func() error {
		if validate {
			if err := te.ValidateSignatures(t); err != nil {
				return err
			}
		}
		creator := t.CreatorAccountID()
		for i, cmd := range t.Commands() {
			if err := te.exec.Execute(cmd, creator, validate); err != nil {
				if _, ok := AsCommandError(err); ok {
					return &TxError{TxHash: t.Hash(), CommandIndex: i, Err: err}
				}
				return err
			}
		}
		return nil
	})
	if rej, ok := AsTxError(err); ok {
		metricTxRejectedCount().AddWithLabel(1, map[string]string{"code": rej.Code().String()})
		logger.Debug("tx rejected", "tx", rej.TxHash, "index", rej.CommandIndex, "err", rej.Err)
	}
	return err
}
