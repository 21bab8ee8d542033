// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package executor

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/permledger/ledgerd/ledger"
)

// CommandError is a command rejected by validation or by a state invariant.
// Any other error returned by the executor is a backend fault.
type CommandError struct {
	CommandName string
	Code        ledger.ErrorCode
	Context     string
}

func (e *CommandError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("%v: %v", e.CommandName, e.Code)
	}
	return fmt.Sprintf("%v: %v (%v)", e.CommandName, e.Code, e.Context)
}

// AsCommandError extracts a CommandError from err.
func AsCommandError(err error) (*CommandError, bool) {
	var ce *CommandError
	ok := errors.As(err, &ce)
	return ce, ok
}

// TxError is a rejected transaction. CommandIndex is -1 when the
// signature check failed, otherwise the index of the failing command.
type TxError struct {
	TxHash       ledger.Hash
	CommandIndex int
	Err          error
}

func (e *TxError) Error() string {
	if e.CommandIndex < 0 {
		return fmt.Sprintf("tx %v: %v", e.TxHash.AbbrevString(), e.Err)
	}
	return fmt.Sprintf("tx %v: command #%d: %v", e.TxHash.AbbrevString(), e.CommandIndex, e.Err)
}

func (e *TxError) Unwrap() error { return e.Err }

// Code returns the code of the underlying rejection.
func (e *TxError) Code() ledger.ErrorCode {
	if ce, ok := AsCommandError(e.Err); ok {
		return ce.Code
	}
	return 0
}

// AsTxError extracts a TxError from err.
func AsTxError(err error) (*TxError, bool) {
	var te *TxError
	ok := errors.As(err, &te)
	return te, ok
}

// IsRejected returns whether err is a domain rejection rather than a backend fault.
func IsRejected(err error) bool {
	if _, ok := AsTxError(err); ok {
		return true
	}
	_, ok := AsCommandError(err)
	return ok
}

// fields renders key=value pairs for error context.
func fields(kvs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(kvs); i += 2 {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(kvs[i])
		b.WriteByte('=')
		b.WriteString(kvs[i+1])
	}
	return b.String()
}
