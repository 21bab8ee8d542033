// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"io"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/permledger/ledgerd/ledger"
)

// Transaction is an immutable tx type.
type Transaction struct {
	body       body
	signatures Signatures

	cache struct {
		hash atomic.Pointer[ledger.Hash]
	}
}

// body is the signed payload of a tx.
type body struct {
	CreatorAccountID string
	CreatedTime      uint64
	Quorum           uint32
	Commands         Commands
}

// Hash returns the hash of the tx payload, signatures excluded.
func (t *Transaction) Hash() ledger.Hash {
	if cached := t.cache.hash.Load(); cached != nil {
		return *cached
	}
	h := ledger.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, &t.body)
	})
	t.cache.hash.Store(&h)
	return h
}

// CreatorAccountID returns the account that issued the tx.
func (t *Transaction) CreatorAccountID() string {
	return t.body.CreatorAccountID
}

// CreatedTime returns creation time in milliseconds.
func (t *Transaction) CreatedTime() uint64 {
	return t.body.CreatedTime
}

// Quorum returns the quorum requested by the creator.
func (t *Transaction) Quorum() uint32 {
	return t.body.Quorum
}

// Commands returns a copy of the command list.
func (t *Transaction) Commands() Commands {
	return append(Commands(nil), t.body.Commands...)
}

// Signatures returns a copy of signatures.
func (t *Transaction) Signatures() Signatures {
	return t.signatures.Copy()
}

// WithSignatures creates a new tx with the given signatures appended.
func (t *Transaction) WithSignatures(sigs ...Signature) *Transaction {
	newTx := Transaction{body: t.body}
	newTx.signatures = append(t.signatures.Copy(), Signatures(sigs).Copy()...)
	return &newTx
}

// EncodeRLP implements rlp.Encoder.
func (t *Transaction) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, []any{&t.body, t.signatures})
}

// DecodeRLP implements rlp.Decoder.
func (t *Transaction) DecodeRLP(s *rlp.Stream) error {
	var payload struct {
		Body       body
		Signatures Signatures
	}
	if err := s.Decode(&payload); err != nil {
		return err
	}
	*t = Transaction{body: payload.Body, signatures: payload.Signatures}
	return nil
}

// Transactions is a list of transactions.
type Transactions []*Transaction

// Copy returns a shallow copy.
func (txs Transactions) Copy() Transactions {
	return append(Transactions(nil), txs...)
}
