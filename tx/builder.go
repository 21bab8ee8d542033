// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

// Builder to make it easy to build transaction.
type Builder struct {
	body body
	sigs Signatures
}

// NewBuilder creates a builder for txs issued by creator.
func NewBuilder(creator string) *Builder {
	return &Builder{body: body{CreatorAccountID: creator, Quorum: 1}}
}

// CreatedTime sets creation time in milliseconds.
func (b *Builder) CreatedTime(ms uint64) *Builder {
	b.body.CreatedTime = ms
	return b
}

// Quorum sets the requested quorum.
func (b *Builder) Quorum(q uint32) *Builder {
	b.body.Quorum = q
	return b
}

// Command appends commands.
func (b *Builder) Command(cs ...Command) *Builder {
	b.body.Commands = append(b.body.Commands, cs...)
	return b
}

// Signature adds a signature.
func (b *Builder) Signature(publicKey string, sig []byte) *Builder {
	b.sigs = append(b.sigs, Signature{publicKey, append([]byte(nil), sig...)})
	return b
}

// Build builds tx object.
func (b *Builder) Build() *Transaction {
	tx := Transaction{body: b.body, signatures: b.sigs.Copy()}
	tx.body.Commands = append(Commands(nil), b.body.Commands...)
	return &tx
}
