// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

// Peer is a network participant of the ledger.
type Peer struct {
	Address   string
	PublicKey string
	// TLSCertificate is optional, empty when absent.
	TLSCertificate string
}

// LedgerState is the snapshot produced by the last applied block.
// It is replaced as a whole and never mutated.
type LedgerState struct {
	Height uint64
	Hash   Hash
	Peers  []Peer
}

// NewLedgerState creates a snapshot owning a copy of peers.
func NewLedgerState(height uint64, hash Hash, peers []Peer) *LedgerState {
	return &LedgerState{
		Height: height,
		Hash:   hash,
		Peers:  append([]Peer(nil), peers...),
	}
}
