// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

// Signature pairs a signer's public key with its signature over the tx hash.
// Cryptographic verification happens before a transaction reaches storage.
type Signature struct {
	PublicKey string
	Signature []byte
}

// Signatures is a list of signatures.
type Signatures []Signature

// Signers returns the set of distinct public keys.
func (ss Signatures) Signers() map[string]struct{} {
	set := make(map[string]struct{}, len(ss))
	for _, s := range ss {
		set[s.PublicKey] = struct{}{}
	}
	return set
}

func (ss Signatures) Copy() Signatures {
	out := make(Signatures, len(ss))
	for i, s := range ss {
		out[i] = Signature{s.PublicKey, append([]byte(nil), s.Signature...)}
	}
	return out
}
