// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package perm

// Grantable is a permission an account grants to another account over itself.
type Grantable uint8

const (
	AddMySignatory Grantable = iota
	RemoveMySignatory
	SetMyQuorum
	SetMyAccountDetail
	TransferMyAssets

	GrantableCount = int(TransferMyAssets) + 1
)

var grantableNames = [GrantableCount]string{
	"can_add_my_signatory",
	"can_remove_my_signatory",
	"can_set_my_quorum",
	"can_set_my_account_detail",
	"can_transfer_my_assets",
}

// grantRequires maps each grantable permission to the role permission needed to grant it.
var grantRequires = [GrantableCount]Role{
	AddMySignatory:     GrantAddMySignatory,
	RemoveMySignatory:  GrantRemoveMySignatory,
	SetMyQuorum:        GrantSetMyQuorum,
	SetMyAccountDetail: GrantSetMyAccountDetail,
	TransferMyAssets:   GrantTransferMyAssets,
}

func (g Grantable) String() string {
	if int(g) < GrantableCount {
		return grantableNames[g]
	}
	return "unknown_grantable"
}

// Valid reports whether g is a known grantable permission.
func (g Grantable) Valid() bool {
	return int(g) < GrantableCount
}

// RequiredRole returns the role permission a creator must hold to grant or revoke g.
func (g Grantable) RequiredRole() Role {
	return grantRequires[g]
}

// ParseGrantable looks a grantable permission up by name.
func ParseGrantable(name string) (Grantable, bool) {
	for i, n := range grantableNames {
		if n == name {
			return Grantable(i), true
		}
	}
	return 0, false
}

// GrantableSet is a bitset of grantable permissions.
type GrantableSet uint8

func (s GrantableSet) With(g Grantable) GrantableSet {
	if !g.Valid() {
		return s
	}
	return s | 1<<g
}

func (s GrantableSet) Without(g Grantable) GrantableSet {
	return s &^ (1 << g)
}

func (s GrantableSet) Has(g Grantable) bool {
	return g.Valid() && s&(1<<g) != 0
}

func (s GrantableSet) String() string {
	return bitstring(uint64(s), GrantableCount)
}

// ParseGrantableSet parses a bitstring produced by GrantableSet.String.
func ParseGrantableSet(str string) (GrantableSet, error) {
	v, err := parseBitstring(str, GrantableCount)
	return GrantableSet(v), err
}
