// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package perm defines role and grantable permissions and their bitsets.
package perm

// Role is a permission granted to an account through its roles.
type Role uint8

const (
	AppendRole Role = iota
	CreateRole
	DetachRole
	AddAssetQty
	SubtractAssetQty
	AddPeer
	AddSignatory
	RemoveSignatory
	SetQuorum
	CreateAccount
	SetDetail
	CreateAsset
	Transfer
	Receive
	CreateDomain
	ReadAssets
	GetRoles
	GetMyAccount
	GetAllAccounts
	GetDomainAccounts
	GetMySignatories
	GetAllSignatories
	GetDomainSignatories
	GetMyAccAst
	GetAllAccAst
	GetDomainAccAst
	GetMyAccDetail
	GetAllAccDetail
	GetDomainAccDetail
	GetMyAccTxs
	GetAllAccTxs
	GetDomainAccTxs
	GetMyAccAstTxs
	GetAllAccAstTxs
	GetDomainAccAstTxs
	GetMyTxs
	GetAllTxs
	GetBlocks
	GrantSetMyQuorum
	GrantAddMySignatory
	GrantRemoveMySignatory
	GrantTransferMyAssets
	GrantSetMyAccountDetail
	GetPeers
	AddDomainAssetQty
	SubtractDomainAssetQty
	RemovePeer
	TransferMyAssetsRole
	Root

	RoleCount = int(Root) + 1
)

var roleNames = [RoleCount]string{
	"can_append_role",
	"can_create_role",
	"can_detach_role",
	"can_add_asset_qty",
	"can_subtract_asset_qty",
	"can_add_peer",
	"can_add_signatory",
	"can_remove_signatory",
	"can_set_quorum",
	"can_create_account",
	"can_set_detail",
	"can_create_asset",
	"can_transfer",
	"can_receive",
	"can_create_domain",
	"can_read_assets",
	"can_get_roles",
	"can_get_my_account",
	"can_get_all_accounts",
	"can_get_domain_accounts",
	"can_get_my_signatories",
	"can_get_all_signatories",
	"can_get_domain_signatories",
	"can_get_my_acc_ast",
	"can_get_all_acc_ast",
	"can_get_domain_acc_ast",
	"can_get_my_acc_detail",
	"can_get_all_acc_detail",
	"can_get_domain_acc_detail",
	"can_get_my_acc_txs",
	"can_get_all_acc_txs",
	"can_get_domain_acc_txs",
	"can_get_my_acc_ast_txs",
	"can_get_all_acc_ast_txs",
	"can_get_domain_acc_ast_txs",
	"can_get_my_txs",
	"can_get_all_txs",
	"can_get_blocks",
	"can_grant_can_set_my_quorum",
	"can_grant_can_add_my_signatory",
	"can_grant_can_remove_my_signatory",
	"can_grant_can_transfer_my_assets",
	"can_grant_can_set_my_account_detail",
	"can_get_peers",
	"can_add_domain_asset_qty",
	"can_subtract_domain_asset_qty",
	"can_remove_peer",
	"can_transfer_my_assets",
	"root",
}

func (r Role) String() string {
	if int(r) < RoleCount {
		return roleNames[r]
	}
	return "unknown_role"
}

// ParseRole looks a role permission up by name.
func ParseRole(name string) (Role, bool) {
	for i, n := range roleNames {
		if n == name {
			return Role(i), true
		}
	}
	return 0, false
}

// RoleSet is a bitset of role permissions.
type RoleSet uint64

// NewRoleSet creates a set holding the given permissions.
func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s = s.With(r)
	}
	return s
}

// AllRoles returns a set with every role permission.
func AllRoles() RoleSet {
	return RoleSet(1)<<RoleCount - 1
}

// With returns s plus r.
func (s RoleSet) With(r Role) RoleSet {
	if int(r) >= RoleCount {
		return s
	}
	return s | 1<<r
}

// Without returns s minus r.
func (s RoleSet) Without(r Role) RoleSet {
	return s &^ (1 << r)
}

// Has reports whether r is set, regardless of Root.
func (s RoleSet) Has(r Role) bool {
	return int(r) < RoleCount && s&(1<<r) != 0
}

// Allows reports whether r is set or Root is held.
func (s RoleSet) Allows(r Role) bool {
	return s.Has(Root) || s.Has(r)
}

// AllowsAll reports whether every permission of other is allowed by s.
func (s RoleSet) AllowsAll(other RoleSet) bool {
	return s.Has(Root) || other&^s == 0
}

// Union returns the bitwise OR of the sets.
func (s RoleSet) Union(others ...RoleSet) RoleSet {
	for _, o := range others {
		s |= o
	}
	return s
}

// Roles lists the permissions held, in ascending order.
func (s RoleSet) Roles() []Role {
	var out []Role
	for i := 0; i < RoleCount; i++ {
		if s.Has(Role(i)) {
			out = append(out, Role(i))
		}
	}
	return out
}

// String renders the set as a bitstring, one character per permission.
func (s RoleSet) String() string {
	return bitstring(uint64(s), RoleCount)
}

// ParseRoleSet parses a bitstring produced by RoleSet.String.
func ParseRoleSet(str string) (RoleSet, error) {
	v, err := parseBitstring(str, RoleCount)
	return RoleSet(v), err
}
