// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package wsv

import (
	"github.com/holiman/uint256"

	"github.com/permledger/ledgerd/perm"
)

// Account is a ledger account. Permissions is the OR of its roles' permissions.
type Account struct {
	ID          string
	DomainID    string
	Quorum      uint32
	Permissions perm.RoleSet
}

type Domain struct {
	ID          string
	DefaultRole string
}

type Role struct {
	ID          string
	Permissions perm.RoleSet
}

type Asset struct {
	ID        string
	DomainID  string
	Precision uint8
}

// AccountAsset is a balance, in units of 10^-Precision.
type AccountAsset struct {
	AccountID string
	AssetID   string
	Balance   *uint256.Int
	Precision uint8
}

// AccountInfo is an account together with its attached roles.
type AccountInfo struct {
	Account
	Roles []string
}
