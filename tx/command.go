// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"github.com/permledger/ledgerd/ledger"
	"github.com/permledger/ledgerd/perm"
)

// Kind tags a command variant.
type Kind uint8

const (
	KindAddAssetQuantity Kind = iota + 1
	KindAddPeer
	KindAddSignatory
	KindAppendRole
	KindCompareAndSetAccountDetail
	KindCreateAccount
	KindCreateAsset
	KindCreateDomain
	KindCreateRole
	KindDetachRole
	KindGrantPermission
	KindRemovePeer
	KindRemoveSignatory
	KindRevokePermission
	KindSetAccountDetail
	KindSetQuorum
	KindSubtractAssetQuantity
	KindTransferAsset
	KindSetSettingValue

	kindEnd
)

// Command is one ledger mutation. The set of implementations is closed.
type Command interface {
	Kind() Kind
	Name() string
	command()
}

// Kinds returns every command kind.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindEnd-1)
	for k := KindAddAssetQuantity; k < kindEnd; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// AddAssetQuantity credits the creator's own balance.
type AddAssetQuantity struct {
	AssetID string
	Amount  ledger.Amount
}

// AddPeer registers a peer.
type AddPeer struct {
	Peer ledger.Peer
}

// AddSignatory adds a public key to an account's signatories.
type AddSignatory struct {
	AccountID string
	PublicKey string
}

// AppendRole attaches a role to an account.
type AppendRole struct {
	AccountID string
	RoleName  string
}

// CompareAndSetAccountDetail sets a detail only if the stored value matches OldValue,
// or is absent when HasOldValue is false.
type CompareAndSetAccountDetail struct {
	AccountID   string
	Key         string
	Value       string
	OldValue    string
	HasOldValue bool
}

// CreateAccount creates name@domain with one signatory and the domain's default role.
type CreateAccount struct {
	AccountName string
	DomainID    string
	PublicKey   string
}

type CreateAsset struct {
	AssetName string
	DomainID  string
	Precision uint8
}

type CreateDomain struct {
	DomainID    string
	DefaultRole string
}

type CreateRole struct {
	RoleName    string
	Permissions perm.RoleSet
}

type DetachRole struct {
	AccountID string
	RoleName  string
}

// GrantPermission grants AccountID a permission over the creator.
type GrantPermission struct {
	AccountID  string
	Permission perm.Grantable
}

type RemovePeer struct {
	PublicKey string
}

type RemoveSignatory struct {
	AccountID string
	PublicKey string
}

// RevokePermission takes back a permission the creator granted to AccountID.
type RevokePermission struct {
	AccountID  string
	Permission perm.Grantable
}

type SetAccountDetail struct {
	AccountID string
	Key       string
	Value     string
}

type SetQuorum struct {
	AccountID string
	Quorum    uint32
}

// SubtractAssetQuantity debits the creator's own balance.
type SubtractAssetQuantity struct {
	AssetID string
	Amount  ledger.Amount
}

type TransferAsset struct {
	SrcAccountID  string
	DestAccountID string
	AssetID       string
	Description   string
	Amount        ledger.Amount
}

type SetSettingValue struct {
	Key   string
	Value string
}

func (AddAssetQuantity) Kind() Kind           { return KindAddAssetQuantity }
func (AddPeer) Kind() Kind                    { return KindAddPeer }
func (AddSignatory) Kind() Kind               { return KindAddSignatory }
func (AppendRole) Kind() Kind                 { return KindAppendRole }
func (CompareAndSetAccountDetail) Kind() Kind { return KindCompareAndSetAccountDetail }
func (CreateAccount) Kind() Kind              { return KindCreateAccount }
func (CreateAsset) Kind() Kind                { return KindCreateAsset }
func (CreateDomain) Kind() Kind               { return KindCreateDomain }
func (CreateRole) Kind() Kind                 { return KindCreateRole }
func (DetachRole) Kind() Kind                 { return KindDetachRole }
func (GrantPermission) Kind() Kind            { return KindGrantPermission }
func (RemovePeer) Kind() Kind                 { return KindRemovePeer }
func (RemoveSignatory) Kind() Kind            { return KindRemoveSignatory }
func (RevokePermission) Kind() Kind           { return KindRevokePermission }
func (SetAccountDetail) Kind() Kind           { return KindSetAccountDetail }
func (SetQuorum) Kind() Kind                  { return KindSetQuorum }
func (SubtractAssetQuantity) Kind() Kind      { return KindSubtractAssetQuantity }
func (TransferAsset) Kind() Kind              { return KindTransferAsset }
func (SetSettingValue) Kind() Kind            { return KindSetSettingValue }

func (c AddAssetQuantity) Name() string           { return c.Kind().String() }
func (c AddPeer) Name() string                    { return c.Kind().String() }
func (c AddSignatory) Name() string               { return c.Kind().String() }
func (c AppendRole) Name() string                 { return c.Kind().String() }
func (c CompareAndSetAccountDetail) Name() string { return c.Kind().String() }
func (c CreateAccount) Name() string              { return c.Kind().String() }
func (c CreateAsset) Name() string                { return c.Kind().String() }
func (c CreateDomain) Name() string               { return c.Kind().String() }
func (c CreateRole) Name() string                 { return c.Kind().String() }
func (c DetachRole) Name() string                 { return c.Kind().String() }
func (c GrantPermission) Name() string            { return c.Kind().String() }
func (c RemovePeer) Name() string                 { return c.Kind().String() }
func (c RemoveSignatory) Name() string            { return c.Kind().String() }
func (c RevokePermission) Name() string           { return c.Kind().String() }
func (c SetAccountDetail) Name() string           { return c.Kind().String() }
func (c SetQuorum) Name() string                  { return c.Kind().String() }
func (c SubtractAssetQuantity) Name() string      { return c.Kind().String() }
func (c TransferAsset) Name() string              { return c.Kind().String() }
func (c SetSettingValue) Name() string            { return c.Kind().String() }

func (AddAssetQuantity) command()           {}
func (AddPeer) command()                    {}
func (AddSignatory) command()               {}
func (AppendRole) command()                 {}
func (CompareAndSetAccountDetail) command() {}
func (CreateAccount) command()              {}
func (CreateAsset) command()                {}
func (CreateDomain) command()               {}
func (CreateRole) command()                 {}
func (DetachRole) command()                 {}
func (GrantPermission) command()            {}
func (RemovePeer) command()                 {}
func (RemoveSignatory) command()            {}
func (RevokePermission) command()           {}
func (SetAccountDetail) command()           {}
func (SetQuorum) command()                  {}
func (SubtractAssetQuantity) command()      {}
func (TransferAsset) command()              {}
func (SetSettingValue) command()            {}

var kindNames = [kindEnd]string{
	KindAddAssetQuantity:           "AddAssetQuantity",
	KindAddPeer:                    "AddPeer",
	KindAddSignatory:               "AddSignatory",
	KindAppendRole:                 "AppendRole",
	KindCompareAndSetAccountDetail: "CompareAndSetAccountDetail",
	KindCreateAccount:              "CreateAccount",
	KindCreateAsset:                "CreateAsset",
	KindCreateDomain:               "CreateDomain",
	KindCreateRole:                 "CreateRole",
	KindDetachRole:                 "DetachRole",
	KindGrantPermission:            "GrantPermission",
	KindRemovePeer:                 "RemovePeer",
	KindRemoveSignatory:            "RemoveSignatory",
	KindRevokePermission:           "RevokePermission",
	KindSetAccountDetail:           "SetAccountDetail",
	KindSetQuorum:                  "SetQuorum",
	KindSubtractAssetQuantity:      "SubtractAssetQuantity",
	KindTransferAsset:              "TransferAsset",
	KindSetSettingValue:            "SetSettingValue",
}

func (k Kind) String() string {
	if k > 0 && k < kindEnd {
		return kindNames[k]
	}
	return "UnknownCommand"
}

// newCommand returns a pointer to a zero command of kind k, for decoding.
func newCommand(k Kind) (any, func() Command) {
	switch k {
	case KindAddAssetQuantity:
		c := new(AddAssetQuantity)
		return c, func() Command { return *c }
	case KindAddPeer:
		c := new(AddPeer)
		return c, func() Command { return *c }
	case KindAddSignatory:
		c := new(AddSignatory)
		return c, func() Command { return *c }
	case KindAppendRole:
		c := new(AppendRole)
		return c, func() Command { return *c }
	case KindCompareAndSetAccountDetail:
		c := new(CompareAndSetAccountDetail)
		return c, func() Command { return *c }
	case KindCreateAccount:
		c := new(CreateAccount)
		return c, func() Command { return *c }
	case KindCreateAsset:
		c := new(CreateAsset)
		return c, func() Command { return *c }
	case KindCreateDomain:
		c := new(CreateDomain)
		return c, func() Command { return *c }
	case KindCreateRole:
		c := new(CreateRole)
		return c, func() Command { return *c }
	case KindDetachRole:
		c := new(DetachRole)
		return c, func() Command { return *c }
	case KindGrantPermission:
		c := new(GrantPermission)
		return c, func() Command { return *c }
	case KindRemovePeer:
		c := new(RemovePeer)
		return c, func() Command { return *c }
	case KindRemoveSignatory:
		c := new(RemoveSignatory)
		return c, func() Command { return *c }
	case KindRevokePermission:
		c := new(RevokePermission)
		return c, func() Command { return *c }
	case KindSetAccountDetail:
		c := new(SetAccountDetail)
		return c, func() Command { return *c }
	case KindSetQuorum:
		c := new(SetQuorum)
		return c, func() Command { return *c }
	case KindSubtractAssetQuantity:
		c := new(SubtractAssetQuantity)
		return c, func() Command { return *c }
	case KindTransferAsset:
		c := new(TransferAsset)
		return c, func() Command { return *c }
	case KindSetSettingValue:
		c := new(SetSettingValue)
		return c, func() Command { return *c }
	}
	return nil, nil
}
