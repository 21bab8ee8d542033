// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package executor validates and applies commands and transactions to a
// world state session.
package executor

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/permledger/ledgerd/ledger"
	"github.com/permledger/ledgerd/perm"
	"github.com/permledger/ledgerd/tx"
	"github.com/permledger/ledgerd/wsv"
)

var logger = log.New("pkg", "executor")

// Executor applies commands to a session.
//
// When validate is set, the creator must exist and hold the permissions of
// the command. Entity existence, balance arithmetic and quorum bounds are
// enforced either way.
type Executor struct {
	s   *wsv.Tx
	ctx context.Context
}

// New creates an executor over the session.
func New(s *wsv.Tx) *Executor {
	return &Executor{s: s, ctx: s.Context()}
}

// Execute applies one command on behalf of creator. It returns a *CommandError
// when the command is rejected. Writes of a rejected command may be partially
// applied, callers run it under a savepoint.
func (e *Executor) Execute(cmd tx.Command, creator string, validate bool) (err error) {
	r := &run{Executor: e, name: cmd.Name(), creator: creator, validate: validate}
	defer func() {
		if err == nil {
			return
		}
		if _, ok := AsCommandError(err); ok {
			metricCommandCount().AddWithLabel(1, map[string]string{"command": r.name, "result": "rejected"})
			return
		}
		if wsv.IsConstraint(err) {
			err = r.fail(ledger.DataIntegrity, err.Error())
			return
		}
		err = errors.WithMessage(err, r.name)
	}()

	if validate {
		acc, err := e.s.Account(e.ctx, creator)
		if err != nil {
			if wsv.IsNotFound(err) {
				return r.fail(ledger.NoCreatorAccount, fields("creator", creator))
			}
			return err
		}
		r.perms = acc.Permissions
	}

	switch c := cmd.(type) {
	case tx.AddAssetQuantity:
		err = r.addAssetQuantity(c)
	case tx.AddPeer:
		err = r.addPeer(c)
	case tx.AddSignatory:
		err = r.addSignatory(c)
	case tx.AppendRole:
		err = r.appendRole(c)
	case tx.CompareAndSetAccountDetail:
		err = r.compareAndSetAccountDetail(c)
	case tx.CreateAccount:
		err = r.createAccount(c)
	case tx.CreateAsset:
		err = r.createAsset(c)
	case tx.CreateDomain:
		err = r.createDomain(c)
	case tx.CreateRole:
		err = r.createRole(c)
	case tx.DetachRole:
		err = r.detachRole(c)
	case tx.GrantPermission:
		err = r.grantPermission(c)
	case tx.RemovePeer:
		err = r.removePeer(c)
	case tx.RemoveSignatory:
		err = r.removeSignatory(c)
	case tx.RevokePermission:
		err = r.revokePermission(c)
	case tx.SetAccountDetail:
		err = r.setAccountDetail(c)
	case tx.SetQuorum:
		err = r.setQuorum(c)
	case tx.SubtractAssetQuantity:
		err = r.subtractAssetQuantity(c)
	case tx.TransferAsset:
		err = r.transferAsset(c)
	case tx.SetSettingValue:
		err = r.setSettingValue(c)
	default:
		return errors.Errorf("unsupported command %T", cmd)
	}
	if err == nil {
		metricCommandCount().AddWithLabel(1, map[string]string{"command": r.name, "result": "applied"})
	}
	return err
}

// run carries the state of one command execution.
type run struct {
	*Executor
	name     string
	creator  string
	validate bool
	perms    perm.RoleSet
}

func (r *run) fail(code ledger.ErrorCode, context string) error {
	return &CommandError{CommandName: r.name, Code: code, Context: context}
}

// can reports whether the creator may act, always true without validation.
func (r *run) can(roles ...perm.Role) bool {
	if !r.validate {
		return true
	}
	for _, role := range roles {
		if r.perms.Allows(role) {
			return true
		}
	}
	return false
}

// canOn is the rule for commands targeting an account: the creator acts on
// itself with the role permission, or holds the grantable one from target.
func (r *run) canOn(target string, role perm.Role, g perm.Grantable) (bool, error) {
	if !r.validate {
		return true, nil
	}
	if r.perms.Allows(perm.Root) || (r.creator == target && r.perms.Allows(role)) {
		return true, nil
	}
	return r.granted(target, g)
}

func (r *run) granted(grantor string, g perm.Grantable) (bool, error) {
	set, err := r.s.Grantable(r.ctx, r.creator, grantor)
	if err != nil {
		return false, err
	}
	return set.Has(g), nil
}

func (r *run) denied(kvs ...string) error {
	return r.fail(ledger.NoPermission, fields(append([]string{"creator", r.creator}, kvs...)...))
}

func (r *run) account(id string) (*wsv.Account, error) {
	acc, err := r.s.Account(r.ctx, id)
	if err != nil {
		if wsv.IsNotFound(err) {
			return nil, r.fail(ledger.AccountNotFound, fields("account", id))
		}
		return nil, err
	}
	return acc, nil
}

func (r *run) asset(id string) (*wsv.Asset, error) {
	a, err := r.s.Asset(r.ctx, id)
	if err != nil {
		if wsv.IsNotFound(err) {
			return nil, r.fail(ledger.AssetNotFound, fields("asset", id))
		}
		return nil, err
	}
	return a, nil
}

func (r *run) role(id string) (*wsv.Role, error) {
	role, err := r.s.Role(r.ctx, id)
	if err != nil {
		if wsv.IsNotFound(err) {
			return nil, r.fail(ledger.RoleNotFound, fields("role", id))
		}
		return nil, err
	}
	return role, nil
}

// balance returns the stored balance, zero when the account holds none.
func (r *run) balance(account, asset string) (*uint256.Int, error) {
	aa, err := r.s.AccountAsset(r.ctx, account, asset)
	if err != nil {
		if wsv.IsNotFound(err) {
			return new(uint256.Int), nil
		}
		return nil, err
	}
	return aa.Balance, nil
}

// quantity converts an amount to raw units of the asset.
func (r *run) quantity(amount ledger.Amount, asset *wsv.Asset) (*uint256.Int, error) {
	v, err := amount.Rescale(asset.Precision)
	if err != nil {
		if ledger.IsAmountOverflow(err) {
			return nil, r.fail(ledger.AmountOverflow, fields("asset", asset.ID, "amount", amount.String()))
		}
		return nil, r.fail(ledger.InvalidAmount, fields(
			"asset", asset.ID,
			"amount", amount.String(),
			"precision", strconv.Itoa(int(asset.Precision))))
	}
	return v, nil
}

func (r *run) addAssetQuantity(c tx.AddAssetQuantity) error {
	domainOK := ledger.AssetDomain(c.AssetID) == ledger.AccountDomain(r.creator) && r.can(perm.AddDomainAssetQty)
	if !r.can(perm.AddAssetQty) && !domainOK {
		return r.denied("asset", c.AssetID)
	}
	asset, err := r.asset(c.AssetID)
	if err != nil {
		return err
	}
	if _, err := r.account(r.creator); err != nil {
		return err
	}
	q, err := r.quantity(c.Amount, asset)
	if err != nil {
		return err
	}
	bal, err := r.balance(r.creator, c.AssetID)
	if err != nil {
		return err
	}
	sum, overflow := new(uint256.Int).AddOverflow(bal, q)
	if overflow {
		return r.fail(ledger.AmountOverflow, fields("account", r.creator, "asset", c.AssetID))
	}
	return r.s.PutBalance(r.ctx, r.creator, c.AssetID, sum)
}

func (r *run) subtractAssetQuantity(c tx.SubtractAssetQuantity) error {
	domainOK := ledger.AssetDomain(c.AssetID) == ledger.AccountDomain(r.creator) && r.can(perm.SubtractDomainAssetQty)
	if !r.can(perm.SubtractAssetQty) && !domainOK {
		return r.denied("asset", c.AssetID)
	}
	asset, err := r.asset(c.AssetID)
	if err != nil {
		return err
	}
	if _, err := r.account(r.creator); err != nil {
		return err
	}
	q, err := r.quantity(c.Amount, asset)
	if err != nil {
		return err
	}
	bal, err := r.balance(r.creator, c.AssetID)
	if err != nil {
		return err
	}
	if bal.Lt(q) {
		return r.fail(ledger.NotEnoughBalance, fields(
			"account", r.creator,
			"balance", ledger.FormatAmount(bal, asset.Precision),
			"amount", c.Amount.String()))
	}
	return r.s.PutBalance(r.ctx, r.creator, c.AssetID, new(uint256.Int).Sub(bal, q))
}

func (r *run) transferAsset(c tx.TransferAsset) error {
	if r.validate {
		ok := r.perms.Allows(perm.Transfer) ||
			(r.creator == c.SrcAccountID && r.perms.Allows(perm.TransferMyAssetsRole))
		if !ok {
			var err error
			if ok, err = r.granted(c.SrcAccountID, perm.TransferMyAssets); err != nil {
				return err
			}
		}
		if !ok {
			return r.denied("source", c.SrcAccountID)
		}
	}
	if err := r.checkDescription(c.Description); err != nil {
		return err
	}

	asset, err := r.asset(c.AssetID)
	if err != nil {
		return err
	}
	if _, err := r.account(c.SrcAccountID); err != nil {
		return err
	}
	if _, err := r.account(c.DestAccountID); err != nil {
		return err
	}
	q, err := r.quantity(c.Amount, asset)
	if err != nil {
		return err
	}

	src, err := r.balance(c.SrcAccountID, c.AssetID)
	if err != nil {
		return err
	}
	if src.Lt(q) {
		return r.fail(ledger.NotEnoughBalance, fields(
			"source", c.SrcAccountID,
			"balance", ledger.FormatAmount(src, asset.Precision),
			"amount", c.Amount.String()))
	}
	if c.SrcAccountID == c.DestAccountID {
		return nil
	}
	dst, err := r.balance(c.DestAccountID, c.AssetID)
	if err != nil {
		return err
	}
	credited, overflow := new(uint256.Int).AddOverflow(dst, q)
	if overflow {
		return r.fail(ledger.AmountOverflow, fields("destination", c.DestAccountID, "asset", c.AssetID))
	}

	// both balances are checked before either is written
	if err := r.s.PutBalance(r.ctx, c.SrcAccountID, c.AssetID, new(uint256.Int).Sub(src, q)); err != nil {
		return err
	}
	return r.s.PutBalance(r.ctx, c.DestAccountID, c.AssetID, credited)
}

// MaxDescriptionSizeKey is the setting limiting transfer descriptions, in bytes.
const MaxDescriptionSizeKey = "MaxDescriptionSize"

func (r *run) checkDescription(desc string) error {
	v, ok, err := r.s.Setting(r.ctx, MaxDescriptionSizeKey)
	if err != nil || !ok {
		return err
	}
	limit, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn("ignore malformed setting", "key", MaxDescriptionSizeKey, "value", v)
		return nil
	}
	if len(desc) > limit {
		return r.fail(ledger.InvalidAmount, fields("description-size", strconv.Itoa(len(desc)), "limit", v))
	}
	return nil
}

func (r *run) addPeer(c tx.AddPeer) error {
	if !r.can(perm.AddPeer) {
		return r.denied("peer", c.Peer.PublicKey)
	}
	if _, err := r.s.Peer(r.ctx, c.Peer.PublicKey); err == nil {
		return r.fail(ledger.AlreadyExists, fields("peer", c.Peer.PublicKey))
	} else if !wsv.IsNotFound(err) {
		return err
	}
	taken, err := r.s.PeerByAddress(r.ctx, c.Peer.Address)
	if err != nil {
		return err
	}
	if taken {
		return r.fail(ledger.AlreadyExists, fields("address", c.Peer.Address))
	}
	peer := c.Peer
	return r.s.InsertPeer(r.ctx, &peer)
}

func (r *run) removePeer(c tx.RemovePeer) error {
	if !r.can(perm.RemovePeer) {
		return r.denied("peer", c.PublicKey)
	}
	if _, err := r.s.Peer(r.ctx, c.PublicKey); err != nil {
		if wsv.IsNotFound(err) {
			return r.fail(ledger.PeerNotFound, fields("peer", c.PublicKey))
		}
		return err
	}
	n, err := r.s.CountPeers(r.ctx)
	if err != nil {
		return err
	}
	if n <= 1 {
		return r.fail(ledger.QuorumViolation, fields("peer", c.PublicKey, "reason", "last peer"))
	}
	return r.s.DeletePeer(r.ctx, c.PublicKey)
}

func (r *run) addSignatory(c tx.AddSignatory) error {
	ok, err := r.canOn(c.AccountID, perm.AddSignatory, perm.AddMySignatory)
	if err != nil {
		return err
	}
	if !ok {
		return r.denied("target", c.AccountID)
	}
	if _, err := r.account(c.AccountID); err != nil {
		return err
	}
	has, err := r.s.HasSignatory(r.ctx, c.AccountID, c.PublicKey)
	if err != nil {
		return err
	}
	if has {
		return r.fail(ledger.AlreadyExists, fields("target", c.AccountID, "pubkey", c.PublicKey))
	}
	return r.s.InsertSignatory(r.ctx, c.AccountID, c.PublicKey)
}

func (r *run) removeSignatory(c tx.RemoveSignatory) error {
	ok, err := r.canOn(c.AccountID, perm.RemoveSignatory, perm.RemoveMySignatory)
	if err != nil {
		return err
	}
	if !ok {
		return r.denied("target", c.AccountID)
	}
	acc, err := r.account(c.AccountID)
	if err != nil {
		return err
	}
	keys, err := r.s.Signatories(r.ctx, c.AccountID)
	if err != nil {
		return err
	}
	found := false
	for _, k := range keys {
		if k == c.PublicKey {
			found = true
			break
		}
	}
	if !found {
		return r.fail(ledger.SignatoryNotFound, fields("target", c.AccountID, "pubkey", c.PublicKey))
	}
	if uint32(len(keys)-1) < acc.Quorum {
		return r.fail(ledger.QuorumViolation, fields(
			"target", c.AccountID,
			"quorum", strconv.Itoa(int(acc.Quorum)),
			"signatories", strconv.Itoa(len(keys)-1)))
	}
	return r.s.DeleteSignatory(r.ctx, c.AccountID, c.PublicKey)
}

func (r *run) setQuorum(c tx.SetQuorum) error {
	ok, err := r.canOn(c.AccountID, perm.SetQuorum, perm.SetMyQuorum)
	if err != nil {
		return err
	}
	if !ok {
		return r.denied("target", c.AccountID)
	}
	if _, err := r.account(c.AccountID); err != nil {
		return err
	}
	keys, err := r.s.Signatories(r.ctx, c.AccountID)
	if err != nil {
		return err
	}
	if c.Quorum < 1 || int(c.Quorum) > len(keys) {
		return r.fail(ledger.QuorumViolation, fields(
			"target", c.AccountID,
			"quorum", strconv.Itoa(int(c.Quorum)),
			"signatories", strconv.Itoa(len(keys))))
	}
	return r.s.SetQuorum(r.ctx, c.AccountID, c.Quorum)
}

func (r *run) appendRole(c tx.AppendRole) error {
	if !r.can(perm.AppendRole) {
		return r.denied("target", c.AccountID, "role", c.RoleName)
	}
	role, err := r.role(c.RoleName)
	if err != nil {
		return err
	}
	if r.validate && !r.perms.AllowsAll(role.Permissions) {
		return r.denied("target", c.AccountID, "role", c.RoleName, "reason", "role exceeds creator permissions")
	}
	if _, err := r.account(c.AccountID); err != nil {
		return err
	}
	roles, err := r.s.AccountRoles(r.ctx, c.AccountID)
	if err != nil {
		return err
	}
	for _, id := range roles {
		if id == c.RoleName {
			return r.fail(ledger.AlreadyExists, fields("target", c.AccountID, "role", c.RoleName))
		}
	}
	return r.s.AttachRole(r.ctx, c.AccountID, c.RoleName)
}

func (r *run) detachRole(c tx.DetachRole) error {
	if !r.can(perm.DetachRole) {
		return r.denied("target", c.AccountID, "role", c.RoleName)
	}
	if _, err := r.account(c.AccountID); err != nil {
		return err
	}
	if _, err := r.role(c.RoleName); err != nil {
		return err
	}
	if err := r.s.DetachRole(r.ctx, c.AccountID, c.RoleName); err != nil {
		if wsv.IsNotFound(err) {
			return r.fail(ledger.RoleNotFound, fields("target", c.AccountID, "role", c.RoleName, "reason", "not attached"))
		}
		return err
	}
	return nil
}

func (r *run) createRole(c tx.CreateRole) error {
	if !r.can(perm.CreateRole) {
		return r.denied("role", c.RoleName)
	}
	if r.validate && !r.perms.AllowsAll(c.Permissions) {
		return r.denied("role", c.RoleName, "reason", "role exceeds creator permissions")
	}
	if _, err := r.s.Role(r.ctx, c.RoleName); err == nil {
		return r.fail(ledger.AlreadyExists, fields("role", c.RoleName))
	} else if !wsv.IsNotFound(err) {
		return err
	}
	return r.s.InsertRole(r.ctx, &wsv.Role{ID: c.RoleName, Permissions: c.Permissions})
}

func (r *run) createDomain(c tx.CreateDomain) error {
	if !r.can(perm.CreateDomain) {
		return r.denied("domain", c.DomainID)
	}
	if _, err := r.role(c.DefaultRole); err != nil {
		return err
	}
	if _, err := r.s.Domain(r.ctx, c.DomainID); err == nil {
		return r.fail(ledger.AlreadyExists, fields("domain", c.DomainID))
	} else if !wsv.IsNotFound(err) {
		return err
	}
	return r.s.InsertDomain(r.ctx, &wsv.Domain{ID: c.DomainID, DefaultRole: c.DefaultRole})
}

func (r *run) createAsset(c tx.CreateAsset) error {
	id := ledger.AssetID(c.AssetName, c.DomainID)
	if !r.can(perm.CreateAsset) {
		return r.denied("asset", id)
	}
	if _, err := r.s.Domain(r.ctx, c.DomainID); err != nil {
		if wsv.IsNotFound(err) {
			return r.fail(ledger.DomainNotFound, fields("domain", c.DomainID))
		}
		return err
	}
	if _, err := r.s.Asset(r.ctx, id); err == nil {
		return r.fail(ledger.AlreadyExists, fields("asset", id))
	} else if !wsv.IsNotFound(err) {
		return err
	}
	return r.s.InsertAsset(r.ctx, &wsv.Asset{ID: id, DomainID: c.DomainID, Precision: c.Precision})
}

func (r *run) createAccount(c tx.CreateAccount) error {
	id := ledger.AccountID(c.AccountName, c.DomainID)
	if !r.can(perm.CreateAccount) {
		return r.denied("account", id)
	}
	domain, err := r.s.Domain(r.ctx, c.DomainID)
	if err != nil {
		if wsv.IsNotFound(err) {
			return r.fail(ledger.DomainNotFound, fields("domain", c.DomainID))
		}
		return err
	}
	if _, err := r.s.Account(r.ctx, id); err == nil {
		return r.fail(ledger.AlreadyExists, fields("account", id))
	} else if !wsv.IsNotFound(err) {
		return err
	}

	if err := r.s.InsertAccount(r.ctx, &wsv.Account{ID: id, DomainID: c.DomainID, Quorum: 1}); err != nil {
		return err
	}
	if err := r.s.InsertSignatory(r.ctx, id, c.PublicKey); err != nil {
		return err
	}
	return r.s.AttachRole(r.ctx, id, domain.DefaultRole)
}

func (r *run) grantPermission(c tx.GrantPermission) error {
	if !c.Permission.Valid() {
		return r.fail(ledger.NoPermission, fields("permission", fmt.Sprint(uint8(c.Permission))))
	}
	if !r.can(c.Permission.RequiredRole()) {
		return r.denied("permittee", c.AccountID, "permission", c.Permission.String())
	}
	if _, err := r.account(c.AccountID); err != nil {
		return err
	}
	set, err := r.s.Grantable(r.ctx, c.AccountID, r.creator)
	if err != nil {
		return err
	}
	if set.Has(c.Permission) {
		return r.fail(ledger.AlreadyExists, fields("permittee", c.AccountID, "permission", c.Permission.String()))
	}
	return r.s.PutGrantable(r.ctx, c.AccountID, r.creator, set.With(c.Permission))
}

func (r *run) revokePermission(c tx.RevokePermission) error {
	if !c.Permission.Valid() {
		return r.fail(ledger.NoPermission, fields("permission", fmt.Sprint(uint8(c.Permission))))
	}
	if _, err := r.account(c.AccountID); err != nil {
		return err
	}
	set, err := r.s.Grantable(r.ctx, c.AccountID, r.creator)
	if err != nil {
		return err
	}
	if !set.Has(c.Permission) {
		if r.validate {
			return r.denied("permittee", c.AccountID, "permission", c.Permission.String(), "reason", "not granted")
		}
		return nil
	}
	return r.s.PutGrantable(r.ctx, c.AccountID, r.creator, set.Without(c.Permission))
}

// writer is the detail writer of the creator, the genesis writer when empty.
func (r *run) writer() string {
	if r.creator == "" {
		return ledger.GenesisWriter
	}
	return r.creator
}

func (r *run) canSetDetail(target string) error {
	if !r.validate || r.creator == target || r.perms.Allows(perm.SetDetail) {
		return nil
	}
	ok, err := r.granted(target, perm.SetMyAccountDetail)
	if err != nil {
		return err
	}
	if !ok {
		return r.denied("target", target)
	}
	return nil
}

func (r *run) setAccountDetail(c tx.SetAccountDetail) error {
	if err := r.canSetDetail(c.AccountID); err != nil {
		return err
	}
	if _, err := r.account(c.AccountID); err != nil {
		return err
	}
	return r.s.Details().Put(c.AccountID, c.Key, r.writer(), c.Value)
}

func (r *run) compareAndSetAccountDetail(c tx.CompareAndSetAccountDetail) error {
	if err := r.canSetDetail(c.AccountID); err != nil {
		return err
	}
	if _, err := r.account(c.AccountID); err != nil {
		return err
	}
	details := r.s.Details()
	cur, ok, err := details.Get(c.AccountID, c.Key, r.writer())
	if err != nil {
		return err
	}
	if c.HasOldValue {
		if !ok || cur != c.OldValue {
			return r.fail(ledger.ValueMismatch, fields("target", c.AccountID, "key", c.Key, "expected", c.OldValue))
		}
	} else if ok {
		return r.fail(ledger.ValueMismatch, fields("target", c.AccountID, "key", c.Key, "expected", "<absent>"))
	}
	return details.Put(c.AccountID, c.Key, r.writer(), c.Value)
}

func (r *run) setSettingValue(c tx.SetSettingValue) error {
	if !r.can(perm.Root) {
		return r.denied("setting", c.Key)
	}
	return r.s.PutSetting(r.ctx, c.Key, c.Value)
}
