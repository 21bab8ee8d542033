// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package wsv

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/permledger/ledgerd/detail"
	"github.com/permledger/ledgerd/ledger"
	"github.com/permledger/ledgerd/perm"
)

// QueryError is a query rejected for permission or existence reasons.
type QueryError struct {
	Query   string
	Code    ledger.ErrorCode
	Context string
}

func (e *QueryError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("%v: %v", e.Query, e.Code)
	}
	return fmt.Sprintf("%v: %v: %v", e.Query, e.Code, e.Context)
}

// AsQueryError extracts a QueryError from err.
func AsQueryError(err error) (*QueryError, bool) {
	var qe *QueryError
	ok := errors.As(err, &qe)
	return qe, ok
}

const noRole = perm.Role(perm.RoleCount)

// tier is the read permission rule of a query: the querier needs all, or
// my when reading itself, or domain when reading inside its own domain.
type tier struct {
	all, my, domain perm.Role
}

func (t tier) allows(perms perm.RoleSet, querier, target string) bool {
	if perms.Allows(t.all) {
		return true
	}
	if t.my != noRole && querier == target && perms.Allows(t.my) {
		return true
	}
	return t.domain != noRole && ledger.SameDomain(querier, target) && perms.Allows(t.domain)
}

var (
	accountTier   = tier{perm.GetAllAccounts, perm.GetMyAccount, perm.GetDomainAccounts}
	signatoryTier = tier{perm.GetAllSignatories, perm.GetMySignatories, perm.GetDomainSignatories}
	accAssetTier  = tier{perm.GetAllAccAst, perm.GetMyAccAst, perm.GetDomainAccAst}
	detailTier    = tier{perm.GetAllAccDetail, perm.GetMyAccDetail, perm.GetDomainAccDetail}
	rolesTier     = tier{perm.GetRoles, noRole, noRole}
	assetTier     = tier{perm.ReadAssets, noRole, noRole}
	peersTier     = tier{perm.GetPeers, noRole, noRole}
)

// ReadView answers permission-checked queries from the last committed state.
// It is safe for concurrent use.
type ReadView struct {
	db *DB
}

// View returns the read view of the database.
func (db *DB) View() *ReadView {
	return &ReadView{db}
}

func (v *ReadView) account(ctx context.Context, id string) (*Account, error) {
	acc, err := v.db.cache.get(accountPrefix+id, func() (any, error) {
		return v.db.Queries().Account(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return acc.(*Account), nil
}

func (v *ReadView) role(ctx context.Context, id string) (*Role, error) {
	r, err := v.db.cache.get(rolePrefix+id, func() (any, error) {
		return v.db.Queries().Role(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return r.(*Role), nil
}

func (v *ReadView) asset(ctx context.Context, id string) (*Asset, error) {
	a, err := v.db.cache.get(assetPrefix+id, func() (any, error) {
		return v.db.Queries().Asset(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return a.(*Asset), nil
}

func (v *ReadView) peers(ctx context.Context) ([]ledger.Peer, error) {
	p, err := v.db.cache.get(peersKey, func() (any, error) {
		return v.db.Queries().Peers(ctx)
	})
	if err != nil {
		return nil, err
	}
	return append([]ledger.Peer(nil), p.([]ledger.Peer)...), nil
}

// Domain returns a committed domain, through the cache.
func (v *ReadView) Domain(ctx context.Context, id string) (*Domain, error) {
	d, err := v.db.cache.get(domainPrefix+id, func() (any, error) {
		return v.db.Queries().Domain(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return d.(*Domain), nil
}

// check applies the querier existence and permission rules, in that order.
func (v *ReadView) check(ctx context.Context, query, querier, target string, t tier) (err error) {
	defer func() {
		result := "ok"
		if qe, ok := AsQueryError(err); ok {
			result = qe.Code.String()
		} else if err != nil {
			result = "error"
		}
		metricQueryCount().AddWithLabel(1, map[string]string{"query": query, "result": result})
		if changed, hit, miss := v.db.CacheStats(); changed {
			metricCacheHitMiss().SetWithLabel(hit, map[string]string{"event": "hit"})
			metricCacheHitMiss().SetWithLabel(miss, map[string]string{"event": "miss"})
		}
	}()

	acc, err := v.account(ctx, querier)
	if err != nil {
		if IsNotFound(err) {
			return &QueryError{query, ledger.NoCreatorAccount, querier}
		}
		return err
	}
	if !t.allows(acc.Permissions, querier, target) {
		return &QueryError{query, ledger.NoPermission, fmt.Sprintf("%v reading %v", querier, target)}
	}
	return nil
}

func notFound(query string, code ledger.ErrorCode, id string, err error) error {
	if IsNotFound(err) {
		return &QueryError{query, code, id}
	}
	return err
}

func (v *ReadView) GetAccount(ctx context.Context, querier, accountID string) (*AccountInfo, error) {
	const query = "GetAccount"
	if err := v.check(ctx, query, querier, accountID, accountTier); err != nil {
		return nil, err
	}
	acc, err := v.account(ctx, accountID)
	if err != nil {
		return nil, notFound(query, ledger.AccountNotFound, accountID, err)
	}
	roles, err := v.db.Queries().AccountRoles(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &AccountInfo{Account: *acc, Roles: roles}, nil
}

func (v *ReadView) GetSignatories(ctx context.Context, querier, accountID string) ([]string, error) {
	const query = "GetSignatories"
	if err := v.check(ctx, query, querier, accountID, signatoryTier); err != nil {
		return nil, err
	}
	keys, err := v.db.Queries().Signatories(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, &QueryError{query, ledger.SignatoryNotFound, accountID}
	}
	return keys, nil
}

// GetAccountAssets returns the balances of an account, empty when it holds none.
func (v *ReadView) GetAccountAssets(ctx context.Context, querier, accountID string) ([]*AccountAsset, error) {
	const query = "GetAccountAssets"
	if err := v.check(ctx, query, querier, accountID, accAssetTier); err != nil {
		return nil, err
	}
	if _, err := v.account(ctx, accountID); err != nil {
		return nil, notFound(query, ledger.AccountNotFound, accountID, err)
	}
	return v.db.Queries().AccountAssets(ctx, accountID)
}

// DetailRequest narrows GetAccountDetail. Empty Key or Writer match any.
type DetailRequest struct {
	AccountID string
	Key       string
	Writer    string
	Cursor    *detail.Cursor
	PageSize  int
}

func (v *ReadView) GetAccountDetail(ctx context.Context, querier string, req DetailRequest) (*detail.Page, error) {
	const query = "GetAccountDetail"
	if err := v.check(ctx, query, querier, req.AccountID, detailTier); err != nil {
		return nil, err
	}
	if _, err := v.account(ctx, req.AccountID); err != nil {
		return nil, notFound(query, ledger.AccountNotFound, req.AccountID, err)
	}

	var page *detail.Page
	err := v.db.ReadTx(ctx, func(_ *Queries, details *detail.Store) (err error) {
		page, err = details.Find(detail.Filter{
			Account: req.AccountID,
			Key:     req.Key,
			Writer:  req.Writer,
		}, req.Cursor, req.PageSize)
		return err
	})
	if err != nil {
		if detail.IsBadPaginationMeta(err) {
			return nil, &QueryError{query, ledger.BadPaginationMeta, err.Error()}
		}
		return nil, err
	}
	if page.Total == 0 && (req.Key != "" || req.Writer != "") {
		return nil, &QueryError{query, ledger.AccountDetailNotFound, req.AccountID}
	}
	return page, nil
}

// GetRoles lists every role id.
func (v *ReadView) GetRoles(ctx context.Context, querier string) ([]string, error) {
	if err := v.check(ctx, "GetRoles", querier, "", rolesTier); err != nil {
		return nil, err
	}
	return v.db.Queries().Roles(ctx)
}

func (v *ReadView) GetRolePermissions(ctx context.Context, querier, roleID string) (perm.RoleSet, error) {
	const query = "GetRolePermissions"
	if err := v.check(ctx, query, querier, "", rolesTier); err != nil {
		return 0, err
	}
	r, err := v.role(ctx, roleID)
	if err != nil {
		return 0, notFound(query, ledger.RoleNotFound, roleID, err)
	}
	return r.Permissions, nil
}

func (v *ReadView) GetAssetInfo(ctx context.Context, querier, assetID string) (*Asset, error) {
	const query = "GetAssetInfo"
	if err := v.check(ctx, query, querier, "", assetTier); err != nil {
		return nil, err
	}
	a, err := v.asset(ctx, assetID)
	if err != nil {
		return nil, notFound(query, ledger.AssetNotFound, assetID, err)
	}
	cp := *a
	return &cp, nil
}

func (v *ReadView) GetPeers(ctx context.Context, querier string) ([]ledger.Peer, error) {
	if err := v.check(ctx, "GetPeers", querier, "", peersTier); err != nil {
		return nil, err
	}
	return v.peers(ctx)
}
