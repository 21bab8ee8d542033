// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package wsv

import (
	"context"
	"database/sql"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/permledger/ledgerd/ledger"
	"github.com/permledger/ledgerd/perm"
)

var errNotFound = errors.New("wsv: not found")

// IsNotFound returns whether the error means the entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, errNotFound)
}

// Queries are the typed accessors of the world state.
// Writers fail on a read-only connection.
type Queries struct {
	c       *conn
	changes *ChangeSet
}

func noRows(err error) error {
	if err == sql.ErrNoRows {
		return errNotFound
	}
	return err
}

func (q *Queries) Account(ctx context.Context, id string) (*Account, error) {
	var (
		acc  = Account{ID: id}
		bits string
	)
	if err := q.c.QueryRowContext(ctx,
		"SELECT domain_id, quorum, permission FROM account WHERE account_id = ?", id,
	).Scan(&acc.DomainID, &acc.Quorum, &bits); err != nil {
		return nil, noRows(err)
	}
	set, err := perm.ParseRoleSet(bits)
	if err != nil {
		return nil, errors.Wrapf(err, "account %v", id)
	}
	acc.Permissions = set
	return &acc, nil
}

func (q *Queries) Domain(ctx context.Context, id string) (*Domain, error) {
	d := Domain{ID: id}
	if err := q.c.QueryRowContext(ctx,
		"SELECT default_role FROM domain WHERE domain_id = ?", id,
	).Scan(&d.DefaultRole); err != nil {
		return nil, noRows(err)
	}
	return &d, nil
}

func (q *Queries) Role(ctx context.Context, id string) (*Role, error) {
	var bits string
	if err := q.c.QueryRowContext(ctx,
		"SELECT permission FROM role WHERE role_id = ?", id,
	).Scan(&bits); err != nil {
		return nil, noRows(err)
	}
	set, err := perm.ParseRoleSet(bits)
	if err != nil {
		return nil, errors.Wrapf(err, "role %v", id)
	}
	return &Role{ID: id, Permissions: set}, nil
}

// Roles lists all role ids in ascending order.
func (q *Queries) Roles(ctx context.Context) ([]string, error) {
	return q.strings(ctx, "SELECT role_id FROM role ORDER BY role_id")
}

func (q *Queries) Asset(ctx context.Context, id string) (*Asset, error) {
	a := Asset{ID: id}
	if err := q.c.QueryRowContext(ctx,
		"SELECT domain_id, precision FROM asset WHERE asset_id = ?", id,
	).Scan(&a.DomainID, &a.Precision); err != nil {
		return nil, noRows(err)
	}
	return &a, nil
}

// AccountRoles lists the roles attached to the account.
func (q *Queries) AccountRoles(ctx context.Context, accountID string) ([]string, error) {
	return q.strings(ctx, "SELECT role_id FROM account_has_role WHERE account_id = ? ORDER BY role_id", accountID)
}

// Signatories lists the public keys of the account.
func (q *Queries) Signatories(ctx context.Context, accountID string) ([]string, error) {
	return q.strings(ctx, "SELECT public_key FROM account_has_signatory WHERE account_id = ? ORDER BY public_key", accountID)
}

func (q *Queries) HasSignatory(ctx context.Context, accountID, publicKey string) (bool, error) {
	return q.exists(ctx,
		"SELECT 1 FROM account_has_signatory WHERE account_id = ? AND public_key = ?", accountID, publicKey)
}

func (q *Queries) AccountAsset(ctx context.Context, accountID, assetID string) (*AccountAsset, error) {
	var (
		dec string
		aa  = AccountAsset{AccountID: accountID, AssetID: assetID}
	)
	if err := q.c.QueryRowContext(ctx,
		`SELECT aha.amount, a.precision FROM account_has_asset aha
		JOIN asset a ON a.asset_id = aha.asset_id
		WHERE aha.account_id = ? AND aha.asset_id = ?`, accountID, assetID,
	).Scan(&dec, &aa.Precision); err != nil {
		return nil, noRows(err)
	}
	bal, err := uint256.FromDecimal(dec)
	if err != nil {
		return nil, errors.Wrapf(err, "balance %v of %v", assetID, accountID)
	}
	aa.Balance = bal
	return &aa, nil
}

func (q *Queries) AccountAssets(ctx context.Context, accountID string) ([]*AccountAsset, error) {
	rows, err := q.c.QueryContext(ctx,
		`SELECT aha.asset_id, aha.amount, a.precision FROM account_has_asset aha
		JOIN asset a ON a.asset_id = aha.asset_id
		WHERE aha.account_id = ? ORDER BY aha.asset_id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []*AccountAsset
	for rows.Next() {
		var (
			dec string
			aa  = AccountAsset{AccountID: accountID}
		)
		if err := rows.Scan(&aa.AssetID, &dec, &aa.Precision); err != nil {
			return nil, err
		}
		if aa.Balance, err = uint256.FromDecimal(dec); err != nil {
			return nil, errors.Wrapf(err, "balance %v of %v", aa.AssetID, accountID)
		}
		assets = append(assets, &aa)
	}
	return assets, rows.Err()
}

// Grantable returns what account has granted to permittee.
func (q *Queries) Grantable(ctx context.Context, permittee, accountID string) (perm.GrantableSet, error) {
	var bits string
	if err := q.c.QueryRowContext(ctx,
		"SELECT permission FROM account_has_grantable_permissions WHERE permittee_account_id = ? AND account_id = ?",
		permittee, accountID,
	).Scan(&bits); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	return perm.ParseGrantableSet(bits)
}

func (q *Queries) Peers(ctx context.Context) ([]ledger.Peer, error) {
	rows, err := q.c.QueryContext(ctx, "SELECT public_key, address, tls_certificate FROM peer ORDER BY public_key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var peers []ledger.Peer
	for rows.Next() {
		var p ledger.Peer
		if err := rows.Scan(&p.PublicKey, &p.Address, &p.TLSCertificate); err != nil {
			return nil, err
		}
		peers = append(peers, p)
	}
	return peers, rows.Err()
}

func (q *Queries) Peer(ctx context.Context, publicKey string) (*ledger.Peer, error) {
	p := ledger.Peer{PublicKey: publicKey}
	if err := q.c.QueryRowContext(ctx,
		"SELECT address, tls_certificate FROM peer WHERE public_key = ?", publicKey,
	).Scan(&p.Address, &p.TLSCertificate); err != nil {
		return nil, noRows(err)
	}
	return &p, nil
}

func (q *Queries) PeerByAddress(ctx context.Context, address string) (bool, error) {
	return q.exists(ctx, "SELECT 1 FROM peer WHERE address = ?", address)
}

// Setting returns the value of a setting, false if unset.
func (q *Queries) Setting(ctx context.Context, key string) (string, bool, error) {
	var v string
	if err := q.c.QueryRowContext(ctx,
		"SELECT setting_value FROM setting WHERE setting_key = ?", key,
	).Scan(&v); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

func (q *Queries) InsertRole(ctx context.Context, r *Role) error {
	q.changes.role(r.ID)
	_, err := q.c.ExecContext(ctx, "INSERT INTO role (role_id, permission) VALUES (?, ?)", r.ID, r.Permissions.String())
	return err
}

func (q *Queries) InsertDomain(ctx context.Context, d *Domain) error {
	q.changes.domain(d.ID)
	_, err := q.c.ExecContext(ctx, "INSERT INTO domain (domain_id, default_role) VALUES (?, ?)", d.ID, d.DefaultRole)
	return err
}

func (q *Queries) InsertAsset(ctx context.Context, a *Asset) error {
	q.changes.asset(a.ID)
	_, err := q.c.ExecContext(ctx,
		"INSERT INTO asset (asset_id, domain_id, precision) VALUES (?, ?, ?)", a.ID, a.DomainID, a.Precision)
	return err
}

func (q *Queries) InsertAccount(ctx context.Context, acc *Account) error {
	q.changes.account(acc.ID)
	_, err := q.c.ExecContext(ctx,
		"INSERT INTO account (account_id, domain_id, quorum, permission) VALUES (?, ?, ?, ?)",
		acc.ID, acc.DomainID, acc.Quorum, acc.Permissions.String())
	return err
}

func (q *Queries) SetQuorum(ctx context.Context, accountID string, quorum uint32) error {
	q.changes.account(accountID)
	return q.update(ctx, "UPDATE account SET quorum = ? WHERE account_id = ?", quorum, accountID)
}

func (q *Queries) InsertSignatory(ctx context.Context, accountID, publicKey string) error {
	_, err := q.c.ExecContext(ctx,
		"INSERT INTO account_has_signatory (account_id, public_key) VALUES (?, ?)", accountID, publicKey)
	return err
}

func (q *Queries) DeleteSignatory(ctx context.Context, accountID, publicKey string) error {
	return q.update(ctx,
		"DELETE FROM account_has_signatory WHERE account_id = ? AND public_key = ?", accountID, publicKey)
}

// AttachRole attaches a role and refreshes the account's aggregate permissions.
func (q *Queries) AttachRole(ctx context.Context, accountID, roleID string) error {
	if _, err := q.c.ExecContext(ctx,
		"INSERT INTO account_has_role (account_id, role_id) VALUES (?, ?)", accountID, roleID); err != nil {
		return err
	}
	return q.refreshPermissions(ctx, accountID)
}

// DetachRole detaches a role and refreshes the account's aggregate permissions.
func (q *Queries) DetachRole(ctx context.Context, accountID, roleID string) error {
	if err := q.update(ctx,
		"DELETE FROM account_has_role WHERE account_id = ? AND role_id = ?", accountID, roleID); err != nil {
		return err
	}
	return q.refreshPermissions(ctx, accountID)
}

func (q *Queries) refreshPermissions(ctx context.Context, accountID string) error {
	rows, err := q.c.QueryContext(ctx,
		`SELECT r.permission FROM account_has_role ahr
		JOIN role r ON r.role_id = ahr.role_id WHERE ahr.account_id = ?`, accountID)
	if err != nil {
		return err
	}
	var set perm.RoleSet
	for rows.Next() {
		var bits string
		if err := rows.Scan(&bits); err != nil {
			rows.Close()
			return err
		}
		rs, err := perm.ParseRoleSet(bits)
		if err != nil {
			rows.Close()
			return err
		}
		set = set.Union(rs)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	q.changes.account(accountID)
	return q.update(ctx, "UPDATE account SET permission = ? WHERE account_id = ?", set.String(), accountID)
}

// PutBalance upserts a balance, the raw integer is stored in decimal.
func (q *Queries) PutBalance(ctx context.Context, accountID, assetID string, balance *uint256.Int) error {
	_, err := q.c.ExecContext(ctx,
		`INSERT INTO account_has_asset (account_id, asset_id, amount) VALUES (?, ?, ?)
		ON CONFLICT (account_id, asset_id) DO UPDATE SET amount = excluded.amount`,
		accountID, assetID, balance.Dec())
	return err
}

func (q *Queries) PutGrantable(ctx context.Context, permittee, accountID string, set perm.GrantableSet) error {
	_, err := q.c.ExecContext(ctx,
		`INSERT INTO account_has_grantable_permissions (permittee_account_id, account_id, permission) VALUES (?, ?, ?)
		ON CONFLICT (permittee_account_id, account_id) DO UPDATE SET permission = excluded.permission`,
		permittee, accountID, set.String())
	return err
}

func (q *Queries) InsertPeer(ctx context.Context, p *ledger.Peer) error {
	q.changes.peers()
	_, err := q.c.ExecContext(ctx,
		"INSERT INTO peer (public_key, address, tls_certificate) VALUES (?, ?, ?)", p.PublicKey, p.Address, p.TLSCertificate)
	return err
}

func (q *Queries) DeletePeer(ctx context.Context, publicKey string) error {
	q.changes.peers()
	return q.update(ctx, "DELETE FROM peer WHERE public_key = ?", publicKey)
}

func (q *Queries) CountPeers(ctx context.Context) (n int, err error) {
	err = q.c.QueryRowContext(ctx, "SELECT COUNT(*) FROM peer").Scan(&n)
	return
}

func (q *Queries) PutSetting(ctx context.Context, key, value string) error {
	q.changes.settings()
	_, err := q.c.ExecContext(ctx,
		`INSERT INTO setting (setting_key, setting_value) VALUES (?, ?)
		ON CONFLICT (setting_key) DO UPDATE SET setting_value = excluded.setting_value`, key, value)
	return err
}

// update executes a statement expected to touch at least one row.
func (q *Queries) update(ctx context.Context, query string, args ...any) error {
	res, err := q.c.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errNotFound
	}
	return nil
}

func (q *Queries) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	if err := q.c.QueryRowContext(ctx, query, args...).Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (q *Queries) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := q.c.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
