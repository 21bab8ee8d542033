// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package wsv

// permissions are stored as bitstrings, see perm.RoleSet.String
const wsvSchema = `
CREATE TABLE IF NOT EXISTS role (
	role_id TEXT PRIMARY KEY,
	permission TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS domain (
	domain_id TEXT PRIMARY KEY,
	default_role TEXT NOT NULL REFERENCES role(role_id)
);
CREATE TABLE IF NOT EXISTS peer (
	public_key TEXT PRIMARY KEY,
	address TEXT NOT NULL UNIQUE,
	tls_certificate TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS asset (
	asset_id TEXT PRIMARY KEY,
	domain_id TEXT NOT NULL REFERENCES domain(domain_id),
	precision INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS account (
	account_id TEXT PRIMARY KEY,
	domain_id TEXT NOT NULL REFERENCES domain(domain_id),
	quorum INTEGER NOT NULL,
	permission TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS account_has_signatory (
	account_id TEXT NOT NULL REFERENCES account(account_id),
	public_key TEXT NOT NULL,
	PRIMARY KEY (account_id, public_key)
);
CREATE TABLE IF NOT EXISTS account_has_asset (
	account_id TEXT NOT NULL REFERENCES account(account_id),
	asset_id TEXT NOT NULL REFERENCES asset(asset_id),
	amount TEXT NOT NULL,
	PRIMARY KEY (account_id, asset_id)
);
CREATE TABLE IF NOT EXISTS account_has_role (
	account_id TEXT NOT NULL REFERENCES account(account_id),
	role_id TEXT NOT NULL REFERENCES role(role_id),
	PRIMARY KEY (account_id, role_id)
);
CREATE TABLE IF NOT EXISTS account_has_grantable_permissions (
	permittee_account_id TEXT NOT NULL REFERENCES account(account_id),
	account_id TEXT NOT NULL REFERENCES account(account_id),
	permission TEXT NOT NULL,
	PRIMARY KEY (permittee_account_id, account_id)
);
CREATE TABLE IF NOT EXISTS setting (
	setting_key TEXT PRIMARY KEY,
	setting_value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS account_detail (
	k BLOB PRIMARY KEY,
	v BLOB
) WITHOUT ROWID;
`

// wsvTables lists tables in an order safe to clear with foreign keys on.
var wsvTables = []string{
	"account_detail",
	"setting",
	"account_has_grantable_permissions",
	"account_has_role",
	"account_has_asset",
	"account_has_signatory",
	"account",
	"asset",
	"peer",
	"domain",
	"role",
}
