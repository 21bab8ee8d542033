// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package index

// Schema creates the index tables. They live beside the world state, in the same database.
const Schema = `
CREATE TABLE IF NOT EXISTS tx_position_by_hash (
	hash BLOB PRIMARY KEY,
	height INTEGER NOT NULL,
	idx INTEGER NOT NULL
) WITHOUT ROWID;
CREATE TABLE IF NOT EXISTS tx_status_by_hash (
	hash BLOB PRIMARY KEY,
	status INTEGER NOT NULL
) WITHOUT ROWID;
CREATE TABLE IF NOT EXISTS tx_position_by_creator (
	creator_id TEXT NOT NULL,
	height INTEGER NOT NULL,
	idx INTEGER NOT NULL,
	PRIMARY KEY (creator_id, height, idx)
) WITHOUT ROWID;
CREATE TABLE IF NOT EXISTS tx_position_by_account_asset (
	account_id TEXT NOT NULL,
	asset_id TEXT NOT NULL,
	height INTEGER NOT NULL,
	idx INTEGER NOT NULL,
	PRIMARY KEY (account_id, asset_id, height, idx)
) WITHOUT ROWID;
CREATE TABLE IF NOT EXISTS ledger_state (
	height INTEGER PRIMARY KEY,
	hash BLOB NOT NULL,
	peers BLOB NOT NULL
);
`

// indexTables are rebuilt from the block log, ledger_state is not one of them.
var indexTables = []string{
	"tx_position_by_hash",
	"tx_status_by_hash",
	"tx_position_by_creator",
	"tx_position_by_account_asset",
}
