// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package wsv implements the world state view on sqlite.
// Writes go through a single session at a time, reads run on a separate
// read-only pool and always see the last committed state.
package wsv

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/ethereum/go-ethereum/log"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/permledger/ledgerd/detail"
)

var logger = log.New("pkg", "wsv")

const detailTable = "account_detail"

// Options of the world state database.
type Options struct {
	// CacheSize is the number of entities kept by the read side cache.
	CacheSize int `yaml:"cache-size"`
	// BusyTimeout in milliseconds.
	BusyTimeout int `yaml:"busy-timeout"`
	// ReadConns limits the read-only pool.
	ReadConns int `yaml:"read-conns"`
}

// DefaultOptions returns options suitable for most deployments.
func DefaultOptions() Options {
	return Options{
		CacheSize:   4096,
		BusyTimeout: 5000,
		ReadConns:   8,
	}
}

type DB struct {
	path          string
	writer        *sql.DB
	reader        *sql.DB
	readStmts     *stmtCache
	cache         *entityCache
	driverVersion string
}

func dsn(path string, params url.Values) string {
	return "file:" + path + "?" + params.Encode()
}

// Open creates or opens the world state database at path.
func Open(path string, opts Options) (_ *DB, err error) {
	def := DefaultOptions()
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = def.BusyTimeout
	}
	if opts.ReadConns <= 0 {
		opts.ReadConns = def.ReadConns
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = def.CacheSize
	}

	writer, err := sql.Open("sqlite3", dsn(path, url.Values{
		"_journal_mode": {"WAL"},
		"_synchronous":  {"NORMAL"},
		"_foreign_keys": {"on"},
		"_txlock":       {"immediate"},
		"_busy_timeout": {fmt.Sprint(opts.BusyTimeout)},
	}))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			writer.Close()
		}
	}()
	// one session at a time, later ones queue on the pool
	writer.SetMaxOpenConns(1)

	if _, err := writer.Exec(wsvSchema); err != nil {
		return nil, err
	}

	reader, err := sql.Open("sqlite3", dsn(path, url.Values{
		"_query_only":   {"true"},
		"_foreign_keys": {"on"},
		"_busy_timeout": {fmt.Sprint(opts.BusyTimeout)},
	}))
	if err != nil {
		return nil, err
	}
	reader.SetMaxOpenConns(opts.ReadConns)

	driverVer, _, _ := sqlite3.Version()
	logger.Debug("world state opened", "path", path, "sqlite", driverVer)
	return &DB{
		path:          path,
		writer:        writer,
		reader:        reader,
		readStmts:     newStmtCache(reader),
		cache:         newEntityCache(opts.CacheSize),
		driverVersion: driverVer,
	}, nil
}

func (db *DB) Path() string {
	return db.path
}

// Migrate executes extra schema statements, for tables kept beside the state.
// It must not be called while a session is open.
func (db *DB) Migrate(ctx context.Context, schema string) error {
	_, err := db.writer.ExecContext(ctx, schema)
	return err
}

// Queries returns unchecked typed reads of the last committed state.
func (db *DB) Queries() *Queries {
	return &Queries{c: poolConn(db.readStmts)}
}

// Querier returns raw read access to the last committed state.
func (db *DB) Querier() Querier {
	return poolConn(db.readStmts)
}

// Details returns the committed account detail store.
func (db *DB) Details(ctx context.Context) *detail.Store {
	return detail.New(newKVTable(ctx, poolConn(db.readStmts), detailTable))
}

// ReadTx runs fn against one consistent snapshot of the committed state.
func (db *DB) ReadTx(ctx context.Context, fn func(q *Queries, details *detail.Store) error) error {
	tx, err := db.reader.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	c := txConn(tx)
	return fn(&Queries{c: c}, detail.New(newKVTable(ctx, c, detailTable)))
}

// CacheStats returns the read side cache hit/miss counts.
func (db *DB) CacheStats() (changed bool, hit, miss int64) {
	return db.cache.arc.Stats().Stats()
}

func (db *DB) Close() error {
	db.readStmts.Clear()
	rerr := db.reader.Close()
	if err := db.writer.Close(); err != nil {
		return err
	}
	return rerr
}
