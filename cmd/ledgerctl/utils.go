// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/permledger/ledgerd/storage"
)

func initLogger(ctx *cli.Context) {
	h := log.NewTerminalHandlerWithLevel(os.Stderr, log.FromLegacyLevel(ctx.GlobalInt(verbosityFlag.Name)), true)
	log.SetDefault(log.NewLogger(h))
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		return filepath.Join(home, ".ledgerd")
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func loadOptions(ctx *cli.Context) (storage.Options, error) {
	path := ctx.GlobalString(configFlag.Name)
	if path == "" {
		return storage.DefaultOptions(), nil
	}
	return storage.LoadOptions(path)
}

func openStorage(ctx *cli.Context) (*storage.Storage, error) {
	dir := ctx.GlobalString(dataDirFlag.Name)
	if dir == "" {
		return nil, errors.New("data dir not specified")
	}
	opts, err := loadOptions(ctx)
	if err != nil {
		return nil, err
	}
	return storage.Open(dir, opts)
}

func parseHeight(s string) (uint64, error) {
	h, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid height %q", s)
	}
	if h == 0 {
		return 0, errors.New("heights start at 1")
	}
	return h, nil
}

func firstArg(ctx *cli.Context, name string) (string, error) {
	if ctx.NArg() < 1 {
		return "", errors.Errorf("missing %v", name)
	}
	return ctx.Args().First(), nil
}
