// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory of the ledger databases",
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to a yaml storage config file",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-5)",
	}
	querierFlag = cli.StringFlag{
		Name:  "querier",
		Usage: "account on whose behalf queries are checked, unchecked when empty",
	}
	keyFlag = cli.StringFlag{
		Name:  "key",
		Usage: "detail key to match",
	}
	writerFlag = cli.StringFlag{
		Name:  "writer",
		Usage: "detail writer to match",
	}
	limitFlag = cli.IntFlag{
		Name:  "limit",
		Value: 20,
		Usage: "max number of records printed",
	}
)
