// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"
)

var (
	version   string
	gitCommit string
)

func main() {
	app := cli.App{
		Version: fmt.Sprintf("%s-%s", version, gitCommit),
		Name:    "ledgerctl",
		Usage:   "Inspect and maintain a ledger data directory",
		Flags: []cli.Flag{
			dataDirFlag,
			configFlag,
			verbosityFlag,
		},
		Before: func(ctx *cli.Context) error {
			initLogger(ctx)
			return nil
		},
		Commands: []cli.Command{
			{
				Name:   "info",
				Usage:  "print the ledger state",
				Action: infoAction,
			},
			{
				Name:      "block",
				Usage:     "dump the block at height",
				ArgsUsage: "<height>",
				Action:    blockAction,
			},
			{
				Name:      "tx-status",
				Usage:     "print the status and position of a transaction",
				ArgsUsage: "<tx hash>",
				Action:    txStatusAction,
			},
			{
				Name:      "detail",
				Usage:     "list the details of an account",
				ArgsUsage: "<account id>",
				Flags:     []cli.Flag{querierFlag, keyFlag, writerFlag, limitFlag},
				Action:    detailAction,
			},
			{
				Name:      "written-by",
				Usage:     "list the details written by an account",
				ArgsUsage: "<writer id>",
				Flags:     []cli.Flag{limitFlag},
				Action:    writtenByAction,
			},
			{
				Name:   "reindex",
				Usage:  "rebuild the transaction indexes from the block log",
				Action: reindexAction,
			},
			{
				Name:   "rebuild",
				Usage:  "rebuild the world state by replaying the block log",
				Action: rebuildAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
