// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/permledger/ledgerd/detail"
	"github.com/permledger/ledgerd/index"
	"github.com/permledger/ledgerd/ledger"
	"github.com/permledger/ledgerd/storage"
	"github.com/permledger/ledgerd/wsv"
)

// withStorage opens the storage for the duration of fn.
func withStorage(ctx *cli.Context, fn func(s *storage.Storage) error) error {
	s, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func infoAction(ctx *cli.Context) error {
	return withStorage(ctx, func(s *storage.Storage) error {
		printInfo(ctx.App.Writer, s)
		return nil
	})
}

func printInfo(w io.Writer, s *storage.Storage) {
	st := s.LedgerState()
	fmt.Fprintf(w, "height:    %d\n", st.Height)
	fmt.Fprintf(w, "hash:      %v\n", st.Hash)
	fmt.Fprintf(w, "block log: %d\n", s.BlockLog().Size())
	fmt.Fprintf(w, "peers:     %d\n", len(st.Peers))
	for _, p := range st.Peers {
		fmt.Fprintf(w, "  %v %v\n", p.Address, p.PublicKey)
	}
}

func blockAction(ctx *cli.Context) error {
	arg, err := firstArg(ctx, "height")
	if err != nil {
		return err
	}
	height, err := parseHeight(arg)
	if err != nil {
		return err
	}
	return withStorage(ctx, func(s *storage.Storage) error {
		blk, err := s.BlockLog().Fetch(height)
		if err != nil {
			return err
		}
		fmt.Fprintln(ctx.App.Writer, blk.Hash())
		spew.Fdump(ctx.App.Writer, blk)
		return nil
	})
}

func txStatusAction(ctx *cli.Context) error {
	arg, err := firstArg(ctx, "tx hash")
	if err != nil {
		return err
	}
	h, err := ledger.ParseHash(arg)
	if err != nil {
		return err
	}
	return withStorage(ctx, func(s *storage.Storage) error {
		return printTxStatus(context.Background(), ctx.App.Writer, s, h)
	})
}

func printTxStatus(ctx context.Context, w io.Writer, s *storage.Storage, h ledger.Hash) error {
	status, err := s.CheckTxPresence(ctx, h)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, status)
	if status == index.Missing {
		return nil
	}
	pos, err := s.Index().TxPosition(ctx, h)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, pos)
	return nil
}

func detailAction(ctx *cli.Context) error {
	account, err := firstArg(ctx, "account id")
	if err != nil {
		return err
	}
	limit := ctx.Int(limitFlag.Name)
	querier := ctx.String(querierFlag.Name)
	filter := detail.Filter{
		Account: account,
		Key:     ctx.String(keyFlag.Name),
		Writer:  ctx.String(writerFlag.Name),
	}

	return withStorage(ctx, func(s *storage.Storage) error {
		c := context.Background()
		if querier == "" {
			page, err := s.Details(c).Find(filter, nil, limit)
			if err != nil {
				return err
			}
			printPage(ctx.App.Writer, page)
			return nil
		}
		// one record per page, as clients see them
		var cursor *detail.Cursor
		for range limit {
			page, err := s.View().GetAccountDetail(c, querier, wsv.DetailRequest{
				AccountID: filter.Account,
				Key:       filter.Key,
				Writer:    filter.Writer,
				Cursor:    cursor,
			})
			if err != nil {
				return err
			}
			printPage(ctx.App.Writer, page)
			if cursor = page.Next; cursor == nil {
				break
			}
		}
		return nil
	})
}

func writtenByAction(ctx *cli.Context) error {
	writer, err := firstArg(ctx, "writer id")
	if err != nil {
		return err
	}
	return withStorage(ctx, func(s *storage.Storage) error {
		page, err := s.Details(context.Background()).ByWriter(writer, nil, ctx.Int(limitFlag.Name))
		if err != nil {
			return err
		}
		printPage(ctx.App.Writer, page)
		return nil
	})
}

func printPage(w io.Writer, page *detail.Page) {
	for _, r := range page.Records {
		fmt.Fprintf(w, "%v\t%v\t%v\t%q\n", r.Account, r.Key, r.Writer, r.Value)
	}
	if page.Next == nil {
		fmt.Fprintf(w, "total %d\n", page.Total)
	}
}

func reindexAction(ctx *cli.Context) error {
	return withStorage(ctx, func(s *storage.Storage) error {
		return s.Reindex(context.Background())
	})
}

func rebuildAction(ctx *cli.Context) error {
	return withStorage(ctx, func(s *storage.Storage) error {
		res, err := s.Rebuild(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.App.Writer, "rebuilt to height %d, %v\n", res.LedgerState.Height, res.LedgerState.Hash)
		return nil
	})
}
