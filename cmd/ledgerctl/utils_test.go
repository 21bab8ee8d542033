// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permledger/ledgerd/block"
	"github.com/permledger/ledgerd/detail"
	"github.com/permledger/ledgerd/ledger"
	"github.com/permledger/ledgerd/storage"
	"github.com/permledger/ledgerd/tx"
)

func TestParseHeight(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"1", 1, true},
		{"42", 42, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"x", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, err := parseHeight(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, h)
		})
	}
}

func TestPrint(t *testing.T) {
	ctx := context.Background()
	s, err := storage.Open(t.TempDir(), storage.DefaultOptions())
	require.NoError(t, err)
	defer s.Close()

	trx := tx.NewBuilder("").
		Command(
			tx.CreateRole{RoleName: "user"},
			tx.CreateDomain{DomainID: "d1", DefaultRole: "user"},
			tx.CreateAccount{AccountName: "alice", DomainID: "d1", PublicKey: "pk"},
			tx.SetAccountDetail{AccountID: "alice@d1", Key: "age", Value: "30"},
			tx.AddPeer{Peer: ledger.Peer{Address: "10.0.0.1:10001", PublicKey: "peer1"}},
		).
		Build()
	require.NoError(t, s.InsertBlock(ctx, new(block.Builder).Height(1).Transaction(trx).Build()))

	var buf bytes.Buffer
	printInfo(&buf, s)
	assert.Contains(t, buf.String(), "height:    1")
	assert.Contains(t, buf.String(), "10.0.0.1:10001 peer1")

	buf.Reset()
	require.NoError(t, printTxStatus(ctx, &buf, s, trx.Hash()))
	assert.Equal(t, "committed\n1:0\n", buf.String())

	buf.Reset()
	require.NoError(t, printTxStatus(ctx, &buf, s, ledger.Blake2b([]byte("nope"))))
	assert.Equal(t, "missing\n", buf.String())

	buf.Reset()
	page, err := s.Details(ctx).Find(detail.Filter{Account: "alice@d1"}, nil, 10)
	require.NoError(t, err)
	printPage(&buf, page)
	assert.Equal(t, "alice@d1\tage\tgenesis\t\"30\"\ntotal 1\n", buf.String())
}
