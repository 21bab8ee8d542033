// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger_test

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permledger/ledgerd/ledger"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in        string
		value     uint64
		precision uint8
		fail      bool
	}{
		{"0", 0, 0, false},
		{"100", 100, 0, false},
		{"12.34", 1234, 2, false},
		{"0.010", 10, 3, false},
		{"007.5", 75, 1, false},
		{"", 0, 0, true},
		{".5", 0, 0, true},
		{"5.", 0, 0, true},
		{"-1", 0, 0, true},
		{"1e5", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			a, err := ledger.ParseAmount(tt.in)
			if tt.fail {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.value, a.Value().Uint64())
			assert.Equal(t, tt.precision, a.Precision())
		})
	}

	_, err := ledger.ParseAmount("1" + strings.Repeat("0", 80))
	assert.True(t, ledger.IsAmountOverflow(err))
}

func TestAmountString(t *testing.T) {
	assert.Equal(t, "12.34", ledger.MustParseAmount("12.34").String())
	assert.Equal(t, "0.05", ledger.MustParseAmount("0.05").String())
	assert.Equal(t, "7", ledger.MustParseAmount("7").String())
	assert.Equal(t, "0.000", ledger.FormatAmount(uint256.NewInt(0), 3))
}

func TestAmountRescale(t *testing.T) {
	a := ledger.MustParseAmount("1.5")

	v, err := a.Rescale(3)
	require.NoError(t, err)
	assert.Equal(t, uint64(1500), v.Uint64())

	_, err = a.Rescale(0)
	assert.True(t, ledger.IsPrecisionLoss(err))

	_, err = ledger.MustParseAmount("1").Rescale(80)
	assert.True(t, ledger.IsAmountOverflow(err))
}

func TestAmountRLP(t *testing.T) {
	a := ledger.MustParseAmount("123.456")
	data, err := rlp.EncodeToBytes(a)
	require.NoError(t, err)

	var b ledger.Amount
	require.NoError(t, rlp.DecodeBytes(data, &b))
	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, a.Precision(), b.Precision())
}
