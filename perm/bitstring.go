// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package perm

import (
	"strings"

	"github.com/pkg/errors"
)

var errBadBitstring = errors.New("perm: malformed bitstring")

func bitstring(v uint64, n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		if v&(1<<i) != 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// parseBitstring accepts strings shorter than n; missing trailing bits are zero.
func parseBitstring(s string, n int) (uint64, error) {
	if len(s) > n {
		return 0, errBadBitstring
	}
	var v uint64
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '1':
			v |= 1 << i
		case '0':
		default:
			return 0, errBadBitstring
		}
	}
	return v, nil
}
