// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package index

import "strconv"

// Status is the presence of a transaction in the ledger.
type Status uint8

const (
	Missing Status = iota
	Committed
	Rejected
)

func (s Status) String() string {
	switch s {
	case Missing:
		return "missing"
	case Committed:
		return "committed"
	case Rejected:
		return "rejected"
	}
	return "Status(" + strconv.Itoa(int(s)) + ")"
}

// Position locates a transaction inside the chain. Rejected transactions are
// numbered after the committed ones of their block.
type Position struct {
	Height uint64
	Index  uint32
}

// Less orders positions by height, then index.
func (p Position) Less(o Position) bool {
	return p.Height < o.Height || (p.Height == o.Height && p.Index < o.Index)
}

func (p Position) String() string {
	return strconv.FormatUint(p.Height, 10) + ":" + strconv.FormatUint(uint64(p.Index), 10)
}
