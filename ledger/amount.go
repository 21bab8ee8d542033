// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

var (
	errInvalidAmount  = errors.New("invalid amount")
	errPrecisionLoss  = errors.New("amount precision exceeds target precision")
	errAmountOverflow = errors.New("amount overflow")
)

// IsPrecisionLoss returns whether the error is caused by rescaling to a lower precision.
func IsPrecisionLoss(err error) bool { return errors.Cause(err) == errPrecisionLoss }

// IsAmountOverflow returns whether the error is caused by 256-bit overflow.
func IsAmountOverflow(err error) bool { return errors.Cause(err) == errAmountOverflow }

// Amount is a non-negative fixed-point quantity: Value * 10^-Precision.
type Amount struct {
	value     uint256.Int
	precision uint8
}

// NewAmount creates an amount. A nil value is treated as zero.
func NewAmount(value *uint256.Int, precision uint8) Amount {
	a := Amount{precision: precision}
	if value != nil {
		a.value.Set(value)
	}
	return a
}

// ParseAmount parses a decimal string such as "12.50". The precision equals
// the number of fractional digits given.
func ParseAmount(s string) (Amount, error) {
	intPart, frac, hasDot := strings.Cut(s, ".")
	if intPart == "" || (hasDot && frac == "") || len(frac) > 255 {
		return Amount{}, errInvalidAmount
	}
	digits := intPart + frac
	for _, c := range digits {
		if c < '0' || c > '9' {
			return Amount{}, errInvalidAmount
		}
	}
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		digits = "0"
	}
	v, err := uint256.FromDecimal(digits)
	if err != nil {
		return Amount{}, errAmountOverflow
	}
	return Amount{value: *v, precision: uint8(len(frac))}, nil
}

// MustParseAmount parses s and panics on error.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Value returns a copy of the unscaled integer value.
func (a Amount) Value() *uint256.Int {
	return new(uint256.Int).Set(&a.value)
}

// Precision returns the number of fractional digits.
func (a Amount) Precision() uint8 {
	return a.precision
}

func (a Amount) IsZero() bool {
	return a.value.IsZero()
}

func (a Amount) String() string {
	return FormatAmount(&a.value, a.precision)
}

// Rescale converts the amount to an unscaled integer at the given precision.
func (a Amount) Rescale(precision uint8) (*uint256.Int, error) {
	if a.precision > precision {
		return nil, errPrecisionLoss
	}
	v := new(uint256.Int).Set(&a.value)
	ten := uint256.NewInt(10)
	for i := a.precision; i < precision; i++ {
		if _, overflow := v.MulOverflow(v, ten); overflow {
			return nil, errAmountOverflow
		}
	}
	return v, nil
}

// EncodeRLP implements rlp.Encoder.
func (a Amount) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, []any{&a.value, a.precision})
}

// DecodeRLP implements rlp.Decoder.
func (a *Amount) DecodeRLP(s *rlp.Stream) error {
	var obj struct {
		Value     *uint256.Int
		Precision uint8
	}
	if err := s.Decode(&obj); err != nil {
		return err
	}
	*a = NewAmount(obj.Value, obj.Precision)
	return nil
}

// FormatAmount renders an unscaled integer with the given number of fractional digits.
func FormatAmount(v *uint256.Int, precision uint8) string {
	s := v.Dec()
	if precision == 0 {
		return s
	}
	p := int(precision)
	if len(s) <= p {
		s = strings.Repeat("0", p-len(s)+1) + s
	}
	return s[:len(s)-p] + "." + s[len(s)-p:]
}
