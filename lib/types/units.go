package types

import (
	"math/big"

	"github.com/shopspring/decimal"
	"golang.org/x/xerrors"
)

// Decimals of the display unit; 1 display unit = 10^18 smallest units.
const Decimals = 18

// ToDisplay renders a smallest-unit amount in display units, e.g. 1500000000000000000 -> "1.5".
func ToDisplay(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -Decimals).String()
}

// FromDisplay parses a display amount back to smallest units.
func FromDisplay(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, xerrors.Errorf("parse amount %q: %w", s, ErrInvalidParams)
	}

	if d.IsNegative() {
		return nil, xerrors.Errorf("negative amount %q: %w", s, ErrInvalidParams)
	}

	d = d.Shift(Decimals)
	if !d.Equal(d.Truncate(0)) {
		return nil, xerrors.Errorf("amount %q has more than %d decimals: %w", s, Decimals, ErrInvalidParams)
	}

	return d.BigInt(), nil
}
