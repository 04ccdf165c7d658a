package domain

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var hundred = big.NewRat(100, 1)

// maxPercentDecimals bounds the fractional digits of a parsed percentage.
const maxPercentDecimals = 18

// Percent is an exact ratio (0.005 means half a percent).
type Percent struct {
	r *big.Rat
}

func NewPercent(numerator, denominator int64) Percent {
	return Percent{r: big.NewRat(numerator, denominator)}
}

func NewPercentFromRat(r *big.Rat) Percent {
	return Percent{r: new(big.Rat).Set(r)}
}

func ZeroPercent() Percent {
	return Percent{r: new(big.Rat)}
}

// DecimalPercentToPercent converts a human percentage ("0.5" = 0.5%) into a
// Percent. Values must lie in [0, 100).
func DecimalPercentToPercent(value string) (Percent, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Percent{}, fmt.Errorf("%w: percent %q: %v", ErrInvalidInput, value, err)
	}
	if exp := d.Exponent(); exp > 2 || exp < -maxPercentDecimals {
		return Percent{}, fmt.Errorf("%w: percent %q is out of range", ErrInvalidInput, value)
	}
	if d.IsNegative() || d.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return Percent{}, fmt.Errorf("%w: percent %q must be within [0, 100)", ErrInvalidInput, value)
	}
	r := d.Rat()
	return Percent{r: r.Quo(r, hundred)}, nil
}

func (p Percent) Rat() *big.Rat {
	if p.r == nil {
		return new(big.Rat)
	}
	return new(big.Rat).Set(p.r)
}

func (p Percent) IsZero() bool {
	return p.r == nil || p.r.Sign() == 0
}

func (p Percent) Sign() int {
	if p.r == nil {
		return 0
	}
	return p.r.Sign()
}

func (p Percent) Add(o Percent) Percent {
	return Percent{r: new(big.Rat).Add(p.Rat(), o.Rat())}
}

func (p Percent) Sub(o Percent) Percent {
	return Percent{r: new(big.Rat).Sub(p.Rat(), o.Rat())}
}

func (p Percent) Cmp(o Percent) int {
	return p.Rat().Cmp(o.Rat())
}

// Bps returns the percent in basis points, truncated toward zero.
func (p Percent) Bps() int64 {
	r := p.Rat()
	r.Mul(r, big.NewRat(10000, 1))
	return new(big.Int).Quo(r.Num(), r.Denom()).Int64()
}

// ToSignificant formats the value as a percentage ("0.5" for half a percent).
func (p Percent) ToSignificant(n int) string {
	r := p.Rat()
	r.Mul(r, hundred)
	d := decimal.NewFromBigInt(r.Num(), 0).DivRound(decimal.NewFromBigInt(r.Denom(), 0), displayPrecision)
	if d.IsZero() {
		return "0"
	}
	magnitude := d.NumDigits() + int(d.Exponent())
	return d.Round(int32(n - magnitude)).String()
}

func (p Percent) String() string {
	return p.ToSignificant(4) + "%"
}
