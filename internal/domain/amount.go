package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"
)

// displayPrecision is the number of fractional digits kept when an exact
// amount is turned into a decimal for display.
const displayPrecision = 36

// maxAmountDigits is the number of decimal digits of 2^256-1. Exponents beyond
// it are rejected before any big integer is materialised.
const maxAmountDigits = 78

// Amount is an exact quantity of an asset, stored as a rational number of raw
// (smallest) units. Amounts are immutable: every operation returns a new value.
type Amount struct {
	asset *Asset
	raw   *big.Rat
}

func NewAmountFromRaw(asset *Asset, raw *big.Int) Amount {
	return Amount{asset: asset, raw: new(big.Rat).SetInt(raw)}
}

func NewAmountFromFraction(asset *Asset, numerator, denominator *big.Int) Amount {
	return Amount{asset: asset, raw: new(big.Rat).SetFrac(numerator, denominator)}
}

func NewAmountFromRat(asset *Asset, raw *big.Rat) Amount {
	return Amount{asset: asset, raw: new(big.Rat).Set(raw)}
}

func ZeroAmount(asset *Asset) Amount {
	return Amount{asset: asset, raw: new(big.Rat)}
}

// ParseAmount converts a human-entered decimal such as "12.5" into an exact
// amount of raw units of asset. The raw value must be a whole number of units
// that fits in a uint256.
func ParseAmount(asset *Asset, value string) (Amount, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: amount %q: %v", ErrInvalidInput, value, err)
	}
	if d.IsNegative() {
		return Amount{}, fmt.Errorf("%w: amount %q must not be negative", ErrInvalidInput, value)
	}
	exp := d.Exponent()
	if exp > maxAmountDigits || exp < -(maxAmountDigits+int32(asset.Decimals)) {
		return Amount{}, fmt.Errorf("%w: amount %q is out of range", ErrInvalidInput, value)
	}
	if d.NumDigits()+int(exp) > maxAmountDigits {
		return Amount{}, fmt.Errorf("%w: amount %q is out of range", ErrInvalidInput, value)
	}
	units := d.Shift(int32(asset.Decimals))
	if !units.IsInteger() {
		return Amount{}, fmt.Errorf("%w: amount %q has more than %d decimals", ErrInvalidInput, value, asset.Decimals)
	}
	raw := units.BigInt()
	if raw.Cmp(math.MaxBig256) > 0 {
		return Amount{}, fmt.Errorf("%w: amount %q does not fit in uint256", ErrInvalidInput, value)
	}
	return NewAmountFromRaw(asset, raw), nil
}

func (a Amount) Asset() *Asset {
	return a.asset
}

// Raw returns a copy of the exact raw-unit value.
func (a Amount) Raw() *big.Rat {
	if a.raw == nil {
		return new(big.Rat)
	}
	return new(big.Rat).Set(a.raw)
}

// Quotient truncates the raw value toward zero.
func (a Amount) Quotient() *big.Int {
	if a.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Quo(a.raw.Num(), a.raw.Denom())
}

func (a Amount) IsZero() bool {
	return a.raw == nil || a.raw.Sign() == 0
}

func (a Amount) Add(b Amount) (Amount, error) {
	if err := a.sameAsset(b); err != nil {
		return Amount{}, err
	}
	return Amount{asset: a.asset, raw: new(big.Rat).Add(a.Raw(), b.Raw())}, nil
}

func (a Amount) Sub(b Amount) (Amount, error) {
	if err := a.sameAsset(b); err != nil {
		return Amount{}, err
	}
	return Amount{asset: a.asset, raw: new(big.Rat).Sub(a.Raw(), b.Raw())}, nil
}

// Mul scales the amount by a dimensionless ratio.
func (a Amount) Mul(ratio *big.Rat) Amount {
	return Amount{asset: a.asset, raw: new(big.Rat).Mul(a.Raw(), ratio)}
}

func (a Amount) MulPercent(p Percent) Amount {
	return a.Mul(p.Rat())
}

// Cmp compares two amounts of the same asset.
func (a Amount) Cmp(b Amount) (int, error) {
	if err := a.sameAsset(b); err != nil {
		return 0, err
	}
	return a.Raw().Cmp(b.Raw()), nil
}

// Rescale expresses the amount in another asset at a 1:1 human-unit rate,
// adjusting for the decimal difference.
func (a Amount) Rescale(to *Asset) Amount {
	r := a.Raw()
	r.Mul(r, new(big.Rat).SetFrac(to.DecimalScale(), a.asset.DecimalScale()))
	return Amount{asset: to, raw: r}
}

// Decimal returns the human-unit value as a decimal, rounded to a fixed
// number of fractional digits. Display only.
func (a Amount) Decimal() decimal.Decimal {
	if a.asset == nil || a.raw == nil {
		return decimal.Zero
	}
	num := decimal.NewFromBigInt(a.raw.Num(), 0)
	den := decimal.NewFromBigInt(new(big.Int).Mul(a.raw.Denom(), a.asset.DecimalScale()), 0)
	return num.DivRound(den, displayPrecision)
}

// ToSignificant formats the human-unit value with n significant digits.
func (a Amount) ToSignificant(n int) string {
	d := a.Decimal()
	if d.IsZero() {
		return "0"
	}
	magnitude := d.NumDigits() + int(d.Exponent())
	return d.Round(int32(n - magnitude)).String()
}

// ToExact formats the raw value truncated to an integer string.
func (a Amount) ToExact() string {
	return a.Quotient().String()
}

func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.ToSignificant(6), a.asset.Symbol)
}

func (a Amount) sameAsset(b Amount) error {
	if !a.asset.Equal(b.asset) {
		return fmt.Errorf("%w: %s vs %s", ErrUnexpectedAsset, a.asset, b.asset)
	}
	return nil
}

// MinAmount returns the smaller of two amounts of the same asset.
func MinAmount(a, b Amount) (Amount, error) {
	c, err := a.Cmp(b)
	if err != nil {
		return Amount{}, err
	}
	if c <= 0 {
		return a, nil
	}
	return b, nil
}
