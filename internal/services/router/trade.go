package router

import (
	"fmt"
	"math/big"

	"github.com/hxuan190/gd-exchange/internal/domain"
)

// Trade is an exact-input trade along one path of pairs.
type Trade struct {
	Route        domain.Route
	Pairs        []*domain.Pair
	InputAmount  domain.Amount
	OutputAmount domain.Amount
}

// newTrade simulates amount along pairs starting from the input asset. It
// returns nil when any hop yields nothing.
func newTrade(amount domain.Amount, pairs []*domain.Pair) *Trade {
	route := make(domain.Route, 0, len(pairs)+1)
	current := amount.Asset()
	route = append(route, current)

	raw := amount.Quotient()
	for _, p := range pairs {
		if !p.Involves(current) {
			return nil
		}
		next := p.Other(current)
		raw = getAmountOut(raw, p.ReserveOf(current), p.ReserveOf(next), p.FeeBps)
		if raw.Sign() <= 0 {
			return nil
		}
		current = next
		route = append(route, current)
	}

	return &Trade{
		Route:        route,
		Pairs:        pairs,
		InputAmount:  amount,
		OutputAmount: domain.NewAmountFromRaw(current, raw),
	}
}

// Hops is the number of pairs traversed.
func (t *Trade) Hops() int {
	return len(t.Pairs)
}

// MidPrice is the product of the pre-trade marginal prices along the route,
// in raw output units per raw input unit.
func (t *Trade) MidPrice() *big.Rat {
	price := big.NewRat(1, 1)
	for i, p := range t.Pairs {
		price.Mul(price, p.MidPrice(t.Route[i]))
	}
	return price
}

// PriceImpact is (midQuote − output) / midQuote, fees included.
func (t *Trade) PriceImpact() domain.Percent {
	quoted := new(big.Rat).Mul(t.InputAmount.Raw(), t.MidPrice())
	if quoted.Sign() == 0 {
		return domain.ZeroPercent()
	}
	diff := new(big.Rat).Sub(quoted, t.OutputAmount.Raw())
	return domain.NewPercentFromRat(diff.Quo(diff, quoted))
}

// RealizedLPFeePercent is 1 − Π(1 − fee) over the pairs of the route.
func (t *Trade) RealizedLPFeePercent() domain.Percent {
	kept := big.NewRat(1, 1)
	for _, p := range t.Pairs {
		kept.Mul(kept, new(big.Rat).Sub(big.NewRat(1, 1), feeFraction(p.FeeBps)))
	}
	return domain.NewPercentFromRat(new(big.Rat).Sub(big.NewRat(1, 1), kept))
}

// MinimumAmountOut applies the route slippage haircut ⌊out / (1 + s)⌋.
func (t *Trade) MinimumAmountOut(slippage domain.Percent) (domain.Amount, error) {
	if slippage.Sign() < 0 {
		return domain.Amount{}, fmt.Errorf("negative slippage tolerance %s", slippage)
	}
	divisor := new(big.Rat).Add(big.NewRat(1, 1), slippage.Rat())
	adjusted := new(big.Rat).SetInt(t.OutputAmount.Quotient())
	adjusted.Quo(adjusted, divisor)
	floor := new(big.Int).Quo(adjusted.Num(), adjusted.Denom())
	return domain.NewAmountFromRaw(t.OutputAmount.Asset(), floor), nil
}

func (t *Trade) String() string {
	return fmt.Sprintf("%s -> %s via %v", t.InputAmount, t.OutputAmount, t.Route.Symbols())
}
