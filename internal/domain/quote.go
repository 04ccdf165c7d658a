package domain

import "github.com/ethereum/go-ethereum/common"

// Route is the ordered token path of a trade. The first element is the
// input asset and the last the output asset.
type Route []*Asset

func (r Route) Addresses() []common.Address {
	out := make([]common.Address, 0, len(r))
	for _, asset := range r {
		out = append(out, asset.Address)
	}
	return out
}

func (r Route) Symbols() []string {
	out := make([]string, 0, len(r))
	for _, asset := range r {
		out = append(out, asset.Symbol)
	}
	return out
}

// SellInfo is a complete quote for selling G$ into a destination asset.
// It is built fresh for every request and never cached.
type SellInfo struct {
	InputAmount         Amount
	OutputAmount        Amount
	MinimumOutputAmount Amount

	// Intermediate legs, only set on bonding-curve chains.
	UnderlyingAmount *Amount
	ReserveAmount    *Amount

	// GDXAmount is min(InputAmount, GDX balance), expressed in GDX.
	GDXAmount Amount

	PriceImpact       Percent
	SlippageTolerance Percent
	Contribution      Percent

	LiquidityFee   Amount
	LiquidityToken *Asset

	Route Route
}
