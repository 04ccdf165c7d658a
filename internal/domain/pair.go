package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type PairRegistry map[common.Address]*Pair

// Pair is a constant-product pool on a pooled-market chain. Token0 always
// sorts before Token1.
type Pair struct {
	Address        common.Address `json:"address"`
	Chain          ChainID        `json:"chainId"`
	Token0         *Asset         `json:"token0"`
	Token1         *Asset         `json:"token1"`
	Reserve0       *big.Int       `json:"reserve0"`
	Reserve1       *big.Int       `json:"reserve1"`
	FeeBps         uint16         `json:"feeBps"`
	BlockTimestamp uint32         `json:"blockTimestamp"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func NewPair(address common.Address, a, b *Asset, reserveA, reserveB *big.Int, feeBps uint16) *Pair {
	p := &Pair{
		Address:   address,
		Chain:     a.Chain,
		FeeBps:    feeBps,
		UpdatedAt: time.Now(),
	}
	if a.SortsBefore(b) {
		p.Token0, p.Token1 = a, b
		p.Reserve0, p.Reserve1 = reserveA, reserveB
	} else {
		p.Token0, p.Token1 = b, a
		p.Reserve0, p.Reserve1 = reserveB, reserveA
	}
	return p
}

func (p *Pair) Involves(asset *Asset) bool {
	return p.Token0.Equal(asset) || p.Token1.Equal(asset)
}

// Other returns the token on the opposite side of asset.
func (p *Pair) Other(asset *Asset) *Asset {
	if p.Token0.Equal(asset) {
		return p.Token1
	}
	return p.Token0
}

func (p *Pair) ReserveOf(asset *Asset) *big.Int {
	if p.Token0.Equal(asset) {
		return p.Reserve0
	}
	return p.Reserve1
}

// HasLiquidity reports whether both reserves are non-zero.
func (p *Pair) HasLiquidity() bool {
	return p.Reserve0 != nil && p.Reserve1 != nil && p.Reserve0.Sign() > 0 && p.Reserve1.Sign() > 0
}

// MidPrice is the marginal price of `from` in units of the other token, in
// raw units.
func (p *Pair) MidPrice(from *Asset) *big.Rat {
	return new(big.Rat).SetFrac(p.ReserveOf(p.Other(from)), p.ReserveOf(from))
}
