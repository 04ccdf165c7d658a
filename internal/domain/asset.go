package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type ChainID uint64

const (
	ChainMainnet ChainID = 1
	ChainKovan   ChainID = 42
	ChainFuse    ChainID = 122
)

func (c ChainID) String() string {
	switch c {
	case ChainMainnet:
		return "mainnet"
	case ChainKovan:
		return "kovan"
	case ChainFuse:
		return "fuse"
	default:
		return fmt.Sprintf("chain-%d", uint64(c))
	}
}

// Well-known symbols the sell flow branches on.
const (
	SymbolToken      = "G$"
	SymbolReserve    = "cDAI"
	SymbolUnderlying = "DAI"
	SymbolGDX        = "GDX"
)

// Asset is a chain-scoped ERC-20 token. Assets are shared read-only once the
// registry is loaded.
type Asset struct {
	Chain    ChainID        `json:"chainId" yaml:"-"`
	Address  common.Address `json:"address" yaml:"address"`
	Symbol   string         `json:"symbol" yaml:"symbol"`
	Name     string         `json:"name" yaml:"name"`
	Decimals uint8          `json:"decimals" yaml:"decimals"`
}

func NewAsset(chain ChainID, address common.Address, symbol string, decimals uint8) *Asset {
	return &Asset{
		Chain:    chain,
		Address:  address,
		Symbol:   symbol,
		Name:     symbol,
		Decimals: decimals,
	}
}

// Equal compares chain and contract address. Pointer identity is never used.
func (a *Asset) Equal(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.Chain == other.Chain && a.Address == other.Address
}

// SortsBefore orders two assets the way pair contracts order token0/token1.
func (a *Asset) SortsBefore(other *Asset) bool {
	return a.Address.Cmp(other.Address) < 0
}

// DecimalScale returns 10^Decimals.
func (a *Asset) DecimalScale() *big.Int {
	return Pow10(int(a.Decimals))
}

func (a *Asset) String() string {
	if a == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s@%s", a.Symbol, a.Chain)
}

// Pow10 returns 10^n as a fresh big.Int.
func Pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// ChainClass selects how G$ is liquidated on a chain.
type ChainClass uint8

const (
	// ChainClassPooledMarket chains sell G$ directly on a constant-product market.
	ChainClassPooledMarket ChainClass = iota + 1
	// ChainClassBondingCurve chains sell G$ into the reserve through the bonding curve.
	ChainClassBondingCurve
)

func (c ChainClass) String() string {
	switch c {
	case ChainClassPooledMarket:
		return "pooled-market"
	case ChainClassBondingCurve:
		return "bonding-curve"
	default:
		return "unknown"
	}
}
