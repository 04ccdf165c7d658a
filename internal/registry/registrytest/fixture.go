// Package registrytest provides a registry with a fully configured
// bonding-curve chain and a pooled-market chain for tests.
package registrytest

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/gd-exchange/internal/domain"
	"github.com/hxuan190/gd-exchange/internal/registry"
)

var (
	MarketMaker    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	Reserve        = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	ExchangeHelper = common.HexToAddress("0x00000000000000000000000000000000000000a3")
	Contribution   = common.HexToAddress("0x00000000000000000000000000000000000000a4")

	UniswapFactory  = common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f")
	UniswapInitCode = common.HexToHash("0x96e8ac4277198ff8b6f785478aa9a39f403cb768dd02cbee326c3e7da348845f")
	FuseFactory     = common.HexToAddress("0x1d1f1A7280D67246665Bb196F38553b469294f3a")
)

// Mainnet assets.
var (
	GD   = domain.NewAsset(domain.ChainMainnet, common.HexToAddress("0x67C5870b4A41D4Ebef24d2456547A03F1f3e094B"), domain.SymbolToken, 2)
	CDAI = domain.NewAsset(domain.ChainMainnet, common.HexToAddress("0x5d3a536E4D6DbD6114cc1Ead35777bAB948E3643"), domain.SymbolReserve, 8)
	DAI  = domain.NewAsset(domain.ChainMainnet, common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), domain.SymbolUnderlying, 18)
	GDX  = domain.NewAsset(domain.ChainMainnet, common.HexToAddress("0x67C5870b4A41D4Ebef24d2456547A03F1f3e0000"), domain.SymbolGDX, 2)
	WETH = domain.NewAsset(domain.ChainMainnet, common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), "WETH", 18)
	USDC = domain.NewAsset(domain.ChainMainnet, common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), "USDC", 6)
)

// Fuse assets.
var (
	FuseGD    = domain.NewAsset(domain.ChainFuse, common.HexToAddress("0x495d133B938596C9984d462F007B676bDc57eCEC"), domain.SymbolToken, 2)
	FuseWFUSE = domain.NewAsset(domain.ChainFuse, common.HexToAddress("0x0BE9e53fd7EDaC9F859882AfdDa116645287C629"), "WFUSE", 18)
	FuseUSDC  = domain.NewAsset(domain.ChainFuse, common.HexToAddress("0x620fd5fa44BE6af63715Ef4E65DDFA0387aD13F5"), "USDC", 6)
	FuseETH   = domain.NewAsset(domain.ChainFuse, common.HexToAddress("0xa722c13135930332Eb3d749B2F0906559D2C5b99"), "ETH", 18)
)

func MainnetChain() *registry.Chain {
	return registry.NewChain(domain.ChainMainnet, domain.ChainClassBondingCurve,
		registry.Contracts{
			MarketMaker:             MarketMaker,
			Reserve:                 Reserve,
			ExchangeHelper:          ExchangeHelper,
			ContributionCalculation: Contribution,
		},
		registry.Market{
			Factory:      UniswapFactory,
			InitCodeHash: UniswapInitCode,
			FeeBps:       30,
			Bases:        []*domain.Asset{WETH, DAI, USDC},
		},
		GD, CDAI, DAI, GDX, WETH, USDC,
	)
}

func FuseChain() *registry.Chain {
	return registry.NewChain(domain.ChainFuse, domain.ChainClassPooledMarket,
		registry.Contracts{},
		registry.Market{
			Factory: FuseFactory,
			FeeBps:  30,
			Bases:   []*domain.Asset{FuseWFUSE, FuseUSDC, FuseETH},
		},
		FuseGD, FuseWFUSE, FuseUSDC, FuseETH,
	)
}

// New returns a registry holding both test chains.
func New() *registry.Registry {
	return registry.New(MainnetChain(), FuseChain())
}
