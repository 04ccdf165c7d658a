// Package reserve converts G$ into the reserve token through the bonding
// curve, and the reserve token into its underlying at the oracle ratio.
package reserve

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/gd-exchange/internal/domain"
	"github.com/hxuan190/gd-exchange/internal/registry"
)

// CurveReader quotes a bonding-curve sale.
type CurveReader interface {
	SellReturn(ctx context.Context, marketMaker common.Address, token *domain.Asset, gdAmount *big.Int) (*big.Int, error)
}

// RatioSource yields the human reserve/underlying ratio of a chain.
type RatioSource interface {
	CurrentRatio(ctx context.Context, chain domain.ChainID) (*big.Rat, error)
}

// Leg is the result of a haircut conversion.
type Leg struct {
	Amount    domain.Amount
	MinAmount domain.Amount
}

type Converter struct {
	registry *registry.Registry
	curve    CurveReader
	ratios   RatioSource
}

func NewConverter(reg *registry.Registry, curve CurveReader, ratios RatioSource) *Converter {
	return &Converter{registry: reg, curve: curve, ratios: ratios}
}

// TokenToReserve sells G$ into cDAI on the bonding curve. The minimum is
// amount − amount·slippage.
func (c *Converter) TokenToReserve(ctx context.Context, amount domain.Amount, slippage domain.Percent) (Leg, error) {
	chainID := amount.Asset().Chain
	chain, err := c.registry.Chain(chainID)
	if err != nil {
		return Leg{}, err
	}
	token := chain.Token(domain.SymbolToken)
	if !amount.Asset().Equal(token) {
		return Leg{}, fmt.Errorf("%w: expected %s, got %s", domain.ErrUnexpectedAsset, domain.SymbolToken, amount.Asset().Symbol)
	}
	reserve, err := c.registry.Resolve(chainID, domain.SymbolReserve)
	if err != nil {
		return Leg{}, err
	}

	raw, err := c.curve.SellReturn(ctx, chain.Contracts.MarketMaker, reserve, amount.Quotient())
	if err != nil {
		return Leg{}, err
	}

	out := domain.NewAmountFromRaw(reserve, raw)
	minOut, err := out.Sub(out.MulPercent(slippage))
	if err != nil {
		return Leg{}, err
	}

	log.Debug().
		Str("cDAI", out.ToSignificant(6)).
		Str("cDAI min", minOut.ToSignificant(6)).
		Msg("[reserveConverter] G$ to cDAI")
	return Leg{Amount: out, MinAmount: minOut}, nil
}

// ReserveToUnderlying converts cDAI into DAI at the current oracle ratio.
// The result stays exact; nothing is rounded here.
func (c *Converter) ReserveToUnderlying(ctx context.Context, amount domain.Amount) (domain.Amount, error) {
	underlying, ratio, err := c.underlyingRatio(ctx, amount)
	if err != nil {
		return domain.Amount{}, err
	}
	out := toUnderlying(amount, ratio, underlying)

	log.Debug().
		Str("ratio", ratio.FloatString(8)).
		Str("DAI", out.ToSignificant(6)).
		Msg("[reserveConverter] cDAI to DAI")
	return out, nil
}

// ReserveLegToUnderlying converts both sides of a cDAI leg at a single
// oracle reading.
func (c *Converter) ReserveLegToUnderlying(ctx context.Context, leg Leg) (Leg, error) {
	if !leg.Amount.Asset().Equal(leg.MinAmount.Asset()) {
		return Leg{}, fmt.Errorf("%w: leg mixes %s and %s", domain.ErrUnexpectedAsset, leg.Amount.Asset(), leg.MinAmount.Asset())
	}
	underlying, ratio, err := c.underlyingRatio(ctx, leg.Amount)
	if err != nil {
		return Leg{}, err
	}
	out := Leg{
		Amount:    toUnderlying(leg.Amount, ratio, underlying),
		MinAmount: toUnderlying(leg.MinAmount, ratio, underlying),
	}

	log.Debug().
		Str("ratio", ratio.FloatString(8)).
		Str("DAI", out.Amount.ToSignificant(6)).
		Str("DAI min", out.MinAmount.ToSignificant(6)).
		Msg("[reserveConverter] cDAI to DAI")
	return out, nil
}

func (c *Converter) underlyingRatio(ctx context.Context, amount domain.Amount) (*domain.Asset, *big.Rat, error) {
	chainID := amount.Asset().Chain
	reserve, err := c.registry.Resolve(chainID, domain.SymbolReserve)
	if err != nil {
		return nil, nil, err
	}
	if !amount.Asset().Equal(reserve) {
		return nil, nil, fmt.Errorf("%w: expected %s, got %s", domain.ErrUnexpectedAsset, domain.SymbolReserve, amount.Asset().Symbol)
	}
	underlying, err := c.registry.Resolve(chainID, domain.SymbolUnderlying)
	if err != nil {
		return nil, nil, err
	}
	ratio, err := c.ratios.CurrentRatio(ctx, chainID)
	if err != nil {
		return nil, nil, err
	}
	return underlying, ratio, nil
}

// toUnderlying computes raw_dai = raw_cdai · ratio · 10^(dec_dai − dec_cdai).
func toUnderlying(amount domain.Amount, ratio *big.Rat, underlying *domain.Asset) domain.Amount {
	return amount.Mul(ratio).Rescale(underlying)
}
