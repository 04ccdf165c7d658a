// Package exchange builds sell quotes for G$ into any supported asset.
package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hxuan190/gd-exchange/internal/domain"
	"github.com/hxuan190/gd-exchange/internal/metrics"
	"github.com/hxuan190/gd-exchange/internal/registry"
	"github.com/hxuan190/gd-exchange/internal/services/router"
)

type Engine struct {
	registry     *registry.Registry
	routes       RouteFinder
	converter    ReserveConverter
	contribution ContributionCalculator
	balances     BalanceReader
	ratios       RatioInvalidator
}

func NewEngine(
	reg *registry.Registry,
	routes RouteFinder,
	converter ReserveConverter,
	contribution ContributionCalculator,
	balances BalanceReader,
	ratios RatioInvalidator,
) *Engine {
	return &Engine{
		registry:     reg,
		routes:       routes,
		converter:    converter,
		contribution: contribution,
		balances:     balances,
		ratios:       ratios,
	}
}

// quotation accumulates the pieces of a SellInfo while a branch runs.
type quotation struct {
	output, minOutput domain.Amount
	underlying        *domain.Amount
	reserve           *domain.Amount
	priceImpact       domain.Percent
	liquidityFee      *domain.Amount
	route             domain.Route
}

// GetMeta quotes selling amount G$ (a human decimal) into toSymbol with the
// given slippage percent ("0.5" = 0.5%). A nil quote with a nil error means
// nothing can be quoted right now.
func (e *Engine) GetMeta(ctx context.Context, wallet Wallet, toSymbol, amount, slippage string) (*domain.SellInfo, error) {
	start := time.Now()
	chainLabel := wallet.ChainID.String()

	info, err := e.getMeta(ctx, wallet, toSymbol, amount, slippage)

	metrics.QuoteDuration.WithLabelValues(chainLabel).Observe(time.Since(start).Seconds())
	switch {
	case err != nil:
		metrics.QuoteRequests.WithLabelValues(chainLabel, "error").Inc()
	case info == nil:
		metrics.QuoteRequests.WithLabelValues(chainLabel, "none").Inc()
	default:
		metrics.QuoteRequests.WithLabelValues(chainLabel, "ok").Inc()
		bps := info.PriceImpact.Bps()
		metrics.PriceImpact.WithLabelValues(string(router.GetPriceImpactSeverity(bps))).Observe(float64(bps))
	}
	return info, err
}

func (e *Engine) getMeta(ctx context.Context, wallet Wallet, toSymbol, amount, slippage string) (*domain.SellInfo, error) {
	logger := log.With().
		Str("chain", wallet.ChainID.String()).
		Str("to", toSymbol).
		Str("amount", amount).
		Logger()
	logger.Debug().Msg("[exchangeEngine] get meta")

	chain, err := e.registry.Chain(wallet.ChainID)
	if err != nil {
		return nil, err
	}
	token, err := e.registry.Resolve(wallet.ChainID, domain.SymbolToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedChain, err)
	}
	to, err := e.registry.Resolve(wallet.ChainID, toSymbol)
	if err != nil {
		return nil, err
	}
	underlying := chain.Token(domain.SymbolUnderlying)

	// no ratio cached by an earlier quotation may be reused
	e.ratios.Invalidate()

	input, err := domain.ParseAmount(token, amount)
	if err != nil {
		return nil, err
	}
	tolerance, err := domain.DecimalPercentToPercent(slippage)
	if err != nil {
		return nil, err
	}

	var (
		q            *quotation
		contribution = domain.ZeroPercent()
		gdxAmount    = zeroGDX(chain, token)
	)

	switch chain.Class {
	case domain.ChainClassPooledMarket:
		q, err = e.sellOnMarket(ctx, input, to, tolerance)
	case domain.ChainClassBondingCurve:
		contribution, err = e.contribution.ExitContribution(ctx, wallet.Account, input)
		if err != nil {
			return nil, err
		}
		kind := classifyDestination(chain, to)
		logger.Debug().Str("destination", kind.String()).Msg("[exchangeEngine] bonding-curve sale")
		q, err = e.sellOnCurve(ctx, kind, input, to, tolerance)
		if err != nil || q == nil {
			break
		}
		gdxAmount, err = e.gdxAmount(ctx, chain, wallet, input)
	default:
		return nil, fmt.Errorf("%w: unknown chain class %s", domain.ErrUnsupportedChain, chain.Class)
	}
	if err != nil {
		return nil, err
	}
	if q == nil {
		logger.Debug().Msg("[exchangeEngine] no quote")
		return nil, nil
	}

	fee := domain.ZeroAmount(feeAsset(underlying, token))
	if q.liquidityFee != nil {
		fee = *q.liquidityFee
	}

	info := &domain.SellInfo{
		InputAmount:         input,
		OutputAmount:        q.output,
		MinimumOutputAmount: q.minOutput,
		UnderlyingAmount:    q.underlying,
		ReserveAmount:       q.reserve,
		GDXAmount:           gdxAmount,
		PriceImpact:         q.priceImpact,
		SlippageTolerance:   tolerance,
		Contribution:        contribution,
		LiquidityFee:        fee,
		LiquidityToken:      fee.Asset(),
		Route:               q.route,
	}

	logger.Debug().
		Str("output", info.OutputAmount.ToSignificant(6)).
		Str("minimum", info.MinimumOutputAmount.ToSignificant(6)).
		Str("priceImpact", info.PriceImpact.String()).
		Strs("route", info.Route.Symbols()).
		Msg("[exchangeEngine] quote ready")
	return info, nil
}

// sellOnMarket routes G$ straight through the pooled market.
func (e *Engine) sellOnMarket(ctx context.Context, input domain.Amount, to *domain.Asset, tolerance domain.Percent) (*quotation, error) {
	trade, err := e.routes.FindRoute(ctx, input, to)
	if err != nil || trade == nil {
		return nil, err
	}
	return fromTrade(trade, tolerance)
}

func (e *Engine) sellOnCurve(ctx context.Context, kind destinationKind, input domain.Amount, to *domain.Asset, tolerance domain.Percent) (*quotation, error) {
	switch kind {
	case destinationSelf:
		return nil, nil

	case destinationReserve:
		leg, err := e.converter.TokenToReserve(ctx, input, tolerance)
		if err != nil {
			return nil, err
		}
		noUnderlying := domain.ZeroAmount(underlyingOf(e.registry, to.Chain))
		reserveMin := leg.MinAmount
		return &quotation{
			output:      leg.Amount,
			minOutput:   leg.MinAmount,
			underlying:  &noUnderlying,
			reserve:     &reserveMin,
			priceImpact: domain.ZeroPercent(),
			route:       domain.Route{to},
		}, nil

	case destinationUnderlying:
		reserveLeg, err := e.converter.TokenToReserve(ctx, input, tolerance)
		if err != nil {
			return nil, err
		}
		underlyingLeg, err := e.converter.ReserveLegToUnderlying(ctx, reserveLeg)
		if err != nil {
			return nil, err
		}
		reserveMin := reserveLeg.MinAmount
		underlyingMin := underlyingLeg.MinAmount
		return &quotation{
			output:      underlyingLeg.Amount,
			minOutput:   underlyingLeg.MinAmount,
			underlying:  &underlyingMin,
			reserve:     &reserveMin,
			priceImpact: domain.ZeroPercent(),
			route:       domain.Route{to},
		}, nil

	default:
		reserveLeg, err := e.converter.TokenToReserve(ctx, input, tolerance)
		if err != nil {
			return nil, err
		}
		underlyingMin, err := e.converter.ReserveToUnderlying(ctx, reserveLeg.MinAmount)
		if err != nil {
			return nil, err
		}
		trade, err := e.routes.FindRoute(ctx, underlyingMin, to)
		if err != nil || trade == nil {
			return nil, err
		}
		q, err := fromTrade(trade, tolerance)
		if err != nil {
			return nil, err
		}
		reserveMin := reserveLeg.MinAmount
		q.reserve = &reserveMin
		q.underlying = &underlyingMin
		return q, nil
	}
}

func fromTrade(trade *router.Trade, tolerance domain.Percent) (*quotation, error) {
	minOut, err := trade.MinimumAmountOut(tolerance)
	if err != nil {
		return nil, err
	}
	fee, impact := router.RealizedLPFeePriceImpact(trade)

	log.Debug().
		Str("output", trade.OutputAmount.ToSignificant(6)).
		Str("minimum", minOut.ToSignificant(6)).
		Str("priceImpact", impact.ToSignificant(6)).
		Str("liquidityFee", fee.ToSignificant(6)).
		Msg("[exchangeEngine] market leg")

	return &quotation{
		output:       trade.OutputAmount,
		minOutput:    minOut,
		priceImpact:  impact,
		liquidityFee: &fee,
		route:        trade.Route,
	}, nil
}

// gdxAmount caps the GDX balance at the input amount.
func (e *Engine) gdxAmount(ctx context.Context, chain *registry.Chain, wallet Wallet, input domain.Amount) (domain.Amount, error) {
	gdx := chain.Token(domain.SymbolGDX)
	if gdx == nil {
		return zeroGDX(chain, input.Asset()), nil
	}
	raw, err := e.balances.BalanceOf(ctx, gdx, wallet.Account)
	if err != nil {
		return domain.Amount{}, err
	}
	balance := domain.NewAmountFromRaw(gdx, raw)
	return domain.MinAmount(input.Rescale(gdx), balance)
}

func zeroGDX(chain *registry.Chain, token *domain.Asset) domain.Amount {
	if gdx := chain.Token(domain.SymbolGDX); gdx != nil {
		return domain.ZeroAmount(gdx)
	}
	return domain.ZeroAmount(token)
}

func feeAsset(underlying, token *domain.Asset) *domain.Asset {
	if underlying != nil {
		return underlying
	}
	return token
}

func underlyingOf(reg *registry.Registry, chain domain.ChainID) *domain.Asset {
	c, err := reg.Chain(chain)
	if err != nil {
		return nil
	}
	return c.Token(domain.SymbolUnderlying)
}
