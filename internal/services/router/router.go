// Package router finds the best exact-input trade on a pooled market.
package router

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hxuan190/gd-exchange/internal/domain"
	"github.com/hxuan190/gd-exchange/internal/metrics"
	"github.com/hxuan190/gd-exchange/internal/registry"
)

// MaxHops bounds the number of pairs a route may traverse.
const MaxHops = 2

// PairLoader returns the live pairs a trade between input and output may use.
type PairLoader interface {
	LoadPairs(ctx context.Context, chain *registry.Chain, input, output *domain.Asset) ([]*domain.Pair, error)
}

type Router struct {
	registry *registry.Registry
	pairs    PairLoader
}

func New(reg *registry.Registry, pairs PairLoader) *Router {
	return &Router{registry: reg, pairs: pairs}
}

// FindRoute returns the best trade of input into output, or nil when no
// path with liquidity exists. A bridged route is preferred over the direct
// one only when it yields strictly more.
func (r *Router) FindRoute(ctx context.Context, input domain.Amount, output *domain.Asset) (*Trade, error) {
	chain, err := r.registry.Chain(input.Asset().Chain)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	pairs, err := r.pairs.LoadPairs(ctx, chain, input.Asset(), output)
	if err != nil {
		metrics.RouteLookups.WithLabelValues(chain.ID.String(), "error").Inc()
		return nil, err
	}
	metrics.PairsEvaluated.Observe(float64(len(pairs)))

	trade := BestTradeExactIn(pairs, input, output)
	if trade == nil {
		metrics.RouteLookups.WithLabelValues(chain.ID.String(), "none").Inc()
		log.Debug().
			Str("from", input.Asset().Symbol).
			Str("to", output.Symbol).
			Int("pairs", len(pairs)).
			Msg("[router] no route")
		return nil, nil
	}

	metrics.RouteLookups.WithLabelValues(chain.ID.String(), "found").Inc()
	log.Debug().
		Strs("route", trade.Route.Symbols()).
		Str("output", trade.OutputAmount.ToSignificant(6)).
		Dur("took", time.Since(start)).
		Msg("[router] route found")
	return trade, nil
}

// BestTradeExactIn picks the best trade of at most MaxHops pairs.
func BestTradeExactIn(pairs []*domain.Pair, input domain.Amount, output *domain.Asset) *Trade {
	if input.IsZero() || input.Asset().Equal(output) {
		return nil
	}

	var direct, bridged *Trade
	for _, p := range pairs {
		if !p.Involves(input.Asset()) {
			continue
		}
		mid := p.Other(input.Asset())
		if mid.Equal(output) {
			direct = better(direct, newTrade(input, []*domain.Pair{p}))
			continue
		}
		for _, q := range pairs {
			if q == p || !q.Involves(mid) || !q.Other(mid).Equal(output) {
				continue
			}
			bridged = better(bridged, newTrade(input, []*domain.Pair{p, q}))
		}
	}

	if bridged != nil && (direct == nil || outputCmp(bridged, direct) > 0) {
		return bridged
	}
	return direct
}

func better(current, candidate *Trade) *Trade {
	if candidate == nil {
		return current
	}
	if current == nil || outputCmp(candidate, current) > 0 {
		return candidate
	}
	return current
}

func outputCmp(a, b *Trade) int {
	return a.OutputAmount.Quotient().Cmp(b.OutputAmount.Quotient())
}
