// Package oracle reads the exchange ratio between the reserve token (cDAI)
// and its underlying (DAI).
package oracle

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hxuan190/gd-exchange/internal/domain"
	"github.com/hxuan190/gd-exchange/internal/metrics"
	"github.com/hxuan190/gd-exchange/internal/registry"
)

const (
	// cTokens scale their exchange rate by 1e18 on top of the decimal gap
	// between underlying and cToken.
	exchangeRateMantissa = 18

	cacheSize = 16
)

// RateReader reads the raw exchangeRateStored value of a cToken.
type RateReader interface {
	ExchangeRateStored(ctx context.Context, cToken *domain.Asset) (*big.Int, error)
}

type cachedRatio struct {
	ratio     *big.Rat
	fetchedAt time.Time
}

// Oracle caches one ratio per chain. Invalidate is called at the start of
// every quotation, so a cached ratio is at most one quotation old and never
// older than maxAge. A read that was in flight when Invalidate ran is neither
// cached nor shared with callers arriving after it.
type Oracle struct {
	reader   RateReader
	registry *registry.Registry
	maxAge   time.Duration
	now      func() time.Time

	cache      *boundedLRU[domain.ChainID, cachedRatio]
	group      singleflight.Group
	generation atomic.Uint64
}

func New(reader RateReader, reg *registry.Registry, maxAge time.Duration) *Oracle {
	return &Oracle{
		reader:   reader,
		registry: reg,
		maxAge:   maxAge,
		now:      time.Now,
		cache:    newBoundedLRU[domain.ChainID, cachedRatio](cacheSize),
	}
}

// CurrentRatio returns how much underlying one whole reserve token is worth,
// in human units. A read failure is returned as is; no default ratio exists.
func (o *Oracle) CurrentRatio(ctx context.Context, chain domain.ChainID) (*big.Rat, error) {
	if entry, ok := o.cache.Get(chain); ok && !o.expired(entry) {
		metrics.OracleCacheHits.Inc()
		return new(big.Rat).Set(entry.ratio), nil
	}
	metrics.OracleCacheMisses.Inc()

	gen := o.generation.Load()
	key := strconv.FormatUint(uint64(chain), 10) + "/" + strconv.FormatUint(gen, 10)
	// the shared read outlives any single caller's cancellation
	fetchCtx := context.WithoutCancel(ctx)
	ch := o.group.DoChan(key, func() (interface{}, error) {
		ratio, err := o.fetch(fetchCtx, chain)
		if err != nil {
			return nil, err
		}
		o.store(gen, chain, ratio)
		return ratio, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return new(big.Rat).Set(res.Val.(*big.Rat)), nil
	}
}

func (o *Oracle) store(gen uint64, chain domain.ChainID, ratio *big.Rat) {
	if o.generation.Load() != gen {
		return
	}
	o.cache.Set(chain, cachedRatio{ratio: ratio, fetchedAt: o.now()})
}

// Invalidate drops every cached ratio.
func (o *Oracle) Invalidate() {
	o.generation.Add(1)
	o.cache.Clear()
	metrics.OracleInvalidations.Inc()
}

func (o *Oracle) expired(entry cachedRatio) bool {
	return o.maxAge > 0 && o.now().Sub(entry.fetchedAt) > o.maxAge
}

func (o *Oracle) fetch(ctx context.Context, chain domain.ChainID) (*big.Rat, error) {
	reserve, err := o.registry.Resolve(chain, domain.SymbolReserve)
	if err != nil {
		return nil, err
	}
	underlying, err := o.registry.Resolve(chain, domain.SymbolUnderlying)
	if err != nil {
		return nil, err
	}

	rate, err := o.reader.ExchangeRateStored(ctx, reserve)
	if err != nil {
		return nil, err
	}
	if rate.Sign() <= 0 {
		return nil, fmt.Errorf("%w: exchangeRateStored returned %s", domain.ErrRemoteReadFailure, rate)
	}

	exp := exchangeRateMantissa + int(underlying.Decimals) - int(reserve.Decimals)
	ratio := new(big.Rat).SetInt(rate)
	if exp >= 0 {
		ratio.Quo(ratio, new(big.Rat).SetInt(domain.Pow10(exp)))
	} else {
		ratio.Mul(ratio, new(big.Rat).SetInt(domain.Pow10(-exp)))
	}
	return ratio, nil
}
