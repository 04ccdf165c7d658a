// Package market discovers the constant-product pairs a trade may route
// through and reads their live reserves.
package market

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hxuan190/gd-exchange/internal/domain"
	"github.com/hxuan190/gd-exchange/internal/registry"
)

// maxParallelReads caps concurrent reserve reads per lookup.
const maxParallelReads = 8

type Service struct {
	reader    PairReader
	sink      PairSink
	addresses *ShardedAddressMap
}

// NewService builds a pair loader. sink may be nil.
func NewService(reader PairReader, sink PairSink) *Service {
	return &Service{
		reader:    reader,
		sink:      sink,
		addresses: NewShardedAddressMap(),
	}
}

// PairAddress derives the CREATE2 address of the pair of a and b for a
// Uniswap V2 style factory.
func PairAddress(factory common.Address, initCodeHash common.Hash, a, b *domain.Asset) common.Address {
	if !a.SortsBefore(b) {
		a, b = b, a
	}
	salt := crypto.Keccak256Hash(a.Address.Bytes(), b.Address.Bytes())
	return crypto.CreateAddress2(factory, salt, initCodeHash.Bytes())
}

// Candidates lists every token pair among input, output and the chain's
// base tokens.
func Candidates(chain *registry.Chain, input, output *domain.Asset) [][2]*domain.Asset {
	tokens := []*domain.Asset{input, output}
	for _, base := range chain.Market.Bases {
		dup := false
		for _, t := range tokens {
			if t.Equal(base) {
				dup = true
				break
			}
		}
		if !dup {
			tokens = append(tokens, base)
		}
	}

	out := make([][2]*domain.Asset, 0, len(tokens)*(len(tokens)-1)/2)
	for i := 0; i < len(tokens); i++ {
		for j := i + 1; j < len(tokens); j++ {
			out = append(out, [2]*domain.Asset{tokens[i], tokens[j]})
		}
	}
	return out
}

// LoadPairs returns every candidate pair that exists and holds liquidity on
// both sides. Missing pools are skipped silently; a failed read aborts.
func (s *Service) LoadPairs(ctx context.Context, chain *registry.Chain, input, output *domain.Asset) ([]*domain.Pair, error) {
	candidates := Candidates(chain, input, output)

	var (
		mu    sync.Mutex
		pairs = make([]*domain.Pair, 0, len(candidates))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelReads)
	for _, c := range candidates {
		a, b := c[0], c[1]
		g.Go(func() error {
			pair, err := s.loadPair(gctx, chain, a, b)
			if err != nil || pair == nil {
				return err
			}
			mu.Lock()
			pairs = append(pairs, pair)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("chain", chain.ID.String()).
		Int("candidates", len(candidates)).
		Int("pairs", len(pairs)).
		Msg("[marketService] pairs loaded")

	if s.sink != nil && len(pairs) > 0 {
		if err := s.sink.SavePairBatch(pairs); err != nil {
			log.Warn().Err(err).Msg("[marketService] failed to persist pairs")
		}
	}
	return pairs, nil
}

func (s *Service) loadPair(ctx context.Context, chain *registry.Chain, a, b *domain.Asset) (*domain.Pair, error) {
	addr, err := s.resolveAddress(ctx, chain, a, b)
	if err != nil {
		return nil, err
	}
	if addr == (common.Address{}) {
		return nil, nil
	}

	reserves, ok, err := s.reader.GetReserves(ctx, chain.ID, addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	token0, token1 := a, b
	if !a.SortsBefore(b) {
		token0, token1 = b, a
	}
	pair := domain.NewPair(addr, token0, token1, reserves.Reserve0, reserves.Reserve1, chain.Market.FeeBps)
	pair.BlockTimestamp = reserves.BlockTimestamp
	if !pair.HasLiquidity() {
		return nil, nil
	}
	return pair, nil
}

func (s *Service) resolveAddress(ctx context.Context, chain *registry.Chain, a, b *domain.Asset) (common.Address, error) {
	if chain.Market.InitCodeHash != (common.Hash{}) {
		return PairAddress(chain.Market.Factory, chain.Market.InitCodeHash, a, b), nil
	}

	key := newPairKey(a, b)
	if addr, ok := s.addresses.Get(key); ok {
		return addr, nil
	}
	addr, err := s.reader.GetPair(ctx, chain.Market.Factory, a, b)
	if err != nil {
		return common.Address{}, err
	}
	// Unknown pairs may be created later, only remember existing ones.
	if addr != (common.Address{}) {
		s.addresses.Set(key, addr)
	}
	return addr, nil
}
