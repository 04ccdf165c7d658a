package market

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/gd-exchange/internal/adapters/blockchain"
	"github.com/hxuan190/gd-exchange/internal/domain"
)

// PairReader reads constant-product pair state from chain.
type PairReader interface {
	// GetReserves returns ok=false when no contract lives at pair.
	GetReserves(ctx context.Context, chain domain.ChainID, pair common.Address) (blockchain.Reserves, bool, error)

	// GetPair asks the factory for a pair address; zero means none.
	GetPair(ctx context.Context, factory common.Address, a, b *domain.Asset) (common.Address, error)
}

// PairSink receives pairs discovered with liquidity.
type PairSink interface {
	SavePairBatch(pairs []*domain.Pair) error
}
