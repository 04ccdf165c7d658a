package http

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/gd-exchange/internal/adapters/persistence"
	"github.com/hxuan190/gd-exchange/internal/aggregator"
	"github.com/hxuan190/gd-exchange/internal/domain"
)

// SellService is the part of the aggregator the sell routes call.
type SellService interface {
	DefaultSlippage() string
	Quote(ctx context.Context, chain domain.ChainID, account common.Address, toSymbol, amount, slippage string) (*domain.SellInfo, error)
	BuildTransactions(ctx context.Context, chain domain.ChainID, account common.Address, toSymbol, amount, slippage string) (*aggregator.SellTransactions, error)
	SubmitApprove(ctx context.Context, chain domain.ChainID, toSymbol, amount, slippage string) (*aggregator.SubmittedTx, error)
	SubmitSell(ctx context.Context, chain domain.ChainID, toSymbol, amount, slippage string) (*aggregator.SubmittedTx, error)
}

type PairService interface {
	Pairs(chain domain.ChainID) ([]*persistence.StoredPair, error)
}

var (
	_ SellService = (*aggregator.Service)(nil)
	_ PairService = (*aggregator.Service)(nil)
)
