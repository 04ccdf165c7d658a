package exchange

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/gd-exchange/internal/domain"
	"github.com/hxuan190/gd-exchange/internal/services/reserve"
	"github.com/hxuan190/gd-exchange/internal/services/router"
)

// Wallet identifies who is selling and on which chain.
type Wallet struct {
	ChainID domain.ChainID
	Account common.Address
}

// RouteFinder finds pooled-market trades.
type RouteFinder interface {
	FindRoute(ctx context.Context, input domain.Amount, output *domain.Asset) (*router.Trade, error)
}

// ReserveConverter performs the bonding-curve legs.
type ReserveConverter interface {
	TokenToReserve(ctx context.Context, amount domain.Amount, slippage domain.Percent) (reserve.Leg, error)
	ReserveToUnderlying(ctx context.Context, amount domain.Amount) (domain.Amount, error)
	ReserveLegToUnderlying(ctx context.Context, leg reserve.Leg) (reserve.Leg, error)
}

// ContributionCalculator returns the exit contribution ratio charged when
// account sells input.
type ContributionCalculator interface {
	ExitContribution(ctx context.Context, account common.Address, input domain.Amount) (domain.Percent, error)
}

type BalanceReader interface {
	BalanceOf(ctx context.Context, token *domain.Asset, owner common.Address) (*big.Int, error)
}

// RatioInvalidator drops cached reserve ratios.
type RatioInvalidator interface {
	Invalidate()
}
