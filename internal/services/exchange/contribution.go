package exchange

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/gd-exchange/internal/domain"
	"github.com/hxuan190/gd-exchange/internal/registry"
)

// ContributionReader reads calculateContribution from the chain's
// contribution contract.
type ContributionReader interface {
	CalculateContribution(ctx context.Context, calculator, marketMaker, reserve, contributor common.Address, token *domain.Asset, gdAmount *big.Int) (*big.Int, error)
}

// OnChainContribution turns the G$ amount withheld by the contribution
// contract into a ratio of the input.
type OnChainContribution struct {
	registry *registry.Registry
	reader   ContributionReader
}

func NewOnChainContribution(reg *registry.Registry, reader ContributionReader) *OnChainContribution {
	return &OnChainContribution{registry: reg, reader: reader}
}

func (c *OnChainContribution) ExitContribution(ctx context.Context, account common.Address, input domain.Amount) (domain.Percent, error) {
	raw := input.Quotient()
	if raw.Sign() == 0 {
		return domain.ZeroPercent(), nil
	}
	chain, err := c.registry.Chain(input.Asset().Chain)
	if err != nil {
		return domain.Percent{}, err
	}
	reserveToken := chain.Token(domain.SymbolReserve)
	if reserveToken == nil {
		return domain.Percent{}, domain.ErrUnsupportedToken
	}

	withheld, err := c.reader.CalculateContribution(ctx,
		chain.Contracts.ContributionCalculation,
		chain.Contracts.MarketMaker,
		chain.Contracts.Reserve,
		account,
		reserveToken,
		raw,
	)
	if err != nil {
		return domain.Percent{}, err
	}
	return domain.NewPercentFromRat(new(big.Rat).SetFrac(withheld, raw)), nil
}
