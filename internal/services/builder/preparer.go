// Package builder turns an accepted sell quote into the approve and sell
// transactions of the exchange helper contract.
package builder

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/gd-exchange/internal/adapters/blockchain"
	"github.com/hxuan190/gd-exchange/internal/domain"
	"github.com/hxuan190/gd-exchange/internal/metrics"
	"github.com/hxuan190/gd-exchange/internal/registry"
)

const (
	TxKindApprove = "approve"
	TxKindSell    = "sell"
)

// PreparedValues are the integer amounts sent on chain, as decimal strings.
type PreparedValues struct {
	Input      string `json:"input"`
	MinReturn  string `json:"minReturn"`
	MinReserve string `json:"minCDai"`
}

// TxRequest is an unsigned contract call.
type TxRequest struct {
	Kind string         `json:"kind"`
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

// Submitter signs and broadcasts a contract call. It does not retry.
type Submitter interface {
	Submit(ctx context.Context, to common.Address, data []byte) (common.Hash, error)
}

type Preparer struct {
	registry   *registry.Registry
	submitters map[domain.ChainID]Submitter
}

// NewPreparer builds a preparer. Chains without a submitter can only build
// unsigned transactions.
func NewPreparer(reg *registry.Registry, submitters map[domain.ChainID]Submitter) *Preparer {
	if submitters == nil {
		submitters = make(map[domain.ChainID]Submitter)
	}
	return &Preparer{registry: reg, submitters: submitters}
}

// Prepare converts the quote amounts into integers. Amounts are truncated
// toward zero so minimums are never rounded up.
func Prepare(quote *domain.SellInfo) (PreparedValues, error) {
	if quote == nil || len(quote.Route) == 0 {
		return PreparedValues{}, fmt.Errorf("%w: quote has an empty route", domain.ErrInsufficientLiquidity)
	}

	values := PreparedValues{
		Input:      quote.InputAmount.Quotient().String(),
		MinReturn:  quote.MinimumOutputAmount.Quotient().String(),
		MinReserve: "0",
	}
	if quote.ReserveAmount != nil {
		values.MinReserve = quote.ReserveAmount.Quotient().String()
	}

	minReserve := "0"
	if quote.ReserveAmount != nil {
		minReserve = quote.ReserveAmount.ToSignificant(6)
	}
	log.Debug().
		Str("input", quote.InputAmount.ToSignificant(6)).
		Str("minReturn", quote.MinimumOutputAmount.ToSignificant(6)).
		Str("minCDai", minReserve).
		Msg("[txBuilder] prepared values")
	return values, nil
}

func (p *Preparer) chainFor(quote *domain.SellInfo) (*registry.Chain, error) {
	if quote == nil || quote.InputAmount.Asset() == nil {
		return nil, fmt.Errorf("%w: quote has no input asset", domain.ErrInsufficientLiquidity)
	}
	chain, err := p.registry.Chain(quote.InputAmount.Asset().Chain)
	if err != nil {
		return nil, err
	}
	if chain.Contracts.ExchangeHelper == (common.Address{}) {
		return nil, fmt.Errorf("%w: no exchange helper on %s", domain.ErrUnsupportedChain, chain.ID)
	}
	return chain, nil
}

// BuildApprove lets the exchange helper move exactly the input amount of G$.
func (p *Preparer) BuildApprove(quote *domain.SellInfo) (TxRequest, error) {
	values, err := Prepare(quote)
	if err != nil {
		return TxRequest{}, err
	}
	chain, err := p.chainFor(quote)
	if err != nil {
		return TxRequest{}, err
	}
	input, _ := new(big.Int).SetString(values.Input, 10)

	data, err := blockchain.ERC20ABI.Pack("approve", chain.Contracts.ExchangeHelper, input)
	if err != nil {
		return TxRequest{}, fmt.Errorf("pack approve: %w", err)
	}
	return TxRequest{
		Kind: TxKindApprove,
		To:   chain.Token(domain.SymbolToken).Address,
		Data: data,
	}, nil
}

// BuildSell encodes sell(path, input, minCDai, minReturn, referrer) with a
// zero referrer.
func (p *Preparer) BuildSell(quote *domain.SellInfo) (TxRequest, error) {
	values, err := Prepare(quote)
	if err != nil {
		return TxRequest{}, err
	}
	chain, err := p.chainFor(quote)
	if err != nil {
		return TxRequest{}, err
	}

	input, _ := new(big.Int).SetString(values.Input, 10)
	minReserve, _ := new(big.Int).SetString(values.MinReserve, 10)
	minReturn, _ := new(big.Int).SetString(values.MinReturn, 10)

	data, err := blockchain.ExchangeHelperABI.Pack("sell",
		quote.Route.Addresses(),
		input,
		minReserve,
		minReturn,
		common.Address{},
	)
	if err != nil {
		return TxRequest{}, fmt.Errorf("pack sell: %w", err)
	}
	return TxRequest{
		Kind: TxKindSell,
		To:   chain.Contracts.ExchangeHelper,
		Data: data,
	}, nil
}

// Approve submits the approve transaction.
func (p *Preparer) Approve(ctx context.Context, quote *domain.SellInfo) (common.Hash, error) {
	tx, err := p.BuildApprove(quote)
	if err != nil {
		metrics.TransactionRequests.WithLabelValues(TxKindApprove, "submit", "error").Inc()
		return common.Hash{}, err
	}
	return p.submit(ctx, quote.InputAmount.Asset().Chain, tx)
}

// Sell submits the sell transaction. The approve must already be mined.
func (p *Preparer) Sell(ctx context.Context, quote *domain.SellInfo) (common.Hash, error) {
	tx, err := p.BuildSell(quote)
	if err != nil {
		metrics.TransactionRequests.WithLabelValues(TxKindSell, "submit", "error").Inc()
		return common.Hash{}, err
	}
	return p.submit(ctx, quote.InputAmount.Asset().Chain, tx)
}

func (p *Preparer) submit(ctx context.Context, chain domain.ChainID, tx TxRequest) (common.Hash, error) {
	submitter, ok := p.submitters[chain]
	if !ok || submitter == nil {
		metrics.TransactionRequests.WithLabelValues(tx.Kind, "submit", "error").Inc()
		return common.Hash{}, fmt.Errorf("%w on %s", ErrNoSubmitter, chain)
	}
	hash, err := submitter.Submit(ctx, tx.To, tx.Data)
	if err != nil {
		metrics.TransactionRequests.WithLabelValues(tx.Kind, "submit", "error").Inc()
		return common.Hash{}, fmt.Errorf("submit %s: %w", tx.Kind, err)
	}
	metrics.TransactionRequests.WithLabelValues(tx.Kind, "submit", "ok").Inc()
	return hash, nil
}

// CanSubmit reports whether a submitter is configured for chain.
func (p *Preparer) CanSubmit(chain domain.ChainID) bool {
	return p.submitters[chain] != nil
}
