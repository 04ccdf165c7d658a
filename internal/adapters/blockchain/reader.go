package blockchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/gd-exchange/internal/domain"
	"github.com/hxuan190/gd-exchange/internal/metrics"
)

// Reserves is the decoded result of a pair's getReserves call.
type Reserves struct {
	Reserve0       *big.Int
	Reserve1       *big.Int
	BlockTimestamp uint32
}

// Reader performs read-only contract calls against the configured chains.
type Reader struct {
	callers map[domain.ChainID]ethereum.ContractCaller
}

func NewReader(callers map[domain.ChainID]ethereum.ContractCaller) *Reader {
	return &Reader{callers: callers}
}

func (r *Reader) caller(chain domain.ChainID) (ethereum.ContractCaller, error) {
	c, ok := r.callers[chain]
	if !ok || c == nil {
		return nil, fmt.Errorf("%w: no rpc endpoint for %s", domain.ErrUnsupportedChain, chain)
	}
	return c, nil
}

// call packs, executes and returns the raw return data of a view method.
func (r *Reader) call(ctx context.Context, chain domain.ChainID, to common.Address, contract abi.ABI, method string, args ...interface{}) ([]byte, error) {
	c, err := r.caller(chain)
	if err != nil {
		return nil, err
	}
	input, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	out, err := c.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		metrics.RemoteReads.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("%w: %s on %s: %v", domain.ErrRemoteReadFailure, method, to.Hex(), err)
	}
	metrics.RemoteReads.WithLabelValues(method, "ok").Inc()
	return out, nil
}

func (r *Reader) callUint(ctx context.Context, chain domain.ChainID, to common.Address, contract abi.ABI, method string, args ...interface{}) (*big.Int, error) {
	out, err := r.call(ctx, chain, to, contract, method, args...)
	if err != nil {
		return nil, err
	}
	values, err := contract.Unpack(method, out)
	if err != nil || len(values) == 0 {
		return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrRemoteReadFailure, method, err)
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: decode %s: unexpected type %T", domain.ErrRemoteReadFailure, method, values[0])
	}
	return v, nil
}

// ExchangeRateStored reads the scaled exchange rate of a cToken.
func (r *Reader) ExchangeRateStored(ctx context.Context, cToken *domain.Asset) (*big.Int, error) {
	return r.callUint(ctx, cToken.Chain, cToken.Address, CTokenABI, "exchangeRateStored")
}

// SellReturn asks the bonding-curve market maker how much of token a raw G$
// amount is worth.
func (r *Reader) SellReturn(ctx context.Context, marketMaker common.Address, token *domain.Asset, gdAmount *big.Int) (*big.Int, error) {
	return r.callUint(ctx, token.Chain, marketMaker, MarketMakerABI, "sellReturn", token.Address, gdAmount)
}

func (r *Reader) BalanceOf(ctx context.Context, token *domain.Asset, owner common.Address) (*big.Int, error) {
	return r.callUint(ctx, token.Chain, token.Address, ERC20ABI, "balanceOf", owner)
}

// CalculateContribution returns the raw G$ amount withheld as exit
// contribution when contributor sells gdAmount.
func (r *Reader) CalculateContribution(ctx context.Context, calculator, marketMaker, reserve, contributor common.Address, token *domain.Asset, gdAmount *big.Int) (*big.Int, error) {
	return r.callUint(ctx, token.Chain, calculator, ContributionABI, "calculateContribution",
		marketMaker, reserve, contributor, token.Address, gdAmount)
}

// GetReserves reads a pair's reserves. ok is false when the address holds no
// contract, which is how a missing pool looks from outside.
func (r *Reader) GetReserves(ctx context.Context, chain domain.ChainID, pair common.Address) (Reserves, bool, error) {
	out, err := r.call(ctx, chain, pair, PairABI, "getReserves")
	if err != nil {
		return Reserves{}, false, err
	}
	if len(out) == 0 {
		return Reserves{}, false, nil
	}
	values, err := PairABI.Unpack("getReserves", out)
	if err != nil || len(values) != 3 {
		return Reserves{}, false, fmt.Errorf("%w: decode getReserves: %v", domain.ErrRemoteReadFailure, err)
	}
	r0, ok0 := values[0].(*big.Int)
	r1, ok1 := values[1].(*big.Int)
	ts, ok2 := values[2].(uint32)
	if !ok0 || !ok1 || !ok2 {
		return Reserves{}, false, fmt.Errorf("%w: decode getReserves: unexpected types", domain.ErrRemoteReadFailure)
	}
	return Reserves{Reserve0: r0, Reserve1: r1, BlockTimestamp: ts}, true, nil
}

// GetPair asks the factory for the pair of two tokens. A zero address means
// the pair was never created.
func (r *Reader) GetPair(ctx context.Context, factory common.Address, a, b *domain.Asset) (common.Address, error) {
	out, err := r.call(ctx, a.Chain, factory, FactoryABI, "getPair", a.Address, b.Address)
	if err != nil {
		return common.Address{}, err
	}
	if len(out) == 0 {
		return common.Address{}, nil
	}
	values, err := FactoryABI.Unpack("getPair", out)
	if err != nil || len(values) == 0 {
		return common.Address{}, fmt.Errorf("%w: decode getPair: %v", domain.ErrRemoteReadFailure, err)
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: decode getPair: unexpected type %T", domain.ErrRemoteReadFailure, values[0])
	}
	return addr, nil
}
