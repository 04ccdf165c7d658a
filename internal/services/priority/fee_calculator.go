package priority

import (
	"context"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/gd-exchange/internal/adapters/blockchain"
)

// Urgency represents the priority level for a transaction
type Urgency uint8

const (
	// UrgencyLow uses p50 (median) tip - non-urgent sells
	UrgencyLow Urgency = iota
	// UrgencyMedium uses p75 tip - normal sells
	UrgencyMedium
	// UrgencyHigh uses p90 tip - time-sensitive
	UrgencyHigh
)

// feeHistoryBlocks is the number of recent blocks sampled.
const feeHistoryBlocks = 20

// minTipCap is the floor of the suggested tip (1 gwei).
var minTipCap = big.NewInt(1_000_000_000)

// FeeBackend is the subset of an ethclient used for fee discovery.
type FeeBackend interface {
	ethereum.GasPricer
	FeeHistory(ctx context.Context, blockCount uint64, lastBlock *big.Int, rewardPercentiles []float64) (*ethereum.FeeHistory, error)
}

// FeeCalculator suggests transaction fees from recent network conditions.
type FeeCalculator struct {
	backend FeeBackend
	urgency Urgency
}

func NewFeeCalculator(backend FeeBackend, urgency Urgency) *FeeCalculator {
	return &FeeCalculator{backend: backend, urgency: urgency}
}

// Fees picks EIP-1559 fees from the tip percentile of the configured urgency.
// Chains without fee history fall back to a legacy gas price.
func (f *FeeCalculator) Fees(ctx context.Context) (blockchain.TxFees, error) {
	percentile := getPercentileForUrgency(f.urgency)

	history, err := f.backend.FeeHistory(ctx, feeHistoryBlocks, nil, []float64{float64(percentile)})
	if err != nil || history == nil || len(history.BaseFee) == 0 {
		if err != nil {
			log.Debug().Err(err).Msg("[feeCalculator] fee history unavailable, using legacy gas price")
		}
		return f.legacy(ctx)
	}

	tips := make([]*big.Int, 0, len(history.Reward))
	for _, rewards := range history.Reward {
		if len(rewards) > 0 && rewards[0] != nil && rewards[0].Sign() > 0 {
			tips = append(tips, rewards[0])
		}
	}
	baseFee := history.BaseFee[len(history.BaseFee)-1]
	if baseFee == nil || baseFee.Sign() == 0 {
		return f.legacy(ctx)
	}

	tip := calculatePercentile(tips, percentile)
	if tip.Cmp(minTipCap) < 0 {
		tip = new(big.Int).Set(minTipCap)
	}

	// feeCap = 2·baseFee + tip
	feeCap := new(big.Int).Mul(baseFee, big.NewInt(2))
	feeCap.Add(feeCap, tip)

	return blockchain.TxFees{TipCap: tip, FeeCap: feeCap}, nil
}

func (f *FeeCalculator) legacy(ctx context.Context) (blockchain.TxFees, error) {
	price, err := f.backend.SuggestGasPrice(ctx)
	if err != nil {
		return blockchain.TxFees{}, err
	}
	return blockchain.TxFees{GasPrice: price}, nil
}

// getPercentileForUrgency returns the percentile to use for each urgency level
func getPercentileForUrgency(urgency Urgency) int {
	switch urgency {
	case UrgencyLow:
		return 50
	case UrgencyHigh:
		return 90
	default:
		return 75
	}
}

// calculatePercentile returns the nearest-rank value at the given percentile.
func calculatePercentile(values []*big.Int, percentile int) *big.Int {
	if len(values) == 0 {
		return new(big.Int)
	}
	sorted := make([]*big.Int, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cmp(sorted[j]) < 0 })

	if percentile <= 0 {
		return new(big.Int).Set(sorted[0])
	}
	if percentile >= 100 {
		return new(big.Int).Set(sorted[len(sorted)-1])
	}
	idx := percentile * (len(sorted) - 1) / 100
	return new(big.Int).Set(sorted[idx])
}
