package priority

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
)

func gwei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000))
}

func TestWithBuffer(t *testing.T) {
	tests := []struct {
		name string
		used uint64
		want uint64
	}{
		{name: "approve", used: 46_000, want: 55_200},
		{name: "sell", used: 350_000, want: 420_000},
		{name: "capped", used: 1_900_000, want: MaxGasLimit},
		{name: "above cap keeps estimate", used: 2_500_000, want: 2_500_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := withBuffer(tt.used); got != tt.want {
				t.Errorf("withBuffer(%d) = %d, want %d", tt.used, got, tt.want)
			}
		})
	}
}

type fakeGasBackend struct {
	gas uint64
	err error
}

func (f fakeGasBackend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return f.gas, f.err
}

func TestGasLimit(t *testing.T) {
	ctx := context.Background()

	limit, err := NewGasEstimator(fakeGasBackend{gas: 100_000}).GasLimit(ctx, ethereum.CallMsg{})
	if err != nil || limit != 120_000 {
		t.Errorf("GasLimit = %d, %v; want 120000", limit, err)
	}

	revert := errors.New("execution reverted")
	if _, err := NewGasEstimator(fakeGasBackend{err: revert}).GasLimit(ctx, ethereum.CallMsg{}); !errors.Is(err, revert) {
		t.Errorf("err = %v, want %v", err, revert)
	}

	if _, err := NewGasEstimator(fakeGasBackend{}).GasLimit(ctx, ethereum.CallMsg{}); !errors.Is(err, ErrNoGasEstimate) {
		t.Errorf("err = %v, want ErrNoGasEstimate", err)
	}
}

func TestCalculatePercentile(t *testing.T) {
	values := []*big.Int{big.NewInt(50), big.NewInt(10), big.NewInt(40), big.NewInt(20), big.NewInt(30)}

	tests := []struct {
		percentile int
		want       int64
	}{
		{0, 10},
		{50, 30},
		{75, 40},
		{90, 40},
		{100, 50},
	}
	for _, tt := range tests {
		if got := calculatePercentile(values, tt.percentile); got.Int64() != tt.want {
			t.Errorf("p%d = %s, want %d", tt.percentile, got, tt.want)
		}
	}

	if got := calculatePercentile(nil, 50); got.Sign() != 0 {
		t.Errorf("empty = %s, want 0", got)
	}
	if values[0].Int64() != 50 {
		t.Error("input slice was reordered")
	}
}

type fakeFeeBackend struct {
	history  *ethereum.FeeHistory
	histErr  error
	gasPrice *big.Int
}

func (f fakeFeeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return f.gasPrice, nil
}

func (f fakeFeeBackend) FeeHistory(ctx context.Context, blockCount uint64, lastBlock *big.Int, rewardPercentiles []float64) (*ethereum.FeeHistory, error) {
	return f.history, f.histErr
}

func TestFeesDynamic(t *testing.T) {
	backend := fakeFeeBackend{history: &ethereum.FeeHistory{
		BaseFee: []*big.Int{gwei(20), gwei(30)},
		Reward:  [][]*big.Int{{gwei(2)}, {gwei(3)}, {gwei(4)}},
	}}

	fees, err := NewFeeCalculator(backend, UrgencyMedium).Fees(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !fees.Dynamic() {
		t.Fatal("expected dynamic fees")
	}
	// p75 of {2,3,4} by nearest rank is 3 gwei
	if fees.TipCap.Cmp(gwei(3)) != 0 {
		t.Errorf("tip = %s, want 3 gwei", fees.TipCap)
	}
	if want := gwei(63); fees.FeeCap.Cmp(want) != 0 {
		t.Errorf("feeCap = %s, want %s", fees.FeeCap, want)
	}
}

func TestFeesTipFloor(t *testing.T) {
	backend := fakeFeeBackend{history: &ethereum.FeeHistory{
		BaseFee: []*big.Int{gwei(10)},
		Reward:  [][]*big.Int{{big.NewInt(5)}},
	}}

	fees, err := NewFeeCalculator(backend, UrgencyLow).Fees(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if fees.TipCap.Cmp(minTipCap) != 0 {
		t.Errorf("tip = %s, want floor %s", fees.TipCap, minTipCap)
	}
}

func TestFeesLegacyFallback(t *testing.T) {
	backend := fakeFeeBackend{histErr: errors.New("method not found"), gasPrice: gwei(11)}

	fees, err := NewFeeCalculator(backend, UrgencyHigh).Fees(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if fees.Dynamic() {
		t.Fatal("expected legacy fees")
	}
	if fees.GasPrice.Cmp(gwei(11)) != 0 {
		t.Errorf("gasPrice = %s", fees.GasPrice)
	}
}
