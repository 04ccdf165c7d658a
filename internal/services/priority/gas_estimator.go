package priority

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum"
)

// Gas limits
const (
	GasBufferPercent = 20
	MaxGasLimit      = 2_000_000
)

var ErrNoGasEstimate = errors.New("gas estimation returned zero")

// GasEstimator estimates the gas limit of a call with a safety buffer.
type GasEstimator struct {
	backend ethereum.GasEstimator
}

func NewGasEstimator(backend ethereum.GasEstimator) *GasEstimator {
	return &GasEstimator{backend: backend}
}

// GasLimit simulates the call and returns the buffered limit. A failed
// estimate usually means the call would revert, so it is returned as an
// error rather than replaced by a default.
func (e *GasEstimator) GasLimit(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	used, err := e.backend.EstimateGas(ctx, msg)
	if err != nil {
		return 0, fmt.Errorf("estimate gas: %w", err)
	}
	if used == 0 {
		return 0, ErrNoGasEstimate
	}
	return withBuffer(used), nil
}

func withBuffer(used uint64) uint64 {
	limit := used + used*GasBufferPercent/100
	if limit > MaxGasLimit {
		limit = MaxGasLimit
	}
	if limit < used {
		limit = used
	}
	return limit
}
