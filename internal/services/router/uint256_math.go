package router

import (
	"math/big"

	"github.com/holiman/uint256"
)

const bpsDenom = 10000

var u256BpsDenom = uint256.NewInt(bpsDenom)

// getAmountOut is the constant-product output of one hop:
//
//	out = in·(D−fee)·Rout / (Rin·D + in·(D−fee))
//
// with D = 10000. Reserves fit in uint112, so the uint256 path only falls
// back to big.Int for oversized inputs.
func getAmountOut(amountIn, reserveIn, reserveOut *big.Int, feeBps uint16) *big.Int {
	if amountIn.Sign() <= 0 || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return new(big.Int)
	}

	in, overflowIn := uint256.FromBig(amountIn)
	rIn, overflowRIn := uint256.FromBig(reserveIn)
	rOut, overflowROut := uint256.FromBig(reserveOut)
	if !overflowIn && !overflowRIn && !overflowROut {
		if out, ok := getAmountOutU256(in, rIn, rOut, feeBps); ok {
			return out.ToBig()
		}
	}
	return getAmountOutBig(amountIn, reserveIn, reserveOut, feeBps)
}

func getAmountOutU256(in, rIn, rOut *uint256.Int, feeBps uint16) (*uint256.Int, bool) {
	feeMul := uint256.NewInt(uint64(bpsDenom - uint64(feeBps)))

	inWithFee, overflow := new(uint256.Int).MulOverflow(in, feeMul)
	if overflow {
		return nil, false
	}
	numerator, overflow := new(uint256.Int).MulOverflow(inWithFee, rOut)
	if overflow {
		return nil, false
	}
	denominator, overflow := new(uint256.Int).MulOverflow(rIn, u256BpsDenom)
	if overflow {
		return nil, false
	}
	denominator, overflow = new(uint256.Int).AddOverflow(denominator, inWithFee)
	if overflow || denominator.IsZero() {
		return nil, false
	}
	return numerator.Div(numerator, denominator), true
}

func getAmountOutBig(in, rIn, rOut *big.Int, feeBps uint16) *big.Int {
	inWithFee := new(big.Int).Mul(in, big.NewInt(int64(bpsDenom-int(feeBps))))
	numerator := new(big.Int).Mul(inWithFee, rOut)
	denominator := new(big.Int).Mul(rIn, big.NewInt(bpsDenom))
	denominator.Add(denominator, inWithFee)
	return numerator.Quo(numerator, denominator)
}

// feeFraction returns fee/D as a rational.
func feeFraction(feeBps uint16) *big.Rat {
	return big.NewRat(int64(feeBps), bpsDenom)
}
