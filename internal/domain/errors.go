package domain

import "errors"

// Failure kinds of the sell flow. A missing quote is not one of them: it is
// reported as a nil result with a nil error.
var (
	ErrUnsupportedChain      = errors.New("unsupported chain")
	ErrUnsupportedToken      = errors.New("unsupported token")
	ErrUnexpectedAsset       = errors.New("unexpected asset")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrRemoteReadFailure     = errors.New("remote read failure")

	// ErrInvalidInput marks malformed caller input such as an amount or
	// slippage that does not parse.
	ErrInvalidInput = errors.New("invalid input")
)
