package blockchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog/log"
)

// TxFees are either EIP-1559 caps or a legacy gas price.
type TxFees struct {
	GasPrice *big.Int
	TipCap   *big.Int
	FeeCap   *big.Int
}

// Dynamic reports whether the fees describe an EIP-1559 transaction.
func (f TxFees) Dynamic() bool {
	return f.TipCap != nil && f.FeeCap != nil
}

type GasLimiter interface {
	GasLimit(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}

type FeePricer interface {
	Fees(ctx context.Context) (TxFees, error)
}

// TxBackend is the subset of an ethclient needed to send a transaction.
type TxBackend interface {
	ethereum.PendingStateReader
	ethereum.TransactionSender
	ChainID(ctx context.Context) (*big.Int, error)
}

// KeyedSubmitter signs transactions with a local key and broadcasts them.
// It does not wait for inclusion and never retries.
type KeyedSubmitter struct {
	backend TxBackend
	gas     GasLimiter
	fees    FeePricer
	key     *ecdsa.PrivateKey
	from    common.Address
}

func NewKeyedSubmitter(backend TxBackend, gas GasLimiter, fees FeePricer, hexKey string) (*KeyedSubmitter, error) {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse signer key: %w", err)
	}
	return &KeyedSubmitter{
		backend: backend,
		gas:     gas,
		fees:    fees,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// From is the address transactions are sent from.
func (s *KeyedSubmitter) From() common.Address {
	return s.from
}

func (s *KeyedSubmitter) Submit(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	chainID, err := s.backend.ChainID(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain id: %w", err)
	}
	nonce, err := s.backend.PendingNonceAt(ctx, s.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("nonce: %w", err)
	}
	gas, err := s.gas.GasLimit(ctx, ethereum.CallMsg{From: s.from, To: &to, Data: data})
	if err != nil {
		return common.Hash{}, err
	}
	fees, err := s.fees.Fees(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("fees: %w", err)
	}

	var tx *types.Transaction
	if fees.Dynamic() {
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: fees.TipCap,
			GasFeeCap: fees.FeeCap,
			Gas:       gas,
			To:        &to,
			Value:     new(big.Int),
			Data:      data,
		})
	} else {
		tx = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: fees.GasPrice,
			Gas:      gas,
			To:       &to,
			Value:    new(big.Int),
			Data:     data,
		})
	}

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign: %w", err)
	}
	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send: %w", err)
	}

	log.Info().
		Str("hash", signed.Hash().Hex()).
		Str("to", to.Hex()).
		Uint64("nonce", nonce).
		Uint64("gas", gas).
		Bool("dynamicFee", fees.Dynamic()).
		Msg("[submitter] transaction sent")
	return signed.Hash(), nil
}
