package blockchain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/gd-exchange/internal/domain"
)

// fakeCaller answers contract calls by method selector.
type fakeCaller struct {
	responses map[string][]byte
	err       error
	lastMsg   ethereum.CallMsg
}

func (f *fakeCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.lastMsg = msg
	if f.err != nil {
		return nil, f.err
	}
	return f.responses[string(msg.Data[:4])], nil
}

func (f *fakeCaller) respond(t *testing.T, contract abi.ABI, method string, values ...interface{}) {
	t.Helper()
	m := contract.Methods[method]
	out, err := m.Outputs.Pack(values...)
	require.NoError(t, err)
	if f.responses == nil {
		f.responses = make(map[string][]byte)
	}
	f.responses[string(m.ID)] = out
}

var (
	testCDAI = domain.NewAsset(domain.ChainMainnet, common.HexToAddress("0x5d3a536E4D6DbD6114cc1Ead35777bAB948E3643"), domain.SymbolReserve, 8)
	testGD   = domain.NewAsset(domain.ChainMainnet, common.HexToAddress("0x67C5870b4A41D4Ebef24d2456547A03F1f3e094B"), domain.SymbolToken, 2)
)

func newTestReader(c *fakeCaller) *Reader {
	return NewReader(map[domain.ChainID]ethereum.ContractCaller{domain.ChainMainnet: c})
}

func TestReaderExchangeRateStored(t *testing.T) {
	caller := &fakeCaller{}
	rate, _ := new(big.Int).SetString("216000000000000000000000000", 10)
	caller.respond(t, CTokenABI, "exchangeRateStored", rate)

	got, err := newTestReader(caller).ExchangeRateStored(context.Background(), testCDAI)
	require.NoError(t, err)
	assert.Equal(t, rate.String(), got.String())
	assert.Equal(t, testCDAI.Address, *caller.lastMsg.To)
}

func TestReaderSellReturnEncodesArguments(t *testing.T) {
	caller := &fakeCaller{}
	caller.respond(t, MarketMakerABI, "sellReturn", big.NewInt(2_000_000_000))
	marketMaker := common.HexToAddress("0x00000000000000000000000000000000000000a1")

	got, err := newTestReader(caller).SellReturn(context.Background(), marketMaker, testCDAI, big.NewInt(5000))
	require.NoError(t, err)
	assert.Equal(t, int64(2_000_000_000), got.Int64())
	assert.Equal(t, marketMaker, *caller.lastMsg.To)

	args, err := MarketMakerABI.Methods["sellReturn"].Inputs.Unpack(caller.lastMsg.Data[4:])
	require.NoError(t, err)
	assert.Equal(t, testCDAI.Address, args[0].(common.Address))
	assert.Equal(t, int64(5000), args[1].(*big.Int).Int64())
}

func TestReaderGetReserves(t *testing.T) {
	pair := common.HexToAddress("0xA478c2975Ab1Ea89e8196811F51A7B7Ade33eB11")

	t.Run("existing pool", func(t *testing.T) {
		caller := &fakeCaller{}
		caller.respond(t, PairABI, "getReserves", big.NewInt(100), big.NewInt(200), uint32(1700000000))

		r, ok, err := newTestReader(caller).GetReserves(context.Background(), domain.ChainMainnet, pair)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(100), r.Reserve0.Int64())
		assert.Equal(t, int64(200), r.Reserve1.Int64())
		assert.Equal(t, uint32(1700000000), r.BlockTimestamp)
	})

	t.Run("no contract", func(t *testing.T) {
		_, ok, err := newTestReader(&fakeCaller{}).GetReserves(context.Background(), domain.ChainMainnet, pair)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestReaderGetPair(t *testing.T) {
	caller := &fakeCaller{}
	want := common.HexToAddress("0x00000000000000000000000000000000000000b1")
	caller.respond(t, FactoryABI, "getPair", want)

	got, err := newTestReader(caller).GetPair(context.Background(), common.HexToAddress("0x01"), testGD, testCDAI)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReaderFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("rpc error", func(t *testing.T) {
		caller := &fakeCaller{err: errors.New("connection refused")}
		_, err := newTestReader(caller).BalanceOf(ctx, testGD, common.Address{})
		assert.True(t, errors.Is(err, domain.ErrRemoteReadFailure))
	})

	t.Run("empty return on uint call", func(t *testing.T) {
		_, err := newTestReader(&fakeCaller{}).ExchangeRateStored(ctx, testCDAI)
		assert.True(t, errors.Is(err, domain.ErrRemoteReadFailure))
	})

	t.Run("no endpoint", func(t *testing.T) {
		fuseGD := domain.NewAsset(domain.ChainFuse, testGD.Address, domain.SymbolToken, 2)
		_, err := newTestReader(&fakeCaller{}).BalanceOf(ctx, fuseGD, common.Address{})
		assert.True(t, errors.Is(err, domain.ErrUnsupportedChain))
	})
}
