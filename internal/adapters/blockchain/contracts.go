package blockchain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const erc20ABIJSON = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

const cTokenABIJSON = `[
	{"constant":true,"inputs":[],"name":"exchangeRateStored","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

const marketMakerABIJSON = `[
	{"constant":true,"inputs":[{"name":"_token","type":"address"},{"name":"_gdAmount","type":"uint256"}],"name":"sellReturn","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

const exchangeHelperABIJSON = `[
	{"inputs":[{"name":"_sellPath","type":"address[]"},{"name":"_gdAmount","type":"uint256"},{"name":"_minReturn","type":"uint256"},{"name":"_minTokenReturn","type":"uint256"},{"name":"_targetAddress","type":"address"}],"name":"sell","outputs":[{"name":"","type":"uint256"}],"stateMutability":"nonpayable","type":"function"}
]`

const contributionABIJSON = `[
	{"constant":true,"inputs":[{"name":"_marketMaker","type":"address"},{"name":"_reserve","type":"address"},{"name":"_contributer","type":"address"},{"name":"_token","type":"address"},{"name":"_gdAmount","type":"uint256"}],"name":"calculateContribution","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

const pairABIJSON = `[
	{"constant":true,"inputs":[],"name":"getReserves","outputs":[{"name":"reserve0","type":"uint112"},{"name":"reserve1","type":"uint112"},{"name":"blockTimestampLast","type":"uint32"}],"stateMutability":"view","type":"function"}
]`

const factoryABIJSON = `[
	{"constant":true,"inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"}],"name":"getPair","outputs":[{"name":"pair","type":"address"}],"stateMutability":"view","type":"function"}
]`

var (
	ERC20ABI          = mustParseABI(erc20ABIJSON)
	CTokenABI         = mustParseABI(cTokenABIJSON)
	MarketMakerABI    = mustParseABI(marketMakerABIJSON)
	ExchangeHelperABI = mustParseABI(exchangeHelperABIJSON)
	ContributionABI   = mustParseABI(contributionABIJSON)
	PairABI           = mustParseABI(pairABIJSON)
	FactoryABI        = mustParseABI(factoryABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("blockchain: invalid embedded abi: " + err.Error())
	}
	return parsed
}
