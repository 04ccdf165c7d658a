package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	gohttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/gd-exchange/internal/adapters/persistence"
	"github.com/hxuan190/gd-exchange/internal/aggregator"
	"github.com/hxuan190/gd-exchange/internal/config"
	"github.com/hxuan190/gd-exchange/internal/domain"
	"github.com/hxuan190/gd-exchange/internal/http/httputil"
	"github.com/hxuan190/gd-exchange/internal/http/middlewares"
	"github.com/hxuan190/gd-exchange/internal/registry/registrytest"
	"github.com/hxuan190/gd-exchange/internal/services/builder"
)

const testAdminKey = "s3cret"

type fakeSellService struct {
	quote     *domain.SellInfo
	txs       *aggregator.SellTransactions
	submitted *aggregator.SubmittedTx
	pairs     []*persistence.StoredPair
	err       error

	calls        int
	lastChain    domain.ChainID
	lastAccount  common.Address
	lastTo       string
	lastAmount   string
	lastSlippage string
	lastKind     string
}

func (f *fakeSellService) record(chain domain.ChainID, account common.Address, to, amount, slippage string) {
	f.calls++
	f.lastChain, f.lastAccount, f.lastTo, f.lastAmount, f.lastSlippage = chain, account, to, amount, slippage
}

func (f *fakeSellService) DefaultSlippage() string { return "0.5" }

func (f *fakeSellService) Quote(ctx context.Context, chain domain.ChainID, account common.Address, toSymbol, amount, slippage string) (*domain.SellInfo, error) {
	f.record(chain, account, toSymbol, amount, slippage)
	return f.quote, f.err
}

func (f *fakeSellService) BuildTransactions(ctx context.Context, chain domain.ChainID, account common.Address, toSymbol, amount, slippage string) (*aggregator.SellTransactions, error) {
	f.record(chain, account, toSymbol, amount, slippage)
	return f.txs, f.err
}

func (f *fakeSellService) SubmitApprove(ctx context.Context, chain domain.ChainID, toSymbol, amount, slippage string) (*aggregator.SubmittedTx, error) {
	f.record(chain, common.Address{}, toSymbol, amount, slippage)
	f.lastKind = builder.TxKindApprove
	return f.submitted, f.err
}

func (f *fakeSellService) SubmitSell(ctx context.Context, chain domain.ChainID, toSymbol, amount, slippage string) (*aggregator.SubmittedTx, error) {
	f.record(chain, common.Address{}, toSymbol, amount, slippage)
	f.lastKind = builder.TxKindSell
	return f.submitted, f.err
}

func (f *fakeSellService) Pairs(chain domain.ChainID) ([]*persistence.StoredPair, error) {
	f.lastChain = chain
	return f.pairs, f.err
}

func newTestRouter(svc *fakeSellService, adminKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &HTTPService{
		conf:        &config.GeneralConfig{Env: config.DevEnv, AdminAPIKey: adminKey},
		rateLimiter: middlewares.NewRateLimiter(1000, 1000),
		handlers: []httputil.IHttpHandler{
			NewSellHandler(svc),
			NewPairHandler(svc),
		},
	}
	return h.Router()
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func do(t *testing.T, r *gin.Engine, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return w, env
}

func sampleQuote() *domain.SellInfo {
	minOut := domain.NewAmountFromRaw(registrytest.DAI, big.NewInt(429_840_000_000_000_000))
	return &domain.SellInfo{
		InputAmount:         domain.NewAmountFromRaw(registrytest.GD, big.NewInt(5000)),
		OutputAmount:        domain.NewAmountFromRaw(registrytest.DAI, big.NewInt(432_000_000_000_000_000)),
		MinimumOutputAmount: minOut,
		GDXAmount:           domain.NewAmountFromRaw(registrytest.GDX, big.NewInt(3000)),
		PriceImpact:         domain.ZeroPercent(),
		SlippageTolerance:   domain.NewPercent(5, 1000),
		Contribution:        domain.NewPercent(10, 100),
		LiquidityFee:        domain.ZeroAmount(registrytest.DAI),
		LiquidityToken:      registrytest.DAI,
		Route:               domain.Route{registrytest.DAI},
	}
}

func TestQuoteRouteWithoutQuote(t *testing.T) {
	svc := &fakeSellService{}
	r := newTestRouter(svc, testAdminKey)

	w, env := do(t, r, gohttp.MethodGet, "/api/v1/sell/quote?chainId=1&to=DAI&amount=50", nil, nil)

	assert.Equal(t, gohttp.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"available":false,"priceImpactBps":0}`, string(env.Data))
	assert.Equal(t, domain.ChainMainnet, svc.lastChain)
	assert.Equal(t, "DAI", svc.lastTo)
	assert.Equal(t, "50", svc.lastAmount)
	assert.Equal(t, "0.5", svc.lastSlippage, "default slippage is used when omitted")
}

func TestQuoteRouteWithQuote(t *testing.T) {
	account := "0x000000000000000000000000000000000000bEEF"
	svc := &fakeSellService{quote: sampleQuote()}
	r := newTestRouter(svc, testAdminKey)

	w, env := do(t, r, gohttp.MethodGet, "/api/v1/sell/quote?chainId=1&to=DAI&amount=50&slippage=1&account="+account, nil, nil)
	require.Equal(t, gohttp.StatusOK, w.Code)

	var resp QuoteResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.True(t, resp.Available)
	require.NotNil(t, resp.OutputAmount)
	assert.Equal(t, "0.432", resp.OutputAmount.Value)
	assert.Equal(t, []string{"DAI"}, resp.RouteSymbols)
	assert.Equal(t, "1", svc.lastSlippage)
	assert.Equal(t, common.HexToAddress(account), svc.lastAccount)
}

func TestQuoteRouteRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "missing amount", query: "chainId=1&to=DAI"},
		{name: "missing destination", query: "chainId=1&amount=50"},
		{name: "non numeric chain", query: "chainId=main&to=DAI&amount=50"},
		{name: "bad account", query: "chainId=1&to=DAI&amount=50&account=0x12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeSellService{}
			r := newTestRouter(svc, testAdminKey)

			w, env := do(t, r, gohttp.MethodGet, "/api/v1/sell/quote?"+tt.query, nil, nil)
			assert.Equal(t, gohttp.StatusBadRequest, w.Code)
			assert.False(t, env.Success)
			assert.Zero(t, svc.calls)
		})
	}
}

func TestQuoteRouteErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid amount", err: fmt.Errorf("%w: amount %q", domain.ErrInvalidInput, "1e99999"), want: gohttp.StatusBadRequest},
		{name: "unsupported chain", err: fmt.Errorf("%w: 5", domain.ErrUnsupportedChain), want: gohttp.StatusNotFound},
		{name: "unsupported token", err: fmt.Errorf("%w: XYZ", domain.ErrUnsupportedToken), want: gohttp.StatusNotFound},
		{name: "insufficient liquidity", err: domain.ErrInsufficientLiquidity, want: gohttp.StatusUnprocessableEntity},
		{name: "remote read failure", err: fmt.Errorf("%w: rpc down", domain.ErrRemoteReadFailure), want: gohttp.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&fakeSellService{err: tt.err}, testAdminKey)

			w, env := do(t, r, gohttp.MethodGet, "/api/v1/sell/quote?chainId=1&to=DAI&amount=50", nil, nil)
			assert.Equal(t, tt.want, w.Code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestTransactionsRoute(t *testing.T) {
	body := map[string]interface{}{"chainId": 1, "to": "DAI", "amount": "50"}

	t.Run("no quote", func(t *testing.T) {
		r := newTestRouter(&fakeSellService{}, testAdminKey)

		w, env := do(t, r, gohttp.MethodPost, "/api/v1/sell/transactions", body, nil)
		require.Equal(t, gohttp.StatusOK, w.Code)
		assert.JSONEq(t, `{"quote":{"available":false,"priceImpactBps":0}}`, string(env.Data))
	})

	t.Run("calls built", func(t *testing.T) {
		svc := &fakeSellService{txs: &aggregator.SellTransactions{
			Quote:   sampleQuote(),
			Values:  builder.PreparedValues{Input: "5000", MinReturn: "429840000000000000", MinReserve: "0"},
			Approve: builder.TxRequest{Kind: builder.TxKindApprove, To: registrytest.GD.Address, Data: []byte{0x09, 0x5e, 0xa7, 0xb3}},
			Sell:    builder.TxRequest{Kind: builder.TxKindSell, To: registrytest.ExchangeHelper, Data: []byte{0x01}},
		}}
		r := newTestRouter(svc, testAdminKey)

		w, env := do(t, r, gohttp.MethodPost, "/api/v1/sell/transactions", body, nil)
		require.Equal(t, gohttp.StatusOK, w.Code)

		var resp TransactionsResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.True(t, resp.Quote.Available)
		require.NotNil(t, resp.Values)
		assert.Equal(t, "429840000000000000", resp.Values.MinReturn)
		require.NotNil(t, resp.Approve)
		require.NotNil(t, resp.Sell)
		assert.Equal(t, builder.TxKindApprove, resp.Approve.Kind)
		assert.Equal(t, registrytest.ExchangeHelper, resp.Sell.To)
	})

	t.Run("remote read failure", func(t *testing.T) {
		r := newTestRouter(&fakeSellService{err: domain.ErrRemoteReadFailure}, testAdminKey)

		w, _ := do(t, r, gohttp.MethodPost, "/api/v1/sell/transactions", body, nil)
		assert.Equal(t, gohttp.StatusBadGateway, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		r := newTestRouter(&fakeSellService{}, testAdminKey)

		w, _ := do(t, r, gohttp.MethodPost, "/api/v1/sell/transactions", map[string]interface{}{"chainId": 1}, nil)
		assert.Equal(t, gohttp.StatusBadRequest, w.Code)
	})
}

func TestAdminSubmitRoutes(t *testing.T) {
	body := map[string]interface{}{"chainId": 1, "to": "DAI", "amount": "50"}
	hash := common.HexToHash("0xabc")

	tests := []struct {
		name     string
		path     string
		adminKey string
		header   string
		svc      *fakeSellService
		want     int
		wantKind string
	}{
		{
			name: "approve", path: "/api/v1/admin/sell/approve", adminKey: testAdminKey, header: testAdminKey,
			svc:  &fakeSellService{submitted: &aggregator.SubmittedTx{Quote: sampleQuote(), Kind: builder.TxKindApprove, Hash: hash}},
			want: gohttp.StatusOK, wantKind: builder.TxKindApprove,
		},
		{
			name: "submit", path: "/api/v1/admin/sell/submit", adminKey: testAdminKey, header: testAdminKey,
			svc:  &fakeSellService{submitted: &aggregator.SubmittedTx{Quote: sampleQuote(), Kind: builder.TxKindSell, Hash: hash}},
			want: gohttp.StatusOK, wantKind: builder.TxKindSell,
		},
		{
			name: "wrong key", path: "/api/v1/admin/sell/submit", adminKey: testAdminKey, header: "nope",
			svc: &fakeSellService{}, want: gohttp.StatusUnauthorized,
		},
		{
			name: "admin disabled", path: "/api/v1/admin/sell/approve", adminKey: "", header: "",
			svc: &fakeSellService{}, want: gohttp.StatusForbidden,
		},
		{
			name: "no submitter", path: "/api/v1/admin/sell/submit", adminKey: testAdminKey, header: testAdminKey,
			svc: &fakeSellService{err: builder.ErrNoSubmitter}, want: gohttp.StatusServiceUnavailable, wantKind: builder.TxKindSell,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(tt.svc, tt.adminKey)

			w, env := do(t, r, gohttp.MethodPost, tt.path, body, map[string]string{middlewares.AdminKeyHeader: tt.header})
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.wantKind, tt.svc.lastKind)
			if tt.want != gohttp.StatusOK {
				return
			}
			var resp SubmitResponse
			require.NoError(t, json.Unmarshal(env.Data, &resp))
			assert.Equal(t, hash.Hex(), resp.Hash)
			assert.Equal(t, tt.wantKind, resp.Kind)
			assert.True(t, resp.Quote.Available)
		})
	}
}

func TestPairListRoute(t *testing.T) {
	t.Run("lists stored pairs", func(t *testing.T) {
		svc := &fakeSellService{pairs: []*persistence.StoredPair{{
			Address:  "0x0000000000000000000000000000000000000c01",
			ChainID:  uint64(domain.ChainFuse),
			Token0:   persistence.StoredToken{Address: registrytest.FuseGD.Address.Hex(), Symbol: "G$", Decimals: 2},
			Token1:   persistence.StoredToken{Address: registrytest.FuseETH.Address.Hex(), Symbol: "ETH", Decimals: 18},
			Reserve0: "100000000",
			Reserve1: "1000000000000000000000",
			FeeBps:   30,
		}}}
		r := newTestRouter(svc, testAdminKey)

		w, env := do(t, r, gohttp.MethodGet, "/api/v1/pairs/list?chainId=122", nil, nil)
		require.Equal(t, gohttp.StatusOK, w.Code)

		var resp struct {
			Pairs []PairInfo `json:"pairs"`
			Count int        `json:"count"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, 1, resp.Count)
		assert.Equal(t, "G$", resp.Pairs[0].Symbol0)
		assert.Equal(t, domain.ChainFuse, svc.lastChain)
	})

	t.Run("persistence disabled", func(t *testing.T) {
		r := newTestRouter(&fakeSellService{err: aggregator.ErrPersistenceDisabled}, testAdminKey)

		w, _ := do(t, r, gohttp.MethodGet, "/api/v1/pairs/list?chainId=122", nil, nil)
		assert.Equal(t, gohttp.StatusServiceUnavailable, w.Code)
	})

	t.Run("unsupported chain", func(t *testing.T) {
		r := newTestRouter(&fakeSellService{err: domain.ErrUnsupportedChain}, testAdminKey)

		w, _ := do(t, r, gohttp.MethodGet, "/api/v1/pairs/list?chainId=5", nil, nil)
		assert.Equal(t, gohttp.StatusNotFound, w.Code)
	})
}
