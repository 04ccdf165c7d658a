package http

import (
	"errors"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/gd-exchange/internal/aggregator"
	appcommon "github.com/hxuan190/gd-exchange/internal/common"
	"github.com/hxuan190/gd-exchange/internal/domain"
	"github.com/hxuan190/gd-exchange/internal/http/httputil"
	"github.com/hxuan190/gd-exchange/internal/services/builder"
	"github.com/hxuan190/gd-exchange/internal/services/router"
)

type SellHandler struct {
	aggregatorSvc SellService
}

func NewSellHandler(aggregatorSvc SellService) *SellHandler {
	return &SellHandler{aggregatorSvc: aggregatorSvc}
}

func (h *SellHandler) SetRoutes(pub *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/quote", h.getQuote)
	pub.POST("/transactions", h.buildTransactions)
	admin.POST("/approve", h.submitApprove)
	admin.POST("/submit", h.submitSell)
}

func (h *SellHandler) Root() string {
	return "/sell"
}

// QuoteRequest carries the parameters of a sell quote
type QuoteRequest struct {
	// Chain id, e.g. 122 for Fuse or 1 for Ethereum mainnet
	ChainID uint64 `form:"chainId" json:"chainId" binding:"required"`

	// Selling account; only used for exit contribution and GDX balance
	Account string `form:"account" json:"account"`

	// Destination token symbol, e.g. "DAI", "cDAI", "USDC"
	To string `form:"to" json:"to" binding:"required"`

	// G$ amount in human units, e.g. "100" or "12.5"
	Amount string `form:"amount" json:"amount" binding:"required"`

	// Slippage tolerance in percent, e.g. "0.5". Defaults to the server setting
	Slippage string `form:"slippage" json:"slippage"`
}

// AmountView is an amount in both raw integer and human form
type AmountView struct {
	Symbol  string `json:"symbol"`
	Address string `json:"address"`
	Raw     string `json:"raw"`
	Value   string `json:"value"`
}

// QuoteResponse is the sell quote as served over HTTP
type QuoteResponse struct {
	Available bool `json:"available"`

	InputAmount         *AmountView `json:"inputAmount,omitempty"`
	OutputAmount        *AmountView `json:"outputAmount,omitempty"`
	MinimumOutputAmount *AmountView `json:"minimumOutputAmount,omitempty"`
	DAIAmount           *AmountView `json:"daiAmount,omitempty"`
	CDAIAmount          *AmountView `json:"cdaiAmount,omitempty"`
	GDXAmount           *AmountView `json:"gdxAmount,omitempty"`
	LiquidityFee        *AmountView `json:"liquidityFee,omitempty"`
	LiquidityToken      string      `json:"liquidityToken,omitempty"`

	PriceImpactPercent  string `json:"priceImpactPercent,omitempty"`
	PriceImpactBps      int64  `json:"priceImpactBps"`
	PriceImpactSeverity string `json:"priceImpactSeverity,omitempty"`
	PriceImpactWarning  string `json:"priceImpactWarning,omitempty"`
	SlippagePercent     string `json:"slippagePercent,omitempty"`
	ContributionPercent string `json:"contributionPercent,omitempty"`

	Route        []string `json:"route,omitempty"`
	RouteSymbols []string `json:"routeSymbols,omitempty"`
}

// TransactionsResponse holds a quote and the calls that execute it
type TransactionsResponse struct {
	Quote   QuoteResponse          `json:"quote"`
	Values  *builder.PreparedValues `json:"values,omitempty"`
	Approve *builder.TxRequest      `json:"approve,omitempty"`
	Sell    *builder.TxRequest      `json:"sell,omitempty"`
}

// SubmitResponse is returned by the admin submission endpoints
type SubmitResponse struct {
	Quote QuoteResponse `json:"quote"`
	Kind  string        `json:"kind,omitempty"`
	Hash  string        `json:"hash,omitempty"`
}

func (h *SellHandler) parse(req *QuoteRequest) (domain.ChainID, common.Address, string, error) {
	var account common.Address
	if req.Account != "" {
		if !common.IsHexAddress(req.Account) {
			return 0, common.Address{}, "", errors.New("invalid account address")
		}
		account = common.HexToAddress(req.Account)
	}
	slippage := req.Slippage
	if slippage == "" {
		slippage = h.aggregatorSvc.DefaultSlippage()
	}
	return domain.ChainID(req.ChainID), account, slippage, nil
}

func (h *SellHandler) getQuote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	chain, account, slippage, err := h.parse(&req)
	if err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	quote, err := h.aggregatorSvc.Quote(c.Request.Context(), chain, account, req.To, req.Amount, slippage)
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.Success(c, toQuoteResponse(quote))
}

func (h *SellHandler) buildTransactions(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	chain, account, slippage, err := h.parse(&req)
	if err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	txs, err := h.aggregatorSvc.BuildTransactions(c.Request.Context(), chain, account, req.To, req.Amount, slippage)
	if err != nil {
		respondError(c, err)
		return
	}
	if txs == nil {
		httputil.Success(c, TransactionsResponse{Quote: QuoteResponse{Available: false}})
		return
	}
	httputil.Success(c, TransactionsResponse{
		Quote:   toQuoteResponse(txs.Quote),
		Values:  &txs.Values,
		Approve: &txs.Approve,
		Sell:    &txs.Sell,
	})
}

func (h *SellHandler) submitApprove(c *gin.Context) {
	h.submit(c, builder.TxKindApprove)
}

func (h *SellHandler) submitSell(c *gin.Context) {
	h.submit(c, builder.TxKindSell)
}

func (h *SellHandler) submit(c *gin.Context, kind string) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	chain, _, slippage, err := h.parse(&req)
	if err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	var submitted *aggregator.SubmittedTx
	if kind == builder.TxKindApprove {
		submitted, err = h.aggregatorSvc.SubmitApprove(c.Request.Context(), chain, req.To, req.Amount, slippage)
	} else {
		submitted, err = h.aggregatorSvc.SubmitSell(c.Request.Context(), chain, req.To, req.Amount, slippage)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if submitted == nil {
		httputil.Success(c, SubmitResponse{Quote: QuoteResponse{Available: false}})
		return
	}
	httputil.Success(c, SubmitResponse{
		Quote: toQuoteResponse(submitted.Quote),
		Kind:  submitted.Kind,
		Hash:  submitted.Hash.Hex(),
	})
}

func toQuoteResponse(q *domain.SellInfo) QuoteResponse {
	if q == nil {
		return QuoteResponse{Available: false}
	}
	bps := q.PriceImpact.Bps()
	resp := QuoteResponse{
		Available:           true,
		InputAmount:         toAmountView(&q.InputAmount),
		OutputAmount:        toAmountView(&q.OutputAmount),
		MinimumOutputAmount: toAmountView(&q.MinimumOutputAmount),
		DAIAmount:           toAmountView(q.UnderlyingAmount),
		CDAIAmount:          toAmountView(q.ReserveAmount),
		GDXAmount:           toAmountView(&q.GDXAmount),
		LiquidityFee:        toAmountView(&q.LiquidityFee),
		PriceImpactPercent:  q.PriceImpact.ToSignificant(6),
		PriceImpactBps:      bps,
		PriceImpactSeverity: string(router.GetPriceImpactSeverity(bps)),
		PriceImpactWarning:  router.GetPriceImpactWarning(bps),
		SlippagePercent:     q.SlippageTolerance.ToSignificant(6),
		ContributionPercent: q.Contribution.ToSignificant(6),
		RouteSymbols:        q.Route.Symbols(),
	}
	if q.LiquidityToken != nil {
		resp.LiquidityToken = q.LiquidityToken.Symbol
	}
	for _, addr := range q.Route.Addresses() {
		resp.Route = append(resp.Route, addr.Hex())
	}
	return resp
}

func toAmountView(a *domain.Amount) *AmountView {
	if a == nil || a.Asset() == nil {
		return nil
	}
	return &AmountView{
		Symbol:  a.Asset().Symbol,
		Address: a.Asset().Address.Hex(),
		Raw:     a.ToExact(),
		Value:   a.ToSignificant(18),
	}
}

func respondError(c *gin.Context, err error) {
	var httpErr *appcommon.HttpError
	switch {
	case errors.Is(err, builder.ErrNoSubmitter), errors.Is(err, aggregator.ErrPersistenceDisabled):
		httpErr = appcommon.HTTPErrorServiceUnavailable(err.Error())
	default:
		httpErr = appcommon.HTTPErrorFromDomain(err)
	}
	if httpErr.StatusCode >= 500 {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("[httpService] request failed")
	}
	httputil.Error(c, httpErr.StatusCode, httpErr.Message)
}

func parseChainID(raw string) (domain.ChainID, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.New("invalid chainId")
	}
	return domain.ChainID(id), nil
}
