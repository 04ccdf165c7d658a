package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/gd-exchange/internal/http/httputil"
)

type PairHandler struct {
	aggregatorSvc PairService
}

func NewPairHandler(aggregatorSvc PairService) *PairHandler {
	return &PairHandler{aggregatorSvc: aggregatorSvc}
}

func (h *PairHandler) SetRoutes(pub *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/list", h.listPairs)
}

func (h *PairHandler) Root() string {
	return "/pairs"
}

// PairInfo describes a pooled-market pair seen by the route finder
type PairInfo struct {
	Address        string `json:"address"`
	Token0         string `json:"token0"`
	Token1         string `json:"token1"`
	Symbol0        string `json:"symbol0"`
	Symbol1        string `json:"symbol1"`
	Reserve0       string `json:"reserve0"`
	Reserve1       string `json:"reserve1"`
	FeeBps         uint16 `json:"feeBps"`
	BlockTimestamp uint32 `json:"blockTimestamp"`
	UpdatedAt      string `json:"updatedAt"`
}

func (h *PairHandler) listPairs(c *gin.Context) {
	chain, err := parseChainID(c.Query("chainId"))
	if err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	stored, err := h.aggregatorSvc.Pairs(chain)
	if err != nil {
		respondError(c, err)
		return
	}

	pairs := make([]PairInfo, 0, len(stored))
	for _, p := range stored {
		pairs = append(pairs, PairInfo{
			Address:        p.Address,
			Token0:         p.Token0.Address,
			Token1:         p.Token1.Address,
			Symbol0:        p.Token0.Symbol,
			Symbol1:        p.Token1.Symbol,
			Reserve0:       p.Reserve0,
			Reserve1:       p.Reserve1,
			FeeBps:         p.FeeBps,
			BlockTimestamp: p.BlockTimestamp,
			UpdatedAt:      p.UpdatedTime().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	httputil.Success(c, gin.H{"pairs": pairs, "count": len(pairs)})
}
