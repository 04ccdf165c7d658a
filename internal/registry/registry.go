// Package registry resolves chain-scoped assets and protocol contracts by symbol.
package registry

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/hxuan190/gd-exchange/internal/domain"
)

// maxFeeBps is 100% in basis points.
const maxFeeBps = 10000

//go:embed chains.yaml
var defaultRegistryYAML []byte

// Contracts holds the GoodDollar protocol contracts of a bonding-curve chain.
type Contracts struct {
	MarketMaker             common.Address
	Reserve                 common.Address
	ExchangeHelper          common.Address
	ContributionCalculation common.Address
}

func (c Contracts) complete() bool {
	zero := common.Address{}
	return c.MarketMaker != zero && c.Reserve != zero && c.ExchangeHelper != zero && c.ContributionCalculation != zero
}

// Market describes the constant-product market of a chain.
type Market struct {
	Factory common.Address
	// InitCodeHash enables local CREATE2 pair derivation. When zero the
	// factory is asked for pair addresses instead.
	InitCodeHash common.Hash
	FeeBps       uint16
	Bases        []*domain.Asset
}

type Chain struct {
	ID        domain.ChainID
	Name      string
	Class     domain.ChainClass
	Contracts Contracts
	Market    Market

	tokens map[string]*domain.Asset
}

// Token returns the asset registered under symbol, or nil.
func (c *Chain) Token(symbol string) *domain.Asset {
	return c.tokens[symbol]
}

func (c *Chain) Tokens() []*domain.Asset {
	out := make([]*domain.Asset, 0, len(c.tokens))
	for _, t := range c.tokens {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Symbol) < strings.ToLower(out[j].Symbol)
	})
	return out
}

type Registry struct {
	chains map[domain.ChainID]*Chain
}

// New builds a registry from already constructed chains.
func New(chains ...*Chain) *Registry {
	r := &Registry{chains: make(map[domain.ChainID]*Chain, len(chains))}
	for _, c := range chains {
		r.chains[c.ID] = c
	}
	return r
}

// NewChain builds a chain entry from a token list.
func NewChain(id domain.ChainID, class domain.ChainClass, contracts Contracts, market Market, tokens ...*domain.Asset) *Chain {
	c := &Chain{
		ID:        id,
		Name:      id.String(),
		Class:     class,
		Contracts: contracts,
		Market:    market,
		tokens:    make(map[string]*domain.Asset, len(tokens)),
	}
	for _, t := range tokens {
		c.tokens[t.Symbol] = t
	}
	return c
}

func (r *Registry) Chain(id domain.ChainID) (*Chain, error) {
	c, ok := r.chains[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnsupportedChain, uint64(id))
	}
	return c, nil
}

// Resolve looks up an asset by symbol on a chain.
func (r *Registry) Resolve(id domain.ChainID, symbol string) (*domain.Asset, error) {
	c, err := r.Chain(id)
	if err != nil {
		return nil, err
	}
	asset := c.Token(symbol)
	if asset == nil {
		return nil, fmt.Errorf("%w: %s on %s", domain.ErrUnsupportedToken, symbol, id)
	}
	return asset, nil
}

func (r *Registry) Chains() []*Chain {
	out := make([]*Chain, 0, len(r.chains))
	for _, c := range r.chains {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Load reads the registry at path, or the embedded default when path is empty.
func Load(path string) (*Registry, error) {
	data := defaultRegistryYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read chain registry: %w", err)
		}
		data = b
	}
	return Parse(data)
}

type fileToken struct {
	Symbol   string `yaml:"symbol"`
	Name     string `yaml:"name"`
	Address  string `yaml:"address"`
	Decimals uint8  `yaml:"decimals"`
}

type fileChain struct {
	ChainID   uint64 `yaml:"chainId"`
	Name      string `yaml:"name"`
	Class     string `yaml:"class"`
	Contracts struct {
		MarketMaker             string `yaml:"marketMaker"`
		Reserve                 string `yaml:"reserve"`
		ExchangeHelper          string `yaml:"exchangeHelper"`
		ContributionCalculation string `yaml:"contributionCalculation"`
	} `yaml:"contracts"`
	Market struct {
		Factory      string   `yaml:"factory"`
		InitCodeHash string   `yaml:"initCodeHash"`
		FeeBps       uint16   `yaml:"feeBps"`
		Bases        []string `yaml:"bases"`
	} `yaml:"market"`
	Tokens []fileToken `yaml:"tokens"`
}

type file struct {
	Chains []fileChain `yaml:"chains"`
}

// Parse decodes a YAML registry. Bonding-curve chains without their protocol
// contracts are skipped with a warning.
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode chain registry: %w", err)
	}

	r := &Registry{chains: make(map[domain.ChainID]*Chain, len(f.Chains))}
	for _, fc := range f.Chains {
		c, err := fc.toChain()
		if err != nil {
			return nil, fmt.Errorf("chain %d: %w", fc.ChainID, err)
		}
		if c.Class == domain.ChainClassBondingCurve && !c.bondingCurveReady() {
			log.Warn().
				Uint64("chainId", fc.ChainID).
				Msg("[registry] bonding-curve chain is missing protocol contracts or tokens, skipping")
			continue
		}
		r.chains[c.ID] = c
	}
	return r, nil
}

func (c *Chain) bondingCurveReady() bool {
	for _, sym := range []string{domain.SymbolToken, domain.SymbolReserve, domain.SymbolUnderlying, domain.SymbolGDX} {
		if c.Token(sym) == nil {
			return false
		}
	}
	return c.Contracts.complete()
}

func (fc fileChain) toChain() (*Chain, error) {
	id := domain.ChainID(fc.ChainID)

	var class domain.ChainClass
	switch fc.Class {
	case "pooled-market":
		class = domain.ChainClassPooledMarket
	case "bonding-curve":
		class = domain.ChainClassBondingCurve
	default:
		return nil, fmt.Errorf("unknown chain class %q", fc.Class)
	}

	tokens := make([]*domain.Asset, 0, len(fc.Tokens))
	for _, ft := range fc.Tokens {
		addr, err := parseAddress(ft.Address)
		if err != nil {
			return nil, fmt.Errorf("token %s: %w", ft.Symbol, err)
		}
		if addr == (common.Address{}) {
			return nil, fmt.Errorf("token %s: address required", ft.Symbol)
		}
		asset := domain.NewAsset(id, addr, ft.Symbol, ft.Decimals)
		if ft.Name != "" {
			asset.Name = ft.Name
		}
		tokens = append(tokens, asset)
	}

	var contracts Contracts
	var err error
	if contracts.MarketMaker, err = parseAddress(fc.Contracts.MarketMaker); err != nil {
		return nil, fmt.Errorf("marketMaker: %w", err)
	}
	if contracts.Reserve, err = parseAddress(fc.Contracts.Reserve); err != nil {
		return nil, fmt.Errorf("reserve: %w", err)
	}
	if contracts.ExchangeHelper, err = parseAddress(fc.Contracts.ExchangeHelper); err != nil {
		return nil, fmt.Errorf("exchangeHelper: %w", err)
	}
	if contracts.ContributionCalculation, err = parseAddress(fc.Contracts.ContributionCalculation); err != nil {
		return nil, fmt.Errorf("contributionCalculation: %w", err)
	}

	c := NewChain(id, class, contracts, Market{}, tokens...)
	if fc.Name != "" {
		c.Name = fc.Name
	}

	if c.Market.Factory, err = parseAddress(fc.Market.Factory); err != nil {
		return nil, fmt.Errorf("market factory: %w", err)
	}
	if fc.Market.InitCodeHash != "" {
		c.Market.InitCodeHash = common.HexToHash(fc.Market.InitCodeHash)
	}
	if fc.Market.FeeBps >= maxFeeBps {
		return nil, fmt.Errorf("market feeBps %d must be below %d", fc.Market.FeeBps, maxFeeBps)
	}
	c.Market.FeeBps = fc.Market.FeeBps
	if c.Market.FeeBps == 0 {
		c.Market.FeeBps = 30
	}
	for _, sym := range fc.Market.Bases {
		base := c.Token(sym)
		if base == nil {
			return nil, fmt.Errorf("market base %s is not a registered token", sym)
		}
		c.Market.Bases = append(c.Market.Bases, base)
	}
	if class == domain.ChainClassPooledMarket && c.Market.Factory == (common.Address{}) {
		return nil, fmt.Errorf("pooled-market chain requires a market factory")
	}
	if c.Token(domain.SymbolToken) == nil {
		return nil, fmt.Errorf("token %s is not registered", domain.SymbolToken)
	}
	return c, nil
}

func parseAddress(raw string) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("invalid address %q", raw)
	}
	return common.HexToAddress(raw), nil
}
