package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/gd-exchange/internal/adapters/blockchain"
	"github.com/hxuan190/gd-exchange/internal/adapters/persistence"
	"github.com/hxuan190/gd-exchange/internal/config"
	"github.com/hxuan190/gd-exchange/internal/domain"
	"github.com/hxuan190/gd-exchange/internal/metrics"
	"github.com/hxuan190/gd-exchange/internal/registry"
	"github.com/hxuan190/gd-exchange/internal/services"
	"github.com/hxuan190/gd-exchange/internal/services/builder"
	"github.com/hxuan190/gd-exchange/internal/services/exchange"
	"github.com/hxuan190/gd-exchange/internal/services/market"
	"github.com/hxuan190/gd-exchange/internal/services/oracle"
	"github.com/hxuan190/gd-exchange/internal/services/priority"
	"github.com/hxuan190/gd-exchange/internal/services/reserve"
	"github.com/hxuan190/gd-exchange/internal/services/router"
)

const AGGREGATOR_SERVICE = "aggregator-service"

const dialTimeout = 15 * time.Second

var ErrPersistenceDisabled = errors.New("pair persistence is disabled")

// Service wires the sell pipeline: chain clients, oracle, route finder,
// reserve converter, quotation engine and transaction preparer.
type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	rpcConf      *config.RPCConfig
	exchangeConf *config.ExchangeConfig

	registry *registry.Registry
	clients  *blockchain.Clients
	storage  *persistence.Storage

	engine   *exchange.Engine
	preparer *builder.Preparer
	signer   common.Address
}

func (svc *Service) ID() string {
	return AGGREGATOR_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	svc.rpcConf = c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)
	svc.exchangeConf = c.GetConfig(config.EXCHANGE_CONFIG_KEY).(*config.ExchangeConfig)

	reg, err := registry.Load(svc.exchangeConf.ChainRegistryPath)
	if err != nil {
		return err
	}
	svc.registry = reg
	return nil
}

func (svc *Service) Start() error {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	clients, err := blockchain.Dial(ctx, svc.rpcConf.URLs)
	if err != nil {
		return err
	}
	svc.clients = clients

	var sink market.PairSink
	if svc.exchangeConf.PersistenceEnabled {
		storage, err := persistence.NewStorage(svc.exchangeConf.DBPath)
		if err != nil {
			return err
		}
		svc.storage = storage
		sink = storage
		if n, err := storage.GetPairCount(); err == nil {
			metrics.PersistedPairs.Set(float64(n))
		}
	}

	submitters, err := svc.buildSubmitters()
	if err != nil {
		return err
	}

	reader := blockchain.NewReader(clients.Callers())
	ratios := oracle.New(reader, svc.registry, svc.exchangeConf.OracleMaxAge)
	routes := router.New(svc.registry, market.NewService(reader, sink))
	converter := reserve.NewConverter(svc.registry, reader, ratios)
	contribution := exchange.NewOnChainContribution(svc.registry, reader)

	svc.engine = exchange.NewEngine(svc.registry, routes, converter, contribution, reader, ratios)
	svc.preparer = builder.NewPreparer(svc.registry, submitters)

	for _, chain := range svc.registry.Chains() {
		svc.logger.ForChain(chain.ID).Info().
			Str("class", chain.Class.String()).
			Bool("rpc", clients.Client(chain.ID) != nil).
			Bool("submitter", svc.preparer.CanSubmit(chain.ID)).
			Msg("[aggregatorService] chain ready")
	}
	return nil
}

func (svc *Service) buildSubmitters() (map[domain.ChainID]builder.Submitter, error) {
	out := make(map[domain.ChainID]builder.Submitter)
	if svc.rpcConf.SignerKey == "" {
		return out, nil
	}
	for id := range svc.rpcConf.URLs {
		chainID := domain.ChainID(id)
		client := svc.clients.Client(chainID)
		if client == nil {
			continue
		}
		submitter, err := blockchain.NewKeyedSubmitter(
			client,
			priority.NewGasEstimator(client),
			priority.NewFeeCalculator(client, priority.UrgencyMedium),
			svc.rpcConf.SignerKey,
		)
		if err != nil {
			return nil, err
		}
		out[chainID] = submitter
		svc.signer = submitter.From()
		svc.logger.ForChain(chainID).Info().
			Str("from", submitter.From().Hex()).
			Msg("[aggregatorService] submitter enabled")
	}
	return out, nil
}

func (svc *Service) Stop() error {
	if svc.clients != nil {
		svc.clients.Close()
	}
	if svc.storage != nil {
		if err := svc.storage.Close(); err != nil {
			svc.logger.Error().Err(err).Msg("[aggregatorService] failed to close storage")
			return err
		}
	}
	return nil
}

func (svc *Service) Registry() *registry.Registry {
	return svc.registry
}

// DefaultSlippage is the slippage percent used when a request omits it.
func (svc *Service) DefaultSlippage() string {
	return svc.exchangeConf.DefaultSlippage
}

// Quote returns a sell quote, or nil when none is available.
func (svc *Service) Quote(ctx context.Context, chain domain.ChainID, account common.Address, toSymbol, amount, slippage string) (*domain.SellInfo, error) {
	return svc.engine.GetMeta(ctx, exchange.Wallet{ChainID: chain, Account: account}, toSymbol, amount, slippage)
}

// SellTransactions are the unsigned calls that execute a quote.
type SellTransactions struct {
	Quote   *domain.SellInfo
	Values  builder.PreparedValues
	Approve builder.TxRequest
	Sell    builder.TxRequest
}

// BuildTransactions re-quotes and encodes the approve and sell calls. A nil
// result means no quote is available.
func (svc *Service) BuildTransactions(ctx context.Context, chain domain.ChainID, account common.Address, toSymbol, amount, slippage string) (*SellTransactions, error) {
	quote, err := svc.Quote(ctx, chain, account, toSymbol, amount, slippage)
	if err != nil || quote == nil {
		return nil, err
	}
	values, err := builder.Prepare(quote)
	if err != nil {
		return nil, err
	}
	approve, err := svc.preparer.BuildApprove(quote)
	if err != nil {
		metrics.TransactionRequests.WithLabelValues(builder.TxKindApprove, "build", "error").Inc()
		return nil, err
	}
	sell, err := svc.preparer.BuildSell(quote)
	if err != nil {
		metrics.TransactionRequests.WithLabelValues(builder.TxKindSell, "build", "error").Inc()
		return nil, err
	}
	metrics.TransactionRequests.WithLabelValues(builder.TxKindApprove, "build", "ok").Inc()
	metrics.TransactionRequests.WithLabelValues(builder.TxKindSell, "build", "ok").Inc()
	return &SellTransactions{Quote: quote, Values: values, Approve: approve, Sell: sell}, nil
}

// SubmittedTx is the result of a server-side submission.
type SubmittedTx struct {
	Quote *domain.SellInfo
	Kind  string
	Hash  common.Hash
}

// SubmitApprove quotes from the server signer and sends the approve. The
// caller sends the sell once the approve is mined.
func (svc *Service) SubmitApprove(ctx context.Context, chain domain.ChainID, toSymbol, amount, slippage string) (*SubmittedTx, error) {
	return svc.submit(ctx, chain, builder.TxKindApprove, toSymbol, amount, slippage)
}

// SubmitSell quotes from the server signer and sends the sell.
func (svc *Service) SubmitSell(ctx context.Context, chain domain.ChainID, toSymbol, amount, slippage string) (*SubmittedTx, error) {
	return svc.submit(ctx, chain, builder.TxKindSell, toSymbol, amount, slippage)
}

func (svc *Service) submit(ctx context.Context, chain domain.ChainID, kind, toSymbol, amount, slippage string) (*SubmittedTx, error) {
	if !svc.preparer.CanSubmit(chain) {
		return nil, fmt.Errorf("%w on %s", builder.ErrNoSubmitter, chain)
	}
	quote, err := svc.Quote(ctx, chain, svc.signer, toSymbol, amount, slippage)
	if err != nil || quote == nil {
		return nil, err
	}

	var hash common.Hash
	if kind == builder.TxKindApprove {
		hash, err = svc.preparer.Approve(ctx, quote)
	} else {
		hash, err = svc.preparer.Sell(ctx, quote)
	}
	if err != nil {
		svc.logger.ForChain(chain).Error().Err(err).Str("kind", kind).Msg("[aggregatorService] submission failed")
		return nil, err
	}
	svc.logger.ForChain(chain).Info().
		Str("kind", kind).
		Str("hash", hash.Hex()).
		Msg("[aggregatorService] transaction submitted")
	return &SubmittedTx{Quote: quote, Kind: kind, Hash: hash}, nil
}

// Pairs lists the pooled-market pairs seen on chain.
func (svc *Service) Pairs(chain domain.ChainID) ([]*persistence.StoredPair, error) {
	if _, err := svc.registry.Chain(chain); err != nil {
		return nil, err
	}
	if svc.storage == nil {
		return nil, ErrPersistenceDisabled
	}
	pairs, err := svc.storage.LoadPairs(chain)
	if err != nil {
		return nil, err
	}
	if n, err := svc.storage.GetPairCount(); err == nil {
		metrics.PersistedPairs.Set(float64(n))
	}
	return pairs, nil
}
