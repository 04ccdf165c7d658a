package blockchain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/gd-exchange/internal/domain"
)

// Clients holds one JSON-RPC client per chain.
type Clients struct {
	byChain map[domain.ChainID]*ethclient.Client
}

// Dial connects to every configured endpoint. A failing endpoint aborts the
// whole dial and closes the clients opened so far.
func Dial(ctx context.Context, urls map[uint64]string) (*Clients, error) {
	c := &Clients{byChain: make(map[domain.ChainID]*ethclient.Client, len(urls))}
	for id, url := range urls {
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("dial chain %d: %w", id, err)
		}
		c.byChain[domain.ChainID(id)] = client
		log.Info().Uint64("chainId", id).Msg("[blockchain] rpc client connected")
	}
	return c, nil
}

// Client returns the client of a chain, or nil.
func (c *Clients) Client(chain domain.ChainID) *ethclient.Client {
	return c.byChain[chain]
}

func (c *Clients) Callers() map[domain.ChainID]ethereum.ContractCaller {
	out := make(map[domain.ChainID]ethereum.ContractCaller, len(c.byChain))
	for id, client := range c.byChain {
		out[id] = client
	}
	return out
}

func (c *Clients) Close() {
	for _, client := range c.byChain {
		client.Close()
	}
}
