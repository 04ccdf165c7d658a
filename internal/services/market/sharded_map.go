package market

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/gd-exchange/internal/domain"
)

const numShards = 16

// pairKey identifies a pair by chain and sorted token addresses.
type pairKey struct {
	chain  domain.ChainID
	token0 common.Address
	token1 common.Address
}

func newPairKey(a, b *domain.Asset) pairKey {
	if !a.SortsBefore(b) {
		a, b = b, a
	}
	return pairKey{chain: a.Chain, token0: a.Address, token1: b.Address}
}

// ShardedAddressMap remembers resolved pair addresses. Pair addresses never
// change once created, so entries are never evicted.
type ShardedAddressMap struct {
	shards [numShards]addressShard
}

type addressShard struct {
	mu    sync.RWMutex
	pairs map[pairKey]common.Address
}

func NewShardedAddressMap() *ShardedAddressMap {
	m := &ShardedAddressMap{}
	for i := 0; i < numShards; i++ {
		m.shards[i].pairs = make(map[pairKey]common.Address)
	}
	return m
}

func (m *ShardedAddressMap) getShard(key pairKey) *addressShard {
	idx := (key.token0[19] ^ key.token1[19]) % numShards
	return &m.shards[idx]
}

func (m *ShardedAddressMap) Get(key pairKey) (common.Address, bool) {
	shard := m.getShard(key)
	shard.mu.RLock()
	addr, ok := shard.pairs[key]
	shard.mu.RUnlock()
	return addr, ok
}

func (m *ShardedAddressMap) Set(key pairKey, addr common.Address) {
	shard := m.getShard(key)
	shard.mu.Lock()
	shard.pairs[key] = addr
	shard.mu.Unlock()
}

// Len returns total count across all shards
func (m *ShardedAddressMap) Len() int {
	total := 0
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.RLock()
		total += len(m.shards[i].pairs)
		m.shards[i].mu.RUnlock()
	}
	return total
}
