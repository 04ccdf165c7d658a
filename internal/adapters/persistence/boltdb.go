package persistence

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"time"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/gd-exchange/internal/domain"
)

const (
	PairsBucket = "pairs"

	DefaultDBPath = "./data/gd-exchange.db"
)

type StoredToken struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// StoredPair is the on-disk form of a pooled-market pair. Reserves are the
// last values observed by the route finder and are informational only.
type StoredPair struct {
	Address        string      `json:"address"`
	ChainID        uint64      `json:"chainId"`
	Token0         StoredToken `json:"token0"`
	Token1         StoredToken `json:"token1"`
	Reserve0       string      `json:"reserve0"`
	Reserve1       string      `json:"reserve1"`
	FeeBps         uint16      `json:"feeBps"`
	BlockTimestamp uint32      `json:"blockTimestamp"`
	UpdatedAt      int64       `json:"updatedAt"`
}

type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[pairStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func pairKey(chain domain.ChainID, address common.Address) []byte {
	return []byte(fmt.Sprintf("%d:%s", uint64(chain), address.Hex()))
}

func (s *Storage) SavePair(pair *domain.Pair) error {
	data, err := sonic.Marshal(pairToStored(pair))
	if err != nil {
		return fmt.Errorf("failed to marshal pair: %w", err)
	}
	return s.db.Set(PairsBucket, pairKey(pair.Chain, pair.Address), data)
}

func (s *Storage) SavePairBatch(pairs []*domain.Pair) error {
	if len(pairs) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	for _, pair := range pairs {
		data, err := sonic.Marshal(pairToStored(pair))
		if err != nil {
			return fmt.Errorf("failed to marshal pair %s: %w", pair.Address.Hex(), err)
		}

		value := data
		op := &boltdb.WriteOperation{
			Bucket: []byte(PairsBucket),
			Key:    pairKey(pair.Chain, pair.Address),
			Value:  &value,
			Op:     boltdb.OpSet,
		}
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add pair %s to batch: %w", pair.Address.Hex(), err)
		}
	}

	if err := batch.Execute(); err != nil {
		log.Error().Err(err).Int("count", len(pairs)).Msg("[pairStorage] FAILED to execute batch")
		return err
	}

	log.Debug().Int("count", len(pairs)).Msg("[pairStorage] saved pair batch")
	return nil
}

// LoadPairs returns the stored pairs of one chain, ordered by address.
func (s *Storage) LoadPairs(chain domain.ChainID) ([]*StoredPair, error) {
	data, err := s.db.List(PairsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list pairs: %w", err)
	}

	pairs := make([]*StoredPair, 0, len(data))
	for key, value := range data {
		var stored StoredPair
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Error().Str("key", key).Err(err).Msg("[pairStorage] failed to unmarshal pair, skipping")
			continue
		}
		if domain.ChainID(stored.ChainID) != chain {
			continue
		}
		pairs = append(pairs, &stored)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Address < pairs[j].Address })
	return pairs, nil
}

func (s *Storage) GetPairCount() (int, error) {
	data, err := s.db.List(PairsBucket)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

func pairToStored(pair *domain.Pair) *StoredPair {
	return &StoredPair{
		Address:        pair.Address.Hex(),
		ChainID:        uint64(pair.Chain),
		Token0:         tokenToStored(pair.Token0),
		Token1:         tokenToStored(pair.Token1),
		Reserve0:       bigString(pair.Reserve0),
		Reserve1:       bigString(pair.Reserve1),
		FeeBps:         pair.FeeBps,
		BlockTimestamp: pair.BlockTimestamp,
		UpdatedAt:      pair.UpdatedAt.Unix(),
	}
}

func tokenToStored(asset *domain.Asset) StoredToken {
	return StoredToken{
		Address:  asset.Address.Hex(),
		Symbol:   asset.Symbol,
		Decimals: asset.Decimals,
	}
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// UpdatedTime converts the stored unix timestamp back into a time.Time.
func (p *StoredPair) UpdatedTime() time.Time {
	return time.Unix(p.UpdatedAt, 0).UTC()
}
