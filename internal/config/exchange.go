package config

import (
	"errors"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
	"github.com/shopspring/decimal"
)

type ExchangeConfig struct {
	// DefaultSlippage is the slippage tolerance in percent used when a request
	// does not carry one. Default: "0.5"
	DefaultSlippage string

	// OracleMaxAge bounds how long a cached reserve ratio may be reused.
	// Default: 15s
	OracleMaxAge time.Duration

	// ChainRegistryPath points at a YAML chain/token registry. Empty means the
	// embedded default registry.
	ChainRegistryPath string

	// DBPath is the path to the BoltDB file for pair persistence.
	// Default: "./data/gd-exchange.db"
	DBPath string

	// PersistenceEnabled controls whether discovered pairs are persisted.
	// Default: true
	PersistenceEnabled bool
}

func (c *ExchangeConfig) Key() string {
	return EXCHANGE_CONFIG_KEY
}

func (c *ExchangeConfig) Load() error {
	c.DefaultSlippage = common.GetEnvOrDefault("DEFAULT_SLIPPAGE", "0.5")
	c.OracleMaxAge = time.Duration(common.GetEnvOrDefaultInt("ORACLE_MAX_AGE_SECONDS", 15)) * time.Second
	c.ChainRegistryPath = common.GetEnvOrDefault("CHAIN_REGISTRY_PATH", "")
	c.DBPath = common.GetEnvOrDefault("EXCHANGE_DB_PATH", "./data/gd-exchange.db")
	c.PersistenceEnabled = common.GetEnvOrDefault("EXCHANGE_PERSISTENCE_ENABLED", "true") == "true"
	return nil
}

func (c *ExchangeConfig) Validate() error {
	d, err := decimal.NewFromString(c.DefaultSlippage)
	if err != nil || d.IsNegative() || d.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return errors.New("invalid exchange config: DEFAULT_SLIPPAGE must be a percent within [0, 100)")
	}
	if c.OracleMaxAge < 0 {
		return errors.New("invalid exchange config: ORACLE_MAX_AGE_SECONDS must not be negative")
	}
	return nil
}
