package config

import (
	"errors"

	"github.com/andrew-solarstorm/go-packages/common"
)

type ServerEnv = string

var (
	DevEnv     ServerEnv = "dev"
	StagingEnv ServerEnv = "staging"
	ProdEnv    ServerEnv = "prod"
)

const (
	GENERAL_CONFIG_KEY  = "general-config"
	RPC_CONFIG_KEY      = "rpc-config"
	EXCHANGE_CONFIG_KEY = "exchange-config"
)

type GeneralConfig struct {
	HTTPPort string
	HTTPHost string
	Env      string
	LogLevel string

	// Per-IP request budget of the public API.
	RateLimitPerSecond int
	RateLimitBurst     int

	// AdminAPIKey guards the /admin routes. Empty disables them.
	AdminAPIKey string
}

func (gc *GeneralConfig) Key() string {
	return GENERAL_CONFIG_KEY
}

func (gc *GeneralConfig) Load() error {
	gc.HTTPPort = common.GetEnvOrDefault("HTTP_PORT", "8080")
	gc.HTTPHost = common.GetEnvOrDefault("HTTP_HOST", "localhost")
	gc.Env = common.GetEnvOrDefault("ENV", "dev")
	gc.LogLevel = common.GetEnvOrDefault("LOG_LEVEL", "INFO")
	gc.RateLimitPerSecond = common.GetEnvOrDefaultInt("RATE_LIMIT_PER_SECOND", 10)
	gc.RateLimitBurst = common.GetEnvOrDefaultInt("RATE_LIMIT_BURST", 20)
	gc.AdminAPIKey = common.GetEnvOrDefault("ADMIN_API_KEY", "")
	return gc.Validate()
}

func (gc *GeneralConfig) Validate() error {
	if gc.HTTPPort == "" || gc.HTTPHost == "" || gc.Env == "" {
		return errors.New("invalid server config")
	}
	return nil
}
