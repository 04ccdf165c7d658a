package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/andrew-solarstorm/go-packages/common"
	"github.com/ethereum/go-ethereum/crypto"
)

type RPCConfig struct {
	// URLs maps chain id to its JSON-RPC endpoint.
	// Env format: RPC_URLS="1=https://mainnet.example,122=https://rpc.fuse.io"
	URLs map[uint64]string

	// SignerKey is a hex-encoded private key used by the server-side submitter.
	// Optional: without it only unsigned transactions are built.
	SignerKey string
}

func (r *RPCConfig) Key() string {
	return RPC_CONFIG_KEY
}

func (r *RPCConfig) Load() error {
	urls, err := parseRPCURLs(common.GetEnvOrDefault("RPC_URLS", ""))
	if err != nil {
		return err
	}
	r.URLs = urls
	r.SignerKey = strings.TrimPrefix(strings.TrimSpace(common.GetEnvOrDefault("SIGNER_KEY", "")), "0x")
	return nil
}

func (r *RPCConfig) Validate() error {
	if len(r.URLs) == 0 {
		return errors.New("invalid rpc config: RPC_URLS is empty")
	}
	if r.SignerKey != "" {
		if _, err := crypto.HexToECDSA(r.SignerKey); err != nil {
			return fmt.Errorf("invalid rpc config: signer key: %w", err)
		}
	}
	return nil
}

func parseRPCURLs(raw string) (map[uint64]string, error) {
	out := make(map[uint64]string)
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, url, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid RPC_URLS entry %q: expected <chainId>=<url>", part)
		}
		chainID, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid RPC_URLS chain id %q: %w", id, err)
		}
		out[chainID] = strings.TrimSpace(url)
	}
	return out, nil
}
