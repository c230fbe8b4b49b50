// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"swapkit/internal/swap"
	"swapkit/internal/token"
)

type TokenConfig struct {
	Symbol   string `mapstructure:"symbol"`
	Address  string `mapstructure:"address"`
	Decimals uint8  `mapstructure:"decimals"`
}

// RatioConfig is a bootstrap ratio for a pair without liquidity: how many
// tokenB one tokenA is worth, in human units.
type RatioConfig struct {
	TokenA string `mapstructure:"token_a"`
	TokenB string `mapstructure:"token_b"`
	Ratio  string `mapstructure:"ratio"`
}

type Config struct {
	RPCURL             string        `mapstructure:"rpc_url"`
	ChainID            uint64        `mapstructure:"chain_id"`
	AdapterAddress     string        `mapstructure:"adapter_address"`
	PrivateKey         string        `mapstructure:"private_key"`
	Tokens             []TokenConfig `mapstructure:"tokens"`
	SlippageMinPct     string        `mapstructure:"slippage_min_pct"`
	SlippageMaxPct     string        `mapstructure:"slippage_max_pct"`
	SlippageDefaultPct string        `mapstructure:"slippage_default_pct"`
	BootstrapRatios    []RatioConfig `mapstructure:"bootstrap_ratios"`
	ApproveWaitSec     int           `mapstructure:"approve_wait_seconds"`
	DustDivisor        int64         `mapstructure:"dust_divisor"`
	NetworkPollSec     int           `mapstructure:"network_poll_seconds"`
	DebugLogging       bool          `mapstructure:"debug_logging"`
	LogFile            string        `mapstructure:"log_file"`
}

const (
	DefaultChainID        = 11155111 // Sepolia
	DefaultApproveWaitSec = 90
	DefaultDustDivisor    = 1_000_000
	DefaultNetworkPoll    = 15
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"chain_id":        DefaultChainID,
		"adapter_address": "0x8700A5FBb9D0CCa51a609926d98A002F22a03c0c",
		// Sepolia deployment token table; override for other deployments.
		"tokens": []map[string]interface{}{
			{"symbol": "WETH", "address": "0x0A7E11Caa2A5EFBa3bB1f2C67E795b41ddCBC453", "decimals": 18},
			{"symbol": "USDT", "address": "0x73Fd9eB3281fB56AafFE512bad7468C3e7a2C600", "decimals": 6},
			{"symbol": "DAI", "address": "0xba735403CcBd5969EDafa4Ec7AFf526C701B6690", "decimals": 18},
		},
		"bootstrap_ratios": []map[string]interface{}{
			{"token_a": "WETH", "token_b": "USDT", "ratio": "2000"},
		},
		"slippage_min_pct":     "0.1",
		"slippage_max_pct":     "10",
		"slippage_default_pct": "1",
		"approve_wait_seconds": DefaultApproveWaitSec,
		"dust_divisor":         DefaultDustDivisor,
		"network_poll_seconds": DefaultNetworkPoll,
		"log_file":             "swapkit.log",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.RPCURL == "" {
		return errors.New("missing rpc_url in configuration")
	}
	if err := validateURL(cfg.RPCURL); err != nil {
		return err
	}
	if cfg.ChainID == 0 {
		return errors.New("invalid chain_id")
	}
	if !common.IsHexAddress(cfg.AdapterAddress) {
		return errors.New("invalid adapter_address")
	}
	if cfg.PrivateKey == "" {
		return errors.New("missing private key (set private_key or SWAPKIT_PRIVATE_KEY)")
	}
	if len(cfg.Tokens) == 0 {
		return errors.New("token table is empty")
	}
	seen := make(map[string]bool, len(cfg.Tokens))
	for _, t := range cfg.Tokens {
		if t.Symbol == "" {
			return errors.New("token with empty symbol")
		}
		if seen[t.Symbol] {
			return fmt.Errorf("duplicate token symbol %s", t.Symbol)
		}
		seen[t.Symbol] = true
		if !common.IsHexAddress(t.Address) {
			return fmt.Errorf("invalid address for token %s", t.Symbol)
		}
	}
	if _, err := cfg.TolerancePolicy(); err != nil {
		return err
	}
	if _, err := cfg.BootstrapTable(); err != nil {
		return err
	}
	if cfg.ApproveWaitSec <= 0 {
		return errors.New("invalid approve_wait_seconds")
	}
	if cfg.DustDivisor <= 0 {
		return errors.New("invalid dust_divisor")
	}
	if cfg.NetworkPollSec <= 0 {
		return errors.New("invalid network_poll_seconds")
	}
	return nil
}

func validateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid rpc_url format")
	}
	switch {
	case strings.HasPrefix(parsed.Scheme, "http"), strings.HasPrefix(parsed.Scheme, "ws"):
		return nil
	}
	return errors.New("rpc_url must use http(s) or ws(s)")
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("SWAPKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if envKey := v.GetString("PRIVATE_KEY"); envKey != "" {
		cfg.PrivateKey = envKey
	}
	if envRPC := v.GetString("RPC_URL"); envRPC != "" {
		cfg.RPCURL = envRPC
	}
	return nil
}

// TokenTable materializes the configured tokens keyed by symbol.
func (c *Config) TokenTable() map[string]token.Token {
	table := make(map[string]token.Token, len(c.Tokens))
	for _, t := range c.Tokens {
		table[t.Symbol] = token.Token{
			Address:  common.HexToAddress(t.Address),
			Symbol:   t.Symbol,
			Decimals: t.Decimals,
		}
	}
	return table
}

// TolerancePolicy parses the slippage bounds.
func (c *Config) TolerancePolicy() (swap.TolerancePolicy, error) {
	min, ok := new(big.Rat).SetString(c.SlippageMinPct)
	if !ok || min.Sign() <= 0 {
		return swap.TolerancePolicy{}, fmt.Errorf("invalid slippage_min_pct %q", c.SlippageMinPct)
	}
	max, ok := new(big.Rat).SetString(c.SlippageMaxPct)
	if !ok || max.Cmp(min) < 0 {
		return swap.TolerancePolicy{}, fmt.Errorf("invalid slippage_max_pct %q", c.SlippageMaxPct)
	}
	return swap.TolerancePolicy{MinPct: min, MaxPct: max}, nil
}

// BootstrapTable parses the configured bootstrap ratios keyed by "A/B".
func (c *Config) BootstrapTable() (map[string]*big.Rat, error) {
	table := make(map[string]*big.Rat, len(c.BootstrapRatios))
	for _, r := range c.BootstrapRatios {
		ratio, ok := new(big.Rat).SetString(r.Ratio)
		if !ok || ratio.Sign() <= 0 {
			return nil, fmt.Errorf("invalid bootstrap ratio %q for %s/%s", r.Ratio, r.TokenA, r.TokenB)
		}
		table[r.TokenA+"/"+r.TokenB] = ratio
	}
	return table, nil
}
