package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `
rpc_url: "https://rpc.sepolia.org"
adapter_address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
private_key: "4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d"
tokens:
  - symbol: WETH
    address: "0x7b79995e5f793A07Bc00c21412e50Ecae098E7f9"
    decimals: 18
  - symbol: USDT
    address: "0xaA8E23Fb1079EA71e0a56F48a2aA51851D8433D0"
    decimals: 6
bootstrap_ratios:
  - token_a: WETH
    token_b: USDT
    ratio: "2000"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, uint64(DefaultChainID), cfg.ChainID)
	assert.Equal(t, "0.1", cfg.SlippageMinPct)
	assert.Equal(t, "10", cfg.SlippageMaxPct)
	assert.Equal(t, "1", cfg.SlippageDefaultPct)
	assert.Equal(t, DefaultApproveWaitSec, cfg.ApproveWaitSec)
	assert.Equal(t, int64(DefaultDustDivisor), cfg.DustDivisor)
}

func TestLoadConfigTokenTable(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfig))
	require.NoError(t, err)

	table := cfg.TokenTable()
	require.Contains(t, table, "WETH")
	require.Contains(t, table, "USDT")
	assert.Equal(t, uint8(18), table["WETH"].Decimals)
	assert.Equal(t, uint8(6), table["USDT"].Decimals)
}

func TestLoadConfigBootstrapTable(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfig))
	require.NoError(t, err)

	ratios, err := cfg.BootstrapTable()
	require.NoError(t, err)
	require.Contains(t, ratios, "WETH/USDT")
	assert.Equal(t, "2000", ratios["WETH/USDT"].RatString())
}

func TestLoadConfigEnvOverridesPrivateKey(t *testing.T) {
	t.Setenv("SWAPKIT_PRIVATE_KEY", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

	cfg, err := LoadConfig(writeConfig(t, validConfig))
	require.NoError(t, err)
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", cfg.PrivateKey)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate string
	}{
		{"missing rpc_url", `
adapter_address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
private_key: "4f"
tokens: [{symbol: WETH, address: "0x7b79995e5f793A07Bc00c21412e50Ecae098E7f9", decimals: 18}]
`},
		{"bad adapter address", `
rpc_url: "https://rpc.sepolia.org"
adapter_address: "not-an-address"
private_key: "4f"
tokens: [{symbol: WETH, address: "0x7b79995e5f793A07Bc00c21412e50Ecae098E7f9", decimals: 18}]
`},
		{"bad token address", `
rpc_url: "https://rpc.sepolia.org"
adapter_address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
private_key: "4f"
tokens: [{symbol: WETH, address: "0x123", decimals: 18}]
`},
		{"duplicate symbol", `
rpc_url: "https://rpc.sepolia.org"
adapter_address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
private_key: "4f"
tokens:
  - {symbol: WETH, address: "0x7b79995e5f793A07Bc00c21412e50Ecae098E7f9", decimals: 18}
  - {symbol: WETH, address: "0xaA8E23Fb1079EA71e0a56F48a2aA51851D8433D0", decimals: 18}
`},
		{"bad slippage bounds", `
rpc_url: "https://rpc.sepolia.org"
adapter_address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
private_key: "4f"
slippage_min_pct: "5"
slippage_max_pct: "1"
tokens: [{symbol: WETH, address: "0x7b79995e5f793A07Bc00c21412e50Ecae098E7f9", decimals: 18}]
`},
		{"bad bootstrap ratio", `
rpc_url: "https://rpc.sepolia.org"
adapter_address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
private_key: "4f"
tokens: [{symbol: WETH, address: "0x7b79995e5f793A07Bc00c21412e50Ecae098E7f9", decimals: 18}]
bootstrap_ratios: [{token_a: WETH, token_b: USDT, ratio: "-1"}]
`},
		{"bad rpc scheme", `
rpc_url: "ftp://rpc.sepolia.org"
adapter_address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
private_key: "4f"
tokens: [{symbol: WETH, address: "0x7b79995e5f793A07Bc00c21412e50Ecae098E7f9", decimals: 18}]
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.mutate))
			assert.Error(t, err)
		})
	}
}
