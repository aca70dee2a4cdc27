package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Mohsinsiddi/w3penalty/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "flare", cfg.DefaultNetwork)
	assert.Equal(t, "testnet", cfg.NetworkMode)
	assert.Equal(t, "fastest", cfg.RPCAlgorithm)
	assert.Equal(t, 2*time.Second, cfg.PollEvery())
	assert.Equal(t, 3*time.Minute, cfg.ConfirmWithin())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Contract)
}

func TestSaveAndReloadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	cfg.DefaultNetwork = "songbird"
	cfg.DefaultWallet = "mywallet"
	cfg.Contract = "0x1111111111111111111111111111111111111111"
	cfg.RPCAlgorithm = "round-robin"

	require.NoError(t, cfg.Save())

	reloaded, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "songbird", reloaded.DefaultNetwork)
	assert.Equal(t, "mywallet", reloaded.DefaultWallet)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", reloaded.Contract)
	assert.Equal(t, "round-robin", reloaded.RPCAlgorithm)
}

func TestLoadCorruptConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{nope"), 0o600))

	_, err := config.Load(dir)
	assert.Error(t, err)
}

func TestSetKnownKeys(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cfg.Set("network_mode", "mainnet"))
	require.NoError(t, cfg.Set("rpc_algorithm", "failover"))
	require.NoError(t, cfg.Set("poll_interval", "5"))
	require.NoError(t, cfg.Set("confirm_timeout", "60"))
	require.NoError(t, cfg.Set("log_level", "debug"))

	assert.Equal(t, "mainnet", cfg.NetworkMode)
	assert.Equal(t, "failover", cfg.RPCAlgorithm)
	assert.Equal(t, 5*time.Second, cfg.PollEvery())
	assert.Equal(t, time.Minute, cfg.ConfirmWithin())
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestSetRejectsBadValues(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, cfg.Set("network_mode", "devnet"))
	assert.Error(t, cfg.Set("rpc_algorithm", "random"))
	assert.Error(t, cfg.Set("poll_interval", "0"))
	assert.Error(t, cfg.Set("confirm_timeout", "soon"))
	assert.Error(t, cfg.Set("price_currency", "USD"))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("W3PENALTY_CONTRACT", "0x2222222222222222222222222222222222222222")
	t.Setenv("W3PENALTY_NETWORK", "ethereum")
	t.Setenv("W3PENALTY_MODE", "mainnet")
	t.Setenv("W3PENALTY_WALLET", "ops")
	t.Setenv("W3PENALTY_RPC_URL", "http://localhost:8545")
	t.Setenv("W3PENALTY_LOG_LEVEL", "debug")

	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "0x2222222222222222222222222222222222222222", cfg.Contract)
	assert.Equal(t, "ethereum", cfg.DefaultNetwork)
	assert.Equal(t, "mainnet", cfg.NetworkMode)
	assert.Equal(t, "ops", cfg.DefaultWallet)
	assert.Equal(t, "http://localhost:8545", cfg.RPCURL)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestEnvOverrideValidated(t *testing.T) {
	t.Setenv("W3PENALTY_MODE", "devnet")
	_, err := config.Load(t.TempDir())
	assert.ErrorContains(t, err, "W3PENALTY_mode")
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	cfg.DefaultNetwork = "songbird"
	require.NoError(t, cfg.Save())

	t.Setenv("W3PENALTY_NETWORK", "flare")
	reloaded, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "flare", reloaded.DefaultNetwork)
}

func TestSaveKeepsEnvOverridesOutOfFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("W3PENALTY_CONTRACT", "0x2222222222222222222222222222222222222222")
	t.Setenv("W3PENALTY_NETWORK", "ethereum")

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	require.NoError(t, cfg.Set("network_mode", "mainnet"))
	require.NoError(t, cfg.Set("default_network", "songbird"))
	require.NoError(t, cfg.Save())

	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "0x2222222222222222222222222222222222222222")
	assert.Contains(t, string(data), `"songbird"`)
	assert.Contains(t, string(data), `"mainnet"`)
}

func TestLogPath(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "w3penalty.log"), cfg.LogPath())

	cfg.LogFile = "/var/log/w3penalty.log"
	assert.Equal(t, "/var/log/w3penalty.log", cfg.LogPath())
}

func TestAddCustomRPC(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cfg.AddRPC("flare", "https://custom.flare.rpc"))
	assert.Contains(t, cfg.GetRPCs("flare"), "https://custom.flare.rpc")
}

func TestAddDuplicateRPCErrors(t *testing.T) {
	cfg, _ := config.Load(t.TempDir())

	cfg.AddRPC("flare", "https://custom.flare.rpc") //nolint:errcheck
	err := cfg.AddRPC("flare", "https://custom.flare.rpc")
	assert.Error(t, err)
}

func TestRemoveCustomRPC(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	cfg.AddRPC("flare", "https://rpc1.flare") //nolint:errcheck
	cfg.AddRPC("flare", "https://rpc2.flare") //nolint:errcheck

	require.NoError(t, cfg.RemoveRPC("flare", "https://rpc1.flare"))

	rpcs := cfg.GetRPCs("flare")
	assert.NotContains(t, rpcs, "https://rpc1.flare")
	assert.Contains(t, rpcs, "https://rpc2.flare")
	assert.Error(t, cfg.RemoveRPC("flare", "https://nonexistent.rpc"))
}

func TestConfigFileCreatedOnSave(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Load(dir)
	require.NoError(t, cfg.Save())

	_, err := os.Stat(filepath.Join(dir, "config.json"))
	assert.NoError(t, err, "config.json should be created on save")
	assert.Equal(t, dir, cfg.Dir())
}

func TestLoadFromNonExistentDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "subdir")
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "flare", cfg.DefaultNetwork)
}

func TestWalletsPath(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "wallets.json"), cfg.WalletsPath())
}
