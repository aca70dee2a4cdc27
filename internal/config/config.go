package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	defaultNetwork        = "flare"
	defaultMode           = "testnet"
	defaultAlgorithm      = "fastest"
	defaultPollInterval   = 2
	defaultConfirmTimeout = 180
	defaultLogLevel       = "info"

	configFile  = "config.json"
	walletsFile = "wallets.json"
	logFile     = "w3penalty.log"
)

// Load reads config from dir (or creates defaults), then applies environment
// overrides. dir defaults to ~/.w3penalty.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".w3penalty")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.configDir = dir
	if cfg.CustomRPCs == nil {
		cfg.CustomRPCs = make(map[string][]string)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to disk. Values that came from the environment are
// not written unless they were changed since Load.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	return saveJSON(filepath.Join(c.configDir, configFile), c.persisted())
}

// Keys lists the settings accepted by Set.
func Keys() []string {
	return []string{
		"contract", "default_network", "default_wallet", "network_mode",
		"rpc_algorithm", "rpc_url", "poll_interval", "confirm_timeout",
		"log_file", "log_level",
	}
}

// Set assigns a setting by its JSON key.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "contract":
		c.Contract = value
	case "default_network":
		c.DefaultNetwork = value
	case "default_wallet":
		c.DefaultWallet = value
	case "network_mode":
		if value != "mainnet" && value != "testnet" {
			return fmt.Errorf("network_mode must be mainnet or testnet, got %q", value)
		}
		c.NetworkMode = value
	case "rpc_algorithm":
		if !slices.Contains([]string{"fastest", "round-robin", "failover"}, value) {
			return fmt.Errorf("unknown rpc_algorithm %q", value)
		}
		c.RPCAlgorithm = value
	case "rpc_url":
		c.RPCURL = value
	case "poll_interval", "confirm_timeout":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive number of seconds, got %q", key, value)
		}
		if key == "poll_interval" {
			c.PollInterval = n
		} else {
			c.ConfirmTimeout = n
		}
	case "log_file":
		c.LogFile = value
	case "log_level":
		c.LogLevel = value
	default:
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return nil
}

// AddRPC adds a custom RPC URL for a chain.
func (c *Config) AddRPC(chain, url string) error {
	if c.CustomRPCs == nil {
		c.CustomRPCs = make(map[string][]string)
	}
	if slices.Contains(c.CustomRPCs[chain], url) {
		return fmt.Errorf("RPC %s already exists for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = append(c.CustomRPCs[chain], url)
	return nil
}

// RemoveRPC removes a custom RPC URL for a chain.
func (c *Config) RemoveRPC(chain, url string) error {
	rpcs := c.CustomRPCs[chain]
	idx := slices.Index(rpcs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = slices.Delete(rpcs, idx, idx+1)
	return nil
}

// GetRPCs returns custom RPCs for a chain.
func (c *Config) GetRPCs(chain string) []string {
	return c.CustomRPCs[chain]
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// LogPath returns the log file, defaulting to w3penalty.log in the config dir.
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.configDir, logFile)
}

// PollEvery returns the receipt poll interval.
func (c *Config) PollEvery() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}

// ConfirmWithin returns how long to wait for a receipt.
func (c *Config) ConfirmWithin() time.Duration {
	return time.Duration(c.ConfirmTimeout) * time.Second
}

// WalletsPath returns the wallet store file.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		DefaultNetwork: defaultNetwork,
		NetworkMode:    defaultMode,
		RPCAlgorithm:   defaultAlgorithm,
		PollInterval:   defaultPollInterval,
		ConfirmTimeout: defaultConfirmTimeout,
		LogLevel:       defaultLogLevel,
		CustomRPCs:     make(map[string][]string),
		configDir:      dir,
	}
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
