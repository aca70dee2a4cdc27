package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. W3PENALTY_CONTRACT.
const EnvPrefix = "W3PENALTY"

// EnvDir names the variable that relocates the config directory.
const EnvDir = EnvPrefix + "_CONFIG_DIR"

// envKeys are the settings that may be overridden from the environment.
var envKeys = []string{"contract", "network", "mode", "wallet", "rpc_url", "log_level"}

// applyEnv overlays W3PENALTY_* variables onto c, validated like `config set`.
func (c *Config) applyEnv() error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}

	set := map[string]string{
		"contract":  "contract",
		"network":   "default_network",
		"mode":      "network_mode",
		"wallet":    "default_wallet",
		"rpc_url":   "rpc_url",
		"log_level": "log_level",
	}
	for _, key := range envKeys {
		val := v.GetString(key)
		if val == "" {
			continue
		}
		field := c.stringField(set[key])
		before := *field
		if err := c.Set(set[key], val); err != nil {
			return fmt.Errorf("%s_%s: %w", EnvPrefix, key, err)
		}
		c.overrides = append(c.overrides, override{key: set[key], fileValue: before, envValue: *field})
	}
	return nil
}

// stringField points at the string setting named by its JSON key, or at a
// scratch value for keys that are not strings.
func (c *Config) stringField(key string) *string {
	switch key {
	case "contract":
		return &c.Contract
	case "default_network":
		return &c.DefaultNetwork
	case "default_wallet":
		return &c.DefaultWallet
	case "network_mode":
		return &c.NetworkMode
	case "rpc_url":
		return &c.RPCURL
	case "log_level":
		return &c.LogLevel
	}
	return new(string)
}

// persisted returns a copy of c with environment overrides replaced by the
// file values, unless the setting was changed after loading.
func (c *Config) persisted() *Config {
	out := *c
	for _, o := range c.overrides {
		if f := out.stringField(o.key); *f == o.envValue {
			*f = o.fileValue
		}
	}
	return &out
}
