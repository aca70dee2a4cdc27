package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3penalty/internal/chain"
	"github.com/Mohsinsiddi/w3penalty/internal/config"
	"github.com/Mohsinsiddi/w3penalty/internal/session"
	"github.com/Mohsinsiddi/w3penalty/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"list"},
	Short:   "Show the effective configuration",
	Long: `Show the configuration in effect: config.json with W3PENALTY_* environment
overrides applied.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("%s\n\n", ui.StyleTitle.Render("Current Configuration"))
		fmt.Println(string(data))
		fmt.Println(ui.Meta("Config directory: " + cfg.Dir()))
		fmt.Println(ui.Meta("Log file:         " + cfg.LogPath()))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value and save it.\n\nKeys: " + strings.Join(config.Keys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := validateSetting(key, value); err != nil {
			return err
		}
		if err := cfg.Set(key, value); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("%s set to %q", key, value)))
		return nil
	},
}

// validateSetting checks values config.Set cannot judge on its own.
func validateSetting(key, value string) error {
	switch key {
	case "contract":
		if !session.ValidAddress(strings.TrimSpace(value)) {
			return fmt.Errorf("contract must be a 0x-prefixed address, got %q", value)
		}
	case "default_network":
		if _, err := chain.NewRegistry().GetByName(value); err != nil {
			return fmt.Errorf("unknown network %q: run `w3penalty network list`", value)
		}
	}
	return nil
}

var configSetRPCCmd = &cobra.Command{
	Use:   "set-rpc <network> <url>",
	Short: "Pin the RPC endpoint used for every connection",
	Long: `Pin one endpoint, skipping benchmark-based selection. The network is
checked against the registry; pass an empty url to unpin.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		network, url := args[0], args[1]
		if _, err := chain.NewRegistry().GetByName(network); err != nil {
			return fmt.Errorf("unknown network %q", network)
		}
		if err := cfg.Set("default_network", network); err != nil {
			return err
		}
		if err := cfg.Set("rpc_url", url); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		if url == "" {
			fmt.Println(ui.Success("RPC unpinned; endpoints will be benchmarked again."))
			return nil
		}
		fmt.Println(ui.Success(fmt.Sprintf("RPC for %s pinned to %s", ui.ChainName(network), url)))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configSetRPCCmd)
}
