package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3penalty/internal/chain"
	"github.com/Mohsinsiddi/w3penalty/internal/session"
	"github.com/Mohsinsiddi/w3penalty/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive setup wizard",
	Long:  "Launch the interactive setup wizard: network, mode, RPC algorithm, contract and an optional watch-only wallet.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(ui.Banner(Version))

		var names []string
		for _, c := range chain.NewRegistry().All() {
			names = append(names, c.Name)
		}
		result, err := ui.RunWizard(names, session.ValidAddress)
		if err != nil {
			return err
		}
		if result.Aborted {
			fmt.Println(ui.Meta("Setup cancelled; nothing was saved."))
			return nil
		}

		for key, value := range map[string]string{
			"default_network": result.DefaultNetwork,
			"network_mode":    result.NetworkMode,
			"rpc_algorithm":   result.RPCAlgorithm,
			"contract":        result.Contract,
		} {
			if value == "" {
				continue
			}
			if err := cfg.Set(key, value); err != nil {
				return err
			}
		}

		if result.WalletAddress != "" {
			mgr := newWalletManager()
			if err := mgr.AddWatchOnly(result.WalletName, result.WalletAddress); err != nil {
				fmt.Println(ui.Warn(fmt.Sprintf("Could not add wallet: %v", err)))
			} else if err := mgr.SetDefault(result.WalletName); err == nil {
				cfg.DefaultWallet = result.WalletName
			}
		}

		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Println(ui.Success("w3penalty configured!"))
		if cfg.Contract == "" {
			fmt.Println(ui.Hint("Set the contract with `w3penalty config set contract <address>`"))
		} else {
			fmt.Println(ui.Hint("Open the panel with `w3penalty panel`"))
		}
		return nil
	},
}
