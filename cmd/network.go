package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3penalty/internal/chain"
	"github.com/Mohsinsiddi/w3penalty/internal/ui"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Manage networks",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported networks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t := ui.NewTable([]ui.Column{
			{Title: "", Width: 1},
			{Title: "Name", Width: 10},
			{Title: "Chain ID", Width: 9, Right: true},
			{Title: "Currency", Width: 10},
			{Title: "Testnet", Width: 10},
			{Title: "Test ID", Width: 9, Right: true},
			{Title: "Currency", Width: 10},
		})
		for i, c := range chain.NewRegistry().All() {
			mark := ""
			if c.Name == cfg.DefaultNetwork {
				mark = "▸"
				t.SelIdx = i
			}
			t.AddRow(ui.Row{
				mark,
				c.Name,
				fmt.Sprint(c.ChainID),
				c.NativeCurrency,
				c.TestnetName,
				fmt.Sprint(c.TestnetChainID),
				c.TestnetCurrency,
			})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("Using %s in %s mode", cfg.DefaultNetwork, cfg.NetworkMode)))
		return nil
	},
}

var networkUseCmd = &cobra.Command{
	Use:   "use <network>",
	Short: "Set the default network",
	Long: `Set the default network and persist it to config.

When combined with --testnet or --mainnet the network mode is also persisted.

Examples:
  w3penalty network use songbird
  w3penalty network use flare --mainnet`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := chain.NewRegistry().GetByName(args[0])
		if err != nil {
			return fmt.Errorf("unknown network %q: run `w3penalty network list`", args[0])
		}
		cfg.DefaultNetwork = c.Name
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default network set to %s (%s)",
			ui.ChainName(c.NetworkName(cfg.NetworkMode)), cfg.NetworkMode)))
		return nil
	},
}

func init() {
	networkCmd.AddCommand(networkListCmd, networkUseCmd)
}
