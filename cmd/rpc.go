package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3penalty/internal/chain"
	"github.com/Mohsinsiddi/w3penalty/internal/config"
	"github.com/Mohsinsiddi/w3penalty/internal/rpc"
	"github.com/Mohsinsiddi/w3penalty/internal/ui"
)

var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Manage RPC endpoints",
}

// networkArg returns the named network, or the default one when args is empty.
func networkArg(args []string) (*chain.Chain, error) {
	name := cfg.DefaultNetwork
	if len(args) > 0 {
		name = args[0]
	}
	c, err := chain.NewRegistry().GetByName(name)
	if err != nil {
		return nil, fmt.Errorf("unknown network %q", name)
	}
	return c, nil
}

var rpcAddCmd = &cobra.Command{
	Use:   "add <network> <url>",
	Short: "Add a custom RPC URL for a network",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := networkArg(args[:1])
		if err != nil {
			return err
		}
		if err := cfg.AddRPC(c.Name, args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Added RPC for %s: %s", ui.ChainName(c.Name), args[1])))
		return nil
	},
}

var rpcRemoveCmd = &cobra.Command{
	Use:   "remove <network> <url>",
	Short: "Remove a custom RPC URL",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RemoveRPC(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Removed RPC for %s: %s", args[0], args[1])))
		return nil
	},
}

var rpcListCmd = &cobra.Command{
	Use:   "list [network]",
	Short: "List the RPCs of a network",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := networkArg(args)
		if err != nil {
			return err
		}
		fmt.Println(ui.StyleTitle.Render("RPCs for " + c.DisplayName))
		for _, r := range c.MainnetRPCs {
			fmt.Printf("  %s %s\n", ui.Meta("(mainnet)"), r)
		}
		for _, r := range c.TestnetRPCs {
			fmt.Printf("  %s %s\n", ui.Meta("(testnet)"), r)
		}
		for _, r := range cfg.GetRPCs(c.Name) {
			fmt.Printf("  %s  %s\n", ui.Meta("(custom)"), r)
		}
		if cfg.RPCURL != "" {
			fmt.Println(ui.Warn("Pinned: " + cfg.RPCURL + " (selection is skipped)"))
		}
		return nil
	},
}

var rpcBenchmarkCmd = &cobra.Command{
	Use:   "benchmark [network]",
	Short: "Benchmark the RPCs of a network in the current mode",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := networkArg(args)
		if err != nil {
			return err
		}
		urls := append(append([]string(nil), cfg.GetRPCs(c.Name)...), c.RPCs(cfg.NetworkMode)...)

		fmt.Printf("%s\n\n", ui.StyleTitle.Render("Benchmarking "+c.NetworkName(cfg.NetworkMode)+" RPCs..."))

		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCSelectTimeout)
		defer cancel()
		results := rpc.Benchmark(ctx, urls, c.ID(cfg.NetworkMode))

		t := ui.NewTable([]ui.Column{
			{Title: "RPC URL", Width: 46},
			{Title: "Latency", Width: 9, Right: true},
			{Title: "Block #", Width: 12, Right: true},
			{Title: "Status", Width: 12},
		})
		for _, r := range results {
			status, latency, block := "healthy", fmt.Sprintf("%dms", r.Latency.Milliseconds()), fmt.Sprint(r.BlockNumber)
			switch {
			case errors.Is(r.Err, rpc.ErrWrongChain):
				status, latency, block = "wrong chain", "-", "-"
			case r.Err != nil:
				status, latency, block = "down", "-", "-"
			}
			t.AddRow(ui.Row{r.URL, latency, block, status})
		}
		fmt.Println(t.Render())

		winner, err := rpc.NewPicker(rpc.Algorithm(cfg.RPCAlgorithm)).Pick(rpc.ResultsToEndpoints(results))
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("%s picks %s", cfg.RPCAlgorithm, winner.URL)))
		return nil
	},
}

var rpcAlgorithmCmd = &cobra.Command{
	Use:   "algorithm <fastest|round-robin|failover>",
	Short: "Set the RPC selection algorithm",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Set("rpc_algorithm", args[0]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("RPC algorithm set to %q", args[0])))
		return nil
	},
}

func init() {
	rpcCmd.AddCommand(rpcAddCmd, rpcRemoveCmd, rpcListCmd, rpcBenchmarkCmd, rpcAlgorithmCmd)
}
