package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3penalty/internal/config"
	"github.com/Mohsinsiddi/w3penalty/internal/logger"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/w3penalty/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir       string
	cfg          *config.Config
	log          = zap.NewNop()
	verbose      bool
	testnet      bool
	mainnet      bool
	walletFlag   string
	contractFlag string
	rpcFlag      string
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "w3penalty",
	Short: "Penalty contract console",
	Long: `w3penalty drives a penalty smart contract from the terminal.

  Issue and clear penalties, pay your fines, and manage the block
  threshold and fine amount, from an interactive panel or one-shot commands.

Global flags --testnet and --mainnet override the configured network mode
for a single invocation. Persist with: w3penalty config set network_mode <mode>`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if testnet {
			cfg.NetworkMode = "testnet"
		}
		if mainnet {
			cfg.NetworkMode = "mainnet"
		}
		return setupLogger(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

// setupLogger logs to the rotating file. One-shot commands with --verbose
// also log to stderr at debug level; the panel owns the terminal and never
// does.
func setupLogger(cmd *cobra.Command) error {
	opts := logger.Options{File: cfg.LogPath(), Level: cfg.LogLevel}
	if verbose {
		opts.Level = "debug"
		if cmd.Name() != panelCmd.Name() {
			opts.Console = os.Stderr
		}
	}
	l, err := logger.New(opts)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	log = l.With(zap.String("cmd", cmd.Name()))
	return nil
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errLine(err))
		stop()
		os.Exit(1)
	}
}

func init() {
	// W3PENALTY_CONFIG_DIR overrides the --config default.
	if envDir := os.Getenv(config.EnvDir); envDir != "" {
		cfgDir = envDir
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.w3penalty)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging (also to stderr outside the panel)")
	pf.BoolVar(&testnet, "testnet", false, "use the testnet of the configured network")
	pf.BoolVar(&mainnet, "mainnet", false, "use the mainnet of the configured network")
	pf.StringVarP(&walletFlag, "wallet", "w", "", "wallet to act as (default: the default wallet)")
	pf.StringVar(&contractFlag, "contract", "", "penalty contract address (default: config contract)")
	pf.StringVar(&rpcFlag, "rpc", "", "RPC endpoint to use, skipping selection")
	rootCmd.MarkFlagsMutuallyExclusive("testnet", "mainnet")

	rootCmd.AddCommand(
		initCmd,
		panelCmd,
		statusCmd,
		viewCmd,
		issueCmd,
		clearCmd,
		payCmd,
		withdrawCmd,
		setThresholdCmd,
		setFineCmd,
		selectorsCmd,
		convertCmd,
		checksumCmd,
		walletCmd,
		configCmd,
		networkCmd,
		rpcCmd,
	)
}
