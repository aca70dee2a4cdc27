package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3penalty/internal/ui"
	"github.com/Mohsinsiddi/w3penalty/internal/wallet"
)

var (
	walletKeyFlag   string
	walletRemoveYes bool
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage the wallets the panel acts as",
	Long: `Manage wallets. A signing wallet's key lives in the OS keychain and
lets the panel send transactions; a watch-only wallet only shows its
penalties and opens a read-only panel.`,
}

var walletAddCmd = &cobra.Command{
	Use:   "add <name> <address>",
	Short: "Add a watch-only wallet",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, address := args[0], args[1]
		mgr := newWalletManager()
		if err := mgr.AddWatchOnly(name, address); err != nil {
			return err
		}
		w, _ := mgr.Get(name)
		fmt.Println(ui.Success(fmt.Sprintf("Watch-only wallet %q added: %s", name, ui.Addr(w.Address))))
		fmt.Println(ui.Hint(fmt.Sprintf("Set as default with: w3penalty wallet use %s", name)))
		return nil
	},
}

var walletImportCmd = &cobra.Command{
	Use:   "import <name>",
	Short: "Import a signing wallet from a private key",
	Long: `Import a signing wallet. The hex private key is read from --key, or
from stdin when --key is omitted, and stored in the OS keychain.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		key := walletKeyFlag
		if key == "" {
			fmt.Fprint(os.Stderr, "Private key (hex): ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("reading key: %w", err)
			}
			key = strings.TrimSpace(line)
		}

		mgr := newWalletManager()
		if err := mgr.AddWithKey(name, key); err != nil {
			return err
		}
		w, _ := mgr.Get(name)
		fmt.Println(ui.Success(fmt.Sprintf("Signing wallet %q added: %s", name, ui.Addr(w.Address))))
		fmt.Println(ui.Hint(fmt.Sprintf("Set as default with: w3penalty wallet use %s", name)))
		return nil
	},
}

var walletGenerateCmd = &cobra.Command{
	Use:   "generate <name>",
	Short: "Generate a new signing wallet",
	Long: `Generate a fresh EVM key pair. The private key is stored only in the OS
keychain; fund the printed address before sending transactions.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := newWalletManager().Generate(args[0])
		if err != nil {
			return err
		}
		fmt.Println(ui.KeyValueBlock("New Wallet", [][2]string{
			{"Name", w.Name},
			{"Address", ui.Addr(w.Address)},
			{"Key", ui.Meta("stored in the OS keychain as " + w.KeyRef)},
		}))
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all wallets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		wallets := newWalletManager().List()
		if len(wallets) == 0 {
			fmt.Println(ui.Info("No wallets configured yet."))
			fmt.Println(ui.Hint("Add one with: w3penalty wallet add myWallet 0xYourAddress"))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 16},
			{Title: "Address", Width: 42},
			{Title: "Type", Width: 10},
			{Title: "Default", Width: 7},
		})
		for _, w := range wallets {
			def := ""
			if w.IsDefault {
				def = "✓"
			}
			t.AddRow(ui.Row{w.Name, w.Address, walletTypeLabel(w.Type), def})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d wallet(s) configured", len(wallets))))
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a wallet and its stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !walletRemoveYes && !ui.ConfirmDanger(fmt.Sprintf("Remove wallet %q?", name)) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		if err := newWalletManager().Remove(name); err != nil {
			return err
		}
		if cfg.DefaultWallet == name {
			cfg.DefaultWallet = ""
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		fmt.Println(ui.Success(fmt.Sprintf("Wallet %q removed.", name)))
		return nil
	},
}

var walletUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the default wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := newWalletManager().SetDefault(name); err != nil {
			if errors.Is(err, wallet.ErrWalletNotFound) {
				return fmt.Errorf("wallet %q not found: run `w3penalty wallet list`", name)
			}
			return err
		}
		cfg.DefaultWallet = name
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default wallet set to %q.", name)))
		return nil
	},
}

// walletTypeLabel converts a wallet type to a user-friendly label.
func walletTypeLabel(t string) string {
	if t == wallet.TypeSigning {
		return "read-write"
	}
	return t
}

func init() {
	walletImportCmd.Flags().StringVar(&walletKeyFlag, "key", "", "hex private key (read from stdin when omitted)")
	walletRemoveCmd.Flags().BoolVarP(&walletRemoveYes, "yes", "y", false, "skip the confirmation prompt")
	walletCmd.AddCommand(walletAddCmd, walletImportCmd, walletGenerateCmd, walletListCmd, walletRemoveCmd, walletUseCmd)
}
