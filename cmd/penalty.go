package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3penalty/internal/config"
	"github.com/Mohsinsiddi/w3penalty/internal/penalty"
	"github.com/Mohsinsiddi/w3penalty/internal/session"
	"github.com/Mohsinsiddi/w3penalty/internal/ui"
)

var withdrawYes bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show contract state and your penalties",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := connect(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer conn.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), config.ReadTimeout)
		defer cancel()
		if err := conn.sess.Refresh(ctx); err != nil {
			return fmt.Errorf("reading contract: %w", err)
		}

		fmt.Println(ui.KeyValueBlock("Penalty Contract", statusPairs(conn, conn.sess.Snapshot())))
		if conn.readOnly() {
			fmt.Println(ui.Hint("Read-only: add a signing wallet with `w3penalty wallet import <name> --key <hex>`"))
		}
		return nil
	},
}

func statusPairs(conn *connection, snap session.Snapshot) [][2]string {
	currency := conn.chain.Currency(conn.mode)
	owner := ui.Meta("unknown")
	if snap.HasOwner {
		owner = ui.Addr(snap.Owner.Hex())
	}
	pairs := [][2]string{
		{"Network", ui.ChainName(conn.chain.NetworkName(conn.mode))},
		{"Contract", ui.Addr(conn.contract.Address().Hex())},
		{"Fine per penalty", snap.FinePerPenaltyMajor + " " + currency},
		{"Block threshold", strconv.FormatUint(snap.BlockThreshold, 10)},
		{"Owner", owner},
	}
	if !snap.Connected {
		return append(pairs, [2]string{"Account", ui.Meta("no wallet")})
	}
	return append(pairs,
		[2]string{"Account", ui.Addr(snap.Account.Hex())},
		[2]string{"My penalties", strconv.FormatUint(snap.MyPenalties, 10)},
		[2]string{"Payable", snap.PayableMajor + " " + currency},
		[2]string{"Blocked", yesNo(snap.IsBlocked)},
	)
}

var viewCmd = &cobra.Command{
	Use:   "view <address>",
	Short: "Show the penalty count and block status of an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !session.ValidAddress(args[0]) {
			return fmt.Errorf("invalid address %q", args[0])
		}
		conn, err := connect(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer conn.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), config.ReadTimeout)
		defer cancel()
		if err := conn.sess.View(ctx, args[0]); err != nil {
			return fmt.Errorf("reading contract: %w", err)
		}

		snap := conn.sess.Snapshot()
		fmt.Println(ui.KeyValueBlock("Address", [][2]string{
			{"Address", ui.Addr(snap.Viewed.Hex())},
			{"Penalties", strconv.FormatUint(snap.ViewedPenalties, 10)},
			{"Blocked", yesNo(snap.IsBlocked)},
			{"Explorer", ui.Meta(conn.chain.AddressURL(conn.mode, snap.Viewed.Hex()))},
		}))
		return nil
	},
}

var issueCmd = &cobra.Command{
	Use:   "issue <address>",
	Short: "Issue a penalty to an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWrite(cmd, session.ActionIssuePenalty, func(ctx context.Context, s *session.Session) (common.Hash, error) {
			return s.IssuePenalty(ctx, args[0])
		})
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear <address>",
	Short: "Clear all penalties of an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWrite(cmd, session.ActionClearPenalties, func(ctx context.Context, s *session.Session) (common.Hash, error) {
			return s.ClearPenalties(ctx, args[0])
		})
	},
}

var payCmd = &cobra.Command{
	Use:   "pay",
	Short: "Pay the fines owed by your wallet",
	Long: `Pay finePerPenalty × your penalty count in one transaction.
Nothing is sent when you owe nothing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWrite(cmd, session.ActionPayFine, func(ctx context.Context, s *session.Session) (common.Hash, error) {
			return s.PayMyFine(ctx)
		})
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw collected fines to the owner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !withdrawYes && !ui.ConfirmDanger("Withdraw the contract balance?") {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		return runWrite(cmd, session.ActionWithdraw, func(ctx context.Context, s *session.Session) (common.Hash, error) {
			return s.Withdraw(ctx)
		})
	},
}

var setThresholdCmd = &cobra.Command{
	Use:   "set-threshold <count>",
	Short: "Set the penalty count at which addresses are blocked",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWrite(cmd, session.ActionSetBlockThreshold, func(ctx context.Context, s *session.Session) (common.Hash, error) {
			return s.SetBlockThreshold(ctx, args[0])
		})
	},
}

var setFineCmd = &cobra.Command{
	Use:   "set-fine <amount>",
	Short: "Set the fine per penalty, in the native currency (e.g. 0.5)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWrite(cmd, session.ActionSetFineAmount, func(ctx context.Context, s *session.Session) (common.Hash, error) {
			return s.SetFineAmount(ctx, args[0])
		})
	},
}

// runWrite submits one write, waits for its receipt behind a spinner and
// prints the outcome.
func runWrite(cmd *cobra.Command, action string, submit func(context.Context, *session.Session) (common.Hash, error)) error {
	conn, err := connect(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	if conn.readOnly() {
		return penalty.ErrReadOnly
	}

	sp := ui.NewSpinner("Submitting " + action + "…")
	sp.Start()

	ctx, cancel := context.WithTimeout(cmd.Context(), config.SendTimeout)
	hash, err := submit(ctx, conn.sess)
	cancel()
	if err != nil {
		sp.Stop()
		return err
	}
	if hash == (common.Hash{}) {
		sp.Stop()
		fmt.Println(ui.Info(nothingToSubmit(action)))
		return nil
	}

	sp.Update("Waiting for " + ui.TruncateAddr(hash.Hex()) + " to be mined…")
	conn.sess.Wait()
	sp.Stop()

	tx := conn.sess.Tx()
	fmt.Println(ui.KeyValueBlock("Transaction", txPairs(conn, tx)))
	if tx.Status == session.StatusFailed {
		return tx.Err
	}
	if action == session.ActionPayFine {
		fmt.Println(ui.Success("Fine paid. Remaining penalties: " + strconv.FormatUint(conn.sess.Snapshot().MyPenalties, 10)))
	}
	return nil
}

// nothingToSubmit explains a write that was skipped without a transaction.
func nothingToSubmit(action string) string {
	switch action {
	case session.ActionPayFine:
		return "Nothing to do: no fine is owed."
	case session.ActionSetFineAmount:
		return "Nothing to submit: no fine amount given."
	default:
		return "Nothing to submit."
	}
}

func txPairs(conn *connection, tx session.TxState) [][2]string {
	status := ui.Success(tx.Status.String())
	if tx.Status != session.StatusConfirmed {
		status = ui.Err(tx.Status.String())
	}
	pairs := [][2]string{
		{"Action", tx.Action},
		{"Status", status},
	}
	if tx.HasHash() {
		pairs = append(pairs,
			[2]string{"Hash", ui.Addr(tx.Hash.Hex())},
			[2]string{"Explorer", ui.Meta(conn.txURL(tx.Hash.Hex()))},
		)
	}
	if tx.Err != nil {
		pairs = append(pairs, [2]string{"Error", tx.Err.Error()})
	}
	return pairs
}

func yesNo(b bool) string {
	if b {
		return ui.StyleError.Render("yes")
	}
	return ui.StyleSuccess.Render("no")
}

// errLine renders a command error with a follow-up hint when one applies.
func errLine(err error) string {
	line := ui.Err(err.Error())
	var hint string
	switch {
	case errors.Is(err, penalty.ErrReadOnly):
		hint = "Use a signing wallet: `w3penalty wallet import <name> --key <hex>` then `w3penalty wallet use <name>`"
	case errors.Is(err, session.ErrConfirmTimeout):
		hint = "The transaction may still be mined; check it on the explorer."
	case session.IsValidation(err):
		hint = "Addresses are 0x + 40 hex characters; counts are whole numbers."
	}
	if hint != "" {
		line += "\n" + ui.Hint(hint)
	}
	return line
}

func init() {
	withdrawCmd.Flags().BoolVarP(&withdrawYes, "yes", "y", false, "skip the confirmation prompt")
}
