package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3penalty/internal/session"
	"github.com/Mohsinsiddi/w3penalty/internal/ui"
)

var checksumCmd = &cobra.Command{
	Use:   "checksum <address>",
	Short: "Check an address the way the panel does and print its EIP-55 form",
	Long: `Print the EIP-55 checksummed form of an address and whether the panel
would accept it as typed. All-lowercase and all-uppercase input is accepted;
mixed case must match the checksum.

Examples:
  w3penalty checksum 0xd8da6bf26964af9d7eed9e03e53415d37aa96045
  w3penalty checksum 0xD8DA6BF26964AF9D7EED9E03E53415D37AA96045`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		checksummed, verdict, err := checkAddress(args[0])
		if err != nil {
			return err
		}
		fmt.Println(ui.KeyValueBlock("EIP-55 Checksum", [][2]string{
			{"Input", args[0]},
			{"Checksummed", ui.Addr(checksummed)},
			{"Valid", verdict},
		}))
		return nil
	},
}

// checkAddress returns the checksummed form of input and a verdict line.
func checkAddress(input string) (string, string, error) {
	clean := strings.TrimPrefix(strings.TrimPrefix(input, "0x"), "0X")
	if len(clean) != 40 {
		return "", "", fmt.Errorf("invalid address length: expected 40 hex chars, got %d", len(clean))
	}
	if _, err := hex.DecodeString(clean); err != nil {
		return "", "", fmt.Errorf("invalid hex address: %w", err)
	}

	checksummed := common.HexToAddress(clean).Hex()
	switch {
	case input == checksummed:
		return checksummed, ui.Success("address is correctly checksummed"), nil
	case session.ValidAddress(input):
		return checksummed, ui.Warn("accepted, but not checksummed"), nil
	default:
		return checksummed, ui.Err("checksum mismatch: rejected"), nil
	}
}
