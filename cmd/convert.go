package cmd

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3penalty/internal/chain"
	"github.com/Mohsinsiddi/w3penalty/internal/units"
	"github.com/Mohsinsiddi/w3penalty/internal/ui"
)

var convertCmd = &cobra.Command{
	Use:   "convert <amount> [unit]",
	Short: "Convert fine amounts between the native currency and wei",
	Long: `Convert an amount between the major unit of the native currency
(FLR, SGB, ETH and their testnet symbols) and its 18-decimal minor unit.

Units: wei, or any native currency symbol. Without a unit the amount is
read as the configured network's currency. Hex input (0x…) is wei.

Examples:
  w3penalty convert 0.5            # → 500000000000000000 wei
  w3penalty convert 1.25 sgb       # → 1250000000000000000 wei
  w3penalty convert 2500000 wei    # → 0.0000000000025
  w3penalty convert 0x0de0b6b3a7640000`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		currency := "FLR"
		if c, err := chain.NewRegistry().GetByName(cfg.DefaultNetwork); err == nil {
			currency = c.Currency(cfg.NetworkMode)
		}
		unit := ""
		if len(args) > 1 {
			unit = args[1]
		}

		pairs, err := convertAmount(args[0], unit, currency)
		if err != nil {
			return err
		}
		fmt.Println(ui.KeyValueBlock("Unit Conversion", pairs))
		return nil
	},
}

// convertAmount converts amount from unit into the other side. defaultCurrency
// labels major-unit amounts when unit is empty or a currency symbol.
func convertAmount(amount, unit, defaultCurrency string) ([][2]string, error) {
	unit = strings.ToLower(strings.TrimSpace(unit))
	if unit == "" && strings.HasPrefix(strings.ToLower(amount), "0x") {
		unit = "hex"
	}

	switch unit {
	case "wei":
		wei, ok := new(big.Int).SetString(amount, 10)
		if !ok || wei.Sign() < 0 {
			return nil, &units.FormatError{Input: amount, Reason: "wei must be a non-negative integer"}
		}
		return weiPairs(amount+" wei", wei, defaultCurrency), nil

	case "hex":
		wei, ok := new(big.Int).SetString(strings.TrimPrefix(strings.ToLower(amount), "0x"), 16)
		if !ok {
			return nil, &units.FormatError{Input: amount, Reason: "not a hex number"}
		}
		return weiPairs(amount, wei, defaultCurrency), nil
	}

	currency := defaultCurrency
	if unit != "" {
		currency = strings.ToUpper(unit)
		if !knownCurrency(currency) {
			return nil, fmt.Errorf("unknown unit %q: use wei or a native currency symbol", unit)
		}
	}
	wei, ok, err := units.ToWei(amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &units.FormatError{Input: amount, Reason: "empty amount"}
	}
	return [][2]string{
		{"Input", ui.Val(amount + " " + currency)},
		{"Wei", ui.Val(wei.String() + " wei")},
		{"Hex", ui.Val("0x" + wei.Text(16))},
	}, nil
}

func weiPairs(input string, wei *big.Int, currency string) [][2]string {
	return [][2]string{
		{"Input", ui.Val(input)},
		{currency, ui.Val(units.FromWei(wei) + " " + currency)},
		{"Wei", ui.Val(wei.String())},
	}
}

func knownCurrency(symbol string) bool {
	for _, c := range chain.NewRegistry().All() {
		if strings.EqualFold(c.NativeCurrency, symbol) || strings.EqualFold(c.TestnetCurrency, symbol) {
			return true
		}
	}
	return false
}
