package cmd

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/sha3"

	"github.com/Mohsinsiddi/w3penalty/internal/penalty"
	"github.com/Mohsinsiddi/w3penalty/internal/ui"
)

var selectorsCmd = &cobra.Command{
	Use:   "selectors [signature-or-selector]",
	Short: "List the penalty contract's function selectors, or compute one",
	Long: `Without arguments, list every function of the penalty contract with its
4-byte selector. With a canonical signature, compute its selector; with a
0x selector, name the contract function it belongs to.

Examples:
  w3penalty selectors
  w3penalty selectors "issuePenalty(address offender)"   # → 0x…
  w3penalty selectors 0x3ccfd60b                          # → withdraw`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		known, err := contractSelectors()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			t := ui.NewTable([]ui.Column{
				{Title: "Selector", Width: 10},
				{Title: "Signature", Width: 32},
				{Title: "Kind", Width: 10},
			})
			for _, s := range known {
				t.AddRow(ui.Row{s.selector, s.signature, s.kind})
			}
			fmt.Println(t.Render())
			return nil
		}

		input := args[0]
		if strings.HasPrefix(strings.ToLower(input), "0x") {
			name := ui.Meta("not a penalty contract function")
			for _, s := range known {
				if strings.EqualFold(s.selector, input) {
					name = ui.Val(s.signature)
				}
			}
			fmt.Println(ui.KeyValueBlock("Selector Lookup", [][2]string{
				{"Selector", input},
				{"Method", name},
			}))
			return nil
		}

		sig := normalizeSignature(input)
		hash := keccak([]byte(sig))
		fmt.Println(ui.KeyValueBlock("Function Selector", [][2]string{
			{"Signature", sig},
			{"Selector", ui.Val("0x" + hex.EncodeToString(hash[:4]))},
			{"Full Hash", "0x" + hex.EncodeToString(hash)},
		}))
		return nil
	},
}

type selectorInfo struct {
	selector  string
	signature string
	kind      string
}

// contractSelectors hashes every ABI method signature, sorted by name.
func contractSelectors() ([]selectorInfo, error) {
	parsed, err := penalty.ParsedABI()
	if err != nil {
		return nil, err
	}
	out := make([]selectorInfo, 0, len(parsed.Methods))
	for _, m := range parsed.Methods {
		kind := "write"
		switch {
		case m.IsConstant():
			kind = "read"
		case m.IsPayable():
			kind = "payable"
		}
		out = append(out, selectorInfo{
			selector:  "0x" + hex.EncodeToString(keccak([]byte(m.Sig))[:4]),
			signature: m.Sig,
			kind:      kind,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].signature < out[j].signature })
	return out, nil
}

func keccak(b []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(b)
	return h.Sum(nil)
}

// normalizeSignature removes parameter names, keeping only types.
// "transfer(address to, uint256 amount)" → "transfer(address,uint256)"
func normalizeSignature(sig string) string {
	open := strings.Index(sig, "(")
	if open < 0 || !strings.HasSuffix(sig, ")") {
		return strings.TrimSpace(sig)
	}
	name := strings.TrimSpace(sig[:open])

	var types []string
	for _, p := range strings.Split(sig[open+1:len(sig)-1], ",") {
		if fields := strings.Fields(p); len(fields) > 0 {
			types = append(types, fields[0])
		}
	}
	return name + "(" + strings.Join(types, ",") + ")"
}
