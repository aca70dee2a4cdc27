package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Confirm asks a yes/no question on stdin. Only y or yes count as yes.
func Confirm(prompt string) bool {
	return ConfirmFrom(os.Stdin, os.Stdout, StyleWarning.Render(prompt))
}

// ConfirmDanger is Confirm styled for irreversible actions such as
// withdrawing the contract balance or removing a wallet.
func ConfirmDanger(prompt string) bool {
	return ConfirmFrom(os.Stdin, os.Stdout, StyleError.Render("⚠ "+prompt))
}

// ConfirmFrom writes prompt to w and reads the answer from r.
func ConfirmFrom(r io.Reader, w io.Writer, prompt string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", prompt)
	line, _ := bufio.NewReader(r).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
