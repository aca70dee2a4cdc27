package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette.
var (
	ColorSuccess   = lipgloss.Color("#00D26A") // green: confirmed, paid
	ColorWarning   = lipgloss.Color("#FFB800") // yellow: pending, penalties
	ColorError     = lipgloss.Color("#FF4444") // red: failed, blocked
	ColorAddress   = lipgloss.Color("#00B4D8") // cyan: addresses, hashes
	ColorValue     = lipgloss.Color("#FFFFFF") // white bold: amounts
	ColorMeta      = lipgloss.Color("#555555") // dim gray: labels, hints
	ColorBorder    = lipgloss.Color("#1E3A5F") // dark blue: UI chrome
	ColorChain     = lipgloss.Color("#9B5DE5") // purple: network names, titles
	ColorHighlight = lipgloss.Color("#F15BB5") // pink: focused field
	ColorInfo      = lipgloss.Color("#4EA8DE") // light blue: notices
)

// Base styles.
var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleInfo    = lipgloss.NewStyle().Foreground(ColorInfo)
	StyleAddress = lipgloss.NewStyle().Foreground(ColorAddress)
	StyleValue   = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	StyleMeta    = lipgloss.NewStyle().Foreground(ColorMeta)
	StyleChain   = lipgloss.NewStyle().Foreground(ColorChain).Bold(true)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StyleFocused = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorHighlight).
			Padding(0, 1)

	StyleSelected = lipgloss.NewStyle().
			Background(ColorHighlight).
			Foreground(lipgloss.Color("#000000")).
			Bold(true)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorChain).
			Bold(true).
			MarginBottom(1)

	StyleDim = lipgloss.NewStyle().Foreground(ColorMeta)
)

// Banner returns the w3penalty banner for the given version.
func Banner(version string) string {
	art := `
  ┬ ┬┌─┐┌─┐┌─┐┌┐┌┌─┐┬  ┌┬┐┬ ┬
  │││ ─┤├─┘├┤ │││├─┤│   │ └┬┘
  └┴┘└─┘┴  └─┘┘└┘┴ ┴┴─┘ ┴  ┴ `

	tagline := StyleMeta.Render("  Penalty contract console  ·  v" + version)
	return StyleChain.Render(art) + "\n" + tagline + "\n"
}

// Success formats a success message.
func Success(msg string) string { return StyleSuccess.Render("✓ " + msg) }

// Warn formats a warning message.
func Warn(msg string) string { return StyleWarning.Render("⚠ " + msg) }

// Err formats an error message.
func Err(msg string) string { return StyleError.Render("✗ " + msg) }

// Info formats a notice.
func Info(msg string) string { return StyleInfo.Render("ℹ " + msg) }

// Hint formats a suggestion, usually a command to run next.
func Hint(msg string) string { return StyleMeta.Render("→ " + msg) }

// Addr formats an address.
func Addr(a string) string { return StyleAddress.Render(a) }

// Val formats a value.
func Val(v string) string { return StyleValue.Render(v) }

// Meta formats metadata text.
func Meta(m string) string { return StyleMeta.Render(m) }

// ChainName formats a chain name.
func ChainName(c string) string { return StyleChain.Render(c) }

// TruncateAddr shortens an address for display: 0x1234…5678.
func TruncateAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

// padR pads s with spaces to n display cells.
func padR(s string, n int) string {
	w := lipgloss.Width(s)
	if w >= n {
		return s
	}
	return s + strings.Repeat(" ", n-w)
}
