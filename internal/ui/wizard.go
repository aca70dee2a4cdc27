package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// WizardResult holds answers collected by the setup wizard.
type WizardResult struct {
	DefaultNetwork string
	NetworkMode    string
	RPCAlgorithm   string
	Contract       string
	WalletAddress  string
	WalletName     string
	Aborted        bool
}

type wizardStep int

const (
	stepNetwork wizardStep = iota
	stepMode
	stepAlgorithm
	stepContract
	stepWallet
	stepDone
)

var (
	wizardModes      = []string{"testnet", "mainnet"}
	wizardAlgorithms = []string{"fastest", "round-robin", "failover"}
)

type wizardModel struct {
	step      wizardStep
	result    WizardResult
	networks  []string
	cursor    int
	input     string
	problem   string
	validAddr func(string) bool
}

func newWizard(networks []string, validAddr func(string) bool) wizardModel {
	return wizardModel{networks: networks, validAddr: validAddr}
}

func (m wizardModel) choices() []string {
	switch m.step {
	case stepNetwork:
		return m.networks
	case stepMode:
		return wizardModes
	case stepAlgorithm:
		return wizardAlgorithms
	}
	return nil
}

func (m wizardModel) typing() bool {
	return m.step == stepContract || m.step == stepWallet
}

func (m wizardModel) Init() tea.Cmd { return nil }

func (m wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.result.Aborted = true
		return m, tea.Quit
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown:
		if m.cursor < len(m.choices())-1 {
			m.cursor++
		}
	case tea.KeyEnter:
		if m.typing() {
			m.applyInput()
		} else {
			m.applyChoice()
		}
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeyRunes:
		if m.typing() {
			m.input += string(key.Runes)
			m.problem = ""
		} else if key.String() == "q" {
			m.result.Aborted = true
			return m, tea.Quit
		}
	}

	if m.step == stepDone {
		return m, tea.Quit
	}
	return m, nil
}

func (m *wizardModel) applyChoice() {
	c := m.choices()
	if m.cursor >= len(c) {
		return
	}
	switch m.step {
	case stepNetwork:
		m.result.DefaultNetwork = c[m.cursor]
	case stepMode:
		m.result.NetworkMode = c[m.cursor]
	case stepAlgorithm:
		m.result.RPCAlgorithm = c[m.cursor]
	}
	m.cursor = 0
	m.step++
}

func (m *wizardModel) applyInput() {
	// Pasted addresses sometimes carry brackets or quotes.
	addr := strings.Trim(strings.TrimSpace(m.input), "[]\"'")
	if addr != "" && m.validAddr != nil && !m.validAddr(addr) {
		m.problem = "not a valid address"
		return
	}
	switch m.step {
	case stepContract:
		m.result.Contract = addr
	case stepWallet:
		if addr != "" {
			m.result.WalletAddress = addr
			m.result.WalletName = "default"
		}
	}
	m.input = ""
	m.problem = ""
	m.step++
}

func (m wizardModel) View() string {
	var s string
	switch m.step {
	case stepNetwork:
		s = renderMenu("Select default network:", m.choices(), m.cursor)
	case stepMode:
		s = renderMenu("Select network mode:", m.choices(), m.cursor)
	case stepAlgorithm:
		s = renderMenu("Select RPC algorithm:", m.choices(), m.cursor)
	case stepContract:
		s = renderInput("Penalty contract address", "Enter the deployed contract (or press Enter to skip):", m.input, m.problem)
	case stepWallet:
		s = renderInput("Add a watch-only wallet (optional)", "Enter wallet address (or press Enter to skip):", m.input, m.problem)
	case stepDone:
		s = Success("Setup complete!") + "\n"
	}
	return StyleBorder.Render(s) + "\n"
}

func renderInput(title, prompt, input, problem string) string {
	s := StyleTitle.Render(title) + "\n\n"
	s += StyleMeta.Render(prompt) + "\n"
	s += "> " + StyleAddress.Render(input) + "█\n"
	if problem != "" {
		s += Err(problem) + "\n"
	}
	return s
}

func renderMenu(title string, items []string, cursor int) string {
	s := StyleTitle.Render(title) + "\n\n"
	for i, item := range items {
		icon := "  "
		style := lipgloss.NewStyle().Foreground(ColorValue)
		if i == cursor {
			icon = "▸ "
			style = StyleSelected
		}
		s += icon + style.Render(item) + "\n"
	}
	s += "\n" + StyleMeta.Render("↑/↓ navigate · Enter select · q quit")
	return s
}

// RunWizard launches the interactive setup wizard. validAddr checks the
// contract and wallet answers; an empty answer skips the step.
func RunWizard(networks []string, validAddr func(string) bool) (*WizardResult, error) {
	final, err := tea.NewProgram(newWizard(networks, validAddr)).Run()
	if err != nil {
		return nil, fmt.Errorf("wizard error: %w", err)
	}
	result := final.(wizardModel).result
	return &result, nil
}
