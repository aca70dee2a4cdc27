package ui

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Mohsinsiddi/w3penalty/internal/session"
	"github.com/Mohsinsiddi/w3penalty/internal/units"
)

// PenaltySession is the contract session the panel drives.
// *session.Session satisfies it.
type PenaltySession interface {
	Snapshot() session.Snapshot
	Tx() session.TxState
	Changes() <-chan struct{}

	Refresh(ctx context.Context) error
	View(ctx context.Context, who string) error

	IssuePenalty(ctx context.Context, who string) (common.Hash, error)
	ClearPenalties(ctx context.Context, who string) (common.Hash, error)
	PayMyFine(ctx context.Context) (common.Hash, error)
	Withdraw(ctx context.Context) (common.Hash, error)
	SetBlockThreshold(ctx context.Context, count string) (common.Hash, error)
	SetFineAmount(ctx context.Context, amount string) (common.Hash, error)
}

// PanelConfig describes what the panel is connected to.
type PanelConfig struct {
	Network  string
	Currency string
	Contract string
	ReadOnly bool                     // no signing wallet: every write is disabled
	TxURL    func(hash string) string // explorer link for a hash; nil hides links
	Timeout  time.Duration            // per call; zero means defaultActionTimeout
}

const (
	defaultActionTimeout = 30 * time.Second
	spinnerInterval      = 100 * time.Millisecond
	cardWidth            = 46
)

// PanelInput holds the panel's text fields.
type PanelInput struct {
	Address   string
	Threshold string
	Fine      string
}

// Controls reports which panel triggers are enabled.
type Controls struct {
	View         bool
	Issue        bool
	Clear        bool
	Withdraw     bool
	Pay          bool
	SetThreshold bool
	SetFine      bool
	Refresh      bool
}

// EnabledControls gates the panel triggers. Reads are never blocked by a
// pending write; writes are refused while one is submitting or confirming.
func EnabledControls(in PanelInput, snap session.Snapshot, tx session.TxState, readOnly bool) Controls {
	validAddr := session.ValidAddress(strings.TrimSpace(in.Address))
	canWrite := !readOnly && !tx.Busy()
	return Controls{
		View:         validAddr,
		Issue:        canWrite && validAddr,
		Clear:        canWrite && validAddr,
		Withdraw:     canWrite,
		Pay:          canWrite && snap.Connected && snap.MyPenalties > 0,
		SetThreshold: canWrite && session.ValidCount(strings.TrimSpace(in.Threshold)),
		SetFine:      canWrite && strings.TrimSpace(in.Fine) != "",
		Refresh:      true,
	}
}

type panelField int

const (
	fieldAddress panelField = iota
	fieldThreshold
	fieldFine
	fieldCount
)

var fieldLabels = [fieldCount]string{"Address", "Threshold", "Fine"}

// Messages.
type (
	changedMsg    struct{}
	panelTickMsg  struct{}
	actionDoneMsg struct {
		action string
		err    error
	}
	externalMsg struct {
		what string
		err  error
	}
)

// PanelModel is the Bubble Tea model of the interaction panel.
type PanelModel struct {
	sess PenaltySession
	cfg  PanelConfig

	inputs  [fieldCount]string
	focus   panelField
	editing bool

	snap    session.Snapshot
	tx      session.TxState
	notice  string
	frame   int
	ticking bool
}

// NewPanel creates the panel model for sess.
func NewPanel(sess PenaltySession, cfg PanelConfig) PanelModel {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultActionTimeout
	}
	return PanelModel{
		sess: sess,
		cfg:  cfg,
		snap: sess.Snapshot(),
		tx:   sess.Tx(),
	}
}

// Input returns the current field values.
func (m PanelModel) Input() PanelInput {
	return PanelInput{
		Address:   m.inputs[fieldAddress],
		Threshold: m.inputs[fieldThreshold],
		Fine:      m.inputs[fieldFine],
	}
}

// Controls returns the enabled triggers for the current state.
func (m PanelModel) Controls() Controls {
	return EnabledControls(m.Input(), m.snap, m.tx, m.cfg.ReadOnly)
}

func (m PanelModel) Init() tea.Cmd {
	return tea.Batch(m.waitForChange(), m.run("refresh", m.sess.Refresh))
}

// waitForChange blocks until the session reports new state.
func (m PanelModel) waitForChange() tea.Cmd {
	ch := m.sess.Changes()
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func (m PanelModel) run(action string, fn func(context.Context) error) tea.Cmd {
	timeout := m.cfg.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return actionDoneMsg{action: action, err: fn(ctx)}
	}
}

func (m PanelModel) write(action string, fn func(context.Context) (common.Hash, error)) tea.Cmd {
	return m.run(action, func(ctx context.Context) error {
		_, err := fn(ctx)
		return err
	})
}

func tick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(time.Time) tea.Msg { return panelTickMsg{} })
}

// sync pulls state from the session and starts the spinner when a write is
// in flight.
func (m *PanelModel) sync() tea.Cmd {
	m.snap = m.sess.Snapshot()
	m.tx = m.sess.Tx()
	if m.tx.Busy() && !m.ticking {
		m.ticking = true
		return tick()
	}
	return nil
}

func (m PanelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case changedMsg:
		return m, tea.Batch(m.sync(), m.waitForChange())

	case panelTickMsg:
		m.frame++
		if m.tx.Busy() {
			return m, tick()
		}
		m.ticking = false
		return m, nil

	case actionDoneMsg:
		m.notice = noticeFor(msg.err)
		return m, m.sync()

	case externalMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
		} else {
			m.notice = msg.what
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateNavigation(msg)
	}
	return m, nil
}

// noticeFor returns the footer text for a finished call. Validation and
// conversion failures skip the action quietly; submission failures show up
// in the transaction card.
func noticeFor(err error) string {
	var fe *units.FormatError
	var se *session.SubmissionError
	switch {
	case err == nil, session.IsValidation(err), errors.As(err, &fe), errors.As(err, &se):
		return ""
	case errors.Is(err, session.ErrBusy):
		return "a transaction is already pending"
	default:
		return err.Error()
	}
}

func (m PanelModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.editing = false
	case tea.KeyTab:
		m.focus = (m.focus + 1) % fieldCount
	case tea.KeyBackspace:
		if r := []rune(m.inputs[m.focus]); len(r) > 0 {
			m.inputs[m.focus] = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.inputs[m.focus] += " "
	case tea.KeyRunes:
		m.inputs[m.focus] += string(msg.Runes)
	}
	return m, nil
}

func (m PanelModel) updateNavigation(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyTab:
		m.focus = (m.focus + 1) % fieldCount
		return m, nil
	case tea.KeyShiftTab:
		m.focus = (m.focus + fieldCount - 1) % fieldCount
		return m, nil
	case tea.KeyEnter:
		m.editing = true
		return m, nil
	case tea.KeyRunes:
	default:
		return m, nil
	}

	ctl := m.Controls()
	addr := strings.TrimSpace(m.inputs[fieldAddress])
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r":
		return m, m.run("refresh", m.sess.Refresh)
	case "v":
		if ctl.View {
			return m, m.run("view", func(ctx context.Context) error { return m.sess.View(ctx, addr) })
		}
	case "i":
		if ctl.Issue {
			return m, m.write(session.ActionIssuePenalty, func(ctx context.Context) (common.Hash, error) {
				return m.sess.IssuePenalty(ctx, addr)
			})
		}
	case "x":
		if ctl.Clear {
			return m, m.write(session.ActionClearPenalties, func(ctx context.Context) (common.Hash, error) {
				return m.sess.ClearPenalties(ctx, addr)
			})
		}
	case "w":
		if ctl.Withdraw {
			return m, m.write(session.ActionWithdraw, m.sess.Withdraw)
		}
	case "p":
		if ctl.Pay {
			return m, m.write(session.ActionPayFine, m.sess.PayMyFine)
		}
	case "t":
		if ctl.SetThreshold {
			v := strings.TrimSpace(m.inputs[fieldThreshold])
			return m, m.write(session.ActionSetBlockThreshold, func(ctx context.Context) (common.Hash, error) {
				return m.sess.SetBlockThreshold(ctx, v)
			})
		}
	case "f":
		if ctl.SetFine {
			v := strings.TrimSpace(m.inputs[fieldFine])
			return m, m.write(session.ActionSetFineAmount, func(ctx context.Context) (common.Hash, error) {
				return m.sess.SetFineAmount(ctx, v)
			})
		}
	case "o":
		if url := m.txURL(); url != "" {
			return m, func() tea.Msg { return externalMsg{what: "opened " + url, err: openURL(url)} }
		}
	case "c":
		if m.tx.HasHash() {
			hash := m.tx.Hash.Hex()
			return m, func() tea.Msg { return externalMsg{what: "copied " + TruncateAddr(hash), err: copyText(hash)} }
		}
	}
	return m, nil
}

func (m PanelModel) txURL() string {
	if m.cfg.TxURL == nil || !m.tx.HasHash() {
		return ""
	}
	return m.cfg.TxURL(m.tx.Hash.Hex())
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

func (m PanelModel) View() string {
	ctl := m.Controls()

	header := StyleTitle.Render("w3penalty") + "  " + ChainName(m.cfg.Network) +
		"  " + Meta("contract ") + Addr(TruncateAddr(m.cfg.Contract))
	if m.cfg.ReadOnly {
		header += "  " + StyleWarning.Render("read-only")
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top, m.infoCard(), " ", m.youCard(ctl))
	mid := lipgloss.JoinHorizontal(lipgloss.Top, m.addressCard(ctl), " ", m.adminCard(ctl))

	var sb strings.Builder
	sb.WriteString(header + "\n\n")
	sb.WriteString(top + "\n")
	sb.WriteString(mid + "\n")
	sb.WriteString(m.txCard() + "\n")
	if m.snap.ReadErr != nil {
		sb.WriteString(Err("read failed: "+m.snap.ReadErr.Error()) + "\n")
	}
	if m.notice != "" {
		sb.WriteString(Info(m.notice) + "\n")
	}
	sb.WriteString(m.help(ctl))
	return sb.String()
}

func (m PanelModel) amount(v string) string {
	return v + " " + m.cfg.Currency
}

func card(title string, pairs [][2]string, footer string) string {
	body := keyValueBox(lipgloss.NewStyle(), title, pairs)
	if footer != "" {
		body += "\n\n" + footer
	}
	return StyleBorder.Width(cardWidth).Render(body)
}

func (m PanelModel) infoCard() string {
	owner := Meta("unknown")
	if m.snap.HasOwner {
		owner = Addr(TruncateAddr(m.snap.Owner.Hex()))
	}
	return card("Contract", [][2]string{
		{"Fine per penalty", m.amount(m.snap.FinePerPenaltyMajor)},
		{"Block threshold", strconv.FormatUint(m.snap.BlockThreshold, 10)},
		{"Owner", owner},
	}, "")
}

func (m PanelModel) youCard(ctl Controls) string {
	if !m.snap.Connected {
		return card("You", [][2]string{{"Account", Meta("not connected")}}, "")
	}
	blocked := Meta("-")
	if !m.snap.HasViewed {
		blocked = blockedLabel(m.snap.IsBlocked)
	}
	return card("You", [][2]string{
		{"Account", Addr(TruncateAddr(m.snap.Account.Hex()))},
		{"Penalties", strconv.FormatUint(m.snap.MyPenalties, 10)},
		{"Payable", m.amount(m.snap.PayableMajor)},
		{"Blocked", blocked},
	}, keyHint("p", "pay fine", ctl.Pay))
}

func (m PanelModel) addressCard(ctl Controls) string {
	pairs := [][2]string{{"Viewing", Meta("nobody")}}
	if m.snap.HasViewed {
		pairs = [][2]string{
			{"Viewing", Addr(TruncateAddr(m.snap.Viewed.Hex()))},
			{"Penalties", strconv.FormatUint(m.snap.ViewedPenalties, 10)},
			{"Blocked", blockedLabel(m.snap.IsBlocked)},
		}
	}
	body := m.field(fieldAddress) + "\n\n" + keyValueBox(lipgloss.NewStyle(), "", pairs)
	hints := strings.Join([]string{
		keyHint("v", "view", ctl.View),
		keyHint("i", "issue", ctl.Issue),
		keyHint("x", "clear", ctl.Clear),
	}, "  ")
	return StyleBorder.Width(cardWidth).Render(StyleTitle.Render("Address") + "\n" + body + "\n\n" + hints)
}

func (m PanelModel) adminCard(ctl Controls) string {
	body := m.field(fieldThreshold) + "\n" + m.field(fieldFine)
	hints := strings.Join([]string{
		keyHint("t", "set threshold", ctl.SetThreshold),
		keyHint("f", "set fine", ctl.SetFine),
		keyHint("w", "withdraw", ctl.Withdraw),
	}, "  ")
	return StyleBorder.Width(cardWidth).Render(StyleTitle.Render("Admin") + "\n" + body + "\n\n" + hints)
}

func (m PanelModel) field(f panelField) string {
	label := padR(fieldLabels[f]+":", 11)
	value := m.inputs[f]
	style := StyleDim
	if m.focus == f {
		style = lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
		if m.editing {
			value += "█"
		}
	}
	if f == fieldFine && m.cfg.Currency != "" {
		label = padR("Fine ("+m.cfg.Currency+"):", 11)
	}
	return style.Render(label) + " " + StyleAddress.Render(value)
}

func (m PanelModel) txCard() string {
	if m.tx.Status == session.StatusIdle {
		return StyleBorder.Width(cardWidth*2 + 3).Render(StyleTitle.Render("Transaction") + "\n" + Meta("no transaction yet"))
	}

	status := m.tx.Status.String()
	switch m.tx.Status {
	case session.StatusSubmitting, session.StatusConfirming:
		status = StyleWarning.Render(spinnerFrames[m.frame%len(spinnerFrames)] + " " + status)
	case session.StatusConfirmed:
		status = Success(status)
	case session.StatusFailed:
		status = Err(status)
	}

	pairs := [][2]string{
		{"Action", m.tx.Action},
		{"Status", status},
	}
	if m.tx.HasHash() {
		pairs = append(pairs, [2]string{"Hash", Addr(m.tx.Hash.Hex())})
	}
	if url := m.txURL(); url != "" {
		pairs = append(pairs, [2]string{"Explorer", Meta(url)})
	}
	if m.tx.Err != nil {
		pairs = append(pairs, [2]string{"Error", StyleError.Render(m.tx.Err.Error())})
	}
	return StyleBorder.Width(cardWidth*2 + 3).Render(keyValueBox(lipgloss.NewStyle(), "Transaction", pairs))
}

func blockedLabel(b bool) string {
	if b {
		return StyleError.Render("yes")
	}
	return StyleSuccess.Render("no")
}

func keyHint(key, label string, enabled bool) string {
	if !enabled {
		return StyleDim.Render("[" + key + "] " + label)
	}
	return StyleValue.Render("["+key+"]") + " " + label
}

func (m PanelModel) help(ctl Controls) string {
	if m.editing {
		return Meta("typing into " + strings.ToLower(fieldLabels[m.focus]) + " · Enter/Esc done · Tab next field")
	}
	parts := []string{"Tab field", "Enter edit", keyHint("r", "refresh", ctl.Refresh)}
	if m.tx.HasHash() {
		parts = append(parts, keyHint("o", "explorer", m.cfg.TxURL != nil), keyHint("c", "copy hash", true))
	}
	parts = append(parts, "q quit")
	return Meta(strings.Join(parts, " · "))
}

// RunPanel runs the interaction panel until the user quits.
func RunPanel(sess PenaltySession, cfg PanelConfig) error {
	_, err := tea.NewProgram(NewPanel(sess, cfg), tea.WithAltScreen()).Run()
	return err
}
