package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alanyoungcy/predictdash/internal/domain"
	"github.com/alanyoungcy/predictdash/internal/wizard"
)

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.tab = (m.tab + 1) % len(domain.Tabs)
		m.cursor = 0
		return m, nil
	case "shift+tab":
		m.tab = (m.tab + len(domain.Tabs) - 1) % len(domain.Tabs)
		m.cursor = 0
		return m, nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		n := len(m.board.View(m.currentTab(), m.opts.Now()).Cards)
		if m.cursor < n-1 {
			m.cursor++
		}
		return m, nil
	case "r":
		m.status = ""
		return m, m.refresh()
	case "c":
		return m, m.connect()
	case "d":
		m.wallet.Disconnect()
		m.status = ""
		return m, nil
	}

	id, ok := m.selected()
	if !ok {
		return m, nil
	}
	m.status = ""
	switch {
	case key == "a" || key == "b":
		return m.selectOption(id, domain.Option(strings.ToUpper(key)))
	case key == "enter":
		return m.advance(id)
	case key == "esc":
		return m.cancel(id)
	case key == "backspace":
		return m.editAmount(id, func(s string) string {
			if s == "" {
				return s
			}
			return s[:len(s)-1]
		})
	case len(key) == 1 && (key[0] >= '0' && key[0] <= '9' || key[0] == '.'):
		return m.editAmount(id, func(s string) string { return s + key })
	}
	return m, nil
}

func (m Model) activeWizard(id uint64) (*wizard.Wizard, bool) {
	wz, err := m.board.ActiveWizard(id, m.opts.Now())
	return wz, err == nil
}

func (m Model) selectOption(id uint64, opt domain.Option) (tea.Model, tea.Cmd) {
	wz, ok := m.activeWizard(id)
	if !ok {
		return m, nil
	}
	err := wz.Select(opt)
	switch {
	case errors.Is(err, domain.ErrNoWallet):
		m.status = "Connect a wallet first (press c)"
	case err == nil:
		m.amounts[id] = ""
	}
	return m, nil
}

func (m Model) editAmount(id uint64, edit func(string) string) (tea.Model, tea.Cmd) {
	wz, ok := m.activeWizard(id)
	if !ok || wz.Snapshot().Step != wizard.StepAmountEntry || m.busy[id] {
		return m, nil
	}
	text := edit(m.amounts[id])
	m.amounts[id] = text
	_ = wz.SetAmount(text)
	return m, nil
}

// advance runs the current step's action as a command. The card is busy
// until it returns, which disables enter and esc for that card.
func (m Model) advance(id uint64) (tea.Model, tea.Cmd) {
	wz, ok := m.activeWizard(id)
	if !ok || m.busy[id] {
		return m, nil
	}
	step := wz.Snapshot().Step
	if step == wizard.StepIdle {
		return m, nil
	}
	timeout := m.opts.CallTimeout
	if step == wizard.StepAllowanceCheck || step == wizard.StepConfirm {
		timeout = m.opts.TxTimeout
	}
	m.busy[id] = true
	run := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := wz.Advance(ctx)
		return stepDoneMsg{id: id, confirmed: step == wizard.StepConfirm, err: err}
	}
	return m, tea.Batch(run, m.spin.Tick)
}

func (m Model) cancel(id uint64) (tea.Model, tea.Cmd) {
	wz, err := m.board.Wizard(id)
	if err != nil || m.busy[id] {
		return m, nil
	}
	if err := wz.Cancel(); err == nil {
		delete(m.amounts, id)
	}
	return m, nil
}

func (m Model) connect() tea.Cmd {
	w, timeout := m.wallet, m.opts.CallTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return walletMsg{err: w.Connect(ctx)}
	}
}
