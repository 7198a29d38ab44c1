package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alanyoungcy/predictdash/internal/dashboard"
	"github.com/alanyoungcy/predictdash/internal/domain"
	"github.com/alanyoungcy/predictdash/internal/units"
	"github.com/alanyoungcy/predictdash/internal/wizard"
)

var (
	colorAccent  = lipgloss.Color("#7D56F4")
	colorMuted   = lipgloss.Color("#888888")
	colorDanger  = lipgloss.Color("#E5484D")
	colorWarn    = lipgloss.Color("#F5A524")
	colorSuccess = lipgloss.Color("#30A46C")

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	activeTabStyle = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(colorAccent).Padding(0, 1)
	tabStyle       = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle     = lipgloss.NewStyle().Foreground(colorDanger)
	urgentStyle    = lipgloss.NewStyle().Foreground(colorWarn).Bold(true)
	winnerStyle    = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)
	selectedCardStyle = cardStyle.BorderForeground(colorAccent)

	toastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSuccess).
			Padding(0, 1)
	destructiveToastStyle = toastStyle.BorderForeground(colorDanger)
)

// tabLabel is the heading of a tab.
func tabLabel(t domain.Tab) string {
	switch t {
	case domain.PhasePending:
		return "Pending resolution"
	case domain.PhaseResolved:
		return "Resolved"
	default:
		return "Active"
	}
}

// View renders the whole screen.
func (m Model) View() string {
	now := m.opts.Now()
	width := min(m.width-2, 100)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Prediction Markets"))
	b.WriteString("  ")
	b.WriteString(m.walletLine())
	b.WriteString("\n\n")

	tabs := make([]string, 0, len(domain.Tabs))
	for i, t := range domain.Tabs {
		style := tabStyle
		if i == m.tab {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(tabLabel(t)))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")

	view := m.board.View(m.currentTab(), now)
	switch {
	case view.Loading:
		for range view.Skeletons {
			b.WriteString(cardStyle.Width(width).Render(mutedStyle.Render("Loading...")))
			b.WriteString("\n")
		}
	case len(view.Cards) == 0:
		b.WriteString(mutedStyle.Render("No markets in this tab."))
		b.WriteString("\n")
	default:
		for i, c := range view.Cards {
			style := cardStyle
			if i == m.cursor {
				style = selectedCardStyle
			}
			b.WriteString(style.Width(width).Render(m.renderCard(c)))
			b.WriteString("\n")
		}
	}

	for _, t := range m.shown {
		style := toastStyle
		if t.toast.Variant == wizard.VariantDestructive {
			style = destructiveToastStyle
		}
		b.WriteString(style.Render(lipgloss.NewStyle().Bold(true).Render(t.toast.Title) + "\n" + t.toast.Message))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(errorStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render("tab switch  ↑/↓ move  a/b vote  0-9 amount  enter next  esc cancel  c/d wallet  r refresh  q quit"))
	return b.String()
}

func (m Model) walletLine() string {
	addr := m.wallet.Address()
	if addr == domain.NullAddress {
		return mutedStyle.Render("wallet: not connected")
	}
	return mutedStyle.Render("wallet: " + addr.Hex())
}

func (m Model) renderCard(c dashboard.CardView) string {
	if c.Loading {
		return mutedStyle.Render(fmt.Sprintf("#%d  Loading...", c.ID))
	}

	lines := []string{lipgloss.NewStyle().Bold(true).Render(c.Question)}
	if c.Badge != nil {
		badge := fmt.Sprintf("%s: %s", c.Badge.Label, c.Badge.Date)
		if c.Badge.Remaining != "" {
			badge += " (" + c.Badge.Remaining + ")"
		}
		if c.Badge.Urgent {
			badge = urgentStyle.Render(badge)
		} else {
			badge = mutedStyle.Render(badge)
		}
		lines = append(lines, badge)
	}
	if p := c.Progress; p != nil {
		lines = append(lines, fmt.Sprintf("%s: %s (%s)   %s: %s (%s)",
			c.OptionA, units.FormatPercent(p.PercentA), p.SharesA,
			c.OptionB, units.FormatPercent(p.PercentB), p.SharesB))
	}

	switch c.Body {
	case dashboard.BodyPending:
		lines = append(lines, urgentStyle.Render(dashboard.PendingBanner))
	case dashboard.BodyResolved:
		lines = append(lines, winnerStyle.Render("Winner: "+c.Winner))
	case dashboard.BodyWizard:
		if c.Wizard != nil {
			lines = append(lines, m.renderWizard(c, *c.Wizard))
		}
	}

	if c.Shares != nil {
		a, bLine := c.Shares.Lines()
		lines = append(lines, mutedStyle.Render(a+"   "+bLine))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderWizard(c dashboard.CardView, st wizard.State) string {
	var out string
	switch st.Step {
	case wizard.StepIdle:
		out = fmt.Sprintf("[a] %s   [b] %s", dashboard.VoteLabel(c.OptionA), dashboard.VoteLabel(c.OptionB))
	case wizard.StepAmountEntry:
		out = fmt.Sprintf("Amount: %s_   %s   [enter] Buy  [esc] Cancel",
			m.amounts[c.ID], mutedStyle.Render(dashboard.RateHint(st.OptionLabel)))
	case wizard.StepAllowanceCheck:
		out = fmt.Sprintf("Approve %s PREDICT for %s   [enter] Approve  [esc] Cancel", st.Amount.String(), st.OptionLabel)
	case wizard.StepConfirm:
		out = fmt.Sprintf("Buy %s %s shares   [enter] Confirm  [esc] Cancel", st.Amount.String(), st.OptionLabel)
	}
	if m.busy[c.ID] || st.Checking || st.InFlight() {
		out = m.spin.View() + " " + busyLabel(st)
	}
	if st.ValidationError != "" {
		out += "\n" + errorStyle.Render(st.ValidationError)
	}
	return out
}

func busyLabel(st wizard.State) string {
	switch {
	case st.Approving:
		return "Approving..."
	case st.Confirming:
		return "Confirming..."
	default:
		return "Checking allowance..."
	}
}
