// Package tui is the terminal front end of the dashboard. It renders the
// board's tabs and drives the per-card purchase wizards from the keyboard.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/predictdash/internal/dashboard"
	"github.com/alanyoungcy/predictdash/internal/domain"
	"github.com/alanyoungcy/predictdash/internal/wizard"
)

// Board is the dashboard surface the terminal reads and drives.
type Board interface {
	View(tab domain.Tab, now time.Time) dashboard.TabView
	Wizard(id uint64) (*wizard.Wizard, error)
	ActiveWizard(id uint64, now time.Time) (*wizard.Wizard, error)
	Refresh(ctx context.Context) error
	RefreshCard(ctx context.Context, id uint64) error
}

// Wallet connects and disconnects the configured account.
type Wallet interface {
	Address() common.Address
	Connect(ctx context.Context) error
	Disconnect()
}

// Options configures the model. Zero values get defaults.
type Options struct {
	// Redraw is how often the screen re-renders without input.
	Redraw time.Duration
	// CallTimeout bounds reads; TxTimeout bounds approve and confirm.
	CallTimeout time.Duration
	TxTimeout   time.Duration
	Now         func() time.Time
}

type (
	tickMsg      time.Time
	refreshedMsg struct{ err error }
	stepDoneMsg  struct {
		id        uint64
		confirmed bool
		err       error
	}
	walletMsg       struct{ err error }
	toastMsg        wizard.Toast
	toastExpiredMsg struct{ seq int }
)

type toastEntry struct {
	seq   int
	toast wizard.Toast
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	board  Board
	wallet Wallet
	toasts <-chan wizard.Toast
	opts   Options

	tab    int
	cursor int
	// amounts holds the amount text typed per card.
	amounts map[uint64]string
	busy    map[uint64]bool
	spin    spinner.Model

	shown   []toastEntry
	nextSeq int
	status  string
	width   int
}

// New creates the model. toasts is the channel a ToastChannel feeds; it may
// be nil.
func New(board Board, w Wallet, toasts <-chan wizard.Toast, opts Options) Model {
	if opts.Redraw <= 0 {
		opts.Redraw = time.Second
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 15 * time.Second
	}
	if opts.TxTimeout <= 0 {
		opts.TxTimeout = 3 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorAccent)
	return Model{
		board:   board,
		wallet:  w,
		toasts:  toasts,
		opts:    opts,
		amounts: map[uint64]string{},
		busy:    map[uint64]bool{},
		spin:    s,
		width:   80,
	}
}

// Init starts the first refresh, the redraw tick and the toast listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.tick(), m.waitToast())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Redraw, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) waitToast() tea.Cmd {
	if m.toasts == nil {
		return nil
	}
	ch := m.toasts
	return func() tea.Msg {
		t, ok := <-ch
		if !ok {
			return nil
		}
		return toastMsg(t)
	}
}

func (m Model) refresh() tea.Cmd {
	board, timeout := m.board, m.opts.CallTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return refreshedMsg{err: board.Refresh(ctx)}
	}
}

// Update handles input and command results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(msg.Width, 40)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		return m, m.tick()

	case refreshedMsg:
		if msg.err != nil {
			m.status = "Refresh failed: " + msg.err.Error()
		}
		return m, nil

	case stepDoneMsg:
		delete(m.busy, msg.id)
		if msg.err != nil && !wizard.IsUserError(msg.err) {
			m.status = msg.err.Error()
		}
		if msg.confirmed && msg.err == nil {
			delete(m.amounts, msg.id)
			return m, m.refreshCard(msg.id)
		}
		return m, nil

	case walletMsg:
		if msg.err != nil {
			m.status = "Wallet: " + msg.err.Error()
		}
		return m, nil

	case toastMsg:
		m.nextSeq++
		seq := m.nextSeq
		m.shown = append(m.shown, toastEntry{seq: seq, toast: wizard.Toast(msg)})
		d := msg.Duration
		if d <= 0 {
			d = wizard.ToastDuration
		}
		expire := tea.Tick(d, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} })
		return m, tea.Batch(expire, m.waitToast())

	case toastExpiredMsg:
		kept := m.shown[:0]
		for _, t := range m.shown {
			if t.seq != msg.seq {
				kept = append(kept, t)
			}
		}
		m.shown = kept
		return m, nil

	case spinner.TickMsg:
		if len(m.busy) == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) refreshCard(id uint64) tea.Cmd {
	board, timeout := m.board, m.opts.CallTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := board.RefreshCard(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return refreshedMsg{err: err}
		}
		return refreshedMsg{}
	}
}

// currentTab is the tab on screen.
func (m Model) currentTab() domain.Tab {
	return domain.Tabs[m.tab]
}

// selected returns the id of the card under the cursor.
func (m Model) selected() (uint64, bool) {
	v := m.board.View(m.currentTab(), m.opts.Now())
	if m.cursor < 0 || m.cursor >= len(v.Cards) || v.Cards[m.cursor].Loading {
		return 0, false
	}
	return v.Cards[m.cursor].ID, true
}
