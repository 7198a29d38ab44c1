package tui

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/predictdash/internal/dashboard"
	"github.com/alanyoungcy/predictdash/internal/domain"
	"github.com/alanyoungcy/predictdash/internal/wizard"
)

var (
	now  = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	user = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

type fakeChain struct {
	markets   []domain.Market
	connected bool
	buys      int
}

func (c *fakeChain) MarketCount(context.Context) (uint64, error) { return uint64(len(c.markets)), nil }
func (c *fakeChain) GetMarket(_ context.Context, id uint64) (domain.Market, error) {
	return c.markets[id], nil
}
func (c *fakeChain) GetSharesBalance(context.Context, uint64, common.Address) (domain.SharesBalance, error) {
	return domain.ZeroBalance(), nil
}
func (c *fakeChain) Account() (common.Address, bool) { return user, c.connected }
func (c *fakeChain) Allowance(context.Context, common.Address) (*big.Int, error) {
	return new(big.Int).Lsh(big.NewInt(1), 100), nil
}
func (c *fakeChain) Approve(context.Context, *big.Int) (domain.Receipt, error) {
	return domain.Receipt{}, nil
}
func (c *fakeChain) BuyShares(context.Context, uint64, bool, *big.Int) (domain.Receipt, error) {
	c.buys++
	return domain.Receipt{TxHash: "0x1"}, nil
}

func (c *fakeChain) Address() common.Address {
	if c.connected {
		return user
	}
	return common.Address{}
}
func (c *fakeChain) Connect(context.Context) error { c.connected = true; return nil }
func (c *fakeChain) Disconnect()                   { c.connected = false }

func newModel(t *testing.T, connected bool) (Model, *fakeChain) {
	t.Helper()
	mk := func(id uint64, end time.Time, resolved bool) domain.Market {
		return domain.Market{
			ID: id, Question: "Market " + string(rune('A'+id)) + "?",
			OptionA: "Yes", OptionB: "No", EndTime: end.Unix(), Resolved: resolved,
			Outcome:            domain.OutcomeOptionB,
			TotalOptionAShares: big.NewInt(0), TotalOptionBShares: big.NewInt(0),
		}
	}
	chain := &fakeChain{connected: connected, markets: []domain.Market{
		mk(0, now.Add(72*time.Hour), false),
		mk(1, now.Add(-time.Hour), false),
		mk(2, now.Add(-72*time.Hour), true),
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	board := dashboard.NewBoard(chain, chain, chain, dashboard.Options{
		Logger: logger,
		Wizard: wizard.Options{Logger: logger},
	})
	require.NoError(t, board.Refresh(context.Background()))
	m := New(board, chain, nil, Options{Now: func() time.Time { return now }})
	return m, chain
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(Model)
	}
	return m, cmd
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

// stepResult runs an advance command and returns its stepDoneMsg.
func stepResult(t *testing.T, cmd tea.Cmd) stepDoneMsg {
	t.Helper()
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		if done, ok := c().(stepDoneMsg); ok {
			return done
		}
	}
	t.Fatal("no step result in batch")
	return stepDoneMsg{}
}

func TestTabsCycle(t *testing.T) {
	require := require.New(t)
	m, _ := newModel(t, true)
	require.Equal(domain.PhaseActive, m.currentTab())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(domain.PhasePending, m.currentTab())
	require.Contains(m.View(), "Market B?")
	require.Contains(m.View(), dashboard.PendingBanner)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Contains(m.View(), "Winner: No")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(domain.PhaseActive, m.currentTab())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Equal(domain.PhaseResolved, m.currentTab())
}

func TestSelectNeedsWallet(t *testing.T) {
	m, _ := newModel(t, false)
	m, _ = press(t, m, runes("a"))
	require.Contains(t, m.status, "Connect a wallet")
	require.Contains(t, m.View(), "Vote Yes")
}

func TestPurchaseFromKeyboard(t *testing.T) {
	require := require.New(t)
	m, chain := newModel(t, true)

	m, _ = press(t, m, runes("b"), runes("1"), runes("2"), tea.KeyMsg{Type: tea.KeyBackspace}, runes("3"))
	require.Equal("13", m.amounts[0])
	require.Contains(m.View(), "1 No = 1 PREDICT")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(m.busy[0])
	done := stepResult(t, cmd)
	require.NoError(done.err)
	require.False(done.confirmed)

	next, _ := m.Update(done)
	m = next.(Model)
	require.False(m.busy[0])
	require.Contains(m.View(), "Buy 13 No shares")

	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	done = stepResult(t, cmd)
	require.True(done.confirmed)
	require.Equal(1, chain.buys)

	next, cmd = m.Update(done)
	m = next.(Model)
	require.NotNil(cmd)
	require.Empty(m.amounts[0])
	require.Contains(m.View(), "Vote Yes")
}

func TestEscCancels(t *testing.T) {
	m, chain := newModel(t, true)
	m, _ = press(t, m, runes("a"), runes("4"), tea.KeyMsg{Type: tea.KeyEscape})
	require.Contains(t, m.View(), "Vote Yes")
	require.Zero(t, chain.buys)
}

func TestWalletKeys(t *testing.T) {
	require := require.New(t)
	m, chain := newModel(t, false)
	require.Contains(m.View(), "not connected")

	m, cmd := press(t, m, runes("c"))
	next, _ := m.Update(cmd())
	m = next.(Model)
	require.True(chain.connected)
	require.Contains(m.View(), user.Hex())

	m, _ = press(t, m, runes("d"))
	require.False(chain.connected)
}

func TestToastsExpire(t *testing.T) {
	require := require.New(t)
	m, _ := newModel(t, true)

	next, _ := m.Update(toastMsg(wizard.Toast{Title: "Purchase Successful!", Message: "You bought 1 Yes shares"}))
	m = next.(Model)
	require.Len(m.shown, 1)
	require.Contains(m.View(), "Purchase Successful!")

	next, _ = m.Update(toastExpiredMsg{seq: m.shown[0].seq})
	m = next.(Model)
	require.Empty(m.shown)
	require.False(strings.Contains(m.View(), "Purchase Successful!"))
}

func TestToastChannelDropsWhenFull(t *testing.T) {
	ch := make(ToastChannel, 1)
	ch.Toast(context.Background(), wizard.Toast{Title: "one"})
	ch.Toast(context.Background(), wizard.Toast{Title: "two"})
	require.Len(t, ch, 1)
	require.Equal(t, "one", (<-ch).Title)
}
