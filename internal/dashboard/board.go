// Package dashboard is the market list controller: it owns one card per
// market index and renders them under the active, pending and resolved tabs.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/predictdash/internal/domain"
	"github.com/alanyoungcy/predictdash/internal/wallet"
	"github.com/alanyoungcy/predictdash/internal/wizard"
)

// AccountSource yields the address balances are read for. It returns the
// null address when no wallet is connected.
type AccountSource interface {
	Address() common.Address
}

// Options configures a Board.
type Options struct {
	Wizard wizard.Options
	// Location formats badge dates; nil means UTC.
	Location *time.Location
	// Concurrency bounds parallel card reads; zero means 8.
	Concurrency int
	Logger      *slog.Logger
}

// Board is the market list controller.
type Board struct {
	reader  domain.MarketReader
	gw      wizard.Gateway
	account AccountSource
	opts    Options
	logger  *slog.Logger

	mu          sync.Mutex
	countLoaded bool
	count       uint64
	cards       []*Card
}

// NewBoard creates a Board in the loading state.
func NewBoard(reader domain.MarketReader, gw wizard.Gateway, account AccountSource, opts Options) *Board {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.Wizard.Logger == nil {
		opts.Wizard.Logger = opts.Logger
	}
	return &Board{
		reader:  reader,
		gw:      gw,
		account: account,
		opts:    opts,
		logger:  opts.Logger.With(slog.String("component", "dashboard")),
	}
}

// Refresh reads the market count and then every card concurrently. A failed
// count read is logged and leaves the board as it was; failed card reads are
// logged and leave that card loading or stale.
func (b *Board) Refresh(ctx context.Context) error {
	n, err := b.reader.MarketCount(ctx)
	if err != nil {
		b.logger.ErrorContext(ctx, "market count read failed", slog.String("error", err.Error()))
		return fmt.Errorf("dashboard: market count: %w", err)
	}

	b.mu.Lock()
	for i := uint64(len(b.cards)); i < n; i++ {
		b.cards = append(b.cards, newCard(i))
	}
	b.count = n
	b.countLoaded = true
	cards := append([]*Card(nil), b.cards[:n]...)
	b.mu.Unlock()

	b.refreshCards(ctx, cards, true)
	return nil
}

// RefreshBalances re-reads every loaded card's share balance, e.g. after the
// wallet changed.
func (b *Board) RefreshBalances(ctx context.Context) {
	b.refreshCards(ctx, b.cardList(), false)
}

// RefreshCard re-reads one market and its balance.
func (b *Board) RefreshCard(ctx context.Context, id uint64) error {
	c, ok := b.Card(id)
	if !ok {
		return domain.ErrNotFound
	}
	b.refreshCards(ctx, []*Card{c}, true)
	return nil
}

func (b *Board) refreshCards(ctx context.Context, cards []*Card, withMarket bool) {
	user := b.account.Address()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Concurrency)
	for _, c := range cards {
		g.Go(func() error {
			if withMarket {
				b.loadMarket(gctx, c)
			}
			b.loadBalance(gctx, c, user)
			return nil
		})
	}
	_ = g.Wait()
}

func (b *Board) loadMarket(ctx context.Context, c *Card) {
	m, err := b.reader.GetMarket(ctx, c.id)
	if err != nil {
		b.logger.WarnContext(ctx, "market read failed",
			slog.Uint64("market_id", c.id),
			slog.String("error", err.Error()),
		)
		return
	}
	c.setMarket(m, b.newWizard)
}

func (b *Board) loadBalance(ctx context.Context, c *Card, user common.Address) {
	bal, err := b.reader.GetSharesBalance(ctx, c.id, user)
	if err != nil {
		b.logger.WarnContext(ctx, "balance read failed",
			slog.Uint64("market_id", c.id),
			slog.String("user", user.Hex()),
			slog.String("error", err.Error()),
		)
		return
	}
	c.setBalance(bal)
}

func (b *Board) newWizard(m domain.Market) *wizard.Wizard {
	return wizard.New(m, b.gw, b.opts.Wizard)
}

func (b *Board) cardList() []*Card {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Card(nil), b.cards[:b.count]...)
}

// Count returns the market count and whether it has been read.
func (b *Board) Count() (uint64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count, b.countLoaded
}

// Card returns the card for a market index below the current count.
func (b *Board) Card(id uint64) (*Card, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id >= b.count {
		return nil, false
	}
	return b.cards[id], true
}

// Wizard returns the purchase wizard of a loaded market.
func (b *Board) Wizard(id uint64) (*wizard.Wizard, error) {
	c, ok := b.Card(id)
	if !ok {
		return nil, fmt.Errorf("dashboard: market %d: %w", id, domain.ErrNotFound)
	}
	w := c.Wizard()
	if w == nil {
		return nil, fmt.Errorf("dashboard: market %d not loaded: %w", id, domain.ErrNotFound)
	}
	return w, nil
}

// ActiveWizard is Wizard restricted to markets that are active at now.
func (b *Board) ActiveWizard(id uint64, now time.Time) (*wizard.Wizard, error) {
	w, err := b.Wizard(id)
	if err != nil {
		return nil, err
	}
	c, _ := b.Card(id)
	m, _ := c.Market()
	if domain.Classify(m, now).Phase != domain.PhaseActive {
		return nil, fmt.Errorf("dashboard: market %d: %w", id, domain.ErrMarketClosed)
	}
	return w, nil
}

// View renders tab at now. Every card is classified exactly once from the
// same instant. Cards whose market has not loaded yet render as skeletons
// because their phase is unknown.
func (b *Board) View(tab domain.Tab, now time.Time) TabView {
	b.mu.Lock()
	loaded := b.countLoaded
	b.mu.Unlock()
	if !loaded {
		return TabView{Tab: tab, Loading: true, Skeletons: SkeletonCount}
	}

	v := TabView{Tab: tab, Cards: []CardView{}}
	for _, c := range b.cardList() {
		m, bal, w := c.snapshot()
		if m == nil {
			v.Cards = append(v.Cards, CardView{ID: c.id, Loading: true})
			continue
		}
		lc := domain.Classify(*m, now)
		if !lc.VisibleIn(tab) {
			continue
		}
		v.Cards = append(v.Cards, buildCard(*m, lc, bal, w, now, b.opts.Location))
	}
	return v
}

// CardView renders a single card regardless of tab.
func (b *Board) CardView(id uint64, now time.Time) (CardView, error) {
	c, ok := b.Card(id)
	if !ok {
		return CardView{}, fmt.Errorf("dashboard: market %d: %w", id, domain.ErrNotFound)
	}
	m, bal, w := c.snapshot()
	if m == nil {
		return CardView{ID: id, Loading: true}, nil
	}
	return buildCard(*m, domain.Classify(*m, now), bal, w, now, b.opts.Location), nil
}

// Counts returns how many loaded markets fall in each tab at now.
func (b *Board) Counts(now time.Time) map[domain.Tab]int {
	out := make(map[domain.Tab]int, len(domain.Tabs))
	for _, c := range b.cardList() {
		if m, ok := c.Market(); ok {
			out[domain.Classify(m, now).Phase]++
		}
	}
	return out
}

// Run refreshes on every poll tick and re-reads balances whenever the wallet
// changes. It returns when ctx ends.
func (b *Board) Run(ctx context.Context, poll time.Duration, walletEvents <-chan wallet.Event) error {
	if err := b.Refresh(ctx); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = b.Refresh(ctx)
		case ev, ok := <-walletEvents:
			if !ok {
				walletEvents = nil
				continue
			}
			b.logger.InfoContext(ctx, "wallet changed, refreshing balances",
				slog.String("event", string(ev.Kind)),
				slog.String("address", ev.Address.Hex()),
			)
			b.RefreshBalances(ctx)
		}
	}
}
