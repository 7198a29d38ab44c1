package dashboard

import (
	"sync"

	"github.com/alanyoungcy/predictdash/internal/domain"
	"github.com/alanyoungcy/predictdash/internal/wizard"
)

// Card holds the last fetched data for one market index. A nil market means
// the first read has not completed.
type Card struct {
	id uint64

	mu      sync.RWMutex
	market  *domain.Market
	balance *domain.SharesBalance
	wizard  *wizard.Wizard
}

func newCard(id uint64) *Card {
	return &Card{id: id}
}

// ID returns the market index.
func (c *Card) ID() uint64 { return c.id }

// Market returns the loaded market.
func (c *Card) Market() (domain.Market, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.market == nil {
		return domain.Market{}, false
	}
	return *c.market, true
}

// Balance returns the loaded share balance.
func (c *Card) Balance() (domain.SharesBalance, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.balance == nil {
		return domain.SharesBalance{}, false
	}
	return *c.balance, true
}

// Wizard returns the purchase wizard, created on the first market load.
func (c *Card) Wizard() *wizard.Wizard {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wizard
}

func (c *Card) setMarket(m domain.Market, newWizard func(domain.Market) *wizard.Wizard) {
	c.mu.Lock()
	c.market = &m
	w := c.wizard
	if w == nil {
		c.wizard = newWizard(m)
	}
	c.mu.Unlock()
	if w != nil {
		w.SetMarket(m)
	}
}

func (c *Card) setBalance(b domain.SharesBalance) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balance = &b
}

func (c *Card) snapshot() (*domain.Market, *domain.SharesBalance, *wizard.Wizard) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.market, c.balance, c.wizard
}
