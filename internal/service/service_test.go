package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/predictdash/internal/domain"
	"github.com/alanyoungcy/predictdash/internal/wallet"
	"github.com/alanyoungcy/predictdash/internal/wizard"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type countingReader struct {
	mu    sync.Mutex
	reads int
	m     domain.Market
}

func (r *countingReader) MarketCount(context.Context) (uint64, error) { return 1, nil }

func (r *countingReader) GetMarket(_ context.Context, id uint64) (domain.Market, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	m := r.m
	m.ID = id
	return m, nil
}

func (r *countingReader) GetSharesBalance(context.Context, uint64, common.Address) (domain.SharesBalance, error) {
	return domain.ZeroBalance(), nil
}

type mapCache struct {
	mu     sync.Mutex
	items  map[uint64]domain.Market
	getErr error
}

func (c *mapCache) Set(_ context.Context, m domain.Market) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = map[uint64]domain.Market{}
	}
	c.items[m.ID] = m
	return nil
}

func (c *mapCache) Get(_ context.Context, id uint64) (domain.Market, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return domain.Market{}, c.getErr
	}
	m, ok := c.items[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

func (c *mapCache) Invalidate(_ context.Context, id uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
	return nil
}

func TestMarketServiceReadThrough(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	chain := &countingReader{m: domain.Market{Question: "Q"}}
	cache := &mapCache{}
	svc := NewMarketService(chain, cache, discard())

	for i := 0; i < 3; i++ {
		m, err := svc.GetMarket(ctx, 4)
		require.NoError(err)
		require.Equal(uint64(4), m.ID)
	}
	require.Equal(1, chain.reads)

	svc.Invalidate(ctx, 4)
	_, err := svc.GetMarket(ctx, 4)
	require.NoError(err)
	require.Equal(2, chain.reads)
}

func TestMarketServiceCacheErrorFallsThrough(t *testing.T) {
	require := require.New(t)
	chain := &countingReader{}
	svc := NewMarketService(chain, &mapCache{getErr: errors.New("redis down")}, discard())

	_, err := svc.GetMarket(context.Background(), 1)
	require.NoError(err)
	require.Equal(1, chain.reads)
}

func TestMarketServiceWithoutCache(t *testing.T) {
	require := require.New(t)
	chain := &countingReader{}
	svc := NewMarketService(chain, nil, discard())

	_, _ = svc.GetMarket(context.Background(), 1)
	_, _ = svc.GetMarket(context.Background(), 1)
	svc.Invalidate(context.Background(), 1)
	require.Equal(2, chain.reads)
}

type memStore struct {
	mu   sync.Mutex
	rows []domain.Purchase
}

func (s *memStore) Create(_ context.Context, p domain.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, p)
	return nil
}

func (s *memStore) ListByWallet(_ context.Context, w string, _ domain.ListOpts) ([]domain.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Purchase
	for _, p := range s.rows {
		if p.Wallet == w {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) ListBefore(context.Context, time.Time) ([]domain.Purchase, error) { return nil, nil }
func (s *memStore) DeleteBefore(context.Context, time.Time) (int64, error)           { return 0, nil }

type memAudit struct{ events []string }

func (a *memAudit) Log(_ context.Context, event string, _ map[string]any) error {
	a.events = append(a.events, event)
	return nil
}

func (a *memAudit) List(context.Context, domain.ListOpts) ([]domain.AuditEntry, error) {
	return nil, nil
}

type memBus struct {
	mu   sync.Mutex
	msgs map[string][][]byte
}

func (b *memBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.msgs == nil {
		b.msgs = map[string][][]byte{}
	}
	b.msgs[channel] = append(b.msgs[channel], payload)
	return nil
}

func (b *memBus) Subscribe(context.Context, ...string) (<-chan domain.BusMessage, error) {
	return nil, errors.New("not supported")
}

type spyInvalidator struct{ ids []uint64 }

func (s *spyInvalidator) Invalidate(_ context.Context, id uint64) { s.ids = append(s.ids, id) }

func attempt(err error) wizard.Attempt {
	return wizard.Attempt{
		MarketID:    2,
		Wallet:      common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
		Option:      domain.OptionB,
		OptionLabel: "No",
		Amount:      decimal.NewFromInt(3),
		BaseUnits:   new(big.Int).Mul(big.NewInt(3), big.NewInt(1e18)),
		Receipt:     domain.Receipt{TxHash: "0xfeed"},
		Err:         err,
	}
}

func TestRecordPurchaseConfirmed(t *testing.T) {
	require := require.New(t)
	store, audit, bus, inv := &memStore{}, &memAudit{}, &memBus{}, &spyInvalidator{}
	svc := NewPurchaseService(PurchaseDeps{Store: store, Audit: audit, Bus: bus, Markets: inv}, discard())

	svc.RecordPurchase(context.Background(), attempt(nil))

	require.Len(store.rows, 1)
	p := store.rows[0]
	require.NotEmpty(p.ID)
	require.Equal(domain.PurchaseStatusConfirmed, p.Status)
	require.Equal("3", p.Amount)
	require.Equal("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", p.Wallet)
	require.Equal([]string{"purchase_confirmed"}, audit.events)
	require.Equal([]uint64{2}, inv.ids)

	require.Len(bus.msgs[domain.ChannelPurchase], 1)
	var env Envelope
	require.NoError(json.Unmarshal(bus.msgs[domain.ChannelPurchase][0], &env))
	require.Equal("purchase", env.Type)
	var got domain.Purchase
	require.NoError(json.Unmarshal(env.Payload, &got))
	require.Equal(p.ID, got.ID)
}

func TestRecordPurchaseFailed(t *testing.T) {
	require := require.New(t)
	store, inv := &memStore{}, &spyInvalidator{}
	svc := NewPurchaseService(PurchaseDeps{Store: store, Markets: inv}, discard())

	svc.RecordPurchase(context.Background(), attempt(domain.ErrTxReverted))

	require.Len(store.rows, 1)
	require.Equal(domain.PurchaseStatusFailed, store.rows[0].Status)
	require.Equal(domain.ErrTxReverted.Error(), store.rows[0].Error)
	require.Empty(inv.ids)
}

func TestRecordPurchaseNoSinks(t *testing.T) {
	svc := NewPurchaseService(PurchaseDeps{}, discard())
	require.NotPanics(t, func() { svc.RecordPurchase(context.Background(), attempt(nil)) })

	_, err := svc.List(context.Background(), "0xabc", domain.ListOpts{})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordPurchaseSurvivesCancelledContext(t *testing.T) {
	require := require.New(t)
	store := &memStore{}
	svc := NewPurchaseService(PurchaseDeps{Store: store}, discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.RecordPurchase(ctx, attempt(nil))
	require.Len(store.rows, 1)
}

func TestBusToasterAndFanOut(t *testing.T) {
	require := require.New(t)
	bus := &memBus{}
	var local []wizard.Toast
	ts := Toasters{NewBusToaster(bus, discard()), wizard.ToasterFunc(func(_ context.Context, t wizard.Toast) {
		local = append(local, t)
	}), nil}

	ts.Toast(context.Background(), wizard.Toast{Title: "Purchase Failed", Variant: wizard.VariantDestructive})

	require.Len(local, 1)
	require.Len(bus.msgs[domain.ChannelToast], 1)
	var env Envelope
	require.NoError(json.Unmarshal(bus.msgs[domain.ChannelToast][0], &env))
	require.Equal("toast", env.Type)
}

func TestRelayWalletEvents(t *testing.T) {
	require := require.New(t)
	bus := &memBus{}
	events := make(chan wallet.Event, 2)
	events <- wallet.Event{Kind: wallet.EventConnected, Address: common.HexToAddress("0x01")}
	events <- wallet.Event{Kind: wallet.EventDisconnected, Previous: common.HexToAddress("0x01")}
	close(events)

	RelayWalletEvents(context.Background(), events, bus, discard())
	require.Len(bus.msgs[domain.ChannelWallet], 2)
}
