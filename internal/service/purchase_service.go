package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/predictdash/internal/domain"
	"github.com/alanyoungcy/predictdash/internal/notify"
	"github.com/alanyoungcy/predictdash/internal/wizard"
)

// recordTimeout bounds the journal writes made after a purchase settles.
const recordTimeout = 10 * time.Second

// Invalidator drops cached state for one market.
type Invalidator interface {
	Invalidate(ctx context.Context, id uint64)
}

// PurchaseDeps are the sinks a PurchaseService writes to. Every field is
// optional.
type PurchaseDeps struct {
	Store    domain.PurchaseStore
	Audit    domain.AuditStore
	Bus      domain.SignalBus
	Notifier *notify.Notifier
	Markets  Invalidator
}

// PurchaseService journals settled purchases. It implements
// wizard.Recorder.
type PurchaseService struct {
	deps   PurchaseDeps
	logger *slog.Logger
	now    func() time.Time
}

// NewPurchaseService creates a PurchaseService.
func NewPurchaseService(deps PurchaseDeps, logger *slog.Logger) *PurchaseService {
	return &PurchaseService{
		deps:   deps,
		logger: logger.With(slog.String("component", "purchase_service")),
		now:    time.Now,
	}
}

// NewPurchase converts a settled attempt into a journal row.
func NewPurchase(a wizard.Attempt, at time.Time) domain.Purchase {
	p := domain.Purchase{
		ID:         uuid.NewString(),
		MarketID:   a.MarketID,
		Wallet:     a.Wallet.Hex(),
		Option:     a.Option,
		OptionName: a.OptionLabel,
		Amount:     a.Amount.String(),
		BaseUnits:  a.BaseUnits,
		ApproveTx:  a.ApproveTx,
		TxHash:     a.Receipt.TxHash,
		Status:     domain.PurchaseStatusConfirmed,
		CreatedAt:  at.UTC(),
	}
	if a.Err != nil {
		p.Status = domain.PurchaseStatusFailed
		p.Error = a.Err.Error()
	}
	return p
}

// RecordPurchase journals, audits, publishes and notifies one attempt.
// Sink failures are logged; none of them affects the wizard.
func (s *PurchaseService) RecordPurchase(ctx context.Context, a wizard.Attempt) {
	// The caller's context may end with the request that made the purchase.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	p := NewPurchase(a, s.now())
	log := s.logger.With(
		slog.String("purchase_id", p.ID),
		slog.Uint64("market_id", p.MarketID),
		slog.String("wallet", p.Wallet),
		slog.String("status", string(p.Status)),
	)

	if p.Status == domain.PurchaseStatusConfirmed && s.deps.Markets != nil {
		s.deps.Markets.Invalidate(ctx, p.MarketID)
	}

	if s.deps.Store != nil {
		if err := s.deps.Store.Create(ctx, p); err != nil {
			log.ErrorContext(ctx, "journal write failed", slog.String("error", err.Error()))
		}
	}

	if s.deps.Audit != nil {
		if err := s.deps.Audit.Log(ctx, "purchase_"+string(p.Status), map[string]any{
			"purchase_id": p.ID,
			"market_id":   p.MarketID,
			"wallet":      p.Wallet,
			"option":      string(p.Option),
			"amount":      p.Amount,
			"tx_hash":     p.TxHash,
			"error":       p.Error,
		}); err != nil {
			log.WarnContext(ctx, "audit log failed", slog.String("error", err.Error()))
		}
	}

	if s.deps.Bus != nil {
		if err := publish(ctx, s.deps.Bus, domain.ChannelPurchase, "purchase", p); err != nil {
			log.WarnContext(ctx, "publish failed", slog.String("error", err.Error()))
		}
	}

	if s.deps.Notifier.Enabled() {
		event, title, msg := purchaseNotification(p)
		if err := s.deps.Notifier.Notify(ctx, event, title, msg); err != nil {
			log.WarnContext(ctx, "notify failed", slog.String("error", err.Error()))
		}
	}

	log.InfoContext(ctx, "purchase recorded")
}

func purchaseNotification(p domain.Purchase) (event, title, msg string) {
	if p.Status == domain.PurchaseStatusFailed {
		return notify.EventPurchaseFailed, "Purchase failed",
			fmt.Sprintf("Market %d: %s shares of %s from %s\n%s", p.MarketID, p.Amount, p.OptionName, p.Wallet, p.Error)
	}
	return notify.EventPurchaseSucceeded, "Purchase confirmed",
		fmt.Sprintf("Market %d: %s shares of %s by %s\ntx %s", p.MarketID, p.Amount, p.OptionName, p.Wallet, p.TxHash)
}

// List returns a wallet's journal, newest first.
func (s *PurchaseService) List(ctx context.Context, wallet string, opts domain.ListOpts) ([]domain.Purchase, error) {
	if s.deps.Store == nil {
		return nil, fmt.Errorf("purchase_service: journal disabled: %w", domain.ErrNotFound)
	}
	out, err := s.deps.Store.ListByWallet(ctx, wallet, opts)
	if err != nil {
		return nil, fmt.Errorf("purchase_service: list %s: %w", wallet, err)
	}
	return out, nil
}

var _ wizard.Recorder = (*PurchaseService)(nil)
