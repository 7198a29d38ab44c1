package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/predictdash/internal/domain"
	"github.com/alanyoungcy/predictdash/internal/wallet"
	"github.com/alanyoungcy/predictdash/internal/wizard"
)

// Envelope is the JSON shape of every bus message.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func publish(ctx context.Context, bus domain.SignalBus, channel, typ string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	msg, err := json.Marshal(Envelope{Type: typ, Payload: raw})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return bus.Publish(ctx, channel, msg)
}

// BusToaster publishes toasts on the toast channel for API clients.
type BusToaster struct {
	bus    domain.SignalBus
	logger *slog.Logger
}

// NewBusToaster creates a BusToaster.
func NewBusToaster(bus domain.SignalBus, logger *slog.Logger) *BusToaster {
	return &BusToaster{bus: bus, logger: logger.With(slog.String("component", "toast_relay"))}
}

// Toast implements wizard.Toaster.
func (t *BusToaster) Toast(ctx context.Context, toast wizard.Toast) {
	if err := publish(context.WithoutCancel(ctx), t.bus, domain.ChannelToast, "toast", toast); err != nil {
		t.logger.WarnContext(ctx, "publish toast failed", slog.String("error", err.Error()))
	}
}

// Toasters fans a toast out to several Toasters.
type Toasters []wizard.Toaster

// Toast implements wizard.Toaster.
func (ts Toasters) Toast(ctx context.Context, t wizard.Toast) {
	for _, x := range ts {
		if x != nil {
			x.Toast(ctx, t)
		}
	}
}

// RelayWalletEvents publishes session events on the wallet channel until
// events closes or ctx ends.
func RelayWalletEvents(ctx context.Context, events <-chan wallet.Event, bus domain.SignalBus, logger *slog.Logger) {
	logger = logger.With(slog.String("component", "wallet_relay"))
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := publish(ctx, bus, domain.ChannelWallet, "wallet", ev); err != nil {
				logger.WarnContext(ctx, "publish wallet event failed",
					slog.String("kind", string(ev.Kind)),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

var _ wizard.Toaster = (*BusToaster)(nil)
