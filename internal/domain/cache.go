package domain

import (
	"context"
	"strings"
	"time"
)

// MarketCache provides short-lived market lookups in front of the chain.
type MarketCache interface {
	Set(ctx context.Context, market Market) error
	Get(ctx context.Context, id uint64) (Market, error)
	Invalidate(ctx context.Context, id uint64) error
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// PurchaseLocker serialises writes per wallet. A wallet holds at most one
// lock while an approve or buy is in flight.
type PurchaseLocker interface {
	LockPurchase(ctx context.Context, wallet string, ttl time.Duration) (unlock func(), err error)
}

// BusMessage is one payload received from the signal bus.
type BusMessage struct {
	Channel string
	Payload []byte
}

// SignalBus provides pub/sub between the service layer and API clients.
// Only the dashboard channels below are accepted.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channels ...string) (<-chan BusMessage, error)
}

// Bus channels.
const (
	ChannelPurchase = "ch:purchase"
	ChannelWallet   = "ch:wallet"
	ChannelToast    = "ch:toast"
)

// BusChannels lists every bus channel.
var BusChannels = []string{ChannelPurchase, ChannelWallet, ChannelToast}

// KnownChannel reports whether ch is one of BusChannels.
func KnownChannel(ch string) bool {
	for _, c := range BusChannels {
		if c == ch {
			return true
		}
	}
	return false
}

// PurchaseLockKey is the lock held while a wallet has a write in flight.
func PurchaseLockKey(wallet string) string {
	return "purchase:" + strings.ToLower(wallet)
}
