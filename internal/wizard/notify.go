package wizard

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/predictdash/internal/domain"
)

// Variant is the visual style of a toast.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// ToastDuration is how long a purchase toast stays visible.
const ToastDuration = 5 * time.Second

// Toast is a dismissible user notification.
type Toast struct {
	Title    string        `json:"title"`
	Message  string        `json:"message"`
	Variant  Variant       `json:"variant"`
	Duration time.Duration `json:"duration"`
}

// Toaster shows toasts to the user.
type Toaster interface {
	Toast(ctx context.Context, t Toast)
}

// ToasterFunc adapts a function to Toaster.
type ToasterFunc func(ctx context.Context, t Toast)

func (f ToasterFunc) Toast(ctx context.Context, t Toast) { f(ctx, t) }

func successToast(amount decimal.Decimal, label string) Toast {
	return Toast{
		Title:    "Purchase Successful!",
		Message:  fmt.Sprintf("You bought %s %s shares", amount.String(), label),
		Variant:  VariantDefault,
		Duration: ToastDuration,
	}
}

func failureToast() Toast {
	return Toast{
		Title:    "Purchase Failed",
		Message:  "There was an error processing your purchase",
		Variant:  VariantDestructive,
		Duration: ToastDuration,
	}
}

// Attempt describes one purchase transaction that reached the chain.
type Attempt struct {
	MarketID    uint64
	Wallet      common.Address
	Option      domain.Option
	OptionLabel string
	Amount      decimal.Decimal
	BaseUnits   *big.Int
	ApproveTx   string
	Receipt     domain.Receipt
	Err         error
}

// Recorder observes purchase attempts after they settle.
type Recorder interface {
	RecordPurchase(ctx context.Context, a Attempt)
}
