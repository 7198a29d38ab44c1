package tui

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/predictdash/internal/wallet"
	"github.com/alanyoungcy/predictdash/internal/wizard"
)

var errNoKey = errors.New("no wallet key configured")

// SessionWallet adapts a wallet session and its connector to Wallet.
type SessionWallet struct {
	Session   *wallet.Session
	Connector wallet.Connector
}

func (w SessionWallet) Address() common.Address { return w.Session.Address() }

func (w SessionWallet) Connect(ctx context.Context) error {
	if w.Connector == nil {
		return errNoKey
	}
	acct, err := w.Connector(ctx)
	if err != nil {
		return err
	}
	return w.Session.Connect(acct)
}

func (w SessionWallet) Disconnect() { w.Session.Disconnect() }

// ToastChannel is a wizard.Toaster feeding the model. Toasts are dropped
// when the buffer is full.
type ToastChannel chan wizard.Toast

// NewToastChannel creates a buffered ToastChannel.
func NewToastChannel() ToastChannel {
	return make(ToastChannel, 16)
}

func (c ToastChannel) Toast(_ context.Context, t wizard.Toast) {
	select {
	case c <- t:
	default:
	}
}
