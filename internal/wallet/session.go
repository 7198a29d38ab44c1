// Package wallet holds the process-wide active account and binds it to the
// contract client.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/predictdash/internal/crypto"
	"github.com/alanyoungcy/predictdash/internal/domain"
)

// Account is a connected wallet.
type Account struct {
	Address common.Address
	Signer  domain.TxSigner
}

// EventKind names a session update point.
type EventKind string

const (
	EventConnected    EventKind = "connected"
	EventDisconnected EventKind = "disconnected"
	EventSwitched     EventKind = "switched"
)

// Event is delivered to subscribers on every session update.
type Event struct {
	Kind     EventKind      `json:"kind"`
	Address  common.Address `json:"address"`
	Previous common.Address `json:"previous"`
}

// Connector produces the account to connect, e.g. by loading a key.
type Connector func(ctx context.Context) (Account, error)

// KeyConnector returns a Connector that loads the configured private key.
func KeyConnector(cfg crypto.KeyConfig, chainID int64) Connector {
	return func(context.Context) (Account, error) {
		key, err := crypto.LoadKey(cfg)
		if err != nil {
			return Account{}, fmt.Errorf("wallet: load key: %w", err)
		}
		s, err := crypto.NewSigner(key, chainID)
		if err != nil {
			return Account{}, fmt.Errorf("wallet: %w", err)
		}
		return Account{Address: s.Address(), Signer: s}, nil
	}
}

const subscriberBuffer = 16

// Session is the observable active account. Components read it; only the
// front ends call Connect, Disconnect and Switch.
type Session struct {
	mu     sync.RWMutex
	active *Account
	subs   map[int]chan Event
	nextID int
}

// NewSession returns a disconnected session.
func NewSession() *Session {
	return &Session{subs: make(map[int]chan Event)}
}

// Connect makes acct the active account. Connecting while another account
// is active is an account change.
func (s *Session) Connect(acct Account) error {
	if acct.Signer == nil {
		return errors.New("wallet: account has no signer")
	}
	if acct.Address == (common.Address{}) {
		acct.Address = acct.Signer.Address()
	}

	s.mu.Lock()
	prev := s.active
	s.active = &acct
	ev := Event{Kind: EventConnected, Address: acct.Address}
	if prev != nil {
		if prev.Address == acct.Address {
			s.mu.Unlock()
			return nil
		}
		ev.Kind = EventSwitched
		ev.Previous = prev.Address
	}
	s.broadcastLocked(ev)
	s.mu.Unlock()
	return nil
}

// Switch changes the active account. It fails when nothing is connected.
func (s *Session) Switch(acct Account) error {
	s.mu.RLock()
	connected := s.active != nil
	s.mu.RUnlock()
	if !connected {
		return domain.ErrNoWallet
	}
	return s.Connect(acct)
}

// Disconnect clears the active account. It is a no-op when disconnected.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return
	}
	prev := s.active.Address
	s.active = nil
	s.broadcastLocked(Event{Kind: EventDisconnected, Previous: prev})
}

// Active returns the connected account, if any.
func (s *Session) Active() (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return Account{}, false
	}
	return *s.active, true
}

// Address returns the active address, or the null address when
// disconnected.
func (s *Session) Address() common.Address {
	if a, ok := s.Active(); ok {
		return a.Address
	}
	return domain.NullAddress
}

// Subscribe registers for session events. The returned func unsubscribes and
// closes the channel. Slow subscribers miss events rather than block
// updates.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *Session) broadcastLocked(ev Event) {
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
