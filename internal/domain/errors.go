package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrRateLimited    = errors.New("rate limited")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrLockHeld       = errors.New("lock already held")
	ErrUnknownChannel = errors.New("unknown bus channel")
	ErrNoWallet       = errors.New("no wallet connected")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidOption  = errors.New("invalid option")
	ErrInvalidStep    = errors.New("action not allowed in current step")
	ErrMarketClosed   = errors.New("market is not active")
	ErrBusy           = errors.New("transaction in flight")
	ErrTxReverted     = errors.New("transaction reverted")
	ErrDecode         = errors.New("unexpected contract result")
	ErrSigningFailed  = errors.New("signing failed")
)
