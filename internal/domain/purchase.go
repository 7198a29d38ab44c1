package domain

import (
	"math/big"
	"time"
)

// PurchaseStatus is the terminal state of a purchase attempt.
type PurchaseStatus string

const (
	PurchaseStatusConfirmed PurchaseStatus = "confirmed"
	PurchaseStatusFailed    PurchaseStatus = "failed"
)

// Purchase is one buyShares attempt made through the wizard. Amount is the
// whole number of shares the user entered; BaseUnits is the same quantity
// scaled by 1e18 as sent to the contract.
type Purchase struct {
	ID         string         `json:"id"`
	MarketID   uint64         `json:"market_id"`
	Wallet     string         `json:"wallet"`
	Option     Option         `json:"option"`
	OptionName string         `json:"option_name"`
	Amount     string         `json:"amount"`
	BaseUnits  *big.Int       `json:"base_units"`
	ApproveTx  string         `json:"approve_tx,omitempty"`
	TxHash     string         `json:"tx_hash,omitempty"`
	Status     PurchaseStatus `json:"status"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
