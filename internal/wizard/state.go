// Package wizard implements the per-market share purchase flow:
// idle, amount entry, an optional allowance approval, then confirmation.
package wizard

import (
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/predictdash/internal/domain"
)

// Step is a purchase wizard step.
type Step string

const (
	StepIdle           Step = "idle"
	StepAmountEntry    Step = "amount-entry"
	StepAllowanceCheck Step = "allowance-check"
	StepConfirm        Step = "confirm"
)

// State is an immutable snapshot of a wizard.
type State struct {
	MarketID        uint64          `json:"market_id"`
	Step            Step            `json:"step"`
	Option          domain.Option   `json:"option"`
	OptionLabel     string          `json:"option_label"`
	Amount          decimal.Decimal `json:"amount"`
	ValidationError string          `json:"validation_error,omitempty"`
	// Checking is set while the allowance read is outstanding.
	Checking   bool `json:"checking"`
	Approving  bool `json:"approving"`
	Confirming bool `json:"confirming"`
}

// InFlight reports whether a transaction is outstanding.
func (s State) InFlight() bool {
	return s.Approving || s.Confirming
}

// CanCancel reports whether cancel is enabled.
func (s State) CanCancel() bool {
	return s.Step != StepIdle && !s.InFlight()
}
