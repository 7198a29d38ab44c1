package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/predictdash/internal/domain"
	"github.com/alanyoungcy/predictdash/internal/metrics"
	"github.com/alanyoungcy/predictdash/internal/units"
)

// msgIncomplete is shown when confirm is reached without a usable selection.
const msgIncomplete = "Must select an option and enter an amount greater than 0"

// Gateway is the wallet surface the wizard drives.
type Gateway interface {
	Account() (common.Address, bool)
	Allowance(ctx context.Context, owner common.Address) (*big.Int, error)
	Approve(ctx context.Context, amount *big.Int) (domain.Receipt, error)
	BuyShares(ctx context.Context, marketID uint64, isOptionA bool, amount *big.Int) (domain.Receipt, error)
}

// Options configures optional wizard collaborators.
type Options struct {
	Toaster  Toaster
	Recorder Recorder
	Logger   *slog.Logger
}

// Wizard is the purchase state machine for one market. It is safe for
// concurrent use; blocking chain calls run without holding the lock and the
// busy flags reject overlapping calls.
type Wizard struct {
	mu        sync.Mutex
	market    domain.Market
	gw        Gateway
	toaster   Toaster
	recorder  Recorder
	logger    *slog.Logger
	state     State
	approveTx string
	// gen increments on every reset so late allowance results are dropped.
	gen uint64
}

// New creates an idle wizard for market.
func New(market domain.Market, gw Gateway, opts Options) *Wizard {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Wizard{
		market:   market,
		gw:       gw,
		toaster:  opts.Toaster,
		recorder: opts.Recorder,
		logger: logger.With(
			slog.String("component", "wizard"),
			slog.Uint64("market_id", market.ID),
		),
		state: State{MarketID: market.ID, Step: StepIdle},
	}
}

// SetMarket refreshes the market labels after a re-read.
func (w *Wizard) SetMarket(m domain.Market) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.market = m
	if w.state.Option.Valid() {
		w.state.OptionLabel = m.OptionLabel(w.state.Option)
	}
}

// Snapshot returns a copy of the current state.
func (w *Wizard) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Wizard) moveLocked(to Step) {
	if w.state.Step == to {
		return
	}
	metrics.RecordWizardTransition(string(w.state.Step), string(to))
	w.state.Step = to
}

func (w *Wizard) resetLocked() {
	w.moveLocked(StepIdle)
	w.state = State{MarketID: w.market.ID, Step: StepIdle}
	w.approveTx = ""
	w.gen++
}

// Select chooses an option and opens amount entry. It requires a connected
// wallet and is only valid from idle.
func (w *Wizard) Select(opt domain.Option) error {
	if !opt.Valid() {
		return domain.ErrInvalidOption
	}
	if _, ok := w.gw.Account(); !ok {
		return domain.ErrNoWallet
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Step != StepIdle {
		return fmt.Errorf("wizard: select from %s: %w", w.state.Step, domain.ErrInvalidStep)
	}
	w.state.Option = opt
	w.state.OptionLabel = w.market.OptionLabel(opt)
	w.state.Amount = decimal.Zero
	w.state.ValidationError = ""
	w.moveLocked(StepAmountEntry)
	return nil
}

// SetAmount parses the amount text. Negative values clamp to zero and any
// edit clears the previous validation error.
func (w *Wizard) SetAmount(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Step != StepAmountEntry {
		return fmt.Errorf("wizard: set amount in %s: %w", w.state.Step, domain.ErrInvalidStep)
	}
	if w.state.Checking {
		return domain.ErrBusy
	}

	d, err := units.ParseAmount(text)
	w.state.Amount = d
	w.state.ValidationError = ""
	if err != nil {
		w.state.ValidationError = err.Error()
		return fmt.Errorf("wizard: %w: %v", domain.ErrInvalidAmount, err)
	}
	return nil
}

// Submit validates the amount, reads the allowance and moves to
// allowance-check when it is short of the requested base units, or straight
// to confirm otherwise. An invalid amount sets the validation error and makes
// no read.
func (w *Wizard) Submit(ctx context.Context) error {
	w.mu.Lock()
	if w.state.Step != StepAmountEntry {
		step := w.state.Step
		w.mu.Unlock()
		return fmt.Errorf("wizard: submit from %s: %w", step, domain.ErrInvalidStep)
	}
	if w.state.Checking {
		w.mu.Unlock()
		return domain.ErrBusy
	}
	if err := units.ValidatePurchase(w.state.Amount); err != nil {
		w.state.ValidationError = err.Error()
		w.mu.Unlock()
		return fmt.Errorf("wizard: %w: %v", domain.ErrInvalidAmount, err)
	}
	owner, ok := w.gw.Account()
	if !ok {
		w.mu.Unlock()
		return domain.ErrNoWallet
	}
	required := units.ToBaseUnits(w.state.Amount)
	gen := w.gen
	w.state.Checking = true
	w.mu.Unlock()

	allowance, err := w.gw.Allowance(ctx, owner)

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		return nil
	}
	w.state.Checking = false
	if err != nil {
		w.logger.ErrorContext(ctx, "allowance read failed",
			slog.String("owner", owner.Hex()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("wizard: allowance: %w", err)
	}

	if allowance.Cmp(required) < 0 {
		w.moveLocked(StepAllowanceCheck)
	} else {
		w.moveLocked(StepConfirm)
	}
	return nil
}

// Approve approves exactly the requested base units and advances to confirm
// once mined. On failure the step is unchanged and the trigger re-enabled.
func (w *Wizard) Approve(ctx context.Context) error {
	w.mu.Lock()
	if w.state.Step != StepAllowanceCheck {
		step := w.state.Step
		w.mu.Unlock()
		return fmt.Errorf("wizard: approve from %s: %w", step, domain.ErrInvalidStep)
	}
	if w.state.Approving {
		w.mu.Unlock()
		return domain.ErrBusy
	}
	required := units.ToBaseUnits(w.state.Amount)
	w.state.Approving = true
	w.mu.Unlock()

	receipt, err := w.gw.Approve(ctx, required)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Approving = false
	if err != nil {
		w.logger.ErrorContext(ctx, "approval failed",
			slog.String("amount", required.String()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("wizard: approve: %w", err)
	}
	w.approveTx = receipt.TxHash
	w.moveLocked(StepConfirm)
	return nil
}

// Confirm submits the purchase. Success shows a toast naming the amount and
// option and resets the wizard. Failure shows a failure toast and stays in
// confirm so the user can retry.
func (w *Wizard) Confirm(ctx context.Context) error {
	w.mu.Lock()
	if w.state.Step != StepConfirm {
		step := w.state.Step
		w.mu.Unlock()
		return fmt.Errorf("wizard: confirm from %s: %w", step, domain.ErrInvalidStep)
	}
	if w.state.Confirming {
		w.mu.Unlock()
		return domain.ErrBusy
	}
	if !w.state.Option.Valid() || !w.state.Amount.IsPositive() {
		w.state.ValidationError = msgIncomplete
		w.mu.Unlock()
		return fmt.Errorf("wizard: %w: %s", domain.ErrInvalidAmount, msgIncomplete)
	}
	owner, _ := w.gw.Account()
	attempt := Attempt{
		MarketID:    w.market.ID,
		Wallet:      owner,
		Option:      w.state.Option,
		OptionLabel: w.state.OptionLabel,
		Amount:      w.state.Amount,
		BaseUnits:   units.ToBaseUnits(w.state.Amount),
		ApproveTx:   w.approveTx,
	}
	w.state.Confirming = true
	w.mu.Unlock()

	receipt, err := w.gw.BuyShares(ctx, attempt.MarketID, attempt.Option.IsOptionA(), attempt.BaseUnits)
	attempt.Receipt = receipt
	attempt.Err = err
	metrics.RecordPurchase(string(attempt.Option), err)

	w.mu.Lock()
	w.state.Confirming = false
	if err != nil {
		w.mu.Unlock()
		w.logger.ErrorContext(ctx, "purchase failed",
			slog.String("option", string(attempt.Option)),
			slog.String("amount", attempt.Amount.String()),
			slog.String("error", err.Error()),
		)
		w.toast(ctx, failureToast())
		w.record(ctx, attempt)
		return fmt.Errorf("wizard: buy shares: %w", err)
	}
	w.resetLocked()
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "purchase confirmed",
		slog.String("option", string(attempt.Option)),
		slog.String("amount", attempt.Amount.String()),
		slog.String("tx", receipt.TxHash),
	)
	w.toast(ctx, successToast(attempt.Amount, attempt.OptionLabel))
	w.record(ctx, attempt)
	return nil
}

// Cancel returns to idle without submitting anything. It is refused while a
// transaction is in flight and is a no-op from idle.
func (w *Wizard) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.InFlight() {
		return domain.ErrBusy
	}
	if w.state.Step == StepIdle {
		return nil
	}
	w.resetLocked()
	return nil
}

// Advance performs the primary action of the current step.
func (w *Wizard) Advance(ctx context.Context) error {
	switch w.Snapshot().Step {
	case StepAmountEntry:
		return w.Submit(ctx)
	case StepAllowanceCheck:
		return w.Approve(ctx)
	case StepConfirm:
		return w.Confirm(ctx)
	default:
		return fmt.Errorf("wizard: nothing to advance: %w", domain.ErrInvalidStep)
	}
}

func (w *Wizard) toast(ctx context.Context, t Toast) {
	if w.toaster != nil {
		w.toaster.Toast(ctx, t)
	}
}

func (w *Wizard) record(ctx context.Context, a Attempt) {
	if w.recorder != nil {
		w.recorder.RecordPurchase(ctx, a)
	}
}

// IsUserError reports whether err is an input or flow error rather than a
// chain failure.
func IsUserError(err error) bool {
	return errors.Is(err, domain.ErrInvalidAmount) ||
		errors.Is(err, domain.ErrInvalidOption) ||
		errors.Is(err, domain.ErrInvalidStep) ||
		errors.Is(err, domain.ErrNoWallet) ||
		errors.Is(err, domain.ErrBusy)
}
