package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alanyoungcy/predictdash/internal/dashboard"
	"github.com/alanyoungcy/predictdash/internal/domain"
	"github.com/alanyoungcy/predictdash/internal/wizard"
)

// WizardConfig bounds the blocking wizard steps.
type WizardConfig struct {
	// TxTimeout bounds approve and confirm, which wait for a receipt.
	TxTimeout time.Duration
	// LockTTL is how long the per-wallet purchase lock may be held.
	LockTTL time.Duration
}

// WizardHandler drives the per-market purchase wizards.
type WizardHandler struct {
	board  Board
	wallet AddressSource
	locks  domain.PurchaseLocker
	cfg    WizardConfig
	clock  Clock
	logger *slog.Logger
}

// NewWizardHandler creates a WizardHandler. locks may be nil.
func NewWizardHandler(board Board, wallet AddressSource, locks domain.PurchaseLocker, cfg WizardConfig, clock Clock, logger *slog.Logger) *WizardHandler {
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = 3 * time.Minute
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = cfg.TxTimeout + time.Minute
	}
	return &WizardHandler{
		board:  board,
		wallet: wallet,
		locks:  locks,
		cfg:    cfg,
		clock:  clock,
		logger: logger.With(slog.String("handler", "wizard")),
	}
}

// WizardResponse is the wizard state plus the labels a client renders.
type WizardResponse struct {
	State     wizard.State `json:"state"`
	CanCancel bool         `json:"can_cancel"`
	RateHint  string       `json:"rate_hint,omitempty"`
	Error     string       `json:"error,omitempty"`
}

func respond(w http.ResponseWriter, wz *wizard.Wizard, err error) {
	st := wz.Snapshot()
	resp := WizardResponse{State: st, CanCancel: st.CanCancel()}
	if st.Step == wizard.StepAmountEntry {
		resp.RateHint = dashboard.RateHint(st.OptionLabel)
	}
	code := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		if st.ValidationError != "" {
			resp.Error = st.ValidationError
		}
		code = statusFor(err)
	}
	writeJSON(w, code, resp)
}

func (h *WizardHandler) active(w http.ResponseWriter, r *http.Request) (*wizard.Wizard, uint64, bool) {
	id, err := parseMarketID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, 0, false
	}
	wz, err := h.board.ActiveWizard(id, h.clock.now())
	if err != nil {
		writeDomainError(w, err)
		return nil, 0, false
	}
	return wz, id, true
}

// Get returns the wizard of any loaded market.
// GET /api/markets/{id}/wizard
func (h *WizardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseMarketID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	wz, err := h.board.Wizard(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond(w, wz, nil)
}

type selectRequest struct {
	Option domain.Option `json:"option"`
}

// Select chooses option A or B.
// POST /api/markets/{id}/wizard/select
func (h *WizardHandler) Select(w http.ResponseWriter, r *http.Request) {
	wz, _, ok := h.active(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	respond(w, wz, wz.Select(domain.Option(strings.ToUpper(string(req.Option)))))
}

type amountRequest struct {
	Amount string `json:"amount"`
}

// Amount sets the amount text.
// POST /api/markets/{id}/wizard/amount
func (h *WizardHandler) Amount(w http.ResponseWriter, r *http.Request) {
	wz, _, ok := h.active(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	respond(w, wz, wz.SetAmount(req.Amount))
}

// Submit validates the amount and checks the allowance.
// POST /api/markets/{id}/wizard/submit
func (h *WizardHandler) Submit(w http.ResponseWriter, r *http.Request) {
	wz, _, ok := h.active(w, r)
	if !ok {
		return
	}
	respond(w, wz, wz.Submit(r.Context()))
}

// Approve sends the allowance transaction.
// POST /api/markets/{id}/wizard/approve
func (h *WizardHandler) Approve(w http.ResponseWriter, r *http.Request) {
	wz, _, ok := h.active(w, r)
	if !ok {
		return
	}
	h.withTx(w, r, wz, func(ctx context.Context) error { return wz.Approve(ctx) })
}

// Confirm sends buyShares and refreshes the card once it settles.
// POST /api/markets/{id}/wizard/confirm
func (h *WizardHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	wz, id, ok := h.active(w, r)
	if !ok {
		return
	}
	h.withTx(w, r, wz, func(ctx context.Context) error {
		err := wz.Confirm(ctx)
		if err == nil {
			if rerr := h.board.RefreshCard(ctx, id); rerr != nil {
				h.logger.WarnContext(ctx, "card refresh after purchase failed",
					slog.Uint64("market_id", id),
					slog.String("error", rerr.Error()),
				)
			}
		}
		return err
	})
}

// withTx runs a transaction step under the wallet's purchase lock. The step
// outlives a dropped client connection so the receipt is still observed.
func (h *WizardHandler) withTx(w http.ResponseWriter, r *http.Request, wz *wizard.Wizard, step func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.cfg.TxTimeout)
	defer cancel()

	if h.locks != nil {
		unlock, err := h.locks.LockPurchase(ctx, h.wallet.Address().Hex(), h.cfg.LockTTL)
		if err != nil {
			respond(w, wz, err)
			return
		}
		defer unlock()
	}
	respond(w, wz, step(ctx))
}

// Cancel returns the wizard to idle. It works on any loaded market.
// POST /api/markets/{id}/wizard/cancel
func (h *WizardHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := parseMarketID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	wz, err := h.board.Wizard(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond(w, wz, wz.Cancel())
}
