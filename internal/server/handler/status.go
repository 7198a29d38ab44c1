package handler

import (
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// AddressSource yields the connected wallet address.
type AddressSource interface {
	Address() common.Address
}

// StatusHandler reports process mode and dashboard state.
type StatusHandler struct {
	mode      string
	startedAt time.Time
	board     Board
	wallet    AddressSource
	clock     Clock
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(mode string, startedAt time.Time, board Board, wallet AddressSource, clock Clock) *StatusHandler {
	return &StatusHandler{mode: mode, startedAt: startedAt, board: board, wallet: wallet, clock: clock}
}

// GetStatus responds with mode, uptime, market count and wallet.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	now := h.clock.now()
	n, loaded := h.board.Count()
	addr := h.wallet.Address()
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":             h.mode,
		"uptime_seconds":   int64(now.Sub(h.startedAt).Seconds()),
		"markets_loaded":   loaded,
		"market_count":     n,
		"wallet_connected": addr != (common.Address{}),
		"wallet":           addr.Hex(),
	})
}
