package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/alanyoungcy/predictdash/internal/dashboard"
	"github.com/alanyoungcy/predictdash/internal/domain"
	"github.com/alanyoungcy/predictdash/internal/wizard"
)

// Board is the dashboard surface the API reads and drives.
type Board interface {
	Count() (uint64, bool)
	Counts(now time.Time) map[domain.Tab]int
	View(tab domain.Tab, now time.Time) dashboard.TabView
	CardView(id uint64, now time.Time) (dashboard.CardView, error)
	Wizard(id uint64) (*wizard.Wizard, error)
	ActiveWizard(id uint64, now time.Time) (*wizard.Wizard, error)
	RefreshCard(ctx context.Context, id uint64) error
}

// MarketHandler serves the market list and cards.
type MarketHandler struct {
	board Board
	clock Clock
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(board Board, clock Clock) *MarketHandler {
	return &MarketHandler{board: board, clock: clock}
}

// ListMarkets renders one tab; tab defaults to active.
// GET /api/markets?tab=active|pending|resolved
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	tab, err := domain.ParseTab(r.URL.Query().Get("tab"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.board.View(tab, h.clock.now()))
}

// Count returns the market count and per-tab totals.
// GET /api/markets/count
func (h *MarketHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, loaded := h.board.Count()
	counts := h.board.Counts(h.clock.now())
	writeJSON(w, http.StatusOK, map[string]any{
		"loaded":   loaded,
		"count":    n,
		"active":   counts[domain.PhaseActive],
		"pending":  counts[domain.PhasePending],
		"resolved": counts[domain.PhaseResolved],
	})
}

// GetMarket renders one card regardless of tab.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id, err := parseMarketID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	v, err := h.board.CardView(id, h.clock.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
