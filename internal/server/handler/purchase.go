package handler

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/predictdash/internal/domain"
)

// PurchaseLister reads the purchase journal.
type PurchaseLister interface {
	List(ctx context.Context, wallet string, opts domain.ListOpts) ([]domain.Purchase, error)
}

// PurchaseHandler serves the purchase journal.
type PurchaseHandler struct {
	purchases PurchaseLister
}

// NewPurchaseHandler creates a PurchaseHandler.
func NewPurchaseHandler(purchases PurchaseLister) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases}
}

// ListPurchases returns a wallet's purchases, newest first.
// GET /api/purchases?wallet=0x..&limit=&offset=
func (h *PurchaseHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	addr := r.URL.Query().Get("wallet")
	if !common.IsHexAddress(addr) {
		writeError(w, http.StatusBadRequest, "wallet must be a hex address")
		return
	}
	out, err := h.purchases.List(r.Context(), common.HexToAddress(addr).Hex(), parseListOpts(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if out == nil {
		out = []domain.Purchase{}
	}
	writeJSON(w, http.StatusOK, out)
}

// AuditHandler serves the audit log.
type AuditHandler struct {
	audit domain.AuditStore
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(audit domain.AuditStore) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// ListAudit returns audit entries, newest first.
// GET /api/audit?limit=&offset=
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.audit.List(r.Context(), parseListOpts(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
