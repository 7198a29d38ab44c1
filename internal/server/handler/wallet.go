package handler

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/predictdash/internal/wallet"
)

// WalletHandler exposes the shared wallet session.
type WalletHandler struct {
	session   *wallet.Session
	connector wallet.Connector
}

// NewWalletHandler creates a WalletHandler. A nil connector makes connect
// unavailable.
func NewWalletHandler(session *wallet.Session, connector wallet.Connector) *WalletHandler {
	return &WalletHandler{session: session, connector: connector}
}

type walletResponse struct {
	Connected bool   `json:"connected"`
	Address   string `json:"address"`
}

func (h *WalletHandler) current() walletResponse {
	acct, ok := h.session.Active()
	if !ok {
		return walletResponse{Address: common.Address{}.Hex()}
	}
	return walletResponse{Connected: true, Address: acct.Address.Hex()}
}

// Get returns the connected wallet.
// GET /api/wallet
func (h *WalletHandler) Get(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.current())
}

// Connect loads the configured key and makes it the active account.
// POST /api/wallet/connect
func (h *WalletHandler) Connect(w http.ResponseWriter, r *http.Request) {
	if h.connector == nil {
		writeError(w, http.StatusNotImplemented, "no wallet key configured")
		return
	}
	acct, err := h.connector(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.session.Connect(acct); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.current())
}

// Disconnect clears the active account.
// POST /api/wallet/disconnect
func (h *WalletHandler) Disconnect(w http.ResponseWriter, _ *http.Request) {
	h.session.Disconnect()
	writeJSON(w, http.StatusOK, h.current())
}
