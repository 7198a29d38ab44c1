package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/predictdash/internal/dashboard"
	"github.com/alanyoungcy/predictdash/internal/domain"
	"github.com/alanyoungcy/predictdash/internal/server/handler"
	"github.com/alanyoungcy/predictdash/internal/wallet"
)

type emptyReader struct{}

func (emptyReader) MarketCount(context.Context) (uint64, error) { return 0, nil }
func (emptyReader) GetMarket(context.Context, uint64) (domain.Market, error) {
	return domain.Market{}, domain.ErrNotFound
}
func (emptyReader) GetSharesBalance(context.Context, uint64, common.Address) (domain.SharesBalance, error) {
	return domain.ZeroBalance(), nil
}

func testHandler(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	session := wallet.NewSession()
	adapter := wallet.NewAdapter(session, nil, nil, common.Address{})
	board := dashboard.NewBoard(emptyReader{}, adapter, session, dashboard.Options{Logger: logger})

	h := Handlers{
		Health:  handler.NewHealthHandler(nil, nil),
		Status:  handler.NewStatusHandler("server", time.Now(), board, session, nil),
		Markets: handler.NewMarketHandler(board, nil),
		Wizard:  handler.NewWizardHandler(board, session, nil, handler.WizardConfig{}, nil, logger),
		Wallet:  handler.NewWalletHandler(session, nil),
	}
	return newHandler(Config{APIKey: "k"}, h, nil, nil, logger)
}

func get(h http.Handler, path, key string) int {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	if key != "" {
		r.Header.Set("X-API-Key", key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec.Code
}

func TestRoutes(t *testing.T) {
	require := require.New(t)
	h := testHandler(t)

	require.Equal(http.StatusOK, get(h, "/api/health", ""))
	require.Equal(http.StatusOK, get(h, "/metrics", ""))
	require.Equal(http.StatusUnauthorized, get(h, "/api/markets", ""))
	require.Equal(http.StatusOK, get(h, "/api/markets", "k"))
	require.Equal(http.StatusOK, get(h, "/api/wallet", "k"))
	require.Equal(http.StatusNotFound, get(h, "/api/markets/0", "k"))

	// Optional routes are absent when their dependency is.
	require.Equal(http.StatusNotFound, get(h, "/api/purchases?wallet=0x0", "k"))
	require.Equal(http.StatusNotFound, get(h, "/ws", "k"))
}
