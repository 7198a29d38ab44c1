package postgres

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/predictdash/internal/domain"
)

var purchaseCols = []string{
	"id", "market_id", "wallet", "option", "option_name", "amount",
	"base_units", "approve_tx", "tx_hash", "status", "error", "created_at",
}

func TestPurchaseStoreCreate(t *testing.T) {
	require := require.New(t)
	mock, err := pgxmock.NewPool()
	require.NoError(err)
	defer mock.Close()

	units, _ := new(big.Int).SetString("5000000000000000000", 10)
	p := domain.Purchase{
		ID:         "0b6f6d0e-6a43-4f5c-8a4c-3f9d7b7f2b10",
		MarketID:   3,
		Wallet:     "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		Option:     domain.OptionA,
		OptionName: "Yes",
		Amount:     "5",
		BaseUnits:  units,
		TxHash:     "0xbeef",
		Status:     domain.PurchaseStatusConfirmed,
	}

	mock.ExpectExec("INSERT INTO purchases").
		WithArgs(p.ID, int64(3), p.Wallet, "A", "Yes", "5",
			"5000000000000000000", "", "0xbeef", "confirmed", "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(NewPurchaseStore(mock).Create(context.Background(), p))
	require.NoError(mock.ExpectationsWereMet())
}

func TestPurchaseStoreListByWallet(t *testing.T) {
	require := require.New(t)
	mock, err := pgxmock.NewPool()
	require.NoError(err)
	defer mock.Close()

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows(purchaseCols).
		AddRow("id-1", uint64(3), "0xabc", "B", "No", "2", "2000000000000000000", "0xa1", "0xb2", "confirmed", "", created).
		AddRow("id-0", uint64(1), "0xabc", "A", "Yes", "1", "1000000000000000000", "", "", "failed", "reverted", created.Add(-time.Hour))

	mock.ExpectQuery(`FROM purchases WHERE lower\(wallet\) = lower\(\$1\) ORDER BY created_at DESC LIMIT \$2`).
		WithArgs("0xABC", 10).
		WillReturnRows(rows)

	got, err := NewPurchaseStore(mock).ListByWallet(context.Background(), "0xABC", domain.ListOpts{Limit: 10})
	require.NoError(err)
	require.Len(got, 2)
	require.Equal(domain.OptionB, got[0].Option)
	require.Equal(uint64(3), got[0].MarketID)
	require.Equal("2000000000000000000", got[0].BaseUnits.String())
	require.Equal(domain.PurchaseStatusFailed, got[1].Status)
	require.Equal("reverted", got[1].Error)
	require.NoError(mock.ExpectationsWereMet())
}

func TestPurchaseStoreDeleteBefore(t *testing.T) {
	require := require.New(t)
	mock, err := pgxmock.NewPool()
	require.NoError(err)
	defer mock.Close()

	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("DELETE FROM purchases WHERE created_at").
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	n, err := NewPurchaseStore(mock).DeleteBefore(context.Background(), cutoff)
	require.NoError(err)
	require.Equal(int64(4), n)
	require.NoError(mock.ExpectationsWereMet())
}

func TestAuditStoreLogAndList(t *testing.T) {
	require := require.New(t)
	mock, err := pgxmock.NewPool()
	require.NoError(err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO audit_log").
		WithArgs("archive_purchases", []byte(`{"rows":2}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	store := NewAuditStore(mock)
	require.NoError(store.Log(context.Background(), "archive_purchases", map[string]any{"rows": 2}))

	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM audit_log WHERE 1=1 AND created_at >= \$1 ORDER BY created_at DESC`).
		WithArgs(since).
		WillReturnRows(pgxmock.NewRows([]string{"id", "event", "detail", "created_at"}).
			AddRow(int64(9), "purchase_confirmed", []byte(`{"market_id":3}`), since.Add(time.Hour)))

	entries, err := store.List(context.Background(), domain.ListOpts{Since: &since})
	require.NoError(err)
	require.Len(entries, 1)
	require.Equal("purchase_confirmed", entries[0].Event)
	require.EqualValues(3, entries[0].Detail["market_id"])
	require.NoError(mock.ExpectationsWereMet())
}
