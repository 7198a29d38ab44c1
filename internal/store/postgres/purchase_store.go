package postgres

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alanyoungcy/predictdash/internal/domain"
)

// PurchaseStore implements domain.PurchaseStore.
type PurchaseStore struct {
	db DBTX
}

// NewPurchaseStore creates a PurchaseStore on db.
func NewPurchaseStore(db DBTX) *PurchaseStore {
	return &PurchaseStore{db: db}
}

const purchaseSelectCols = `id, market_id, wallet, option, option_name, amount::text,
	base_units::text, approve_tx, tx_hash, status, error, created_at`

func scanPurchaseRows(rows pgx.Rows) ([]domain.Purchase, error) {
	var out []domain.Purchase
	for rows.Next() {
		var (
			p                     domain.Purchase
			option, status, units string
		)
		if err := rows.Scan(
			&p.ID, &p.MarketID, &p.Wallet, &option, &p.OptionName, &p.Amount,
			&units, &p.ApproveTx, &p.TxHash, &status, &p.Error, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		p.Option = domain.Option(option)
		p.Status = domain.PurchaseStatus(status)
		bu, ok := new(big.Int).SetString(units, 10)
		if !ok {
			return nil, fmt.Errorf("purchase %s: bad base_units %q", p.ID, units)
		}
		p.BaseUnits = bu
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create inserts one journal row. Re-inserting an existing id is a no-op.
func (s *PurchaseStore) Create(ctx context.Context, p domain.Purchase) error {
	units := "0"
	if p.BaseUnits != nil {
		units = p.BaseUnits.String()
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO purchases (
			id, market_id, wallet, option, option_name, amount,
			base_units, approve_tx, tx_hash, status, error, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING`
	if _, err := s.db.Exec(ctx, query,
		p.ID, int64(p.MarketID), p.Wallet, string(p.Option), p.OptionName, p.Amount,
		units, p.ApproveTx, p.TxHash, string(p.Status), p.Error, createdAt,
	); err != nil {
		return fmt.Errorf("postgres: create purchase %s: %w", p.ID, err)
	}
	return nil
}

// ListByWallet returns a wallet's purchases newest first. The address
// comparison ignores case.
func (s *PurchaseStore) ListByWallet(ctx context.Context, wallet string, opts domain.ListOpts) ([]domain.Purchase, error) {
	query, args := appendRange(
		`SELECT `+purchaseSelectCols+` FROM purchases WHERE lower(wallet) = lower($1)`,
		[]any{wallet}, "created_at", opts.Since, opts.Until)
	query += " ORDER BY created_at DESC"
	query, args = appendPage(query, args, opts.Limit, opts.Offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list purchases for %s: %w", wallet, err)
	}
	defer rows.Close()

	out, err := scanPurchaseRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan purchases for %s: %w", wallet, err)
	}
	return out, nil
}

// ListBefore returns every purchase created before the cutoff, oldest first.
func (s *PurchaseStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Purchase, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+purchaseSelectCols+` FROM purchases WHERE created_at < $1 ORDER BY created_at ASC`, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list purchases before %s: %w", before.Format(time.RFC3339), err)
	}
	defer rows.Close()

	out, err := scanPurchaseRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan purchases before: %w", err)
	}
	return out, nil
}

// DeleteBefore removes purchases created before the cutoff.
func (s *PurchaseStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM purchases WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete purchases before %s: %w", before.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

var _ domain.PurchaseStore = (*PurchaseStore)(nil)
