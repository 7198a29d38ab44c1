package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/alanyoungcy/predictdash/internal/domain"
	"github.com/alanyoungcy/predictdash/internal/metrics"
)

// Transaction kinds, used as log and metric labels.
const (
	KindApprove = "approve"
	KindBuy     = "buy"
)

// Approve submits approve(spender, amount) on the token and waits for it.
func (c *Client) Approve(ctx context.Context, signer domain.TxSigner, spender common.Address, amount *big.Int) (domain.Receipt, error) {
	data, err := c.token.Pack(methodApprove, spender, amount)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("chain: pack approve: %w", err)
	}
	return c.SendAndConfirm(ctx, KindApprove, signer, c.cfg.TokenAddress, data)
}

// BuyShares submits buyShares(marketID, isOptionA, amount) and waits for it.
func (c *Client) BuyShares(ctx context.Context, signer domain.TxSigner, marketID uint64, isOptionA bool, amount *big.Int) (domain.Receipt, error) {
	data, err := c.market.Pack(methodBuyShares, new(big.Int).SetUint64(marketID), isOptionA, amount)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("chain: pack buyShares: %w", err)
	}
	return c.SendAndConfirm(ctx, KindBuy, signer, c.cfg.MarketAddress, data)
}

// SendAndConfirm builds an EIP-1559 transaction calling `to` with data,
// signs and broadcasts it, then blocks until it is mined or ctx ends.
// A mined transaction with a failed status returns domain.ErrTxReverted.
func (c *Client) SendAndConfirm(ctx context.Context, kind string, signer domain.TxSigner, to common.Address, data []byte) (domain.Receipt, error) {
	tx, err := c.buildTx(ctx, signer.Address(), to, data)
	if err != nil {
		metrics.RecordTransaction(kind, "error", 0)
		return domain.Receipt{}, fmt.Errorf("chain: %s: %w", kind, err)
	}

	signed, err := signer.SignTx(tx)
	if err != nil {
		metrics.RecordTransaction(kind, "error", 0)
		return domain.Receipt{}, fmt.Errorf("chain: %s: %w: %v", kind, domain.ErrSigningFailed, err)
	}

	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		metrics.RecordTransaction(kind, "error", 0)
		return domain.Receipt{}, fmt.Errorf("chain: %s: send: %w", kind, err)
	}
	sent := time.Now()
	c.logger.InfoContext(ctx, "transaction sent",
		slog.String("kind", kind),
		slog.String("tx", signed.Hash().Hex()),
		slog.Uint64("nonce", signed.Nonce()),
	)

	receipt, err := c.waitMined(ctx, signed.Hash())
	if err != nil {
		metrics.RecordTransaction(kind, "error", 0)
		return domain.Receipt{}, fmt.Errorf("chain: %s: wait %s: %w", kind, signed.Hash().Hex(), err)
	}

	out := domain.Receipt{
		TxHash:  signed.Hash().Hex(),
		GasUsed: receipt.GasUsed,
	}
	if receipt.BlockNumber != nil {
		out.BlockNumber = receipt.BlockNumber.Uint64()
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		metrics.RecordTransaction(kind, "reverted", time.Since(sent))
		return out, fmt.Errorf("chain: %s %s: %w", kind, out.TxHash, domain.ErrTxReverted)
	}
	metrics.RecordTransaction(kind, "confirmed", time.Since(sent))
	c.logger.InfoContext(ctx, "transaction confirmed",
		slog.String("kind", kind),
		slog.String("tx", out.TxHash),
		slog.Uint64("block", out.BlockNumber),
	)
	return out, nil
}

func (c *Client) buildTx(ctx context.Context, from, to common.Address, data []byte) (*types.Transaction, error) {
	nonce, err := c.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	tip, err := c.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("gas tip: %w", err)
	}
	head, err := c.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("latest header: %w", err)
	}
	// Fee cap leaves room for the base fee to double before inclusion.
	feeCap := new(big.Int).Set(tip)
	if head.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	gas, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:      from,
		To:        &to,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Data:      data,
	})
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}
	gas += gas * c.cfg.GasBufferPercent / 100

	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(c.cfg.ChainID),
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     new(big.Int),
		Data:      data,
	}), nil
}

// waitMined polls for the receipt of hash until it appears or ctx ends.
// Lookup errors other than "not found" are logged and polling continues.
func (c *Client) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.cfg.ReceiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			c.logger.WarnContext(ctx, "receipt lookup failed",
				slog.String("tx", hash.Hex()),
				slog.String("error", err.Error()),
			)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
