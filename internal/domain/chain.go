package domain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// NullAddress is the zero address used as the balance query key when no
// wallet is connected.
var NullAddress = common.Address{}

// MarketReader is the read surface of the prediction market contract.
type MarketReader interface {
	MarketCount(ctx context.Context) (uint64, error)
	GetMarket(ctx context.Context, id uint64) (Market, error)
	GetSharesBalance(ctx context.Context, id uint64, user common.Address) (SharesBalance, error)
}

// TokenReader is the read surface of the ERC-20 collateral token.
type TokenReader interface {
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
}

// TxSigner signs transactions on behalf of one account.
type TxSigner interface {
	Address() common.Address
	SignTx(tx *types.Transaction) (*types.Transaction, error)
}

// Receipt summarises a mined transaction.
type Receipt struct {
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
	GasUsed     uint64 `json:"gas_used"`
}

// TxSender submits the two write calls the dashboard makes and blocks until
// each is mined. A mined-but-reverted transaction returns ErrTxReverted.
type TxSender interface {
	Approve(ctx context.Context, signer TxSigner, spender common.Address, amount *big.Int) (Receipt, error)
	BuyShares(ctx context.Context, signer TxSigner, marketID uint64, isOptionA bool, amount *big.Int) (Receipt, error)
}
