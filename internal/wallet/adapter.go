package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/predictdash/internal/domain"
)

// Adapter binds a Session to the contract client. The market contract is
// always the allowance spender.
type Adapter struct {
	session *Session
	token   domain.TokenReader
	sender  domain.TxSender
	spender common.Address
}

// NewAdapter creates an Adapter. spender is the market contract address.
func NewAdapter(session *Session, token domain.TokenReader, sender domain.TxSender, spender common.Address) *Adapter {
	return &Adapter{session: session, token: token, sender: sender, spender: spender}
}

// Session returns the underlying session.
func (a *Adapter) Session() *Session {
	return a.session
}

// Account returns the active address.
func (a *Adapter) Account() (common.Address, bool) {
	acct, ok := a.session.Active()
	return acct.Address, ok
}

// Allowance reads how much of the token owner has approved for the market.
func (a *Adapter) Allowance(ctx context.Context, owner common.Address) (*big.Int, error) {
	return a.token.Allowance(ctx, owner, a.spender)
}

// Approve approves exactly amount base units for the market contract.
func (a *Adapter) Approve(ctx context.Context, amount *big.Int) (domain.Receipt, error) {
	acct, ok := a.session.Active()
	if !ok {
		return domain.Receipt{}, domain.ErrNoWallet
	}
	return a.sender.Approve(ctx, acct.Signer, a.spender, amount)
}

// BuyShares buys amount base units of one side of a market.
func (a *Adapter) BuyShares(ctx context.Context, marketID uint64, isOptionA bool, amount *big.Int) (domain.Receipt, error) {
	acct, ok := a.session.Active()
	if !ok {
		return domain.Receipt{}, domain.ErrNoWallet
	}
	return a.sender.BuyShares(ctx, acct.Signer, marketID, isOptionA, amount)
}
