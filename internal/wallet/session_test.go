package wallet

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/predictdash/internal/crypto"
	"github.com/alanyoungcy/predictdash/internal/domain"
)

const (
	keyA = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	keyB = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
)

func account(t *testing.T, key string) Account {
	t.Helper()
	s, err := crypto.NewSigner(key, 8453)
	require.NoError(t, err)
	return Account{Address: s.Address(), Signer: s}
}

func TestSessionLifecycle(t *testing.T) {
	require := require.New(t)

	s := NewSession()
	events, cancel := s.Subscribe()
	defer cancel()

	_, ok := s.Active()
	require.False(ok)
	require.Equal(domain.NullAddress, s.Address())
	require.ErrorIs(s.Switch(account(t, keyB)), domain.ErrNoWallet)

	a, b := account(t, keyA), account(t, keyB)
	require.NoError(s.Connect(a))
	require.Equal(Event{Kind: EventConnected, Address: a.Address}, <-events)
	require.Equal(a.Address, s.Address())

	// Reconnecting the same account is not an update.
	require.NoError(s.Connect(a))

	require.NoError(s.Switch(b))
	require.Equal(Event{Kind: EventSwitched, Address: b.Address, Previous: a.Address}, <-events)

	s.Disconnect()
	require.Equal(Event{Kind: EventDisconnected, Previous: b.Address}, <-events)
	require.Empty(events)

	s.Disconnect()
	require.Empty(events)
}

func TestSessionRejectsUnsignedAccount(t *testing.T) {
	require.Error(t, NewSession().Connect(Account{Address: common.HexToAddress("0x01")}))
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	require := require.New(t)

	s := NewSession()
	events, cancel := s.Subscribe()
	cancel()
	cancel()
	_, open := <-events
	require.False(open)
	require.NoError(s.Connect(account(t, keyA)))
}

type stubChain struct {
	owner, spender common.Address
	approved       *big.Int
	signer         domain.TxSigner
}

func (c *stubChain) Allowance(_ context.Context, owner, spender common.Address) (*big.Int, error) {
	c.owner, c.spender = owner, spender
	return big.NewInt(0), nil
}

func (c *stubChain) Approve(_ context.Context, signer domain.TxSigner, spender common.Address, amount *big.Int) (domain.Receipt, error) {
	c.signer, c.spender, c.approved = signer, spender, amount
	return domain.Receipt{TxHash: "0xabc"}, nil
}

func (c *stubChain) BuyShares(_ context.Context, signer domain.TxSigner, _ uint64, _ bool, _ *big.Int) (domain.Receipt, error) {
	c.signer = signer
	return domain.Receipt{TxHash: "0xdef"}, nil
}

func TestAdapter(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	market := common.HexToAddress("0x143c799c91f5226d8e70852f820b98cabc69457e")

	chain := &stubChain{}
	s := NewSession()
	a := NewAdapter(s, chain, chain, market)

	_, err := a.Approve(ctx, big.NewInt(5))
	require.ErrorIs(err, domain.ErrNoWallet)
	_, err = a.BuyShares(ctx, 0, true, big.NewInt(5))
	require.ErrorIs(err, domain.ErrNoWallet)

	acct := account(t, keyA)
	require.NoError(s.Connect(acct))
	addr, ok := a.Account()
	require.True(ok)
	require.Equal(acct.Address, addr)

	_, err = a.Allowance(ctx, addr)
	require.NoError(err)
	require.Equal(market, chain.spender)
	require.Equal(addr, chain.owner)

	r, err := a.Approve(ctx, big.NewInt(5))
	require.NoError(err)
	require.Equal("0xabc", r.TxHash)
	require.Equal(big.NewInt(5), chain.approved)
	require.Equal(acct.Signer, chain.signer)
}

func TestKeyConnector(t *testing.T) {
	require := require.New(t)

	acct, err := KeyConnector(crypto.KeyConfig{RawPrivateKey: keyA}, 8453)(context.Background())
	require.NoError(err)
	require.Equal(common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), acct.Address)

	_, err = KeyConnector(crypto.KeyConfig{}, 8453)(context.Background())
	require.Error(err)
}
