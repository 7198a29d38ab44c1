// Package chain talks to the prediction market and collateral token
// contracts over JSON-RPC.
package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/alanyoungcy/predictdash/internal/domain"
	"github.com/alanyoungcy/predictdash/internal/metrics"
)

// Backend is the subset of *ethclient.Client the Client needs.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Config holds the contract coordinates and transaction tuning.
type Config struct {
	ChainID             int64
	MarketAddress       common.Address
	TokenAddress        common.Address
	CallTimeout         time.Duration
	ReceiptPollInterval time.Duration
	// GasBufferPercent pads the node's gas estimate.
	GasBufferPercent uint64
}

// Client implements domain.MarketReader, domain.TokenReader and
// domain.TxSender against a JSON-RPC node.
type Client struct {
	backend Backend
	market  abi.ABI
	token   abi.ABI
	cfg     Config
	closeFn func()
	logger  *slog.Logger
}

// Dial connects to rpcURL and checks that the node serves cfg.ChainID.
func Dial(ctx context.Context, rpcURL string, cfg Config, logger *slog.Logger) (*Client, error) {
	ec, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial: %w", err)
	}

	id, err := ec.ChainID(ctx)
	if err != nil {
		ec.Close()
		return nil, fmt.Errorf("chain: chain id: %w", err)
	}
	if id.Int64() != cfg.ChainID {
		ec.Close()
		return nil, fmt.Errorf("chain: node serves chain %s, configured %d", id, cfg.ChainID)
	}

	c, err := New(ec, cfg, logger)
	if err != nil {
		ec.Close()
		return nil, err
	}
	c.closeFn = ec.Close
	return c, nil
}

// New builds a Client over an existing backend.
func New(backend Backend, cfg Config, logger *slog.Logger) (*Client, error) {
	market, err := abi.JSON(strings.NewReader(MarketABI))
	if err != nil {
		return nil, fmt.Errorf("chain: parse market abi: %w", err)
	}
	token, err := abi.JSON(strings.NewReader(TokenABI))
	if err != nil {
		return nil, fmt.Errorf("chain: parse token abi: %w", err)
	}
	if cfg.ReceiptPollInterval <= 0 {
		cfg.ReceiptPollInterval = 2 * time.Second
	}
	return &Client{
		backend: backend,
		market:  market,
		token:   token,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "chain")),
	}, nil
}

// Close releases the RPC connection if the client dialled one.
func (c *Client) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}

// MarketAddress returns the prediction market contract address.
func (c *Client) MarketAddress() common.Address {
	return c.cfg.MarketAddress
}

// call packs a read, executes it against the latest block and unpacks the
// raw return values.
func (c *Client) call(ctx context.Context, contract abi.ABI, to common.Address, method string, args ...any) (_ []any, err error) {
	start := time.Now()
	defer func() { metrics.RecordContractCall(method, time.Since(start), err) }()

	if c.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.CallTimeout)
		defer cancel()
	}

	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("chain: pack %s: %w", method, err)
	}
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: call %s: %w", method, err)
	}
	vals, err := contract.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("chain: unpack %s: %w: %v", method, domain.ErrDecode, err)
	}
	return vals, nil
}

// MarketCount reads marketCount().
func (c *Client) MarketCount(ctx context.Context) (uint64, error) {
	vals, err := c.call(ctx, c.market, c.cfg.MarketAddress, methodMarketCount)
	if err != nil {
		return 0, err
	}
	return decodeCount(vals)
}

// GetMarket reads getMarket(id).
func (c *Client) GetMarket(ctx context.Context, id uint64) (domain.Market, error) {
	vals, err := c.call(ctx, c.market, c.cfg.MarketAddress, methodGetMarket, new(big.Int).SetUint64(id))
	if err != nil {
		return domain.Market{}, err
	}
	return decodeMarket(id, vals)
}

// GetSharesBalance reads getSharesBalance(id, user).
func (c *Client) GetSharesBalance(ctx context.Context, id uint64, user common.Address) (domain.SharesBalance, error) {
	vals, err := c.call(ctx, c.market, c.cfg.MarketAddress, methodGetSharesBalance, new(big.Int).SetUint64(id), user)
	if err != nil {
		return domain.SharesBalance{}, err
	}
	return decodeShares(vals)
}

// Allowance reads the token allowance granted by owner to spender.
func (c *Client) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	vals, err := c.call(ctx, c.token, c.cfg.TokenAddress, methodAllowance, owner, spender)
	if err != nil {
		return nil, err
	}
	return decodeUint(methodAllowance, vals)
}
