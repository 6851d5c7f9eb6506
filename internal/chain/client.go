// Package chain is the Ethereum JSON-RPC side of the bridge.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	logx "ethinline/pkg/logx"
)

// DefaultEndpoint is used when no endpoint is configured.
const DefaultEndpoint = "https://cloudflare-eth.com"

var ErrNoEndpoint = errors.New("chain endpoint is empty")

type Config struct {
	Endpoint string
	// RequestTimeout bounds each RPC call. Zero means no timeout beyond the
	// caller's context.
	RequestTimeout time.Duration
}

// Client wraps an ethclient with per-call timeouts and logging.
type Client struct {
	cfg Config
	log logx.Logger
	eth *ethclient.Client
}

// Dial connects to cfg.Endpoint. For HTTP endpoints no request is made
// until the first call.
func Dial(ctx context.Context, cfg Config, log logx.Logger) (*Client, error) {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	if cfg.Endpoint == "" {
		return nil, ErrNoEndpoint
	}
	rc, err := rpc.DialContext(ctx, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", redact(cfg.Endpoint), err)
	}
	return NewClient(rc, cfg, log), nil
}

// NewClient wraps an already connected RPC client.
func NewClient(rc *rpc.Client, cfg Config, log logx.Logger) *Client {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{cfg: cfg, log: log, eth: ethclient.NewClient(rc)}
}

func (c *Client) Close() { c.eth.Close() }

// GasPrice returns the node's suggested gas price in wei (eth_gasPrice).
func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()
	start := time.Now()
	v, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("eth_gasPrice: %w", err)
	}
	c.log.Trace("rpc ok", logx.String("method", "eth_gasPrice"), logx.Big("wei", v), logx.Duration("took", time.Since(start)))
	return v, nil
}

// BalanceOf returns the latest balance of account in wei (eth_getBalance).
func (c *Client) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()
	start := time.Now()
	v, err := c.eth.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("eth_getBalance %s: %w", account.Hex(), err)
	}
	c.log.Trace("rpc ok", logx.String("method", "eth_getBalance"), logx.Big("wei", v), logx.Duration("took", time.Since(start)))
	return v, nil
}

// BlockNumber returns the height of the latest block (eth_blockNumber).
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()
	n, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("eth_blockNumber: %w", err)
	}
	return n, nil
}

func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.RequestTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.cfg.RequestTimeout)
}

// redact drops URL path and query, where hosted providers put API keys.
func redact(endpoint string) string {
	i := strings.Index(endpoint, "://")
	if i < 0 {
		return endpoint
	}
	rest := endpoint[i+3:]
	if j := strings.IndexAny(rest, "/?"); j >= 0 {
		return endpoint[:i+3+j] + "/..."
	}
	return endpoint
}
