package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultPollInterval paces receipt polling in WaitMined.
const DefaultPollInterval = 2 * time.Second

// maxResponseBytes caps a single JSON-RPC response body.
const maxResponseBytes = 10 << 20

// EVMClient is a minimal JSON-RPC client for EVM chains.
type EVMClient struct {
	url    string
	client *http.Client
	poll   time.Duration
	log    *zap.Logger
	nextID atomic.Int64
}

// Option configures an EVMClient.
type Option func(*EVMClient)

// WithPollInterval sets how often WaitMined asks for a receipt.
func WithPollInterval(d time.Duration) Option {
	return func(c *EVMClient) {
		if d > 0 {
			c.poll = d
		}
	}
}

// WithLogger sets the logger used for retried receipt polls.
func WithLogger(l *zap.Logger) Option {
	return func(c *EVMClient) { c.log = l }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *EVMClient) { c.client = hc }
}

// NewEVMClient creates a new EVM JSON-RPC client pointed at url.
// Individual requests time out after 15s; waiting for a receipt is bounded
// only by the caller's context.
func NewEVMClient(url string, opts ...Option) *EVMClient {
	c := &EVMClient{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
		poll:   DefaultPollInterval,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the endpoint this client talks to.
func (c *EVMClient) URL() string { return c.url }

// CallMsg is the subset of eth_call / eth_estimateGas parameters w3fund uses.
type CallMsg struct {
	From  common.Address
	To    common.Address
	Data  []byte
	Value *big.Int
}

func (m CallMsg) params() map[string]any {
	p := map[string]any{
		"to":   m.To.Hex(),
		"data": hexutil.Bytes(m.Data),
	}
	if m.From != (common.Address{}) {
		p["from"] = m.From.Hex()
	}
	if m.Value != nil && m.Value.Sign() > 0 {
		p["value"] = (*hexutil.Big)(m.Value)
	}
	return p
}

// ChainID returns the chain's ID.
func (c *EVMClient) ChainID(ctx context.Context) (*big.Int, error) {
	var id hexutil.Big
	if err := c.call(ctx, &id, "eth_chainId"); err != nil {
		return nil, err
	}
	return id.ToInt(), nil
}

// BlockNumber returns the latest block number.
func (c *EVMClient) BlockNumber(ctx context.Context) (uint64, error) {
	var n hexutil.Uint64
	if err := c.call(ctx, &n, "eth_blockNumber"); err != nil {
		return 0, err
	}
	return uint64(n), nil
}

// BalanceAt returns the native balance in wei at the latest block.
func (c *EVMClient) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	var bal hexutil.Big
	if err := c.call(ctx, &bal, "eth_getBalance", account.Hex(), "latest"); err != nil {
		return nil, err
	}
	return bal.ToInt(), nil
}

// CallContract executes a read-only call against the latest block.
func (c *EVMClient) CallContract(ctx context.Context, msg CallMsg) ([]byte, error) {
	var out hexutil.Bytes
	if err := c.call(ctx, &out, "eth_call", msg.params(), "latest"); err != nil {
		return nil, err
	}
	return out, nil
}

// EstimateGas asks the node for a gas limit. A revert during estimation is
// returned as an *RPCError carrying the revert data.
func (c *EVMClient) EstimateGas(ctx context.Context, msg CallMsg) (uint64, error) {
	var gas hexutil.Uint64
	if err := c.call(ctx, &gas, "eth_estimateGas", msg.params()); err != nil {
		return 0, err
	}
	return uint64(gas), nil
}

// GasPrice returns the current gas price.
func (c *EVMClient) GasPrice(ctx context.Context) (*big.Int, error) {
	var gp hexutil.Big
	if err := c.call(ctx, &gp, "eth_gasPrice"); err != nil {
		return nil, err
	}
	return gp.ToInt(), nil
}

// PendingNonce returns the transaction count including queued transactions.
func (c *EVMClient) PendingNonce(ctx context.Context, account common.Address) (uint64, error) {
	var n hexutil.Uint64
	if err := c.call(ctx, &n, "eth_getTransactionCount", account.Hex(), "pending"); err != nil {
		return 0, err
	}
	return uint64(n), nil
}

// SendRawTransaction broadcasts a signed transaction.
func (c *EVMClient) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	var hash common.Hash
	if err := c.call(ctx, &hash, "eth_sendRawTransaction", hexutil.Bytes(raw)); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// Ping tests the RPC endpoint and returns latency + block number.
func (c *EVMClient) Ping(ctx context.Context) (latency time.Duration, blockNum uint64, err error) {
	start := time.Now()
	blockNum, err = c.BlockNumber(ctx)
	return time.Since(start), blockNum, err
}

// --- internal JSON-RPC plumbing ---

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int64  `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// call performs one JSON-RPC round trip and decodes the result into out.
// A null result leaves out untouched and returns errNullResult.
func (c *EVMClient) call(ctx context.Context, out any, method string, params ...any) error {
	if params == nil {
		params = []any{}
	}
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("RPC request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if len(body) > maxResponseBytes {
		return fmt.Errorf("%s response exceeds %d bytes", method, maxResponseBytes)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if len(rpcResp.Result) == 0 || string(rpcResp.Result) == "null" {
		return errNullResult
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("parsing %s result: %w", method, err)
	}
	return nil
}

// --- waiting for inclusion ---

// WaitMined polls for the receipt of hash until it is included or ctx is
// done. A receipt with status 0 is returned together with a *RevertedError.
// Transport failures are retried on the next poll; an error object from the
// node ends the wait.
func (c *EVMClient) WaitMined(ctx context.Context, hash common.Hash) (*Receipt, error) {
	limiter := rate.NewLimiter(rate.Every(c.poll), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for %s: %w", hash.Hex(), err)
		}
		receipt, err := c.TransactionReceipt(ctx, hash)
		if err != nil {
			var rpcErr *RPCError
			if errors.As(err, &rpcErr) || ctx.Err() != nil {
				return nil, err
			}
			c.log.Debug("receipt poll failed; retrying", zap.String("hash", hash.Hex()), zap.Error(err))
			continue
		}
		if receipt == nil {
			continue
		}
		if receipt.Status == 0 {
			return receipt, &RevertedError{Hash: hash, BlockNumber: receipt.BlockNumber}
		}
		return receipt, nil
	}
}
