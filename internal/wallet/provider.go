package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3fund/internal/apperr"
	"github.com/Mohsinsiddi/w3fund/internal/chain"
)

// ProviderError is a request refusal carrying an EIP-1193 code.
type ProviderError struct {
	Code int
	Msg  string
}

func (e *ProviderError) Error() string  { return e.Msg }
func (e *ProviderError) ErrorCode() int { return e.Code }

// Refusals.
var (
	ErrUserRejected = &ProviderError{Code: 4001, Msg: "user rejected the request"}
	ErrUnauthorized = &ProviderError{Code: 4100, Msg: "account has not been authorized; run `w3fund connect`"}
)

// ErrNoWallet is returned when no wallet is selected.
var ErrNoWallet = fmt.Errorf("no wallet selected; add one with `w3fund wallet add` or pick one with `w3fund wallet use`: %w", apperr.ErrWalletUnavailable)

// Node is the JSON-RPC surface the provider forwards to.
type Node interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	CallContract(ctx context.Context, msg chain.CallMsg) ([]byte, error)
	EstimateGas(ctx context.Context, msg chain.CallMsg) (uint64, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	PendingNonce(ctx context.Context, account common.Address) (uint64, error)
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)
	WaitMined(ctx context.Context, hash common.Hash) (*chain.Receipt, error)
}

// AccessPrompt asks the user whether w may be exposed.
type AccessPrompt func(w *Wallet) (bool, error)

// TxPrompt asks the user to approve a transaction before it is signed.
type TxPrompt func(w *Wallet, msg chain.CallMsg, gas uint64) (bool, error)

// Provider exposes the selected local wallet as an account provider backed
// by a JSON-RPC node.
type Provider struct {
	node    Node
	mgr     *Manager
	grants  *Grants
	access  AccessPrompt
	approve TxPrompt
	log     *zap.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithGrants sets where account authorizations are remembered.
func WithGrants(g *Grants) ProviderOption {
	return func(p *Provider) { p.grants = g }
}

// WithAccessPrompt sets the prompt shown on first connect. Without one,
// access requests are granted.
func WithAccessPrompt(fn AccessPrompt) ProviderOption {
	return func(p *Provider) { p.access = fn }
}

// WithTxPrompt sets the per-transaction approval prompt. Without one,
// transactions are signed without asking.
func WithTxPrompt(fn TxPrompt) ProviderOption {
	return func(p *Provider) { p.approve = fn }
}

// WithProviderLogger sets the diagnostic logger.
func WithProviderLogger(l *zap.Logger) ProviderOption {
	return func(p *Provider) { p.log = l }
}

// NewProvider creates a provider over node for the wallets in mgr.
func NewProvider(node Node, mgr *Manager, opts ...ProviderOption) *Provider {
	p := &Provider{
		node:   node,
		mgr:    mgr,
		grants: NewGrants(DefaultGrantsPath()),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RequestAccounts returns the selected account, prompting for access the
// first time it is used.
func (p *Provider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	w, err := p.mgr.Default()
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrNoWallet
	}
	if p.grants.Granted(w.Address) {
		return []common.Address{common.HexToAddress(w.Address)}, nil
	}
	if p.access != nil {
		ok, err := p.access(w)
		if err != nil {
			return nil, err
		}
		if !ok {
			p.log.Debug("account access declined", zap.String("wallet", w.Name))
			return nil, ErrUserRejected
		}
	}
	if err := p.grants.Grant(w.Address); err != nil {
		return nil, fmt.Errorf("recording grant: %w", err)
	}
	p.log.Debug("account access granted", zap.String("wallet", w.Name), zap.String("address", w.Address))
	return []common.Address{common.HexToAddress(w.Address)}, nil
}

// Accounts returns the authorized selected account without prompting.
// No selected wallet, or one never authorized, yields an empty list.
func (p *Provider) Accounts(ctx context.Context) ([]common.Address, error) {
	w, err := p.mgr.Default()
	if err != nil {
		return nil, err
	}
	if w == nil || !p.grants.Granted(w.Address) {
		return nil, nil
	}
	return []common.Address{common.HexToAddress(w.Address)}, nil
}

// Disconnect revokes the selected wallet's grant.
func (p *Provider) Disconnect() error {
	w, err := p.mgr.Default()
	if err != nil || w == nil {
		return err
	}
	return p.grants.Revoke(w.Address)
}

// ChainID forwards to the node.
func (p *Provider) ChainID(ctx context.Context) (*big.Int, error) { return p.node.ChainID(ctx) }

// BalanceAt forwards to the node.
func (p *Provider) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	return p.node.BalanceAt(ctx, account)
}

// CallContract forwards to the node.
func (p *Provider) CallContract(ctx context.Context, msg chain.CallMsg) ([]byte, error) {
	return p.node.CallContract(ctx, msg)
}

// WaitMined forwards to the node.
func (p *Provider) WaitMined(ctx context.Context, hash common.Hash) (*chain.Receipt, error) {
	return p.node.WaitMined(ctx, hash)
}

// SendTransaction signs msg with the wallet owning msg.From and broadcasts it.
// Gas estimation failures are returned as-is so reverts reach the caller
// before anything is signed.
func (p *Provider) SendTransaction(ctx context.Context, msg chain.CallMsg) (common.Hash, error) {
	w, err := p.mgr.ByAddress(msg.From)
	if errors.Is(err, ErrWalletNotFound) {
		return common.Hash{}, ErrNoWallet
	}
	if err != nil {
		return common.Hash{}, err
	}
	if !p.grants.Granted(w.Address) {
		return common.Hash{}, ErrUnauthorized
	}
	if !w.CanSign() {
		return common.Hash{}, fmt.Errorf("wallet %q is watch-only and cannot sign", w.Name)
	}

	chainID, err := p.node.ChainID(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getting chain id: %w", err)
	}
	gas, err := p.node.EstimateGas(ctx, msg)
	if err != nil {
		return common.Hash{}, fmt.Errorf("estimating gas: %w", err)
	}
	gas += gas / 5

	if p.approve != nil {
		ok, err := p.approve(w, msg, gas)
		if err != nil {
			return common.Hash{}, err
		}
		if !ok {
			return common.Hash{}, ErrUserRejected
		}
	}

	gasPrice, err := p.node.GasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getting gas price: %w", err)
	}
	nonce, err := p.node.PendingNonce(ctx, msg.From)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getting nonce: %w", err)
	}

	value := msg.Value
	if value == nil {
		value = new(big.Int)
	}
	to := msg.To
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: gasPrice,
		GasFeeCap: new(big.Int).Mul(gasPrice, big.NewInt(2)),
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      msg.Data,
	})

	raw, err := NewSigner(w, p.mgr.Keys()).SignTx(tx, chainID)
	if err != nil {
		return common.Hash{}, err
	}
	hash, err := p.node.SendRawTransaction(ctx, raw)
	if err != nil {
		return common.Hash{}, fmt.Errorf("broadcasting transaction: %w", err)
	}
	p.log.Debug("transaction broadcast",
		zap.String("hash", hash.Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas", gas),
	)
	return hash, nil
}
