// Package session establishes a validated connection to the user's wallet on
// the required network. Nothing is cached between calls: wallet and network
// state can change outside the process, so every operation asks again.
package session

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3fund/internal/apperr"
	"github.com/Mohsinsiddi/w3fund/internal/chain"
)

// Provider is the wallet boundary: account access plus a node to read from
// and submit signed writes to.
type Provider interface {
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	Accounts(ctx context.Context) ([]common.Address, error)
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	CallContract(ctx context.Context, msg chain.CallMsg) ([]byte, error)
	SendTransaction(ctx context.Context, msg chain.CallMsg) (common.Hash, error)
	WaitMined(ctx context.Context, hash common.Hash) (*chain.Receipt, error)
}

// HintWriter records the last connected address for display.
type HintWriter interface {
	Save(addr string) error
}

// Manager hands out Connections.
type Manager struct {
	provider Provider
	required *big.Int
	hint     HintWriter
	log      *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithHint sets where the last connected address is recorded.
func WithHint(h HintWriter) Option {
	return func(m *Manager) { m.hint = h }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// NewManager creates a session manager requiring requiredChainID. A nil
// provider means no wallet is available.
func NewManager(provider Provider, requiredChainID *big.Int, opts ...Option) *Manager {
	m := &Manager{
		provider: provider,
		required: requiredChainID,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RequiredChainID returns the chain every Connection must be on.
func (m *Manager) RequiredChainID() *big.Int { return new(big.Int).Set(m.required) }

// Connect checks the network, then requests account access. A wrong network
// fails before any account request is made.
func (m *Manager) Connect(ctx context.Context) (*Connection, error) {
	if m.provider == nil {
		return nil, apperr.WalletUnavailable(nil)
	}
	chainID, err := checkNetwork(ctx, m.provider, m.required)
	if err != nil {
		return nil, err
	}
	accounts, err := m.provider.RequestAccounts(ctx)
	if err != nil {
		return nil, sessionError(err)
	}
	if len(accounts) == 0 {
		return nil, apperr.WalletUnavailable(errors.New("wallet returned no accounts"))
	}
	conn := m.newConnection(chainID, accounts[0])
	m.recordHint(conn)
	m.log.Debug("connected",
		zap.String("address", conn.Address.Hex()),
		zap.String("chain_id", chainID.String()),
	)
	return conn, nil
}

// IfConnected returns a Connection for an already authorized account, or
// nil with no error when there is none. The network is still checked, and
// the address hint is refreshed as for Connect.
func (m *Manager) IfConnected(ctx context.Context) (*Connection, error) {
	if m.provider == nil {
		return nil, nil
	}
	accounts, err := m.provider.Accounts(ctx)
	if err != nil {
		return nil, sessionError(err)
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	chainID, err := checkNetwork(ctx, m.provider, m.required)
	if err != nil {
		return nil, err
	}
	conn := m.newConnection(chainID, accounts[0])
	m.recordHint(conn)
	return conn, nil
}

func (m *Manager) recordHint(conn *Connection) {
	if m.hint == nil {
		return
	}
	if err := m.hint.Save(conn.Address.Hex()); err != nil {
		m.log.Warn("could not record connection hint", zap.Error(err))
	}
}

func (m *Manager) newConnection(chainID *big.Int, addr common.Address) *Connection {
	return &Connection{
		ChainID:  chainID,
		Address:  addr,
		provider: m.provider,
		required: m.required,
	}
}

func checkNetwork(ctx context.Context, p Provider, required *big.Int) (*big.Int, error) {
	got, err := p.ChainID(ctx)
	if err != nil {
		return nil, apperr.Normalize(err, apperr.PhaseSession)
	}
	if got.Cmp(required) != 0 {
		return nil, apperr.WrongNetwork(required.String(), got.String())
	}
	return got, nil
}

func sessionError(err error) error {
	if errors.Is(err, apperr.ErrWalletUnavailable) {
		return apperr.WalletUnavailable(err)
	}
	return apperr.Normalize(err, apperr.PhaseSession)
}

// Connection is an authorized account on the required network.
type Connection struct {
	ChainID *big.Int
	Address common.Address

	provider Provider
	required *big.Int
}

// Verify re-reads the active network. Callers run it before every write.
func (c *Connection) Verify(ctx context.Context) error {
	_, err := checkNetwork(ctx, c.provider, c.required)
	return err
}

// Call runs a read-only call from the connected account.
func (c *Connection) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return c.provider.CallContract(ctx, chain.CallMsg{From: c.Address, To: to, Data: data})
}

// BalanceAt returns the native balance of account.
func (c *Connection) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	return c.provider.BalanceAt(ctx, account)
}

// Send submits a signed write from the connected account.
func (c *Connection) Send(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error) {
	return c.provider.SendTransaction(ctx, chain.CallMsg{From: c.Address, To: to, Data: data, Value: value})
}

// Wait blocks until hash is mined or ctx is done.
func (c *Connection) Wait(ctx context.Context, hash common.Hash) (*chain.Receipt, error) {
	return c.provider.WaitMined(ctx, hash)
}
