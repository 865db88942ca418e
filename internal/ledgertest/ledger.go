// Package ledgertest provides an in-memory wallet and node for tests. It
// decodes calls against the built-in contract ABIs, so tests script
// behaviour per contract method instead of per raw byte string.
package ledgertest

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Mohsinsiddi/w3fund/internal/chain"
	"github.com/Mohsinsiddi/w3fund/internal/contract"
)

// ReadFunc answers a read with the method's outputs.
type ReadFunc func(args []any) ([]any, error)

// Call is a recorded read.
type Call struct {
	To     common.Address
	Method string
	Args   []any
}

// Write is a recorded write submission.
type Write struct {
	Hash   common.Hash
	From   common.Address
	To     common.Address
	Method string
	Args   []any
	Value  *big.Int
}

type key struct {
	addr   common.Address
	method string
}

type writeRule struct {
	sendErr error
	revert  bool
}

// Ledger implements session.Provider.
type Ledger struct {
	mu sync.Mutex

	chainID  *big.Int
	accounts []common.Address
	balances map[common.Address]*big.Int

	// RequestErr, when set, is returned by RequestAccounts.
	RequestErr error

	contracts map[common.Address]*contract.Definition
	reads     map[key]ReadFunc
	writes    map[key]writeRule

	calls     []Call
	sent      []Write
	requests  int
	block     uint64
	receipts  map[common.Hash]*chain.Receipt
	onWritten func(Write)
}

// New creates a ledger on chainID with one authorized account.
func New(chainID int64, account common.Address) *Ledger {
	return &Ledger{
		chainID:   big.NewInt(chainID),
		accounts:  []common.Address{account},
		balances:  make(map[common.Address]*big.Int),
		contracts: make(map[common.Address]*contract.Definition),
		reads:     make(map[key]ReadFunc),
		writes:    make(map[key]writeRule),
		receipts:  make(map[common.Hash]*chain.Receipt),
		block:     100,
	}
}

// SetChainID switches the active network, as a wallet user might.
func (l *Ledger) SetChainID(id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chainID = big.NewInt(id)
}

// SetAccounts replaces the authorized accounts.
func (l *Ledger) SetAccounts(accts ...common.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts = accts
}

// SetBalance sets a native balance.
func (l *Ledger) SetBalance(addr common.Address, wei *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[addr] = wei
}

// Deploy places a contract with the given interface at addr.
func (l *Ledger) Deploy(addr common.Address, def *contract.Definition) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.contracts[addr] = def
}

// OnRead scripts a read method.
func (l *Ledger) OnRead(addr common.Address, method string, fn ReadFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reads[key{addr, method}] = fn
}

// Returns scripts a read method with fixed outputs.
func (l *Ledger) Returns(addr common.Address, method string, outs ...any) {
	l.OnRead(addr, method, func([]any) ([]any, error) { return outs, nil })
}

// FailSend makes submissions of method fail with err before broadcast.
func (l *Ledger) FailSend(addr common.Address, method string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writes[key{addr, method}] = writeRule{sendErr: err}
}

// RevertOnMine makes method broadcast successfully and then revert.
func (l *Ledger) RevertOnMine(addr common.Address, method string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writes[key{addr, method}] = writeRule{revert: true}
}

// OnWritten registers a hook run after each accepted write.
func (l *Ledger) OnWritten(fn func(Write)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onWritten = fn
}

// Calls returns the recorded reads.
func (l *Ledger) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Call(nil), l.calls...)
}

// Writes returns every write submission attempt, accepted or not.
func (l *Ledger) Writes() []Write {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Write(nil), l.sent...)
}

// Requests counts every provider method invocation.
func (l *Ledger) Requests() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.requests
}

// CallsTo counts reads of method on addr.
func (l *Ledger) CallsTo(addr common.Address, method string) int {
	n := 0
	for _, c := range l.Calls() {
		if c.To == addr && c.Method == method {
			n++
		}
	}
	return n
}

func (l *Ledger) hit() {
	l.mu.Lock()
	l.requests++
	l.mu.Unlock()
}

// --- session.Provider ---

func (l *Ledger) RequestAccounts(context.Context) ([]common.Address, error) {
	l.hit()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.RequestErr != nil {
		return nil, l.RequestErr
	}
	return append([]common.Address(nil), l.accounts...), nil
}

func (l *Ledger) Accounts(context.Context) ([]common.Address, error) {
	l.hit()
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]common.Address(nil), l.accounts...), nil
}

func (l *Ledger) ChainID(context.Context) (*big.Int, error) {
	l.hit()
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.chainID), nil
}

func (l *Ledger) BalanceAt(_ context.Context, addr common.Address) (*big.Int, error) {
	l.hit()
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.balances[addr]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (l *Ledger) decode(to common.Address, data []byte) (*contract.Definition, string, []any, error) {
	l.mu.Lock()
	def, ok := l.contracts[to]
	l.mu.Unlock()
	if !ok {
		return nil, "", nil, nil
	}
	if len(data) < 4 {
		return nil, "", nil, fmt.Errorf("calldata too short")
	}
	m, err := def.ABI.MethodById(data[:4])
	if err != nil {
		return nil, "", nil, err
	}
	args, err := m.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, "", nil, err
	}
	return def, m.Name, args, nil
}

func (l *Ledger) CallContract(_ context.Context, msg chain.CallMsg) ([]byte, error) {
	l.hit()
	def, method, args, err := l.decode(msg.To, msg.Data)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, nil
	}
	l.mu.Lock()
	l.calls = append(l.calls, Call{To: msg.To, Method: method, Args: args})
	fn, ok := l.reads[key{msg.To, method}]
	l.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("ledgertest: no read scripted for %s on %s", method, msg.To.Hex())
	}

	outs, err := fn(args)
	if err != nil {
		return nil, err
	}
	return def.ABI.Methods[method].Outputs.Pack(outs...)
}

func (l *Ledger) SendTransaction(_ context.Context, msg chain.CallMsg) (common.Hash, error) {
	l.hit()
	_, method, args, err := l.decode(msg.To, msg.Data)
	if err != nil {
		return common.Hash{}, err
	}

	l.mu.Lock()
	n := uint64(len(l.sent))
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	w := Write{
		Hash:   crypto.Keccak256Hash(msg.To.Bytes(), buf[:]),
		From:   msg.From,
		To:     msg.To,
		Method: method,
		Args:   args,
		Value:  msg.Value,
	}
	l.sent = append(l.sent, w)
	rule := l.writes[key{msg.To, method}]
	if rule.sendErr != nil {
		l.mu.Unlock()
		return common.Hash{}, rule.sendErr
	}
	l.block++
	status := uint64(1)
	if rule.revert {
		status = 0
	}
	l.receipts[w.Hash] = &chain.Receipt{Hash: w.Hash, Status: status, BlockNumber: l.block, GasUsed: 21000}
	hook := l.onWritten
	l.mu.Unlock()

	if hook != nil {
		hook(w)
	}
	return w.Hash, nil
}

func (l *Ledger) WaitMined(ctx context.Context, hash common.Hash) (*chain.Receipt, error) {
	l.hit()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	r, ok := l.receipts[hash]
	l.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("ledgertest: unknown transaction %s", hash.Hex())
	}
	if r.Status == 0 {
		return r, &chain.RevertedError{Hash: hash, BlockNumber: r.BlockNumber}
	}
	return r, nil
}
