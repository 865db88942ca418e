// Package contract binds the fixed w3fund contract interfaces to addresses
// on a connection and exposes typed read and write calls.
package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Mohsinsiddi/w3fund/internal/chain"
)

// ErrNoData is returned when a read comes back empty, which usually means no
// contract is deployed at the address on this network.
var ErrNoData = errors.New("contract returned no data")

// Conn is the connection a handle is bound to. *session.Connection
// satisfies it.
type Conn interface {
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	Send(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error)
	Wait(ctx context.Context, hash common.Hash) (*chain.Receipt, error)
	Verify(ctx context.Context) error
}

// Handle is an interface definition bound to an address and a connection.
// It is immutable and cheap to recreate.
type Handle struct {
	address common.Address
	def     *Definition
	conn    Conn
}

// Bind creates a handle. It performs no I/O.
func Bind(address common.Address, def *Definition, conn Conn) *Handle {
	return &Handle{address: address, def: def, conn: conn}
}

// Address returns the bound contract address.
func (h *Handle) Address() common.Address { return h.address }

// Definition returns the bound interface.
func (h *Handle) Definition() *Definition { return h.def }

// Conn returns the bound connection.
func (h *Handle) Conn() Conn { return h.conn }

// Call invokes a view or pure method and returns its decoded outputs.
func (h *Handle) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	entry, ok := h.def.Entry(method)
	if !ok {
		return nil, fmt.Errorf("function %q not found in %s ABI", method, h.def.ID)
	}
	if !entry.IsReadFunction() {
		return nil, fmt.Errorf("function %q is not a read function", method)
	}
	input, err := h.def.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}
	out, err := h.conn.Call(ctx, h.address, input)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 && len(entry.Outputs) > 0 {
		return nil, fmt.Errorf("%s.%s at %s: %w", h.def.ID, method, h.address.Hex(), ErrNoData)
	}
	values, err := h.def.ABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", method, err)
	}
	return values, nil
}

// Transact submits a state-changing method call carrying value (nil for
// none) and returns the pending transaction without waiting for it.
func (h *Handle) Transact(ctx context.Context, value *big.Int, method string, args ...any) (*Pending, error) {
	entry, ok := h.def.Entry(method)
	if !ok {
		return nil, fmt.Errorf("function %q not found in %s ABI", method, h.def.ID)
	}
	if !entry.IsWriteFunction() {
		return nil, fmt.Errorf("function %q is not a write function", method)
	}
	if value != nil && value.Sign() > 0 && !entry.IsPayable() {
		return nil, fmt.Errorf("function %q is not payable", method)
	}
	input, err := h.def.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}
	hash, err := h.conn.Send(ctx, h.address, input, value)
	if err != nil {
		return nil, err
	}
	return &Pending{Hash: hash, Method: method, conn: h.conn}, nil
}

// Pending is a submitted write awaiting inclusion.
type Pending struct {
	Hash   common.Hash
	Method string
	conn   Conn
}

// Wait blocks until the transaction is mined or ctx is done. A reverted
// transaction returns its receipt together with a *chain.RevertedError.
func (p *Pending) Wait(ctx context.Context) (*chain.Receipt, error) {
	return p.conn.Wait(ctx, p.Hash)
}

// callOne calls a single-output read method and asserts its Go type.
func callOne[T any](ctx context.Context, h *Handle, method string, args ...any) (T, error) {
	var zero T
	out, err := h.Call(ctx, method, args...)
	if err != nil {
		return zero, err
	}
	if len(out) != 1 {
		return zero, fmt.Errorf("%s: expected 1 output, got %d", method, len(out))
	}
	v, ok := out[0].(T)
	if !ok {
		return zero, fmt.Errorf("%s: unexpected output type %T", method, out[0])
	}
	return v, nil
}
