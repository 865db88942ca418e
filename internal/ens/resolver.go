package ens

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"

	"github.com/Mohsinsiddi/w3fund/internal/chain"
)

// ENS Registry address, same on Ethereum mainnet and Sepolia.
var registryAddr = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

// Selectors used against the registry and resolvers.
var (
	selResolver = []byte{0x01, 0x78, 0xb8, 0xbf} // resolver(bytes32)
	selAddr     = []byte{0x3b, 0x3b, 0x57, 0xde} // addr(bytes32)
	selName     = []byte{0x69, 0x1f, 0x34, 0x31} // name(bytes32)
)

// ErrNotFound is returned when a name or address has no record.
var ErrNotFound = errors.New("no ENS record")

// Caller performs read-only contract calls.
type Caller interface {
	CallContract(ctx context.Context, msg chain.CallMsg) ([]byte, error)
}

// IsName reports whether s looks like an ENS name rather than an address.
func IsName(s string) bool {
	return strings.Contains(s, ".") && !common.IsHexAddress(s)
}

// Resolve resolves an ENS name to an address.
// It queries the registry for the resolver, then calls addr(bytes32) on it.
func Resolve(ctx context.Context, c Caller, name string) (common.Address, error) {
	node := Namehash(strings.ToLower(name))
	resolver, err := resolverOf(ctx, c, node)
	if err != nil {
		return common.Address{}, fmt.Errorf("resolving %q: %w", name, err)
	}

	out, err := c.CallContract(ctx, chain.CallMsg{To: resolver, Data: calldata(selAddr, node)})
	if err != nil {
		return common.Address{}, fmt.Errorf("querying ENS resolver: %w", err)
	}
	addr, ok := parseAddress(out)
	if !ok {
		return common.Address{}, fmt.Errorf("no address record for %q: %w", name, ErrNotFound)
	}
	return addr, nil
}

// ReverseLookup resolves an address to its primary ENS name via addr.reverse.
func ReverseLookup(ctx context.Context, c Caller, addr common.Address) (string, error) {
	reverse := strings.ToLower(strings.TrimPrefix(addr.Hex(), "0x")) + ".addr.reverse"
	node := Namehash(reverse)
	resolver, err := resolverOf(ctx, c, node)
	if err != nil {
		return "", fmt.Errorf("reverse lookup for %s: %w", addr.Hex(), err)
	}

	out, err := c.CallContract(ctx, chain.CallMsg{To: resolver, Data: calldata(selName, node)})
	if err != nil {
		return "", fmt.Errorf("querying reverse resolver: %w", err)
	}
	name := decodeString(out)
	if name == "" {
		return "", fmt.Errorf("no reverse name for %s: %w", addr.Hex(), ErrNotFound)
	}
	return name, nil
}

func resolverOf(ctx context.Context, c Caller, node [32]byte) (common.Address, error) {
	out, err := c.CallContract(ctx, chain.CallMsg{To: registryAddr, Data: calldata(selResolver, node)})
	if err != nil {
		return common.Address{}, fmt.Errorf("querying ENS registry: %w", err)
	}
	resolver, ok := parseAddress(out)
	if !ok {
		return common.Address{}, ErrNotFound
	}
	return resolver, nil
}

// Namehash implements the EIP-137 namehash algorithm.
// namehash("") = 0x00...00
// namehash("eth") = keccak256(namehash("") + keccak256("eth"))
func Namehash(name string) [32]byte {
	var node [32]byte
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	// Process labels right-to-left.
	for i := len(labels) - 1; i >= 0; i-- {
		label := keccak256([]byte(labels[i]))
		copy(node[:], keccak256(append(node[:], label...)))
	}
	return node
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// parseAddress reads an address from a 32-byte ABI word. The zero address
// counts as missing.
func parseAddress(word []byte) (common.Address, bool) {
	if len(word) < 32 {
		return common.Address{}, false
	}
	addr := common.BytesToAddress(word[12:32])
	return addr, addr != (common.Address{})
}

// decodeString decodes an ABI-encoded string return value.
func decodeString(out []byte) string {
	if len(out) < 64 { // offset + length minimum
		return ""
	}
	n := new(big.Int).SetBytes(out[32:64])
	if n.Sign() == 0 || !n.IsInt64() {
		return ""
	}
	end := 64 + int(n.Int64())
	if end > len(out) || end < 64 {
		end = len(out)
	}
	return string(out[64:end])
}

func calldata(sel []byte, node [32]byte) []byte {
	return append(append(make([]byte, 0, 36), sel...), node[:]...)
}
