package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Definition is a fixed contract interface whose ABI ships in the binary.
// Built-ins register themselves via init() in their own *_abi.go file.
type Definition struct {
	ID          string     // machine key, e.g. "factory"
	Name        string     // human label
	Description string     // one-line summary shown in `contract builtins`
	Entries     []ABIEntry // ABI as declared
	ABI         abi.ABI    // parsed form used for packing and unpacking
}

// Entry returns the ABI entry for method.
func (d *Definition) Entry(method string) (ABIEntry, bool) {
	for _, e := range d.Entries {
		if e.Type == "function" && e.Name == method {
			return e, true
		}
	}
	return ABIEntry{}, false
}

var builtinRegistry = map[string]*Definition{}

// RegisterBuiltin parses entries and adds the definition to the registry.
// It panics on a malformed ABI, which can only be a programming error.
func RegisterBuiltin(id, name, description string, entries []ABIEntry) {
	parsed, err := parseEntries(entries)
	if err != nil {
		panic(fmt.Sprintf("contract: builtin %q: %v", id, err))
	}
	builtinRegistry[id] = &Definition{
		ID:          id,
		Name:        name,
		Description: description,
		Entries:     entries,
		ABI:         parsed,
	}
}

func parseEntries(entries []ABIEntry) (abi.ABI, error) {
	raw, err := json.Marshal(entries)
	if err != nil {
		return abi.ABI{}, err
	}
	return abi.JSON(bytes.NewReader(raw))
}

// GetBuiltin returns a built-in by ID. ok is false if not found.
func GetBuiltin(id string) (*Definition, bool) {
	d, ok := builtinRegistry[id]
	return d, ok
}

// MustBuiltin returns a built-in by ID and panics if it is not registered.
func MustBuiltin(id string) *Definition {
	d, ok := builtinRegistry[id]
	if !ok {
		panic("contract: unknown builtin " + id)
	}
	return d
}

// AllBuiltins returns all registered built-ins sorted by ID.
func AllBuiltins() []*Definition {
	out := make([]*Definition, 0, len(builtinRegistry))
	for _, d := range builtinRegistry {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
