package integration_test

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/Mohsinsiddi/w3fund/internal/contract"
)

// readFunc answers one contract read with the method's outputs.
type readFunc func(args []any) []any

type stub struct {
	def   *contract.Definition
	reads map[string]readFunc
}

// node is a JSON-RPC endpoint that answers reads from ABI stubs, accepts
// signed transactions and mines each one immediately.
type node struct {
	t       *testing.T
	chainID *big.Int
	balance *big.Int

	mu        sync.Mutex
	contracts map[common.Address]stub
	sent      []*types.Transaction
	mined     map[common.Hash]uint64
	// revert marks methods whose transactions are mined with status 0.
	revert map[string]bool
}

func newNode(t *testing.T, chainID int64) *node {
	return &node{
		t:         t,
		chainID:   big.NewInt(chainID),
		balance:   new(big.Int),
		contracts: map[common.Address]stub{},
		mined:     map[common.Hash]uint64{},
		revert:    map[string]bool{},
	}
}

func (n *node) deploy(addr common.Address, id string, reads map[string]readFunc) {
	n.contracts[addr] = stub{def: contract.MustBuiltin(id), reads: reads}
}

// start serves n until the test ends.
func (n *node) start() string {
	srv := httptest.NewServer(http.HandlerFunc(n.serve))
	n.t.Cleanup(srv.Close)
	return srv.URL
}

// txs returns the submitted transactions in order.
func (n *node) txs() []*types.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*types.Transaction(nil), n.sent...)
}

// method decodes the calldata of tx against the stub at its destination.
func (n *node) method(tx *types.Transaction) (string, []any) {
	s, ok := n.contracts[*tx.To()]
	if !ok || len(tx.Data()) < 4 {
		return "", nil
	}
	m, err := s.def.ABI.MethodById(tx.Data()[:4])
	if err != nil {
		return "", nil
	}
	args, err := m.Inputs.Unpack(tx.Data()[4:])
	if err != nil {
		return "", nil
	}
	return m.Name, args
}

type rpcReq struct {
	ID     int64             `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func (n *node) serve(w http.ResponseWriter, r *http.Request) {
	var req rpcReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	result, rpcErr := n.handle(req)
	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp) //nolint:errcheck
}

func rpcError(code int, msg string) map[string]any {
	return map[string]any{"code": code, "message": msg}
}

func (n *node) handle(req rpcReq) (any, map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch req.Method {
	case "eth_chainId":
		return (*hexutil.Big)(n.chainID), nil
	case "eth_blockNumber":
		return hexutil.Uint64(100 + len(n.sent)), nil
	case "eth_getBalance":
		return (*hexutil.Big)(n.balance), nil
	case "eth_gasPrice":
		return hexutil.Uint64(1_000_000_000), nil
	case "eth_estimateGas":
		return hexutil.Uint64(100_000), nil
	case "eth_getTransactionCount":
		return hexutil.Uint64(len(n.sent)), nil
	case "eth_call":
		return n.call(req.Params)
	case "eth_sendRawTransaction":
		var raw hexutil.Bytes
		if err := json.Unmarshal(req.Params[0], &raw); err != nil {
			return nil, rpcError(-32602, err.Error())
		}
		tx := new(types.Transaction)
		if err := tx.UnmarshalBinary(raw); err != nil {
			return nil, rpcError(-32602, err.Error())
		}
		n.sent = append(n.sent, tx)
		n.mined[tx.Hash()] = uint64(100 + len(n.sent))
		return tx.Hash(), nil
	case "eth_getTransactionReceipt":
		var hash common.Hash
		if err := json.Unmarshal(req.Params[0], &hash); err != nil {
			return nil, rpcError(-32602, err.Error())
		}
		block, ok := n.mined[hash]
		if !ok {
			return nil, nil
		}
		status := hexutil.Uint64(1)
		for _, tx := range n.sent {
			if tx.Hash() == hash {
				if name, _ := n.method(tx); n.revert[name] {
					status = 0
				}
			}
		}
		return map[string]any{"status": status, "blockNumber": hexutil.Uint64(block), "gasUsed": hexutil.Uint64(50_000)}, nil
	}
	return nil, rpcError(-32601, "method not found")
}

func (n *node) call(params []json.RawMessage) (any, map[string]any) {
	var msg struct {
		To   common.Address `json:"to"`
		Data hexutil.Bytes  `json:"data"`
	}
	if err := json.Unmarshal(params[0], &msg); err != nil {
		return nil, rpcError(-32602, err.Error())
	}
	s, ok := n.contracts[msg.To]
	if !ok {
		return hexutil.Bytes{}, nil
	}
	m, err := s.def.ABI.MethodById(msg.Data[:4])
	if err != nil {
		return nil, rpcError(3, "execution reverted")
	}
	read, ok := s.reads[m.Name]
	if !ok {
		return nil, rpcError(3, "execution reverted")
	}
	args, err := m.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, rpcError(-32602, err.Error())
	}
	out, err := m.Outputs.Pack(read(args)...)
	if err != nil {
		n.t.Errorf("packing %s outputs: %v", m.Name, err)
		return nil, rpcError(-32603, err.Error())
	}
	return hexutil.Bytes(out), nil
}

// constant answers every call with vals.
func constant(vals ...any) readFunc {
	return func([]any) []any { return vals }
}
