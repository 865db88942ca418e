package chain

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcMock creates a test HTTP server that returns canned JSON-RPC results keyed by method.
func rpcMock(t *testing.T, responses map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			ID     int64  `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if result, ok := responses[req.Method]; ok {
			json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
				"jsonrpc": "2.0",
				"id":      req.ID,
				"result":  result,
			})
		} else {
			json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
				"jsonrpc": "2.0",
				"id":      req.ID,
				"error":   map[string]any{"code": -32601, "message": "method not found"},
			})
		}
	}))
}

// rpcErrorServer creates a test HTTP server that always returns a JSON-RPC error.
func rpcErrorServer(t *testing.T, rpcErr map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID int64 `json:"id"`
		}
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   rpcErr,
		})
	}))
}

// revertData is the ABI encoding of Error("goal not met").
const revertData = "0x08c379a0" +
	"0000000000000000000000000000000000000000000000000000000000000020" +
	"000000000000000000000000000000000000000000000000000000000000000c" +
	"676f616c206e6f74206d65740000000000000000000000000000000000000000"

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func TestChainIDSepolia(t *testing.T) {
	srv := rpcMock(t, map[string]any{"eth_chainId": "0xaa36a7"})
	defer srv.Close()

	id, err := NewEVMClient(srv.URL).ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(11155111), id.Int64())
}

func TestBlockNumberSuccess(t *testing.T) {
	srv := rpcMock(t, map[string]any{"eth_blockNumber": "0x10"})
	defer srv.Close()

	n, err := NewEVMClient(srv.URL).BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(16), n)
}

func TestBalanceAtOneEther(t *testing.T) {
	srv := rpcMock(t, map[string]any{"eth_getBalance": "0xde0b6b3a7640000"})
	defer srv.Close()

	bal, err := NewEVMClient(srv.URL).BalanceAt(context.Background(), common.HexToAddress("0x01"))
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", bal.String())
}

func TestCallContractReturnsBytes(t *testing.T) {
	srv := rpcMock(t, map[string]any{
		"eth_call": "0x0000000000000000000000000000000000000000000000000000000000000012",
	})
	defer srv.Close()

	out, err := NewEVMClient(srv.URL).CallContract(context.Background(), CallMsg{
		To:   common.HexToAddress("0x02"),
		Data: []byte{0x31, 0x3c, 0xe5, 0x67},
	})
	require.NoError(t, err)
	require.Len(t, out, 32)
	assert.Equal(t, byte(18), out[31])
}

func TestCallParamsEncoding(t *testing.T) {
	msg := CallMsg{
		From:  common.HexToAddress("0x0a"),
		To:    common.HexToAddress("0x0b"),
		Data:  []byte{0xde, 0xad},
		Value: big.NewInt(255),
	}
	raw, err := json.Marshal(msg.params())
	require.NoError(t, err)
	s := string(raw)
	assert.Contains(t, s, `"data":"0xdead"`)
	assert.Contains(t, s, `"value":"0xff"`)
	assert.Contains(t, s, `"from":`)
}

func TestCallParamsOmitZeroFromAndValue(t *testing.T) {
	raw, err := json.Marshal(CallMsg{To: common.HexToAddress("0x0b")}.params())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "from")
	assert.NotContains(t, string(raw), "value")
}

func TestGasPriceAndNonce(t *testing.T) {
	srv := rpcMock(t, map[string]any{
		"eth_gasPrice":            "0x3b9aca00",
		"eth_getTransactionCount": "0x7",
		"eth_estimateGas":         "0x5208",
	})
	defer srv.Close()
	c := NewEVMClient(srv.URL)
	ctx := context.Background()

	gp, err := c.GasPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000_000), gp.Int64())

	nonce, err := c.PendingNonce(ctx, common.HexToAddress("0x01"))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), nonce)

	gas, err := c.EstimateGas(ctx, CallMsg{To: common.HexToAddress("0x02")})
	require.NoError(t, err)
	assert.Equal(t, uint64(21000), gas)
}

func TestSendRawTransactionReturnsHash(t *testing.T) {
	hash := "0x" + strings.Repeat("ab", 32)
	srv := rpcMock(t, map[string]any{"eth_sendRawTransaction": hash})
	defer srv.Close()

	got, err := NewEVMClient(srv.URL).SendRawTransaction(context.Background(), []byte{0x01})
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash(hash), got)
}

func TestPingMeasuresLatency(t *testing.T) {
	srv := rpcMock(t, map[string]any{"eth_blockNumber": "0x2a"})
	defer srv.Close()

	latency, block, err := NewEVMClient(srv.URL).Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), block)
	assert.Greater(t, latency, time.Duration(0))
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func TestRPCErrorIsTyped(t *testing.T) {
	srv := rpcErrorServer(t, map[string]any{"code": -32000, "message": "nonce too low"})
	defer srv.Close()

	_, err := NewEVMClient(srv.URL).ChainID(context.Background())
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32000, rpcErr.ErrorCode())
	assert.Equal(t, "nonce too low", rpcErr.ProviderMessage())
	assert.Empty(t, rpcErr.RevertMessage())
	assert.Equal(t, "RPC error -32000: nonce too low", err.Error())
}

func TestRPCErrorDecodesRevertData(t *testing.T) {
	srv := rpcErrorServer(t, map[string]any{
		"code":    3,
		"message": "execution reverted",
		"data":    revertData,
	})
	defer srv.Close()

	_, err := NewEVMClient(srv.URL).EstimateGas(context.Background(), CallMsg{To: common.HexToAddress("0x02")})
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, "execution reverted: goal not met", rpcErr.RevertMessage())
}

func TestRPCErrorObjectData(t *testing.T) {
	e := &RPCError{Code: -32603, Msg: "Internal JSON-RPC error.", Data: json.RawMessage(`{"message":"execution reverted: only owner"}`)}
	assert.Equal(t, "execution reverted: only owner", e.RevertMessage())
}

func TestRPCErrorGarbageData(t *testing.T) {
	e := &RPCError{Code: 3, Msg: "execution reverted", Data: json.RawMessage(`"0xnothex"`)}
	assert.Empty(t, e.RevertMessage())
}

func TestConnectionRefused(t *testing.T) {
	_, err := NewEVMClient("http://127.0.0.1:1").ChainID(context.Background())
	assert.Error(t, err)
}

func TestInvalidJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{not valid json`)) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := NewEVMClient(srv.URL).BlockNumber(context.Background())
	assert.ErrorContains(t, err, "parsing response")
}

// ---------------------------------------------------------------------------
// Receipts
// ---------------------------------------------------------------------------

func TestTransactionReceiptPending(t *testing.T) {
	srv := rpcMock(t, map[string]any{"eth_getTransactionReceipt": nil})
	defer srv.Close()

	r, err := NewEVMClient(srv.URL).TransactionReceipt(context.Background(), common.HexToHash("0x01"))
	require.NoError(t, err)
	assert.Nil(t, r, "pending tx should return nil receipt")
}

func TestTransactionReceiptSuccess(t *testing.T) {
	srv := rpcMock(t, map[string]any{
		"eth_getTransactionReceipt": map[string]any{"status": "0x1", "blockNumber": "0x100", "gasUsed": "0x5208"},
	})
	defer srv.Close()

	r, err := NewEVMClient(srv.URL).TransactionReceipt(context.Background(), common.HexToHash("0x01"))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, uint64(1), r.Status)
	assert.Equal(t, uint64(256), r.BlockNumber)
	assert.Equal(t, uint64(21000), r.GasUsed)
}

// receiptAfter serves a null receipt for the first n polls, then a mined one.
func receiptAfter(t *testing.T, n int, status string) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	polls := 0
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID int64 `json:"id"`
		}
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		mu.Lock()
		polls++
		var result any
		if polls > n {
			result = map[string]any{"status": status, "blockNumber": "0x2a", "gasUsed": "0x1"}
		}
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result}) //nolint:errcheck
	}))
}

func TestWaitMinedPollsUntilIncluded(t *testing.T) {
	srv := receiptAfter(t, 2, "0x1")
	defer srv.Close()

	c := NewEVMClient(srv.URL, WithPollInterval(5*time.Millisecond))
	r, err := c.WaitMined(context.Background(), common.HexToHash("0x01"))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), r.BlockNumber)
}

func TestWaitMinedReverted(t *testing.T) {
	srv := receiptAfter(t, 0, "0x0")
	defer srv.Close()

	c := NewEVMClient(srv.URL, WithPollInterval(5*time.Millisecond))
	r, err := c.WaitMined(context.Background(), common.HexToHash("0x01"))
	require.NotNil(t, r)
	var rev *RevertedError
	require.ErrorAs(t, err, &rev)
	assert.Equal(t, uint64(42), rev.BlockNumber)
	assert.Equal(t, "transaction reverted in block 42", rev.Reason())
}

func TestWaitMinedRetriesTransportFailure(t *testing.T) {
	var mu sync.Mutex
	polls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID int64 `json:"id"`
		}
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		mu.Lock()
		polls++
		n := polls
		mu.Unlock()
		if n <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("<html>gateway timeout</html>")) //nolint:errcheck
			return
		}
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]any{"status": "0x1", "blockNumber": "0x2a", "gasUsed": "0x1"},
		})
	}))
	defer srv.Close()

	c := NewEVMClient(srv.URL, WithPollInterval(5*time.Millisecond))
	r, err := c.WaitMined(context.Background(), common.HexToHash("0x01"))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), r.BlockNumber)
	mu.Lock()
	assert.Equal(t, 3, polls)
	mu.Unlock()
}

func TestWaitMinedStopsOnNodeError(t *testing.T) {
	srv := rpcErrorServer(t, map[string]any{"code": -32000, "message": "transaction indexing is in progress"})
	defer srv.Close()

	c := NewEVMClient(srv.URL, WithPollInterval(5*time.Millisecond))
	_, err := c.WaitMined(context.Background(), common.HexToHash("0x01"))
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32000, rpcErr.Code)
}

func TestOversizedResponseRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := `{"jsonrpc":"2.0","id":1,"result":"0x` + strings.Repeat("0", maxResponseBytes) + `"}`
		w.Write([]byte(body)) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := NewEVMClient(srv.URL).ChainID(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestWaitMinedStopsWithContext(t *testing.T) {
	srv := rpcMock(t, map[string]any{"eth_getTransactionReceipt": nil})
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	c := NewEVMClient(srv.URL, WithPollInterval(5*time.Millisecond))
	_, err := c.WaitMined(ctx, common.HexToHash("0x01"))
	assert.Error(t, err)
}
