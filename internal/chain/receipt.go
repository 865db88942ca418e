package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var errNullResult = errors.New("null result")

// Receipt holds the on-chain receipt of a mined transaction.
type Receipt struct {
	Hash        common.Hash
	Status      uint64 // 1 = success, 0 = reverted
	BlockNumber uint64
	GasUsed     uint64
}

// TransactionReceipt fetches the receipt for hash.
// Returns nil, nil if the transaction is still pending.
func (c *EVMClient) TransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	var r struct {
		Status      hexutil.Uint64 `json:"status"`
		BlockNumber hexutil.Uint64 `json:"blockNumber"`
		GasUsed     hexutil.Uint64 `json:"gasUsed"`
	}
	err := c.call(ctx, &r, "eth_getTransactionReceipt", hash.Hex())
	if errors.Is(err, errNullResult) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Receipt{
		Hash:        hash,
		Status:      uint64(r.Status),
		BlockNumber: uint64(r.BlockNumber),
		GasUsed:     uint64(r.GasUsed),
	}, nil
}

// RPCError is a JSON-RPC error object returned by the node.
type RPCError struct {
	Code int             `json:"code"`
	Msg  string          `json:"message"`
	Data json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Msg)
}

// ErrorCode returns the JSON-RPC error code.
func (e *RPCError) ErrorCode() int { return e.Code }

// ProviderMessage returns the node's own message.
func (e *RPCError) ProviderMessage() string { return e.Msg }

// RevertMessage decodes the revert payload in data, if any. Nodes send either
// the raw ABI-encoded Error(string) bytes or an object with a message field.
func (e *RPCError) RevertMessage() string {
	if len(e.Data) == 0 {
		return ""
	}
	var hexData string
	if err := json.Unmarshal(e.Data, &hexData); err == nil {
		raw, err := hexutil.Decode(hexData)
		if err != nil {
			return ""
		}
		reason, err := abi.UnpackRevert(raw)
		if err != nil {
			return ""
		}
		return "execution reverted: " + reason
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Data, &obj); err == nil {
		return obj.Message
	}
	return ""
}

// RevertedError reports a transaction that was mined with status 0.
type RevertedError struct {
	Hash        common.Hash
	BlockNumber uint64
}

func (e *RevertedError) Error() string {
	return fmt.Sprintf("transaction %s reverted in block %d", e.Hash.Hex(), e.BlockNumber)
}

// Reason is the human-readable cause.
func (e *RevertedError) Reason() string {
	return fmt.Sprintf("transaction reverted in block %d", e.BlockNumber)
}
