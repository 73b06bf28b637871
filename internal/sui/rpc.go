package sui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// RPCClient is a minimal JSON-RPC 2.0 client for a Sui full node.
type RPCClient struct {
	endpoint  string
	client    *http.Client
	requestID atomic.Uint64
}

func NewRPCClient(endpoint string, timeout time.Duration) *RPCClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RPCClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// TransactionEffects is the subset of effects read after execution.
type TransactionEffects struct {
	Status struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	} `json:"status"`
	GasUsed struct {
		ComputationCost string `json:"computationCost"`
		StorageCost     string `json:"storageCost"`
		StorageRebate   string `json:"storageRebate"`
	} `json:"gasUsed"`
	TransactionDigest string `json:"transactionDigest"`
}

// TotalGas returns computation + storage - rebate in MIST.
func (e TransactionEffects) TotalGas() (int64, error) {
	var total int64
	for _, f := range []struct {
		name  string
		value string
		sign  int64
	}{
		{"computationCost", e.GasUsed.ComputationCost, 1},
		{"storageCost", e.GasUsed.StorageCost, 1},
		{"storageRebate", e.GasUsed.StorageRebate, -1},
	} {
		v, err := strconv.ParseInt(f.value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("gas %s %q: %w", f.name, f.value, err)
		}
		total += f.sign * v
	}
	return total, nil
}

// TransactionBlockResponse is the result of sui_executeTransactionBlock.
type TransactionBlockResponse struct {
	Digest  string              `json:"digest"`
	Effects *TransactionEffects `json:"effects"`
}

// DryRunResponse is the result of sui_dryRunTransactionBlock.
type DryRunResponse struct {
	Effects *TransactionEffects `json:"effects"`
}

// ExecuteTransactionBlock submits signed transaction bytes and waits for local execution.
func (c *RPCClient) ExecuteTransactionBlock(ctx context.Context, txBytes string, signatures []string) (*TransactionBlockResponse, error) {
	params := []interface{}{
		txBytes,
		signatures,
		map[string]bool{"showEffects": true},
		"WaitForLocalExecution",
	}
	var out TransactionBlockResponse
	if err := c.call(ctx, "sui_executeTransactionBlock", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DryRunTransactionBlock simulates unsigned transaction bytes.
func (c *RPCClient) DryRunTransactionBlock(ctx context.Context, txBytes string) (*DryRunResponse, error) {
	var out DryRunResponse
	if err := c.call(ctx, "sui_dryRunTransactionBlock", []interface{}{txBytes}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// call performs a single JSON-RPC call. Submissions are not retried here.
func (c *RPCClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: HTTP %d: %s", method, resp.StatusCode, string(raw))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return fmt.Errorf("unmarshal result: %w", err)
	}
	return nil
}
