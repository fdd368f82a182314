package chain

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	evmTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeNode answers the handful of JSON-RPC methods the client issues.
type fakeNode struct {
	mu        sync.Mutex
	results   map[string]any
	failures  map[string]string
	callData  []string
	rawTxs    []string
	nonceTags []string
}

func newFakeNode() *fakeNode {
	return &fakeNode{
		results: map[string]any{
			"eth_chainId":             "0x1",
			"eth_getTransactionCount": "0x7",
			"eth_call":                hexutil.Encode(common.LeftPadBytes(big.NewInt(5_000_000).Bytes(), 32)),
		},
		failures: map[string]string{},
	}
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	switch req.Method {
	case "eth_call":
		var msg struct {
			Input string `json:"input"`
			Data  string `json:"data"`
		}
		_ = json.Unmarshal(req.Params[0], &msg)
		if msg.Input != "" {
			n.callData = append(n.callData, msg.Input)
		} else {
			n.callData = append(n.callData, msg.Data)
		}
	case "eth_getTransactionCount":
		var tag string
		_ = json.Unmarshal(req.Params[1], &tag)
		n.nonceTags = append(n.nonceTags, tag)
	case "eth_sendRawTransaction":
		var raw string
		_ = json.Unmarshal(req.Params[0], &raw)
		n.rawTxs = append(n.rawTxs, raw)
		n.results["eth_sendRawTransaction"] = common.Hash{}.Hex()
	}
	if msg, ok := n.failures[req.Method]; ok {
		resp["error"] = map[string]any{"code": -32000, "message": msg}
	} else {
		resp["result"] = n.results[req.Method]
	}
	n.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func dialFake(t *testing.T, node *fakeNode) *Client {
	t.Helper()
	server := httptest.NewServer(node)
	t.Cleanup(server.Close)

	client, err := Dial(context.Background(), server.URL, nil)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestDial(t *testing.T) {
	client := dialFake(t, newFakeNode())
	assert.Equal(t, int64(1), client.ChainID().Int64())

	// callers get a copy
	client.ChainID().SetInt64(99)
	assert.Equal(t, int64(1), client.ChainID().Int64())
}

func TestDial_ChainIdFails(t *testing.T) {
	node := newFakeNode()
	node.failures["eth_chainId"] = "unavailable"
	server := httptest.NewServer(node)
	defer server.Close()

	_, err := Dial(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not responding")
}

func TestDial_Unreachable(t *testing.T) {
	server := httptest.NewServer(newFakeNode())
	url := server.URL
	server.Close()

	_, err := Dial(context.Background(), url, NewLimiter(5))
	assert.Error(t, err)
}

func TestNonceAt(t *testing.T) {
	node := newFakeNode()
	client := dialFake(t, node)

	nonce, err := client.NonceAt(context.Background(), testOwner)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), nonce)
	assert.Equal(t, []string{"latest"}, node.nonceTags)
}

func TestAllowance(t *testing.T) {
	node := newFakeNode()
	client := dialFake(t, node)
	token := common.HexToAddress("0x3333333333333333333333333333333333333333")

	allowance, err := client.Allowance(context.Background(), token, testOwner, testSpender)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_000), allowance.Int64())

	expected, err := PackAllowance(testOwner, testSpender)
	require.NoError(t, err)
	require.Len(t, node.callData, 1)
	assert.Equal(t, hexutil.Encode(expected), node.callData[0])
}

func TestAllowance_CallReverts(t *testing.T) {
	node := newFakeNode()
	node.failures["eth_call"] = "execution reverted"
	client := dialFake(t, node)
	token := common.HexToAddress("0x3333333333333333333333333333333333333333")

	_, err := client.Allowance(context.Background(), token, testOwner, testSpender)
	require.Error(t, err)
	assert.Contains(t, err.Error(), token.Hex())
}

func TestAllowance_NotAContract(t *testing.T) {
	node := newFakeNode()
	node.results["eth_call"] = "0x"
	client := dialFake(t, node)

	_, err := client.Allowance(context.Background(), common.HexToAddress("0x4444444444444444444444444444444444444444"), testOwner, testSpender)
	assert.Error(t, err)
}

func TestSendTransaction(t *testing.T) {
	node := newFakeNode()
	client := dialFake(t, node)
	key := testKey(t)

	signer := NewKeySigner(client, key, client.ChainID())
	tx := evmTypes.NewTx(&evmTypes.LegacyTx{Nonce: 7, Gas: 60000, GasPrice: big.NewInt(1), Value: big.NewInt(0)})

	hash, err := signer.SignAndSend(context.Background(), tx)
	require.NoError(t, err)
	require.Len(t, node.rawTxs, 1)

	var sent evmTypes.Transaction
	require.NoError(t, sent.UnmarshalBinary(hexutil.MustDecode(node.rawTxs[0])))
	assert.Equal(t, hash, sent.Hash())
	assert.Equal(t, uint64(7), sent.Nonce())
}
