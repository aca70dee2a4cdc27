package penalty

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

var (
	contractAddr = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	alice        = common.HexToAddress("0x1111111111111111111111111111111111111111")
	ownerAddr    = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

// fakeNode is a JSON-RPC server that answers eth_call from a table of
// per-method return values and records raw transactions it receives.
type fakeNode struct {
	t        *testing.T
	abi      abi.ABI
	results  map[string][]any // method name → output values
	receipts map[common.Hash]map[string]any

	mu    sync.Mutex
	calls []string
	sent  []*types.Transaction
}

func newFakeNode(t *testing.T) (*fakeNode, *httptest.Server) {
	t.Helper()
	parsed, err := ParsedABI()
	require.NoError(t, err)
	n := &fakeNode{
		t:        t,
		abi:      parsed,
		results:  map[string][]any{},
		receipts: map[common.Hash]map[string]any{},
	}
	srv := httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(srv.Close)
	return n, srv
}

func (n *fakeNode) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     json.RawMessage   `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	var result any
	var rpcErr map[string]any

	switch req.Method {
	case "eth_call":
		var msg struct {
			Data  hexutil.Bytes `json:"data"`
			Input hexutil.Bytes `json:"input"`
		}
		json.Unmarshal(req.Params[0], &msg) //nolint:errcheck
		data := msg.Input
		if len(data) == 0 {
			data = msg.Data
		}
		m, err := n.abi.MethodById(data[:4])
		if err != nil {
			rpcErr = map[string]any{"code": -32000, "message": "unknown selector"}
			break
		}
		n.mu.Lock()
		n.calls = append(n.calls, m.Name)
		n.mu.Unlock()
		vals, ok := n.results[m.Name]
		if !ok {
			rpcErr = map[string]any{"code": 3, "message": "execution reverted"}
			break
		}
		packed, err := m.Outputs.Pack(vals...)
		if !assert.NoError(n.t, err) {
			return
		}
		result = hexutil.Encode(packed)

	case "eth_sendRawTransaction":
		var raw hexutil.Bytes
		json.Unmarshal(req.Params[0], &raw) //nolint:errcheck
		tx := new(types.Transaction)
		if !assert.NoError(n.t, tx.UnmarshalBinary(raw)) {
			return
		}
		n.mu.Lock()
		n.sent = append(n.sent, tx)
		n.mu.Unlock()
		result = tx.Hash().Hex()

	case "eth_getTransactionReceipt":
		var h common.Hash
		json.Unmarshal(req.Params[0], &h) //nolint:errcheck
		if rc, ok := n.receipts[h]; ok {
			result = rc
		}

	default:
		rpcErr = map[string]any{"code": -32601, "message": "method not found"}
	}

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp) //nolint:errcheck
}

func receiptJSON(hash common.Hash, status uint64) map[string]any {
	return map[string]any{
		"status":            hexutil.EncodeUint64(status),
		"cumulativeGasUsed": "0x5208",
		"gasUsed":           "0x5208",
		"logsBloom":         hexutil.Encode(make([]byte, 256)),
		"logs":              []any{},
		"transactionHash":   hash.Hex(),
		"blockNumber":       "0x10",
		"blockHash":         common.Hash{1}.Hex(),
		"transactionIndex":  "0x0",
	}
}

func dial(t *testing.T, url string) *ethclient.Client {
	t.Helper()
	client, err := ethclient.Dial(url)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

// testTransactor signs legacy transactions with a throwaway key. Gas, price
// and nonce are fixed so the fake node only has to accept the raw tx.
func testTransactor(key *ecdsa.PrivateKey, chainID *big.Int) TransactorFunc {
	from := crypto.PubkeyToAddress(key.PublicKey)
	signer := types.LatestSignerForChainID(chainID)
	return func(ctx context.Context) (*bind.TransactOpts, error) {
		return &bind.TransactOpts{
			From:     from,
			Nonce:    big.NewInt(7),
			GasPrice: big.NewInt(25_000_000_000),
			GasLimit: 200_000,
			Signer: func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
				return types.SignTx(tx, signer, key)
			},
		}, nil
	}
}

// ---------------------------------------------------------------------------
// reads
// ---------------------------------------------------------------------------

func TestReads(t *testing.T) {
	node, srv := newFakeNode(t)
	fine, _ := new(big.Int).SetString("10000000000000000", 10)
	node.results[MethodFinePerPenalty] = []any{fine}
	node.results[MethodGetPenalties] = []any{big.NewInt(3)}
	node.results[MethodIsBlocked] = []any{true}
	node.results[MethodBlockThreshold] = []any{big.NewInt(5)}
	node.results[MethodOwner] = []any{ownerAddr}

	c, err := New(contractAddr, dial(t, srv.URL))
	require.NoError(t, err)
	ctx := context.Background()

	got, err := c.FinePerPenalty(ctx)
	require.NoError(t, err)
	assert.Equal(t, fine, got)

	count, err := c.Penalties(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(3), count)

	blocked, err := c.IsBlocked(ctx, alice)
	require.NoError(t, err)
	assert.True(t, blocked)

	threshold, err := c.BlockThreshold(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5), threshold)

	owner, err := c.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, ownerAddr, owner)

	assert.Equal(t, []string{
		MethodFinePerPenalty, MethodGetPenalties, MethodIsBlocked, MethodBlockThreshold, MethodOwner,
	}, node.calls)
}

func TestReadRevertIsError(t *testing.T) {
	_, srv := newFakeNode(t)
	c, err := New(contractAddr, dial(t, srv.URL))
	require.NoError(t, err)

	_, err = c.FinePerPenalty(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), MethodFinePerPenalty)
}

func TestNewNilBackend(t *testing.T) {
	_, err := New(contractAddr, nil)
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// writes
// ---------------------------------------------------------------------------

func TestWritesWithoutTransactorAreReadOnly(t *testing.T) {
	_, srv := newFakeNode(t)
	c, err := New(contractAddr, dial(t, srv.URL))
	require.NoError(t, err)
	assert.False(t, c.CanWrite())

	_, err = c.IssuePenalty(context.Background(), alice)
	assert.ErrorIs(t, err, ErrReadOnly)
	_, err = c.Withdraw(context.Background())
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestWritesEncodeCalldata(t *testing.T) {
	node, srv := newFakeNode(t)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	chainID := big.NewInt(114)

	c, err := New(contractAddr, dial(t, srv.URL), WithTransactor(testTransactor(key, chainID)))
	require.NoError(t, err)
	require.True(t, c.CanWrite())
	ctx := context.Background()
	fee := big.NewInt(30_000)

	tests := []struct {
		name   string
		method string
		send   func() (common.Hash, error)
		args   []any
		value  *big.Int
	}{
		{"issue", MethodIssuePenalty, func() (common.Hash, error) { return c.IssuePenalty(ctx, alice) }, []any{alice}, nil},
		{"pay", MethodPayFine, func() (common.Hash, error) { return c.PayFine(ctx, fee) }, nil, fee},
		{"clear", MethodClearPenalties, func() (common.Hash, error) { return c.ClearPenalties(ctx, alice) }, []any{alice}, nil},
		{"withdraw", MethodWithdraw, func() (common.Hash, error) { return c.Withdraw(ctx) }, nil, nil},
		{"threshold", MethodSetBlockThreshold, func() (common.Hash, error) { return c.SetBlockThreshold(ctx, big.NewInt(4)) }, []any{big.NewInt(4)}, nil},
		{"fine", MethodSetFineAmount, func() (common.Hash, error) { return c.SetFineAmount(ctx, fee) }, []any{fee}, nil},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := tt.send()
			require.NoError(t, err)
			require.Len(t, node.sent, i+1)

			tx := node.sent[i]
			assert.Equal(t, hash, tx.Hash())
			require.NotNil(t, tx.To())
			assert.Equal(t, contractAddr, *tx.To())

			want, err := node.abi.Pack(tt.method, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, want, tx.Data())

			if tt.value != nil {
				assert.Equal(t, tt.value, tx.Value())
			} else {
				assert.Equal(t, 0, tx.Value().Sign())
			}

			from, err := types.Sender(types.LatestSignerForChainID(chainID), tx)
			require.NoError(t, err)
			assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), from)
		})
	}
}

func TestPayFineDoesNotAliasValue(t *testing.T) {
	node, srv := newFakeNode(t)
	key, _ := crypto.GenerateKey()
	c, err := New(contractAddr, dial(t, srv.URL), WithTransactor(testTransactor(key, big.NewInt(14))))
	require.NoError(t, err)

	v := big.NewInt(100)
	_, err = c.PayFine(context.Background(), v)
	require.NoError(t, err)
	v.SetInt64(1)
	assert.Equal(t, big.NewInt(100), node.sent[0].Value())
}

// ---------------------------------------------------------------------------
// receipts
// ---------------------------------------------------------------------------

func TestReceiptPendingIsNil(t *testing.T) {
	_, srv := newFakeNode(t)
	c, err := New(contractAddr, dial(t, srv.URL))
	require.NoError(t, err)

	r, err := c.Receipt(context.Background(), common.Hash{0xaa})
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestReceiptMined(t *testing.T) {
	node, srv := newFakeNode(t)
	h := common.Hash{0xbb}
	node.receipts[h] = receiptJSON(h, types.ReceiptStatusSuccessful)

	c, err := New(contractAddr, dial(t, srv.URL))
	require.NoError(t, err)

	r, err := c.Receipt(context.Background(), h)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, types.ReceiptStatusSuccessful, r.Status)
	assert.Equal(t, h, r.TxHash)
	assert.Equal(t, uint64(21000), r.GasUsed)
}
