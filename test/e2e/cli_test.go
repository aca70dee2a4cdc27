package e2e_test

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/w3penalty/internal/penalty"
)

var binaryPath string

const (
	contract = "0x00000000000000000000000000000000000000c0"
	watched  = "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"
	owner    = "0x2222222222222222222222222222222222222222"
)

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "w3penalty-e2e-test")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	binaryPath = filepath.Join(tmp, "w3penalty")
	moduleRoot, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		panic(err)
	}
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = moduleRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		panic("build failed: " + string(out))
	}

	os.Exit(m.Run())
}

func runCLI(t *testing.T, configDir string, args ...string) (string, error) {
	t.Helper()
	return runCLIWithInput(t, configDir, "", args...)
}

func runCLIWithInput(t *testing.T, configDir, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "W3PENALTY_CONFIG_DIR="+configDir)
	cmd.Stdin = strings.NewReader(stdin)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// penaltyNode serves the contract's view methods the way an EVM node would.
func penaltyNode(t *testing.T) *httptest.Server {
	t.Helper()
	parsed, err := penalty.ParsedABI()
	require.NoError(t, err)

	fine, _ := new(big.Int).SetString("500000000000000000", 10)
	results := map[string][]any{
		penalty.MethodFinePerPenalty: {fine},
		penalty.MethodBlockThreshold: {big.NewInt(7)},
		penalty.MethodOwner:          {common.HexToAddress(owner)},
		penalty.MethodGetPenalties:   {big.NewInt(2)},
		penalty.MethodIsBlocked:      {false},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage   `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		switch req.Method {
		case "eth_chainId":
			resp["result"] = hexutil.EncodeUint64(114)
		case "eth_blockNumber":
			resp["result"] = hexutil.EncodeUint64(100)
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
			m, err := parsed.MethodById(data[:4])
			if err != nil {
				resp["error"] = map[string]any{"code": -32000, "message": "unknown selector"}
				break
			}
			packed, err := m.Outputs.Pack(results[m.Name]...)
			if err != nil {
				resp["error"] = map[string]any{"code": -32000, "message": err.Error()}
				break
			}
			resp["result"] = hexutil.Encode(packed)
		default:
			resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

// ---------------------------------------------------------------------------
// root
// ---------------------------------------------------------------------------

func TestVersionFlag(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "w3penalty")
	assert.Contains(t, out, "0.1.0")
}

func TestHelpCommand(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "--help")
	require.NoError(t, err)
	lower := strings.ToLower(out)
	for _, sub := range []string{"panel", "status", "issue", "pay", "withdraw", "wallet", "network"} {
		assert.Contains(t, lower, sub)
	}
	assert.Contains(t, out, "--testnet")
	assert.Contains(t, out, "--contract")
}

func TestUnknownCommandShowsError(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "balance")
	assert.Error(t, err)
}

func TestTestnetMainnetMutuallyExclusive(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "--testnet", "--mainnet", "network", "list")
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// network / config / rpc
// ---------------------------------------------------------------------------

func TestNetworkList(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "network", "list")
	require.NoError(t, err)
	for _, c := range []string{"flare", "songbird", "ethereum"} {
		assert.Contains(t, strings.ToLower(out), c, "network list should contain %s", c)
	}
}

func TestNetworkUsePersistsMode(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "--testnet", "network", "use", "songbird")
	require.NoError(t, err)
	assert.Contains(t, out, "testnet")

	cfgOut, err := runCLI(t, dir, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, cfgOut, `"songbird"`)
	assert.Contains(t, cfgOut, `"testnet"`)
}

func TestNetworkUseUnknown(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "network", "use", "unknownchain99")
	assert.Error(t, err)
}

func TestConfigSetContract(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "config", "set", "contract", contract)
	require.NoError(t, err)

	out, err := runCLI(t, dir, "config", "list")
	require.NoError(t, err)
	assert.Contains(t, out, contract)
}

func TestConfigSetRejectsBadContract(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "config", "set", "contract", "0x1234")
	assert.Error(t, err)
}

func TestConfigEnvOverride(t *testing.T) {
	cmd := exec.Command(binaryPath, "config", "show")
	cmd.Env = append(os.Environ(),
		"W3PENALTY_CONFIG_DIR="+t.TempDir(),
		"W3PENALTY_CONTRACT="+contract,
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err)
	assert.Contains(t, string(out), contract)
}

func TestRPCAddAndAlgorithm(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "rpc", "add", "flare", "https://custom.rpc.url")
	require.NoError(t, err)

	out, _ := runCLI(t, dir, "rpc", "list", "flare")
	assert.Contains(t, out, "custom.rpc.url")

	_, err = runCLI(t, dir, "rpc", "algorithm", "round-robin")
	require.NoError(t, err)
	out, _ = runCLI(t, dir, "config", "show")
	assert.Contains(t, out, "round-robin")
}

// ---------------------------------------------------------------------------
// wallet
// ---------------------------------------------------------------------------

func TestWalletAddAndList(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "wallet", "add", "watcher", watched)
	require.NoError(t, err)

	out, err := runCLI(t, dir, "wallet", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "watcher")
	assert.Contains(t, out, "0xd8dA")
}

func TestWalletRemove(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "wallet", "add", "w1", watched)
	require.NoError(t, err)

	_, err = runCLIWithInput(t, dir, "y\n", "wallet", "remove", "w1")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "wallet", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "w1")
}

// ---------------------------------------------------------------------------
// offline helpers
// ---------------------------------------------------------------------------

func TestSelectorsLookup(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "selectors", "0x3ccfd60b")
	require.NoError(t, err)
	assert.Contains(t, out, "withdraw()")
}

func TestConvertAmount(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "convert", "0.5", "FLR")
	require.NoError(t, err)
	assert.Contains(t, out, "500000000000000000")
}

func TestChecksumMismatch(t *testing.T) {
	bad := strings.Replace(watched, "dA6", "da6", 1)
	out, err := runCLI(t, t.TempDir(), "checksum", bad)
	require.NoError(t, err)
	assert.Contains(t, out, "checksum mismatch")
	assert.Contains(t, out, watched)
}

// ---------------------------------------------------------------------------
// contract reads
// ---------------------------------------------------------------------------

func TestStatusWithoutContract(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "status")
	assert.Error(t, err)
	assert.Contains(t, out, "no penalty contract configured")
}

func TestStatusAgainstNode(t *testing.T) {
	node := penaltyNode(t)
	dir := t.TempDir()
	_, err := runCLI(t, dir, "wallet", "add", "watcher", watched)
	require.NoError(t, err)

	out, err := runCLI(t, dir, "--testnet", "--contract", contract, "--rpc", node.URL, "status")
	require.NoError(t, err, out)
	assert.Contains(t, out, "0.5 C2FLR")
	assert.Contains(t, out, "7")
	assert.Contains(t, out, "Read-only")
}

func TestWriteRefusedWhenReadOnly(t *testing.T) {
	node := penaltyNode(t)
	dir := t.TempDir()
	_, err := runCLI(t, dir, "wallet", "add", "watcher", watched)
	require.NoError(t, err)

	_, err = runCLI(t, dir, "--testnet", "--contract", contract, "--rpc", node.URL, "issue", owner)
	assert.Error(t, err)
}
