package chain

import (
	"errors"
	"math/big"
	"strings"
)

// ErrChainNotFound is returned when a chain is not in the registry.
var ErrChainNotFound = errors.New("chain not found")

// Network modes.
const (
	ModeMainnet = "mainnet"
	ModeTestnet = "testnet"
)

// Chain holds all metadata for a single EVM network and its testnet.
type Chain struct {
	Name            string   `json:"name"`
	DisplayName     string   `json:"display_name"`
	ChainID         int64    `json:"chain_id"`
	TestnetChainID  int64    `json:"testnet_chain_id"`
	NativeCurrency  string   `json:"native_currency"`
	TestnetCurrency string   `json:"testnet_currency"`
	MainnetRPCs     []string `json:"mainnet_rpcs"`
	TestnetRPCs     []string `json:"testnet_rpcs"`
	MainnetExplorer string   `json:"mainnet_explorer"`
	TestnetExplorer string   `json:"testnet_explorer"`
	TestnetName     string   `json:"testnet_name"`
	FaucetURL       string   `json:"faucet_url,omitempty"`
}

// Registry is the chain registry.
type Registry struct {
	chains []Chain
	byName map[string]*Chain
	byID   map[int64]*Chain
}

// NewRegistry returns the registry of supported networks.
func NewRegistry() *Registry {
	chains := allChains()
	r := &Registry{
		chains: chains,
		byName: make(map[string]*Chain, len(chains)),
		byID:   make(map[int64]*Chain, 2*len(chains)),
	}
	for i := range r.chains {
		c := &r.chains[i]
		r.byName[c.Name] = c
		r.byID[c.ChainID] = c
		r.byID[c.TestnetChainID] = c
	}
	return r
}

// All returns every chain in the registry.
func (r *Registry) All() []Chain {
	return r.chains
}

// GetByName finds a chain by its slug name (e.g. "flare", "songbird").
func (r *Registry) GetByName(name string) (*Chain, error) {
	c, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, ErrChainNotFound
	}
	return c, nil
}

// GetByChainID finds a chain by its mainnet or testnet chain ID.
func (r *Registry) GetByChainID(id int64) (*Chain, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, ErrChainNotFound
	}
	return c, nil
}

// RPCs returns the RPC list for a chain in the given mode ("mainnet"/"testnet").
func (c *Chain) RPCs(mode string) []string {
	if mode == ModeTestnet {
		return c.TestnetRPCs
	}
	return c.MainnetRPCs
}

// Explorer returns the explorer URL for a chain in the given mode.
func (c *Chain) Explorer(mode string) string {
	if mode == ModeTestnet {
		return c.TestnetExplorer
	}
	return c.MainnetExplorer
}

// ID returns the chain ID transactions are signed for in the given mode.
func (c *Chain) ID(mode string) *big.Int {
	if mode == ModeTestnet {
		return big.NewInt(c.TestnetChainID)
	}
	return big.NewInt(c.ChainID)
}

// Currency returns the native currency symbol in the given mode.
func (c *Chain) Currency(mode string) string {
	if mode == ModeTestnet && c.TestnetCurrency != "" {
		return c.TestnetCurrency
	}
	return c.NativeCurrency
}

// NetworkName returns the display name of the network in the given mode.
func (c *Chain) NetworkName(mode string) string {
	if mode == ModeTestnet {
		return c.TestnetName
	}
	return c.DisplayName
}

// TxURL links a transaction hash on the explorer.
func (c *Chain) TxURL(mode, hash string) string {
	return strings.TrimRight(c.Explorer(mode), "/") + "/tx/" + hash
}

// AddressURL links an address on the explorer.
func (c *Chain) AddressURL(mode, address string) string {
	return strings.TrimRight(c.Explorer(mode), "/") + "/address/" + address
}

// --- chain data ---

func allChains() []Chain {
	return []Chain{
		{
			Name: "flare", DisplayName: "Flare", ChainID: 14, TestnetChainID: 114,
			NativeCurrency: "FLR", TestnetCurrency: "C2FLR",
			MainnetRPCs:     []string{"https://flare-api.flare.network/ext/C/rpc", "https://rpc.ankr.com/flare"},
			TestnetRPCs:     []string{"https://coston2-api.flare.network/ext/C/rpc"},
			MainnetExplorer: "https://flare-explorer.flare.network",
			TestnetExplorer: "https://coston2-explorer.flare.network",
			TestnetName:     "Coston2",
			FaucetURL:       "https://faucet.flare.network/coston2",
		},
		{
			Name: "songbird", DisplayName: "Songbird", ChainID: 19, TestnetChainID: 16,
			NativeCurrency: "SGB", TestnetCurrency: "CFLR",
			MainnetRPCs:     []string{"https://songbird-api.flare.network/ext/C/rpc"},
			TestnetRPCs:     []string{"https://coston-api.flare.network/ext/C/rpc"},
			MainnetExplorer: "https://songbird-explorer.flare.network",
			TestnetExplorer: "https://coston-explorer.flare.network",
			TestnetName:     "Coston",
			FaucetURL:       "https://faucet.flare.network/coston",
		},
		{
			Name: "ethereum", DisplayName: "Ethereum", ChainID: 1, TestnetChainID: 11155111,
			NativeCurrency: "ETH", TestnetCurrency: "SepoliaETH",
			MainnetRPCs:     []string{"https://eth.llamarpc.com", "https://ethereum-rpc.publicnode.com"},
			TestnetRPCs:     []string{"https://rpc.sepolia.org", "https://sepolia.gateway.tenderly.co"},
			MainnetExplorer: "https://etherscan.io",
			TestnetExplorer: "https://sepolia.etherscan.io",
			TestnetName:     "Sepolia",
			FaucetURL:       "https://sepoliafaucet.com",
		},
	}
}
