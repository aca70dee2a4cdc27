package rpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
)

// ErrWrongChain marks an endpoint that serves a different chain than asked for.
var ErrWrongChain = errors.New("endpoint serves a different chain")

// pingTimeout bounds a single probe.
const pingTimeout = 5 * time.Second

// Probe is what a single ping learns about an endpoint.
type Probe struct {
	Latency     time.Duration
	BlockNumber uint64
	ChainID     *big.Int
}

// Ping dials url and measures an eth_blockNumber round trip. When wantChainID
// is non-nil the endpoint's eth_chainId must match it.
func Ping(ctx context.Context, url string, wantChainID *big.Int) (Probe, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return Probe{}, fmt.Errorf("dial %s: %w", url, err)
	}
	defer client.Close()

	start := time.Now()
	block, err := client.BlockNumber(ctx)
	if err != nil {
		return Probe{}, fmt.Errorf("eth_blockNumber: %w", err)
	}
	p := Probe{Latency: time.Since(start), BlockNumber: block}

	if wantChainID != nil {
		id, err := client.ChainID(ctx)
		if err != nil {
			return p, fmt.Errorf("eth_chainId: %w", err)
		}
		p.ChainID = id
		if id.Cmp(wantChainID) != 0 {
			return p, fmt.Errorf("%w: got %s, want %s", ErrWrongChain, id, wantChainID)
		}
	}
	return p, nil
}
