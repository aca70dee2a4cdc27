package rpc

import (
	"context"
	"math/big"
	"sync"
	"time"
)

// BenchmarkResult holds the result of a single endpoint benchmark.
type BenchmarkResult struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Err         error
}

// Benchmark pings all urls in parallel. Results keep the order of urls.
func Benchmark(ctx context.Context, urls []string, wantChainID *big.Int) []BenchmarkResult {
	results := make([]BenchmarkResult, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Go(func() {
			p, err := Ping(ctx, u, wantChainID)
			results[i] = BenchmarkResult{
				URL:         u,
				Latency:     p.Latency,
				BlockNumber: p.BlockNumber,
				Err:         err,
			}
		})
	}
	wg.Wait()
	return results
}

// ResultsToEndpoints converts benchmark results to picker Endpoints.
// Every returned endpoint is marked Checked.
func ResultsToEndpoints(results []BenchmarkResult) []Endpoint {
	endpoints := make([]Endpoint, 0, len(results))
	for _, r := range results {
		endpoints = append(endpoints, Endpoint{
			URL:         r.URL,
			Latency:     r.Latency,
			BlockNumber: r.BlockNumber,
			Healthy:     r.Err == nil,
			Checked:     true,
		})
	}
	return endpoints
}

// Select picks one of urls with the named algorithm ("fastest" when empty).
// Duplicates are probed once; a single URL is returned without probing it.
func Select(ctx context.Context, urls []string, algorithm string, wantChainID *big.Int) (string, error) {
	urls = unique(urls)
	switch len(urls) {
	case 0:
		return "", ErrNoHealthyRPC
	case 1:
		return urls[0], nil
	}

	algo := Algorithm(algorithm)
	if algo == "" {
		algo = AlgorithmFastest
	}
	endpoints := ResultsToEndpoints(Benchmark(ctx, urls, wantChainID))
	winner, err := NewPicker(algo).Pick(endpoints)
	if err != nil {
		return "", err
	}
	return winner.URL, nil
}

// unique drops repeated and empty URLs, keeping first occurrences in order.
func unique(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
