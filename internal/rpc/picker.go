package rpc

import (
	"errors"
	"sync"
	"time"
)

// ErrNoHealthyRPC is returned when no healthy RPC endpoint is available.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Algorithm defines how an RPC endpoint is selected.
type Algorithm string

const (
	AlgorithmFastest    Algorithm = "fastest"
	AlgorithmRoundRobin Algorithm = "round-robin"
	AlgorithmFailover   Algorithm = "failover"

	// Discard nodes more than this many blocks behind the best.
	staleBlockThreshold = 3
	// Keep the fastest winner this long before scoring again.
	cacheTTL = 5 * time.Minute
)

// Endpoint represents a single RPC endpoint with its measured attributes.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Healthy     bool // meaningful only when Checked
	Checked     bool
}

// Picker selects an RPC endpoint according to the configured algorithm.
type Picker struct {
	algo Algorithm

	mu          sync.Mutex
	rrIndex     int
	cachedURL   string
	cacheExpiry time.Time
	onScore     func()
}

// NewPicker creates a new Picker with the given algorithm.
func NewPicker(algo Algorithm) *Picker {
	return &Picker{algo: algo}
}

// OnScore registers a hook called each time the fastest picker scores the
// endpoints instead of reusing its cached winner.
func (p *Picker) OnScore(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onScore = fn
}

// Pick selects an endpoint from the provided list according to the algorithm.
func (p *Picker) Pick(endpoints []Endpoint) (*Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoHealthyRPC
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.algo {
	case AlgorithmRoundRobin:
		return p.roundRobin(endpoints)
	case AlgorithmFailover:
		return failover(endpoints)
	default:
		return p.fastest(endpoints)
	}
}

func (p *Picker) fastest(endpoints []Endpoint) (*Endpoint, error) {
	if p.cachedURL != "" && time.Now().Before(p.cacheExpiry) {
		for i := range endpoints {
			if endpoints[i].URL == p.cachedURL {
				return &endpoints[i], nil
			}
		}
	}
	if p.onScore != nil {
		p.onScore()
	}

	best := tip(endpoints)
	var winner *Endpoint
	var bestScore float64
	for _, e := range candidates(endpoints) {
		if best-e.BlockNumber > staleBlockThreshold {
			continue
		}
		if s := score(e, best); winner == nil || s > bestScore {
			winner, bestScore = e, s
		}
	}
	if winner == nil {
		return nil, ErrNoHealthyRPC
	}

	p.cachedURL = winner.URL
	p.cacheExpiry = time.Now().Add(cacheTTL)
	return winner, nil
}

func (p *Picker) roundRobin(endpoints []Endpoint) (*Endpoint, error) {
	healthy := candidates(endpoints)
	if len(healthy) == 0 {
		return nil, ErrNoHealthyRPC
	}
	idx := p.rrIndex % len(healthy)
	p.rrIndex = (idx + 1) % len(healthy)
	return healthy[idx], nil
}

// failover returns the first endpoint not known to be down.
func failover(endpoints []Endpoint) (*Endpoint, error) {
	for i := range endpoints {
		if e := &endpoints[i]; !e.Checked || e.Healthy {
			return e, nil
		}
	}
	return nil, ErrNoHealthyRPC
}

// tip is the highest block any endpoint reported.
func tip(endpoints []Endpoint) uint64 {
	var best uint64
	for _, e := range endpoints {
		best = max(best, e.BlockNumber)
	}
	return best
}

// score favours low latency, then closeness to the tip.
func score(e *Endpoint, best uint64) float64 {
	var s float64
	if us := e.Latency.Microseconds(); us > 0 {
		s += 1e6 / float64(us)
	}
	s -= float64(best - e.BlockNumber)
	return s
}

// candidates drops endpoints that were checked and found unhealthy.
func candidates(endpoints []Endpoint) []*Endpoint {
	var out []*Endpoint
	for i := range endpoints {
		if e := &endpoints[i]; !e.Checked || e.Healthy {
			out = append(out, e)
		}
	}
	return out
}
