package rpc_test

import (
	"testing"
	"time"

	"github.com/Mohsinsiddi/w3penalty/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	flareAPI   = "https://flare-api.flare.network/ext/C/rpc"
	coston2API = "https://coston2-api.flare.network/ext/C/rpc"
	ankrFlare  = "https://rpc.ankr.com/flare"
)

// up is an endpoint that answered its health check.
func up(url string, ms int, block uint64) rpc.Endpoint {
	return rpc.Endpoint{URL: url, Latency: time.Duration(ms) * time.Millisecond, BlockNumber: block, Healthy: true, Checked: true}
}

// down is an endpoint that failed its health check.
func down(url string) rpc.Endpoint {
	return rpc.Endpoint{URL: url, Checked: true}
}

// untested is an endpoint listed in config but never pinged.
func untested(url string) rpc.Endpoint {
	return rpc.Endpoint{URL: url}
}

// ---------------------------------------------------------------------------
// single pick per algorithm
// ---------------------------------------------------------------------------

func TestPick(t *testing.T) {
	tests := []struct {
		name      string
		algo      rpc.Algorithm
		endpoints []rpc.Endpoint
		want      string
	}{
		{
			name:      "fastest prefers low latency",
			algo:      rpc.AlgorithmFastest,
			endpoints: []rpc.Endpoint{up(flareAPI, 180, 500), up(ankrFlare, 25, 500)},
			want:      ankrFlare,
		},
		{
			name:      "fastest skips an endpoint lagging the tip",
			algo:      rpc.AlgorithmFastest,
			endpoints: []rpc.Endpoint{up(flareAPI, 60, 9000), up(ankrFlare, 5, 8990)},
			want:      flareAPI,
		},
		{
			name:      "fastest ignores endpoints that are down",
			algo:      rpc.AlgorithmFastest,
			endpoints: []rpc.Endpoint{down(ankrFlare), up(flareAPI, 400, 10)},
			want:      flareAPI,
		},
		{
			name:      "fastest treats unpinged endpoints as candidates",
			algo:      rpc.AlgorithmFastest,
			endpoints: []rpc.Endpoint{untested(coston2API)},
			want:      coston2API,
		},
		{
			name:      "failover takes the first live endpoint in order",
			algo:      rpc.AlgorithmFailover,
			endpoints: []rpc.Endpoint{down(flareAPI), up(ankrFlare, 300, 1), up(coston2API, 1, 1)},
			want:      ankrFlare,
		},
		{
			name:      "failover keeps an unpinged primary",
			algo:      rpc.AlgorithmFailover,
			endpoints: []rpc.Endpoint{untested(flareAPI), up(ankrFlare, 1, 1)},
			want:      flareAPI,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := rpc.NewPicker(tc.algo).Pick(tc.endpoints)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.URL)
		})
	}
}

func TestPickNothingUsable(t *testing.T) {
	for _, algo := range []rpc.Algorithm{rpc.AlgorithmFastest, rpc.AlgorithmRoundRobin, rpc.AlgorithmFailover} {
		t.Run(string(algo), func(t *testing.T) {
			p := rpc.NewPicker(algo)

			_, err := p.Pick(nil)
			assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)

			_, err = p.Pick([]rpc.Endpoint{down(flareAPI), down(ankrFlare)})
			assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)
		})
	}
}

// ---------------------------------------------------------------------------
// state across picks
// ---------------------------------------------------------------------------

func TestRoundRobinRotatesOverLiveEndpoints(t *testing.T) {
	endpoints := []rpc.Endpoint{up(flareAPI, 10, 1), down(coston2API), up(ankrFlare, 10, 1)}
	p := rpc.NewPicker(rpc.AlgorithmRoundRobin)

	var got []string
	for range 4 {
		e, err := p.Pick(endpoints)
		require.NoError(t, err)
		got = append(got, e.URL)
	}
	assert.Equal(t, []string{flareAPI, ankrFlare, flareAPI, ankrFlare}, got)
}

func TestFastestReusesWinner(t *testing.T) {
	scored := 0
	p := rpc.NewPicker(rpc.AlgorithmFastest)
	p.OnScore(func() { scored++ })

	endpoints := []rpc.Endpoint{up(ankrFlare, 20, 100), up(flareAPI, 90, 100)}
	for range 3 {
		e, err := p.Pick(endpoints)
		require.NoError(t, err)
		assert.Equal(t, ankrFlare, e.URL)
	}
	assert.Equal(t, 1, scored)
}

func TestFastestRescoresWhenWinnerLeavesTheList(t *testing.T) {
	scored := 0
	p := rpc.NewPicker(rpc.AlgorithmFastest)
	p.OnScore(func() { scored++ })

	_, err := p.Pick([]rpc.Endpoint{up(ankrFlare, 10, 1)})
	require.NoError(t, err)
	e, err := p.Pick([]rpc.Endpoint{up(flareAPI, 10, 1)})
	require.NoError(t, err)

	assert.Equal(t, flareAPI, e.URL)
	assert.Equal(t, 2, scored)
}
