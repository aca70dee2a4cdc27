package session

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// query names a contract read.
type query string

const (
	queryFine      query = "finePerPenalty"
	queryPenalties query = "getPenalties"
	queryBlocked   query = "isBlocked"
	queryThreshold query = "blockThreshold"
	queryOwner     query = "owner"
)

// cacheKey identifies one read: the query plus its address argument (zero
// for argument-less queries).
type cacheKey struct {
	query query
	arg   common.Address
}

func (k cacheKey) String() string {
	if k.arg == (common.Address{}) {
		return string(k.query)
	}
	return string(k.query) + "(" + k.arg.Hex() + ")"
}

type cacheEntry struct {
	value   any
	fetched time.Time
	stale   bool
}

// readCache holds the last value of every read, each invalidated on its own.
// Every invalidation bumps the key's generation; a result fetched under an
// older generation is dropped. Callers hold Session.mu.
type readCache struct {
	entries map[cacheKey]*cacheEntry
	gens    map[cacheKey]uint64
}

func newReadCache() *readCache {
	return &readCache{
		entries: make(map[cacheKey]*cacheEntry),
		gens:    make(map[cacheKey]uint64),
	}
}

func (c *readCache) get(k cacheKey) (any, bool) {
	e, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// generation is the token a read must carry back to put.
func (c *readCache) generation(k cacheKey) uint64 { return c.gens[k] }

// put stores v unless k was invalidated after the read began. It reports
// whether v was stored.
func (c *readCache) put(k cacheKey, v any, at time.Time, gen uint64) bool {
	if gen != c.gens[k] {
		return false
	}
	c.entries[k] = &cacheEntry{value: v, fetched: at}
	return true
}

func (c *readCache) invalidate(keys ...cacheKey) {
	for _, k := range keys {
		c.gens[k]++
		if e, ok := c.entries[k]; ok {
			e.stale = true
		}
	}
}

// needs reports whether k is missing or stale.
func (c *readCache) needs(k cacheKey) bool {
	e, ok := c.entries[k]
	return !ok || e.stale
}

// dedupe drops repeated keys, keeping first-seen order.
func dedupe(keys []cacheKey) []cacheKey {
	seen := make(map[cacheKey]bool, len(keys))
	out := keys[:0:0]
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
