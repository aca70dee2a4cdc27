package session

import (
	"math/big"

	"github.com/Mohsinsiddi/w3penalty/internal/units"
	"github.com/ethereum/go-ethereum/common"
)

// Snapshot is a consistent copy of the contract state as last read.
type Snapshot struct {
	Account   common.Address
	Connected bool
	Viewed    common.Address
	HasViewed bool

	FinePerPenalty      *big.Int // minor units
	FinePerPenaltyMajor string
	MyPenalties         uint64
	ViewedPenalties     uint64
	IsBlocked           bool // viewed address, or the account when nothing is viewed
	BlockThreshold      uint64
	Owner               common.Address
	HasOwner            bool

	Payable      *big.Int // FinePerPenalty × MyPenalties
	PayableMajor string

	ReadErr error // last failed read, cleared by the next successful refresh
}

// Subject returns the address whose block status the snapshot shows.
func (s Snapshot) Subject() (common.Address, bool) {
	if s.HasViewed {
		return s.Viewed, true
	}
	return s.Account, s.Connected
}

// snapshotLocked builds a Snapshot from the cache. Caller holds s.mu.
func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Account:   s.account,
		Connected: s.connected,
		Viewed:    s.viewed,
		HasViewed: s.hasViewed,
		ReadErr:   s.lastReadErr,
	}

	if v, ok := s.cache.get(cacheKey{query: queryFine}); ok {
		snap.FinePerPenalty = new(big.Int).Set(v.(*big.Int))
	}
	snap.FinePerPenaltyMajor = units.FormatAmount(snap.FinePerPenalty, s.decimals)

	if v, ok := s.cache.get(cacheKey{query: queryThreshold}); ok {
		snap.BlockThreshold = v.(uint64)
	}
	if v, ok := s.cache.get(cacheKey{query: queryOwner}); ok {
		snap.Owner = v.(common.Address)
		snap.HasOwner = snap.Owner != (common.Address{})
	}
	if s.connected {
		if v, ok := s.cache.get(cacheKey{query: queryPenalties, arg: s.account}); ok {
			snap.MyPenalties = v.(uint64)
		}
	}
	if s.hasViewed {
		if v, ok := s.cache.get(cacheKey{query: queryPenalties, arg: s.viewed}); ok {
			snap.ViewedPenalties = v.(uint64)
		}
	}
	if subject, ok := snap.Subject(); ok {
		if v, ok := s.cache.get(cacheKey{query: queryBlocked, arg: subject}); ok {
			snap.IsBlocked = v.(bool)
		}
	}

	snap.Payable = units.TotalFine(snap.FinePerPenalty, snap.MyPenalties)
	snap.PayableMajor = units.FormatAmount(snap.Payable, s.decimals)
	return snap
}
