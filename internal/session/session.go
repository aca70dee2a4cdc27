// Package session keeps a wallet-backed view of one penalty contract in sync
// with the chain: it caches reads, submits writes one at a time and refreshes
// the affected reads once a write is mined.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/Mohsinsiddi/w3penalty/internal/units"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Action names, as recorded in TxState.Action and the metrics.
const (
	ActionIssuePenalty      = "issuePenalty"
	ActionPayFine           = "payFine"
	ActionClearPenalties    = "clearPenalties"
	ActionWithdraw          = "withdraw"
	ActionSetBlockThreshold = "setBlockThreshold"
	ActionSetFineAmount     = "setFineAmount"
)

const (
	DefaultPollInterval   = 2 * time.Second
	DefaultConfirmTimeout = 3 * time.Minute
)

// Contract is the read/write/receipt surface the session drives.
// *penalty.Contract satisfies it.
type Contract interface {
	FinePerPenalty(ctx context.Context) (*big.Int, error)
	Penalties(ctx context.Context, who common.Address) (*big.Int, error)
	IsBlocked(ctx context.Context, who common.Address) (bool, error)
	BlockThreshold(ctx context.Context) (*big.Int, error)
	Owner(ctx context.Context) (common.Address, error)

	IssuePenalty(ctx context.Context, who common.Address) (common.Hash, error)
	PayFine(ctx context.Context, value *big.Int) (common.Hash, error)
	ClearPenalties(ctx context.Context, who common.Address) (common.Hash, error)
	Withdraw(ctx context.Context) (common.Hash, error)
	SetBlockThreshold(ctx context.Context, threshold *big.Int) (common.Hash, error)
	SetFineAmount(ctx context.Context, fine *big.Int) (common.Hash, error)

	// Receipt returns nil, nil while the transaction is pending.
	Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Session is safe for concurrent use.
type Session struct {
	contract       Contract
	log            *zap.Logger
	metrics        *Metrics
	pollInterval   time.Duration
	confirmTimeout time.Duration
	decimals       int

	mu          sync.Mutex
	account     common.Address
	connected   bool
	viewed      common.Address
	hasViewed   bool
	cache       *readCache
	tx          TxState
	lastReadErr error

	changes chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures a Session.
type Option func(*Session)

// WithAccount sets the connected account.
func WithAccount(addr common.Address) Option {
	return func(s *Session) {
		s.account = addr
		s.connected = true
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

func WithPollInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

func WithConfirmTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.confirmTimeout = d
		}
	}
}

// WithDecimals sets the currency precision used for amounts. Default 18.
func WithDecimals(n int) Option {
	return func(s *Session) {
		if n >= 0 {
			s.decimals = n
		}
	}
}

// New creates a session over contract. Nothing is read until Refresh.
func New(contract Contract, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		contract:       contract,
		log:            zap.NewNop(),
		pollInterval:   DefaultPollInterval,
		confirmTimeout: DefaultConfirmTimeout,
		decimals:       units.Decimals,
		cache:          newReadCache(),
		changes:        make(chan struct{}, 1),
		ctx:            ctx,
		cancel:         cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Tx returns the status of the most recent write.
func (s *Session) Tx() TxState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx
}

// Account returns the connected address, if any.
func (s *Session) Account() (common.Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account, s.connected
}

// Changes signals after any state change. Signals coalesce: a reader that
// falls behind sees one pending signal, not one per change.
func (s *Session) Changes() <-chan struct{} { return s.changes }

// Wait blocks until every submitted transaction has settled.
func (s *Session) Wait() { s.wg.Wait() }

// Close stops receipt polling and waits for the pollers to exit.
func (s *Session) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Session) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

// Refresh refetches every read query.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	keys := s.allKeysLocked()
	s.cache.invalidate(keys...)
	s.mu.Unlock()
	return s.refresh(ctx, keys)
}

// View selects who as the viewed address and refetches its queries.
func (s *Session) View(ctx context.Context, who string) error {
	addr, err := ParseAddress("address", who)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.viewed = addr
	s.hasViewed = true
	keys := []cacheKey{
		{query: queryPenalties, arg: addr},
		{query: queryBlocked, arg: addr},
	}
	s.cache.invalidate(keys...)
	s.mu.Unlock()
	s.notify()

	return s.refresh(ctx, keys)
}

// allKeysLocked lists every query the current account and viewed address
// make relevant. Caller holds s.mu.
func (s *Session) allKeysLocked() []cacheKey {
	keys := []cacheKey{
		{query: queryFine},
		{query: queryThreshold},
		{query: queryOwner},
	}
	if s.connected {
		keys = append(keys, cacheKey{query: queryPenalties, arg: s.account})
	}
	if s.hasViewed {
		keys = append(keys, cacheKey{query: queryPenalties, arg: s.viewed})
	}
	if k, ok := s.keyForLocked(queryBlocked); ok {
		keys = append(keys, k)
	}
	return dedupe(keys)
}

// keyForLocked resolves q against the current account and viewed address.
// Caller holds s.mu.
func (s *Session) keyForLocked(q query) (cacheKey, bool) {
	switch q {
	case queryBlocked:
		if s.hasViewed {
			return cacheKey{query: q, arg: s.viewed}, true
		}
		if s.connected {
			return cacheKey{query: q, arg: s.account}, true
		}
		return cacheKey{}, false
	case queryPenalties:
		return cacheKey{}, false
	default:
		return cacheKey{query: q}, true
	}
}

// ensure fetches keys that are missing or stale. A result dropped because
// the key was invalidated mid-read is fetched once more.
func (s *Session) ensure(ctx context.Context, keys ...cacheKey) error {
	for range 2 {
		s.mu.Lock()
		var missing []cacheKey
		for _, k := range keys {
			if s.cache.needs(k) {
				missing = append(missing, k)
			}
		}
		s.mu.Unlock()
		if len(missing) == 0 {
			return nil
		}
		if err := s.refresh(ctx, missing); err != nil {
			return err
		}
	}
	return nil
}

// refresh fetches keys concurrently and commits the results together once
// every read has returned, so a snapshot never mixes two rounds. A failed
// read leaves its previous value in place; a read overtaken by a later
// invalidation is discarded. The first error is returned.
func (s *Session) refresh(ctx context.Context, keys []cacheKey) error {
	s.mu.Lock()
	gens := make([]uint64, len(keys))
	for i, k := range keys {
		gens[i] = s.cache.generation(k)
	}
	s.mu.Unlock()

	values := make([]any, len(keys))
	ok := make([]bool, len(keys))
	var g errgroup.Group
	for i, k := range keys {
		g.Go(func() error {
			v, err := s.fetch(ctx, k)
			s.metrics.incRead(k.query, err)
			if err != nil {
				s.log.Warn("read failed", zap.Stringer("query", k), zap.Error(err))
				return fmt.Errorf("read %s: %w", k, err)
			}
			values[i], ok[i] = v, true
			return nil
		})
	}
	err := g.Wait()

	now := time.Now()
	s.mu.Lock()
	for i, k := range keys {
		if !ok[i] {
			continue
		}
		if s.cache.put(k, values[i], now, gens[i]) {
			s.log.Debug("read", zap.Stringer("query", k), zap.Any("value", values[i]))
		} else {
			s.log.Debug("read superseded", zap.Stringer("query", k))
		}
	}
	s.lastReadErr = err
	s.mu.Unlock()
	s.notify()
	return err
}

func (s *Session) fetch(ctx context.Context, k cacheKey) (any, error) {
	switch k.query {
	case queryFine:
		return s.contract.FinePerPenalty(ctx)
	case queryPenalties:
		v, err := s.contract.Penalties(ctx, k.arg)
		if err != nil {
			return nil, err
		}
		return toCount(v)
	case queryBlocked:
		return s.contract.IsBlocked(ctx, k.arg)
	case queryThreshold:
		v, err := s.contract.BlockThreshold(ctx)
		if err != nil {
			return nil, err
		}
		return toCount(v)
	case queryOwner:
		return s.contract.Owner(ctx)
	}
	return nil, fmt.Errorf("unknown query %q", k.query)
}

func toCount(v *big.Int) (uint64, error) {
	if v == nil {
		return 0, nil
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("count %s does not fit in 64 bits", v)
	}
	return v.Uint64(), nil
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

// IssuePenalty adds a penalty to who.
func (s *Session) IssuePenalty(ctx context.Context, who string) (common.Hash, error) {
	addr, err := ParseAddress("address", who)
	if err != nil {
		return common.Hash{}, err
	}
	return s.submit(ctx, ActionIssuePenalty, []query{queryBlocked}, func(ctx context.Context) (common.Hash, error) {
		return s.contract.IssuePenalty(ctx, addr)
	})
}

// ClearPenalties resets the penalty count of who.
func (s *Session) ClearPenalties(ctx context.Context, who string) (common.Hash, error) {
	addr, err := ParseAddress("address", who)
	if err != nil {
		return common.Hash{}, err
	}
	return s.submit(ctx, ActionClearPenalties, []query{queryBlocked}, func(ctx context.Context) (common.Hash, error) {
		return s.contract.ClearPenalties(ctx, addr)
	})
}

// PayMyFine pays finePerPenalty × myPenalties for the connected account.
// With nothing owed, or no account connected, it does nothing and returns a
// zero hash.
func (s *Session) PayMyFine(ctx context.Context) (common.Hash, error) {
	s.mu.Lock()
	account, connected := s.account, s.connected
	s.mu.Unlock()
	if !connected {
		s.log.Debug("pay skipped: no account connected")
		return common.Hash{}, nil
	}

	fineKey := cacheKey{query: queryFine}
	countKey := cacheKey{query: queryPenalties, arg: account}
	if err := s.ensure(ctx, fineKey, countKey); err != nil {
		return common.Hash{}, err
	}

	s.mu.Lock()
	var fine *big.Int
	var count uint64
	if v, ok := s.cache.get(fineKey); ok {
		fine = v.(*big.Int)
	}
	if v, ok := s.cache.get(countKey); ok {
		count = v.(uint64)
	}
	total := units.TotalFine(fine, count)
	s.mu.Unlock()

	if total.Sign() == 0 {
		s.log.Debug("pay skipped: nothing owed")
		return common.Hash{}, nil
	}
	return s.submit(ctx, ActionPayFine, []query{queryBlocked}, func(ctx context.Context) (common.Hash, error) {
		return s.contract.PayFine(ctx, total)
	})
}

// Withdraw moves collected fines to the owner.
func (s *Session) Withdraw(ctx context.Context) (common.Hash, error) {
	return s.submit(ctx, ActionWithdraw, nil, s.contract.Withdraw)
}

// SetBlockThreshold sets the penalty count at which addresses are blocked.
func (s *Session) SetBlockThreshold(ctx context.Context, count string) (common.Hash, error) {
	v, err := ParseCount("threshold", count)
	if err != nil {
		return common.Hash{}, err
	}
	return s.submit(ctx, ActionSetBlockThreshold, []query{queryThreshold, queryBlocked}, func(ctx context.Context) (common.Hash, error) {
		return s.contract.SetBlockThreshold(ctx, v)
	})
}

// SetFineAmount sets the fine per penalty from a major-unit decimal string.
// Empty input is skipped.
func (s *Session) SetFineAmount(ctx context.Context, amount string) (common.Hash, error) {
	v, ok, err := units.ParseAmount(amount, s.decimals)
	if err != nil {
		return common.Hash{}, err
	}
	if !ok {
		return common.Hash{}, nil
	}
	return s.submit(ctx, ActionSetFineAmount, []query{queryFine}, func(ctx context.Context) (common.Hash, error) {
		return s.contract.SetFineAmount(ctx, v)
	})
}

// submit runs the write protocol: submitting, then confirming keyed by the
// returned hash, or failed with a SubmissionError. extra lists the queries the
// action changes beyond the penalty counts.
func (s *Session) submit(ctx context.Context, action string, extra []query, send func(context.Context) (common.Hash, error)) (common.Hash, error) {
	s.mu.Lock()
	if s.tx.Busy() {
		s.mu.Unlock()
		return common.Hash{}, ErrBusy
	}
	s.tx = TxState{Status: StatusSubmitting, Action: action}
	s.mu.Unlock()
	s.notify()

	s.log.Info("submitting", zap.String("action", action))
	hash, err := send(ctx)
	if err != nil {
		serr := &SubmissionError{Action: action, Err: err}
		s.mu.Lock()
		s.tx = TxState{Status: StatusFailed, Action: action, Err: serr}
		s.mu.Unlock()
		s.metrics.incWrite(action, StatusFailed)
		s.log.Error("submission rejected", zap.String("action", action), zap.Error(err))
		s.notify()
		return common.Hash{}, serr
	}

	s.mu.Lock()
	s.tx = TxState{Status: StatusConfirming, Action: action, Hash: hash}
	s.wg.Add(1)
	s.mu.Unlock()
	s.metrics.addPending(1)
	s.log.Info("submitted", zap.String("action", action), zap.Stringer("hash", hash))
	s.notify()

	go s.watch(action, hash, extra)
	return hash, nil
}

// ---------------------------------------------------------------------------
// Confirmation
// ---------------------------------------------------------------------------

// watch polls for the receipt of hash until it is mined, the confirm timeout
// passes, or the session is closed.
func (s *Session) watch(action string, hash common.Hash, extra []query) {
	defer s.wg.Done()
	defer s.metrics.addPending(-1)

	ctx, cancel := context.WithTimeout(s.ctx, s.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.contract.Receipt(ctx, hash)
		switch {
		case err != nil && ctx.Err() == nil:
			s.fail(action, hash, fmt.Errorf("fetch receipt: %w", err))
			return
		case receipt != nil && receipt.Status != types.ReceiptStatusSuccessful:
			s.fail(action, hash, ErrReverted)
			return
		case receipt != nil:
			s.confirm(action, hash, receipt, extra)
			return
		}

		select {
		case <-ctx.Done():
			if s.ctx.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				s.fail(action, hash, ErrConfirmTimeout)
			}
			return
		case <-ticker.C:
		}
	}
}

func (s *Session) fail(action string, hash common.Hash, err error) {
	s.mu.Lock()
	s.tx = TxState{Status: StatusFailed, Action: action, Hash: hash, Err: err}
	s.mu.Unlock()
	s.metrics.incWrite(action, StatusFailed)
	s.log.Error("transaction failed", zap.String("action", action), zap.Stringer("hash", hash), zap.Error(err))
	s.notify()
}

// confirm marks the write confirmed, then refetches both penalty counts once
// along with the queries in extra.
func (s *Session) confirm(action string, hash common.Hash, receipt *types.Receipt, extra []query) {
	s.mu.Lock()
	s.tx = TxState{Status: StatusConfirmed, Action: action, Hash: hash}
	var keys []cacheKey
	if s.connected {
		keys = append(keys, cacheKey{query: queryPenalties, arg: s.account})
	}
	if s.hasViewed {
		keys = append(keys, cacheKey{query: queryPenalties, arg: s.viewed})
	}
	for _, q := range extra {
		if k, ok := s.keyForLocked(q); ok {
			keys = append(keys, k)
		}
	}
	keys = dedupe(keys)
	s.cache.invalidate(keys...)
	s.mu.Unlock()

	s.metrics.incWrite(action, StatusConfirmed)
	s.log.Info("transaction confirmed",
		zap.String("action", action),
		zap.Stringer("hash", hash),
		zap.Uint64("gas_used", receipt.GasUsed),
	)
	s.notify()

	if len(keys) == 0 {
		return
	}
	// Read errors are recorded in the snapshot; they do not fail the write.
	_ = s.refresh(s.ctx, keys)
}
