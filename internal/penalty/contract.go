package penalty

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrReadOnly is returned by write methods when no transactor is configured,
// e.g. when the active wallet is watch-only.
var ErrReadOnly = errors.New("no signing wallet configured: contract is read-only")

// Backend is the node connection the binding needs. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// TransactorFunc returns the signing options used for every write call.
type TransactorFunc func(ctx context.Context) (*bind.TransactOpts, error)

// Contract is a typed binding of the penalty contract.
type Contract struct {
	address  common.Address
	abi      abi.ABI
	bound    *bind.BoundContract
	backend  Backend
	transact TransactorFunc
}

// Option configures a Contract.
type Option func(*Contract)

// WithTransactor enables write calls signed with the options fn returns.
func WithTransactor(fn TransactorFunc) Option {
	return func(c *Contract) {
		c.transact = fn
	}
}

// ParsedABI returns the parsed contract ABI.
func ParsedABI() (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(ABIJSON))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse penalty abi: %w", err)
	}
	return parsed, nil
}

// New binds the penalty contract at address.
func New(address common.Address, backend Backend, opts ...Option) (*Contract, error) {
	if backend == nil {
		return nil, fmt.Errorf("penalty contract: nil backend")
	}
	parsed, err := ParsedABI()
	if err != nil {
		return nil, err
	}
	c := &Contract{
		address: address,
		abi:     parsed,
		bound:   bind.NewBoundContract(address, parsed, backend, backend, backend),
		backend: backend,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Address returns the bound contract address.
func (c *Contract) Address() common.Address { return c.address }

// CanWrite reports whether write calls are possible.
func (c *Contract) CanWrite() bool { return c.transact != nil }

// --- reads ---

// FinePerPenalty returns the fine per penalty in minor units.
func (c *Contract) FinePerPenalty(ctx context.Context) (*big.Int, error) {
	out, err := c.call(ctx, MethodFinePerPenalty)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Penalties returns the penalty count recorded for who.
func (c *Contract) Penalties(ctx context.Context, who common.Address) (*big.Int, error) {
	out, err := c.call(ctx, MethodGetPenalties, who)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// IsBlocked reports whether who is currently blocked.
func (c *Contract) IsBlocked(ctx context.Context, who common.Address) (bool, error) {
	out, err := c.call(ctx, MethodIsBlocked, who)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// BlockThreshold returns the penalty count at which an address is blocked.
func (c *Contract) BlockThreshold(ctx context.Context) (*big.Int, error) {
	out, err := c.call(ctx, MethodBlockThreshold)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Owner returns the contract owner.
func (c *Contract) Owner(ctx context.Context) (common.Address, error) {
	out, err := c.call(ctx, MethodOwner)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (c *Contract) call(ctx context.Context, method string, args ...any) ([]any, error) {
	var out []any
	if err := c.bound.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: empty result", method)
	}
	return out, nil
}

// --- writes ---

// IssuePenalty records one penalty against who.
func (c *Contract) IssuePenalty(ctx context.Context, who common.Address) (common.Hash, error) {
	return c.send(ctx, nil, MethodIssuePenalty, who)
}

// PayFine pays value towards the caller's outstanding fines.
func (c *Contract) PayFine(ctx context.Context, value *big.Int) (common.Hash, error) {
	return c.send(ctx, value, MethodPayFine)
}

// ClearPenalties resets the penalty count of who. Owner only.
func (c *Contract) ClearPenalties(ctx context.Context, who common.Address) (common.Hash, error) {
	return c.send(ctx, nil, MethodClearPenalties, who)
}

// Withdraw moves collected fines to the owner. Owner only.
func (c *Contract) Withdraw(ctx context.Context) (common.Hash, error) {
	return c.send(ctx, nil, MethodWithdraw)
}

// SetBlockThreshold updates the block threshold. Owner only.
func (c *Contract) SetBlockThreshold(ctx context.Context, threshold *big.Int) (common.Hash, error) {
	return c.send(ctx, nil, MethodSetBlockThreshold, threshold)
}

// SetFineAmount updates the fine per penalty, in minor units. Owner only.
func (c *Contract) SetFineAmount(ctx context.Context, fine *big.Int) (common.Hash, error) {
	return c.send(ctx, nil, MethodSetFineAmount, fine)
}

func (c *Contract) send(ctx context.Context, value *big.Int, method string, args ...any) (common.Hash, error) {
	if c.transact == nil {
		return common.Hash{}, ErrReadOnly
	}
	base, err := c.transact(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("preparing %s: %w", method, err)
	}
	opts := *base
	opts.Context = ctx
	if value != nil {
		opts.Value = new(big.Int).Set(value)
	}

	tx, err := c.bound.Transact(&opts, method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%s: %w", method, err)
	}
	return tx.Hash(), nil
}

// --- receipts ---

// Receipt returns the receipt for hash, or nil (and no error) while the
// transaction is still pending.
func (c *Contract) Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	r, err := c.backend.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}
