package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer produces transaction signing options for a signing wallet.
type Signer struct {
	wallet *Wallet
	ks     Keystore
}

// NewSigner creates a signer for the given wallet.
func NewSigner(w *Wallet, ks Keystore) *Signer {
	return &Signer{wallet: w, ks: ks}
}

// TransactOpts returns bind options that sign with the wallet key for
// chainID. Nonce, gas price and gas limit are left for the node to fill.
func (s *Signer) TransactOpts(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	key, err := s.privateKey()
	if err != nil {
		return nil, err
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("building transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

// Address returns the wallet's address.
func (s *Signer) Address() common.Address {
	return s.wallet.Account()
}

func (s *Signer) privateKey() (*ecdsa.PrivateKey, error) {
	if !s.wallet.CanSign() {
		return nil, fmt.Errorf("%q: %w", s.wallet.Name, ErrWatchOnly)
	}
	hexKey, err := s.ks.Retrieve(s.wallet.KeyRef)
	if err != nil {
		return nil, fmt.Errorf("retrieving key: %w", err)
	}
	key, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return key, nil
}
