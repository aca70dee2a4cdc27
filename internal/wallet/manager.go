package wallet

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet types.
const (
	TypeWatchOnly = "watch-only"
	TypeSigning   = "signing"
)

// Errors.
var (
	ErrWalletNotFound = errors.New("wallet not found")
	ErrWalletExists   = errors.New("wallet already exists")
	ErrInvalidKey     = errors.New("invalid private key")
	ErrInvalidAddress = errors.New("invalid address")
	ErrWatchOnly      = errors.New("wallet is watch-only and cannot sign")
)

// Wallet holds metadata for a single wallet.
type Wallet struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Type      string `json:"type"`
	KeyRef    string `json:"key_ref,omitempty"` // keychain reference for signing wallets
	IsDefault bool   `json:"is_default"`
	CreatedAt string `json:"created_at"`
}

// CanSign reports whether the wallet holds a private key.
func (w *Wallet) CanSign() bool { return w.Type == TypeSigning }

// Account returns the wallet address.
func (w *Wallet) Account() common.Address { return common.HexToAddress(w.Address) }

// Manager handles wallet CRUD.
type Manager struct {
	store   Store
	keys    Keystore
	wallets map[string]*Wallet
	loaded  bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithInMemoryStore uses an in-memory store (useful for tests).
func WithInMemoryStore() Option {
	return func(m *Manager) {
		m.store = &memStore{}
	}
}

// WithStore sets a custom store.
func WithStore(s Store) Option {
	return func(m *Manager) {
		m.store = s
	}
}

// WithKeyDir keeps keys in the OS keychain, opened on first use, with the
// file backend under dir.
func WithKeyDir(dir string) Option {
	return func(m *Manager) {
		m.keys = &lazyKeystore{open: func() Keystore { return OpenKeystore(dir) }}
	}
}

// WithKeystore sets where private keys are kept. Default: the OS keychain.
func WithKeystore(ks Keystore) Option {
	return func(m *Manager) {
		m.keys = ks
	}
}

// NewManager creates a new wallet manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		wallets: make(map[string]*Wallet),
		store:   &memStore{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.keys == nil {
		m.keys = &lazyKeystore{open: func() Keystore { return DefaultKeystore() }}
	}
	return m
}

// Keystore returns the keystore holding signing keys.
func (m *Manager) Keystore() Keystore { return m.keys }

// AddWatchOnly registers an address without a key. Sessions opened with it
// can read but not write.
func (m *Manager) AddWatchOnly(name, address string) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return m.add(&Wallet{
		Name:    name,
		Address: common.HexToAddress(address).Hex(),
		Type:    TypeWatchOnly,
	})
}

// AddWithKey derives an EVM address from a hex private key and stores the
// wallet. The key itself goes to the keystore.
func (m *Manager) AddWithKey(name, hexKey string) error {
	if err := m.load(); err != nil {
		return err
	}
	if _, exists := m.wallets[name]; exists {
		return ErrWalletExists
	}

	hexKey = normaliseHexKey(hexKey)
	privKey, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return m.addSigning(name, hexKey, crypto.PubkeyToAddress(privKey.PublicKey))
}

// Generate creates a fresh key pair and stores it as a signing wallet.
func (m *Manager) Generate(name string) (*Wallet, error) {
	if err := m.load(); err != nil {
		return nil, err
	}
	if _, exists := m.wallets[name]; exists {
		return nil, ErrWalletExists
	}
	privKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	hexKey := strings.TrimPrefix(hexutil.Encode(crypto.FromECDSA(privKey)), "0x")
	if err := m.addSigning(name, hexKey, crypto.PubkeyToAddress(privKey.PublicKey)); err != nil {
		return nil, err
	}
	return m.wallets[name], nil
}

func (m *Manager) addSigning(name, hexKey string, addr common.Address) error {
	ref, err := m.keys.Store(name, hexKey)
	if err != nil {
		return fmt.Errorf("storing key: %w", err)
	}
	return m.add(&Wallet{
		Name:    name,
		Address: addr.Hex(),
		Type:    TypeSigning,
		KeyRef:  ref,
	})
}

func (m *Manager) add(w *Wallet) error {
	if err := m.load(); err != nil {
		return err
	}
	if _, exists := m.wallets[w.Name]; exists {
		return ErrWalletExists
	}
	if w.CreatedAt == "" {
		w.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	m.wallets[w.Name] = w
	return m.persist()
}

// Get returns a wallet by name.
func (m *Manager) Get(name string) (*Wallet, error) {
	if err := m.load(); err != nil {
		return nil, err
	}
	w, ok := m.wallets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrWalletNotFound, name)
	}
	return w, nil
}

// Remove deletes a wallet by name, along with its key.
func (m *Manager) Remove(name string) error {
	if err := m.load(); err != nil {
		return err
	}
	w, ok := m.wallets[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrWalletNotFound, name)
	}
	if w.KeyRef != "" {
		if err := m.keys.Delete(w.KeyRef); err != nil {
			return fmt.Errorf("deleting key: %w", err)
		}
	}
	delete(m.wallets, name)
	return m.persist()
}

// List returns all wallets sorted by name.
func (m *Manager) List() []*Wallet {
	m.load() //nolint:errcheck
	out := make([]*Wallet, 0, len(m.wallets))
	for _, w := range m.wallets {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SetDefault marks a wallet as the default.
func (m *Manager) SetDefault(name string) error {
	if err := m.load(); err != nil {
		return err
	}
	if _, ok := m.wallets[name]; !ok {
		return fmt.Errorf("%w: %q", ErrWalletNotFound, name)
	}
	for _, w := range m.wallets {
		w.IsDefault = w.Name == name
	}
	return m.persist()
}

// Default returns the default wallet, or nil if none.
func (m *Manager) Default() *Wallet {
	m.load() //nolint:errcheck
	for _, w := range m.wallets {
		if w.IsDefault {
			return w
		}
	}
	// Fallback: the only wallet is the default.
	if len(m.wallets) == 1 {
		for _, w := range m.wallets {
			return w
		}
	}
	return nil
}

// Resolve returns the named wallet, or the default when name is empty.
func (m *Manager) Resolve(name string) (*Wallet, error) {
	if name != "" {
		return m.Get(name)
	}
	if w := m.Default(); w != nil {
		return w, nil
	}
	return nil, fmt.Errorf("%w: no default wallet (add one with `w3penalty wallet add`)", ErrWalletNotFound)
}

// Signer returns a signer for the named wallet.
func (m *Manager) Signer(w *Wallet) (*Signer, error) {
	if !w.CanSign() {
		return nil, fmt.Errorf("%q: %w", w.Name, ErrWatchOnly)
	}
	return NewSigner(w, m.keys), nil
}

// --- internal ---

func (m *Manager) load() error {
	if m.loaded {
		return nil
	}
	wallets, err := m.store.Load()
	if err != nil {
		return err
	}
	for _, w := range wallets {
		m.wallets[w.Name] = w
	}
	m.loaded = true
	return nil
}

func (m *Manager) persist() error {
	return m.store.Save(m.List())
}

func normaliseHexKey(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}
