package wallet

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/99designs/keyring"
)

const keychainService = "w3penalty"

// Keystore keeps private keys out of wallets.json.
type Keystore interface {
	Store(name, hexKey string) (ref string, err error)
	Retrieve(ref string) (string, error)
	Delete(ref string) error
}

// KeychainStore wraps OS keychain access.
type KeychainStore struct {
	ring keyring.Keyring
}

// PasswordEnv supplies the file keyring password when no OS keychain is
// reachable. Without it the password is prompted for on the terminal.
const PasswordEnv = "W3PENALTY_KEYRING_PASSWORD"

// DefaultKeystore returns a keystore backed by the OS keychain, with the
// file backend under ~/.w3penalty/keys as the last resort.
func DefaultKeystore() *KeychainStore {
	return OpenKeystore("")
}

// OpenKeystore opens the OS keychain. fileDir, when set, places the file
// backend's encrypted entries there.
func OpenKeystore(fileDir string) *KeychainStore {
	if fileDir == "" {
		fileDir = "~/.w3penalty/keys"
	}
	cfg := keyring.Config{
		ServiceName:              keychainService,
		KeychainTrustApplication: true,
		FileDir:                  fileDir,
		FilePasswordFunc:         filePassword,
	}

	// On Linux without a GUI, fall back to file-based storage.
	if runtime.GOOS == "linux" {
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.FileBackend,
		}
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
		ring, _ = keyring.Open(cfg)
	}
	return &KeychainStore{ring: ring}
}

func filePassword(prompt string) (string, error) {
	if pw := os.Getenv(PasswordEnv); pw != "" {
		return pw, nil
	}
	return keyring.TerminalPrompt(prompt)
}

// lazyKeystore opens the real keystore on first use. Managers holding only
// watch-only wallets never open it.
type lazyKeystore struct {
	open func() Keystore
	once sync.Once
	ks   Keystore
}

func (l *lazyKeystore) get() Keystore {
	l.once.Do(func() { l.ks = l.open() })
	return l.ks
}

func (l *lazyKeystore) Store(name, hexKey string) (string, error) { return l.get().Store(name, hexKey) }
func (l *lazyKeystore) Retrieve(ref string) (string, error) { return l.get().Retrieve(ref) }
func (l *lazyKeystore) Delete(ref string) error { return l.get().Delete(ref) }

// NewKeychainStore wraps an already opened keyring.
func NewKeychainStore(ring keyring.Keyring) *KeychainStore {
	return &KeychainStore{ring: ring}
}

// Store saves a private key for a wallet name and returns a reference key.
func (k *KeychainStore) Store(name, hexKey string) (string, error) {
	if k.ring == nil {
		return "", fmt.Errorf("keystore not available")
	}
	ref := keychainService + "." + name
	err := k.ring.Set(keyring.Item{
		Key:   ref,
		Data:  []byte(hexKey),
		Label: "w3penalty wallet " + name,
	})
	if err != nil {
		return "", fmt.Errorf("keychain store: %w", err)
	}
	return ref, nil
}

// Retrieve fetches a private key by its reference.
func (k *KeychainStore) Retrieve(ref string) (string, error) {
	if k.ring == nil {
		return "", fmt.Errorf("keystore not available")
	}
	item, err := k.ring.Get(ref)
	if err != nil {
		return "", fmt.Errorf("keychain retrieve: %w", err)
	}
	return string(item.Data), nil
}

// Delete removes a stored key.
func (k *KeychainStore) Delete(ref string) error {
	if k.ring == nil {
		return nil
	}
	if err := k.ring.Remove(ref); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// InMemoryKeystore stores keys in memory (for tests).
type InMemoryKeystore struct {
	mu   sync.Mutex
	data map[string]string
}

// NewInMemoryKeystore creates an in-memory keystore.
func NewInMemoryKeystore() *InMemoryKeystore {
	return &InMemoryKeystore{data: make(map[string]string)}
}

func (k *InMemoryKeystore) Store(name, hexKey string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	ref := keychainService + "." + name
	k.data[ref] = hexKey
	return ref, nil
}

func (k *InMemoryKeystore) Retrieve(ref string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.data[ref]
	if !ok {
		return "", fmt.Errorf("key not found: %s", ref)
	}
	return v, nil
}

func (k *InMemoryKeystore) Delete(ref string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.data, ref)
	return nil
}
