package wallet

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// Store persists the wallet list.
type Store interface {
	Load() ([]*Wallet, error)
	Save([]*Wallet) error
}

// memStore keeps wallets for the life of the process. Used by tests and by
// managers built without WithStore.
type memStore struct {
	wallets []*Wallet
}

func (s *memStore) Load() ([]*Wallet, error) { return s.wallets, nil }

func (s *memStore) Save(wallets []*Wallet) error {
	s.wallets = wallets
	return nil
}

// JSONStore keeps wallets in a file as {"wallets": [...]}, sorted by name.
// Saves replace the file atomically.
type JSONStore struct {
	path string
}

type walletFile struct {
	Wallets []*Wallet `json:"wallets"`
}

// NewJSONStore returns a store backed by path, usually wallets.json in the
// config directory.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Load returns no wallets, and no error, when the file does not exist yet.
func (s *JSONStore) Load() ([]*Wallet, error) {
	data, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("reading wallets: %w", err)
	}
	var f walletFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	return f.Wallets, nil
}

func (s *JSONStore) Save(wallets []*Wallet) error {
	sorted := slices.Clone(wallets)
	slices.SortFunc(sorted, func(a, b *Wallet) int { return cmp.Compare(a.Name, b.Name) })

	data, err := json.MarshalIndent(walletFile{Wallets: sorted}, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".wallets-*.json")
	if err != nil {
		return fmt.Errorf("writing wallets: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck
	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("writing wallets: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close() //nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
