package infra

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"

	"github.com/Paarth01/Focus-Mode/internal/domain"
)

const keySize = 32 // 256-bit SQLCipher key

const (
	keyringService = "focusmoded"
	keyringUser    = "session-log"
)

// KeyringKeyProvider implements domain.KeyProvider using the OS keyring.
// Preferred source: the key never touches disk.
type KeyringKeyProvider struct {
	service string
	user    string
}

// NewKeyringKeyProvider creates a provider backed by the desktop keyring.
func NewKeyringKeyProvider() *KeyringKeyProvider {
	return &KeyringKeyProvider{service: keyringService, user: keyringUser}
}

// GetKey reads the encryption key from the keyring.
func (p *KeyringKeyProvider) GetKey() ([]byte, error) {
	encoded, err := keyring.Get(p.service, p.user)
	if err != nil {
		return nil, fmt.Errorf("failed to read key from keyring: %w", err)
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode key: %w", err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("invalid key size: got %d, want %d", len(key), keySize)
	}
	return key, nil
}

// StoreKey writes the encryption key to the keyring.
func (p *KeyringKeyProvider) StoreKey(key []byte) error {
	if len(key) != keySize {
		return fmt.Errorf("invalid key size: got %d, want %d", len(key), keySize)
	}
	if err := keyring.Set(p.service, p.user, base64.StdEncoding.EncodeToString(key)); err != nil {
		return fmt.Errorf("failed to store key in keyring: %w", err)
	}
	return nil
}

// KeyExists checks if the keyring holds a key.
func (p *KeyringKeyProvider) KeyExists() bool {
	_, err := keyring.Get(p.service, p.user)
	return err == nil
}

// FileKeyProvider implements domain.KeyProvider using a local file.
// Fallback for sessions without a usable keyring (headless, no D-Bus).
type FileKeyProvider struct {
	keyPath string
}

// NewFileKeyProvider creates a FileKeyProvider at the given path.
func NewFileKeyProvider(keyPath string) *FileKeyProvider {
	return &FileKeyProvider{keyPath: keyPath}
}

// GetKey reads the encryption key from the key file.
func (p *FileKeyProvider) GetKey() ([]byte, error) {
	encoded, err := os.ReadFile(p.keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	key, err := base64.StdEncoding.DecodeString(string(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode key: %w", err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("invalid key size: got %d, want %d", len(key), keySize)
	}
	return key, nil
}

// StoreKey writes the encryption key to the key file with restricted permissions.
func (p *FileKeyProvider) StoreKey(key []byte) error {
	if len(key) != keySize {
		return fmt.Errorf("invalid key size: got %d, want %d", len(key), keySize)
	}
	if err := os.MkdirAll(filepath.Dir(p.keyPath), 0700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(key)
	if err := os.WriteFile(p.keyPath, []byte(encoded), 0600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}

// KeyExists checks if the key file exists.
func (p *FileKeyProvider) KeyExists() bool {
	_, err := os.Stat(p.keyPath)
	return err == nil
}

// GenerateKey creates a new random 256-bit encryption key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate random key: %w", err)
	}
	return key, nil
}

// EnsureKey returns the key from the first provider that has one. When none
// does, it generates a key and stores it in the first provider that accepts
// it, so the keyring wins when available and the file takes over otherwise.
func EnsureKey(providers ...domain.KeyProvider) ([]byte, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("no key providers configured")
	}

	for _, p := range providers {
		if p.KeyExists() {
			return p.GetKey()
		}
	}

	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, p := range providers {
		if err := p.StoreKey(key); err != nil {
			lastErr = err
			continue
		}
		return key, nil
	}
	return nil, fmt.Errorf("no key provider accepted the key: %w", lastErr)
}

// Ensure providers implement domain.KeyProvider.
var (
	_ domain.KeyProvider = (*KeyringKeyProvider)(nil)
	_ domain.KeyProvider = (*FileKeyProvider)(nil)
)
