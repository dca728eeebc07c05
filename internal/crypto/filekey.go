package crypto

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/scrypt"
)

const (
	// KeyFilePermission defines the file permissions for the key file.
	// 0600 means only the owner can read and write.
	KeyFilePermission = 0600

	// SaltSize is the size of the scrypt salt in bytes
	SaltSize = 32

	// Scrypt cost parameters. N=32768, r=8, p=1 provides strong
	// security while remaining practical for server-side use.
	ScryptN = 32768
	ScryptR = 8
	ScryptP = 1
)

// KeyManager defines the interface for provisioning encryption keys.
// The pipeline only consumes a key handle; key-management infrastructure
// beyond a local key file is out of scope.
type KeyManager interface {
	// GenerateKey generates a new cryptographically secure random key
	GenerateKey() ([]byte, error)

	// LoadKey loads a key from the specified file path
	LoadKey(path string) ([]byte, error)

	// SaveKey saves a key to the specified file path with secure permissions
	SaveKey(key []byte, path string) error

	// KeyExists checks if a key file exists at the specified path
	KeyExists(path string) bool
}

// FileKeyManager implements KeyManager using the filesystem.
type FileKeyManager struct {
	keySize int
}

// NewFileKeyManager creates a FileKeyManager with the default key size
// (32 bytes for AES-256).
func NewFileKeyManager() *FileKeyManager {
	return &FileKeyManager{keySize: KeySize}
}

// GenerateKey generates a new cryptographically secure random key
// using crypto/rand. The key is suitable for AES-256 encryption.
func (m *FileKeyManager) GenerateKey() ([]byte, error) {
	key := make([]byte, m.keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate random key: %w", err)
	}
	return key, nil
}

// SaveKey saves the key to a file with secure permissions (0600).
// The directory path will be created if it doesn't exist.
func (m *FileKeyManager) SaveKey(key []byte, path string) error {
	if len(key) != m.keySize {
		return fmt.Errorf("invalid key size: expected %d bytes, got %d bytes", m.keySize, len(key))
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}

	if err := os.WriteFile(path, key, KeyFilePermission); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to verify key file permissions: %w", err)
	}
	if info.Mode().Perm() != KeyFilePermission {
		return fmt.Errorf("key file has incorrect permissions: got %o, expected %o", info.Mode().Perm(), KeyFilePermission)
	}

	return nil
}

// LoadKey loads a key from a file, verifying that the file has secure
// permissions. Returns an error if the file doesn't exist, has
// permissions other than 0600, or contains a key of the wrong size.
func (m *FileKeyManager) LoadKey(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("key file does not exist: %s", path)
		}
		return nil, fmt.Errorf("failed to stat key file: %w", err)
	}

	perm := info.Mode().Perm()
	if perm != KeyFilePermission {
		return nil, fmt.Errorf(
			"key file has insecure permissions: %o (expected %o). "+
				"The key file must not be readable by group or others. "+
				"Fix with: chmod %o %s",
			perm, KeyFilePermission, KeyFilePermission, path,
		)
	}

	key, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	if len(key) != m.keySize {
		return nil, fmt.Errorf("invalid key size in file: expected %d bytes, got %d bytes", m.keySize, len(key))
	}

	return key, nil
}

// KeyExists checks if a key file exists at the specified path.
func (m *FileKeyManager) KeyExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// GenerateSalt generates a cryptographically secure random salt for
// passphrase-based key derivation.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate random salt: %w", err)
	}
	return salt, nil
}

// DeriveKey derives an AES-256 key from a passphrase and salt using
// scrypt. The derivation is deterministic: the same inputs always
// produce the same key, which allows a key handle to be re-derived when
// the key file is provisioned from an operator passphrase.
func DeriveKey(passphrase, salt []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("invalid salt size: expected %d bytes, got %d bytes", SaltSize, len(salt))
	}

	key, err := scrypt.Key(passphrase, salt, ScryptN, ScryptR, ScryptP, KeySize)
	if err != nil {
		return nil, fmt.Errorf("scrypt key derivation failed: %w", err)
	}

	return key, nil
}
