// Package crypto provides the integrity and encryption codec for the
// transmission pipeline: SHA-256 content hashing and AES-256-GCM
// authenticated encryption, plus file-based key handling.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/verdigris-botanica/egress/internal/types"
)

const (
	// KeySize is the size of encryption keys in bytes (256 bits for AES-256)
	KeySize = 32

	// NonceSize is the size of the AES-GCM nonce in bytes
	NonceSize = 12

	// Algorithm identifies the authenticated encryption construction
	// recorded in transmission metadata.
	Algorithm = "AES-256-GCM"
)

// EncryptedPackage holds the output of authenticated encryption. The
// GCM authentication tag is appended to Ciphertext; Nonce and Algorithm
// are the metadata a symmetric Decrypt needs to verify and recover the
// plaintext. The key is never part of the package.
type EncryptedPackage struct {
	Ciphertext []byte `json:"ciphertext"`
	Nonce      []byte `json:"nonce"`
	Algorithm  string `json:"algorithm"`
}

// HashPayload computes the SHA-256 digest of the payload and returns it
// hex-encoded. The digest is deterministic and content-addressed: it is
// computed over the exact bytes that are subsequently encrypted, so a
// later recomputation can attest content integrity.
func HashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// VerifyPayload recomputes the payload hash and compares it against the
// stored digest. A mismatch is a data-integrity failure and is reported
// as INTEGRITY_MISMATCH, never silently corrected.
func VerifyPayload(payload []byte, storedHash string) error {
	if actual := HashPayload(payload); actual != storedHash {
		return types.NewError(types.INTEGRITY_MISMATCH,
			fmt.Sprintf("content hash mismatch: stored %s, computed %s", storedHash, actual))
	}
	return nil
}

// Codec performs authenticated encryption and decryption with
// AES-256-GCM. GCM provides both confidentiality and integrity: any
// tampering with the ciphertext or tag causes decryption to fail closed.
type Codec struct{}

// NewCodec creates a Codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Encrypt encrypts plaintext under the given key handle using
// AES-256-GCM. Every invocation draws a fresh random nonce from the
// system CSPRNG; nonce reuse under the same key breaks both the
// confidentiality and authenticity guarantees of GCM, so the nonce is
// never derived from the payload or a counter shared across processes.
//
// Returns KEY_UNAVAILABLE if the key handle is missing or the wrong
// size; a default key is never substituted.
func (c *Codec) Encrypt(plaintext, key []byte) (*EncryptedPackage, error) {
	if len(key) == 0 {
		return nil, types.NewError(types.KEY_UNAVAILABLE, "encryption key handle is empty")
	}
	if len(key) != KeySize {
		return nil, types.NewError(types.KEY_UNAVAILABLE,
			fmt.Sprintf("invalid key size: expected %d bytes, got %d bytes", KeySize, len(key)))
	}
	if len(plaintext) == 0 {
		return nil, types.NewError(types.CRYPTO_ENCRYPT_FAILED, "plaintext cannot be empty")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, types.WrapError(types.CRYPTO_ENCRYPT_FAILED, "failed to create AES cipher", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, types.WrapError(types.CRYPTO_ENCRYPT_FAILED, "failed to create GCM", err)
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, types.WrapError(types.CRYPTO_ENCRYPT_FAILED, "failed to generate nonce", err)
	}

	// Seal appends the authentication tag to the ciphertext
	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	return &EncryptedPackage{
		Ciphertext: ciphertext,
		Nonce:      nonce,
		Algorithm:  Algorithm,
	}, nil
}

// Decrypt verifies and decrypts an encrypted package. It exists for
// verification and testing; the pipeline itself never decrypts outbound
// data. Wrong key, tampered ciphertext, and tampered tag all fail with
// the same generic error so callers cannot distinguish the cases.
func (c *Codec) Decrypt(pkg *EncryptedPackage, key []byte) ([]byte, error) {
	if pkg == nil {
		return nil, types.NewError(types.CRYPTO_DECRYPT_FAILED, "encrypted package is nil")
	}
	if len(key) == 0 {
		return nil, types.NewError(types.KEY_UNAVAILABLE, "decryption key handle is empty")
	}
	if len(key) != KeySize {
		return nil, types.NewError(types.KEY_UNAVAILABLE,
			fmt.Sprintf("invalid key size: expected %d bytes, got %d bytes", KeySize, len(key)))
	}
	if len(pkg.Nonce) != NonceSize {
		return nil, types.NewError(types.CRYPTO_DECRYPT_FAILED,
			fmt.Sprintf("invalid nonce size: expected %d bytes, got %d bytes", NonceSize, len(pkg.Nonce)))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, types.WrapError(types.CRYPTO_DECRYPT_FAILED, "failed to create AES cipher", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, types.WrapError(types.CRYPTO_DECRYPT_FAILED, "failed to create GCM", err)
	}

	plaintext, err := gcm.Open(nil, pkg.Nonce, pkg.Ciphertext, nil)
	if err != nil {
		// Intentionally generic: wrong key and tampered data are
		// indistinguishable to the caller.
		return nil, types.NewError(types.CRYPTO_DECRYPT_FAILED,
			"decryption failed: authentication verification failed or invalid key")
	}

	return plaintext, nil
}
