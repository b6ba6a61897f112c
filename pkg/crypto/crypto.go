// Package crypto provides the cryptographic engine for sentinelvault.
//
// This package implements AES-GCM authenticated encryption of entry field
// slots and Argon2id key derivation following OWASP recommendations. The
// vault store consumes it as an opaque engine: it hands over plaintext and
// key material and persists only the output.
//
// # Security Features
//
//   - AES-128/256-GCM authenticated encryption (key size per security tier)
//   - Argon2id key derivation (64MB memory, 3 iterations, 4 threads;
//     doubled iterations for high-security accounts)
//   - Cryptographically secure random key and nonce generation
//   - Secure memory wiping for sensitive data
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters following OWASP recommendations.
const (
	// Argon2Memory is the memory cost in KiB (64MB).
	Argon2Memory = 64 * 1024

	// Argon2Time is the number of iterations for standard accounts.
	Argon2Time = 3

	// Argon2TimeHigh is the number of iterations for high-security accounts.
	Argon2TimeHigh = 6

	// Argon2Threads is the degree of parallelism.
	Argon2Threads = 4

	// SaltLength is the length of derivation salts in bytes.
	SaltLength = 16

	// StandardKeyLength is the entry key length for standard entries (AES-128).
	StandardKeyLength = 16

	// SecureKeyLength is the entry key length for secure-tier entries and
	// data keys (AES-256).
	SecureKeyLength = 32

	// NonceLength is the length of GCM nonces in bytes (96 bits).
	NonceLength = 12
)

// Sentinel errors returned by engine operations.
var (
	// ErrMalformedKey indicates key material that is not valid hex or has
	// an unsupported length.
	ErrMalformedKey = errors.New("crypto: malformed key material")

	// ErrCiphertextTooShort indicates a stored field shorter than nonce + GCM tag.
	ErrCiphertextTooShort = errors.New("crypto: ciphertext too short")

	// ErrDecryptionFailed indicates decryption or authentication tag
	// verification failed.
	ErrDecryptionFailed = errors.New("crypto: decryption failed, authentication tag verification failed")
)

// Engine is the cryptographic engine. The zero value is ready to use.
type Engine struct{}

// NewEngine returns a ready engine.
func NewEngine() *Engine {
	return &Engine{}
}

// NewEntryKey generates fresh per-entry key material, sized by security
// tier: 32 bytes (AES-256) for secure entries, 16 bytes (AES-128) otherwise.
// The key is hex-encoded for TEXT column storage. A key is generated once
// at entry creation and never rotated.
func (e *Engine) NewEntryKey(secure bool) (string, error) {
	size := StandardKeyLength
	if secure {
		size = SecureKeyLength
	}
	key := make([]byte, size)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("crypto: failed to generate entry key: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// DataKey returns a user's wrapped master key material. If stored is
// non-empty it is returned as-is (fetch); otherwise fresh material is
// derived from the master secret with Argon2id and a random salt (derive).
// The result is salt and key hex-encoded, separated by ':'.
func (e *Engine) DataKey(stored string, masterSecret []byte, highSecurity bool) (string, error) {
	if stored != "" {
		return stored, nil
	}
	salt, err := NewSalt()
	if err != nil {
		return "", err
	}
	key := deriveKey(masterSecret, salt, highSecurity)
	defer SecureWipe(key)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// EncryptField encrypts one field slot under hex-encoded entry key material.
// The nonce is prepended to the ciphertext and the whole blob is
// base64-encoded for TEXT column storage.
func (e *Engine) EncryptField(entryKey, plaintext string) (string, error) {
	gcm, err := newGCM(entryKey)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, NonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("crypto: failed to generate nonce: %w", err)
	}
	blob := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// DecryptField reverses EncryptField, verifying the authentication tag.
func (e *Engine) DecryptField(entryKey, stored string) (string, error) {
	gcm, err := newGCM(entryKey)
	if err != nil {
		return "", err
	}
	blob, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", fmt.Errorf("crypto: stored field is not valid base64: %w", err)
	}
	if len(blob) < NonceLength+gcm.Overhead() {
		return "", ErrCiphertextTooShort
	}
	nonce, ciphertext := blob[:NonceLength], blob[NonceLength:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// HashPassword derives an Argon2id password hash for account verification.
// The returned hash is hex-encoded; the vault store treats it as an opaque
// string.
func HashPassword(password string, salt []byte, highSecurity bool) string {
	key := deriveKey([]byte(password), salt, highSecurity)
	defer SecureWipe(key)
	return hex.EncodeToString(key)
}

// NewSalt generates a random derivation salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("crypto: failed to generate salt: %w", err)
	}
	return salt, nil
}

// SecureWipe overwrites a byte slice with zeros in a way that prevents
// compiler optimization from removing the operation.
func SecureWipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	// runtime.KeepAlive ensures the write operations are not optimized away
	// by the compiler since b is still "in use" after the loop.
	runtime.KeepAlive(b)
}

// deriveKey runs Argon2id with tier-dependent iterations.
func deriveKey(secret, salt []byte, highSecurity bool) []byte {
	iterations := uint32(Argon2Time)
	if highSecurity {
		iterations = Argon2TimeHigh
	}
	return argon2.IDKey(secret, salt, iterations, Argon2Memory, Argon2Threads, SecureKeyLength)
}

// newGCM decodes hex key material and builds the AEAD for it.
func newGCM(entryKey string) (cipher.AEAD, error) {
	key, err := hex.DecodeString(entryKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	if len(key) != StandardKeyLength && len(key) != SecureKeyLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedKey, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to create GCM: %w", err)
	}
	return gcm, nil
}
