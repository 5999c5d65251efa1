// Package crypto implements the value codec used for encryption-eligible
// columns: AES-256-GCM with a fresh random nonce per value, encoded as
// base64url(nonce || ciphertext).
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	// KeySize is the required key length in bytes (AES-256)
	KeySize = 32

	// NonceSize is the GCM nonce length in bytes (96 bits)
	NonceSize = 12
)

// DecryptFailedSentinel is substituted for a field whose ciphertext could not
// be decrypted. The NUL bytes keep it from colliding with legitimate plaintext;
// UI collaborators render it as a visibly-marked placeholder.
const DecryptFailedSentinel = "\x00[decryption-failed]\x00"

// Key is an opaque handle for a 256-bit symmetric key. The key is held in
// memory only; nothing in this package persists key material.
type Key struct {
	material []byte
}

// NewKey wraps raw key material, validating its length
func NewKey(material []byte) (*Key, error) {
	if len(material) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(material))
	}

	k := &Key{material: make([]byte, KeySize)}
	copy(k.material, material)

	return k, nil
}

// NewRandomKey generates a fresh random key
func NewRandomKey() (*Key, error) {
	material := make([]byte, KeySize)
	if _, err := rand.Read(material); err != nil {
		return nil, fmt.Errorf("failed to generate key material: %w", err)
	}

	return &Key{material: material}, nil
}

// KeyFromBase64 decodes a standard-base64 key string
func KeyFromBase64(encoded string) (*Key, error) {
	material, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode key: %w", err)
	}

	return NewKey(material)
}

// Base64 returns the key material as standard base64 (used by the CLI keygen
// command; callers decide whether and where to store it)
func (k *Key) Base64() string {
	return base64.StdEncoding.EncodeToString(k.material)
}

// DecryptionError indicates that a ciphertext could not be authenticated or
// decoded. It is distinct from generic errors so read paths can contain the
// failure to a per-field sentinel.
type DecryptionError struct {
	Reason string
	Cause  error
}

func (e *DecryptionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("decryption failed: %s: %v", e.Reason, e.Cause)
	}

	return "decryption failed: " + e.Reason
}

func (e *DecryptionError) Unwrap() error {
	return e.Cause
}

// Encrypt encrypts a plaintext string under the given key. Every call uses a
// fresh random nonce, so the same plaintext never produces the same output
// twice.
func Encrypt(plaintext string, key *Key) (string, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Wrong keys, truncated input, flipped bytes, and
// plaintext accidentally passed in all surface as *DecryptionError.
func Decrypt(encoded string, key *Key) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", &DecryptionError{Reason: "invalid encoding", Cause: err}
	}

	if len(raw) < NonceSize {
		return "", &DecryptionError{Reason: "input shorter than nonce"}
	}

	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	nonce, ciphertext := raw[:NonceSize], raw[NonceSize:]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", &DecryptionError{Reason: "authentication failed", Cause: err}
	}

	return string(plaintext), nil
}

func newAEAD(key *Key) (cipher.AEAD, error) {
	if key == nil {
		return nil, fmt.Errorf("nil encryption key")
	}

	block, err := aes.NewCipher(key.material)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}

	return aead, nil
}
