package secret

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
)

// Prefix marks a sealed value.
const Prefix = "enc:v1:"

// keyInfo separates this key from any other key derived from the same secret.
const keyInfo = "wavebot credential store v1"

var (
	// ErrEmptySecret is returned by NewBox when the secret is empty.
	ErrEmptySecret = errors.New("storage secret must not be empty")

	// ErrNotSealed is returned by Open for values without Prefix.
	ErrNotSealed = errors.New("value is not sealed")

	// ErrDecrypt is returned when a sealed value cannot be opened, either
	// because the secret is wrong or the value was modified or moved.
	ErrDecrypt = errors.New("failed to decrypt sealed value")
)

// Box seals and opens values with a key derived from a secret.
// It is safe for concurrent use.
type Box struct {
	aead cipher.AEAD
}

// NewBox derives a key from secret and returns a Box using it.
func NewBox(secret string) (*Box, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha3.New256, []byte(secret), nil, []byte(keyInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	return &Box{aead: aead}, nil
}

// Seal encrypts plaintext bound to associated. Empty plaintext stays empty
// so that "not set" survives a round trip.
func (b *Box) Seal(plaintext, associated string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX, chacha20poly1305.NonceSizeX+len(plaintext)+chacha20poly1305.Overhead)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), []byte(associated))
	return Prefix + base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal with the same associated data.
func (b *Box) Open(value, associated string) (string, error) {
	if value == "" {
		return "", nil
	}
	if !IsSealed(value) {
		return "", ErrNotSealed
	}

	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(value, Prefix))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	if len(raw) < chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return "", fmt.Errorf("%w: value too short", ErrDecrypt)
	}

	nonce, ciphertext := raw[:chacha20poly1305.NonceSizeX], raw[chacha20poly1305.NonceSizeX:]
	plaintext, err := b.aead.Open(nil, nonce, ciphertext, []byte(associated))
	if err != nil {
		return "", ErrDecrypt
	}

	return string(plaintext), nil
}

// IsSealed reports whether value carries the sealed value prefix.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, Prefix)
}
