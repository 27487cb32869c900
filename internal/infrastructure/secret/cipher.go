// Package secret encrypts tenant credentials stored in the database.
package secret

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Errors returned by the cipher
var (
	ErrInvalidKey          = errors.New("secret: key must be 32 bytes, hex encoded")
	ErrMalformedCipherText = errors.New("secret: malformed ciphertext")
)

// Cipher seals short secrets with XChaCha20-Poly1305.
// Sealed values are base64 (nonce || ciphertext) so they fit a text column.
type Cipher struct {
	key []byte
}

// NewCipher creates a cipher from a 64-character hex key
func NewCipher(hexKey string) (*Cipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil || len(key) != chacha20poly1305.KeySize {
		return nil, ErrInvalidKey
	}
	return &Cipher{key: key}, nil
}

// Seal encrypts plaintext. additionalData binds the value to its owner, e.g.
// the tenant ID, so a sealed value cannot be moved to another row.
func (c *Cipher) Seal(plaintext, additionalData string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("secret: %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("secret: failed to generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), []byte(additionalData))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal with the same additional data
func (c *Cipher) Open(encoded, additionalData string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrMalformedCipherText
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("secret: %w", err)
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return "", ErrMalformedCipherText
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(additionalData))
	if err != nil {
		return "", fmt.Errorf("secret: decryption failed: %w", err)
	}
	return string(plaintext), nil
}

// GenerateKey returns a new random hex-encoded key
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}
