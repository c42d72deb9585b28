// Package cryptox implements the field and file encryption used for
// PHI-bearing values: AES-256-GCM with a random nonce prepended to the
// ciphertext. The key is supplied once at process start from configuration.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/cognisync/cognisync-api/internal/domain"
)

const keySize = 32

type FieldCipher struct {
	aead cipher.AEAD
}

// NewFieldCipher builds a cipher around a 32-byte AES-256 key.
func NewFieldCipher(key []byte) (*FieldCipher, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", keySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &FieldCipher{aead: aead}, nil
}

// EncryptBytes seals data with a fresh nonce. Output layout: nonce || ciphertext.
func (c *FieldCipher) EncryptBytes(data []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, data, nil), nil
}

// DecryptBytes opens data produced by EncryptBytes. A wrong key or tampered
// ciphertext yields domain.ErrIntegrity, never partial plaintext.
func (c *FieldCipher) DecryptBytes(data []byte) ([]byte, error) {
	if len(data) < c.aead.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short: %w", domain.ErrIntegrity)
	}
	nonce, ciphertext := data[:c.aead.NonceSize()], data[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrIntegrity)
	}
	return plaintext, nil
}

// EncryptField encrypts a text field and returns it base64-encoded for
// storage in a text column.
func (c *FieldCipher) EncryptField(plaintext string) (string, error) {
	sealed, err := c.EncryptBytes([]byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptField reverses EncryptField.
func (c *FieldCipher) DecryptField(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, domain.ErrIntegrity)
	}
	plaintext, err := c.DecryptBytes(sealed)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// EncryptFile encrypts the file at path in place.
func (c *FieldCipher) EncryptFile(path string) error {
	plaintext, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	sealed, err := c.EncryptBytes(plaintext)
	if err != nil {
		return err
	}
	return os.WriteFile(path, sealed, 0o600)
}

// DecryptFile decrypts the file at path in place.
func (c *FieldCipher) DecryptFile(path string) error {
	sealed, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	plaintext, err := c.DecryptBytes(sealed)
	if err != nil {
		return err
	}
	return os.WriteFile(path, plaintext, 0o600)
}
