package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"strings"
)

// sealedPrefix marks values produced by SecretBox.Seal so plaintext rows
// written before a key was configured stay readable.
const sealedPrefix = "enc:v1:"

var ErrInvalidKey = errors.New("encryption key must be base64-encoded 32 bytes (256 bits)")

// ParseEncryptionKey decodes a base64 AES-256 key.
func ParseEncryptionKey(keyBase64 string) ([]byte, error) {
	keyBytes, err := base64.StdEncoding.DecodeString(strings.TrimSpace(keyBase64))
	if err != nil || len(keyBytes) != 32 {
		return nil, ErrInvalidKey
	}
	return keyBytes, nil
}

// SecretBox seals short secrets with AES-256-GCM. A nil *SecretBox passes
// values through unchanged.
type SecretBox struct {
	aead cipher.AEAD
}

// NewSecretBox returns nil when keyBase64 is empty.
func NewSecretBox(keyBase64 string) (*SecretBox, error) {
	if strings.TrimSpace(keyBase64) == "" {
		return nil, nil
	}
	key, err := ParseEncryptionKey(keyBase64)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &SecretBox{aead: gcm}, nil
}

// Seal encrypts plaintext using AES-256-GCM
func (b *SecretBox) Seal(plaintext string) (string, error) {
	if b == nil || plaintext == "" {
		return plaintext, nil
	}

	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Open reverses Seal. Values without the sealed prefix are returned as is.
func (b *SecretBox) Open(value string) (string, error) {
	if !strings.HasPrefix(value, sealedPrefix) {
		return value, nil
	}
	if b == nil {
		return "", errors.New("sealed secret found but no encryption key is configured")
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil {
		return "", err
	}

	nonceSize := b.aead.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := b.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
