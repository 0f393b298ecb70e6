// Package vault encrypts and decrypts provider session blobs at rest.
// No other package holds the key or touches ciphertext.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrDecrypt covers every decryption failure: bad base64, truncated
// blob, wrong key, tampered ciphertext. Callers treat it uniformly as
// "not connected" and prompt for a reconnect.
var ErrDecrypt = errors.New("vault: decryption failed")

// ErrNoKey is returned when the vault key is not configured.
var ErrNoKey = errors.New("vault: no key configured")

// Encrypt seals plaintext with AES-256-GCM and returns
// base64(nonce|ciphertext).
func Encrypt(key []byte, plaintext string) (string, error) {
	if len(key) == 0 {
		return "", ErrNoKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := aesGCM.Seal(nil, nonce, []byte(plaintext), nil)
	final := append(nonce, ciphertext...)
	return base64.StdEncoding.EncodeToString(final), nil
}

// Decrypt reverses Encrypt. Any failure, including an authentication
// failure on tampered data, is reported as ErrDecrypt.
func Decrypt(key []byte, encoded string) (string, error) {
	if len(key) == 0 {
		return "", ErrNoKey
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonceSize := aesGCM.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	return string(plaintext), nil
}
