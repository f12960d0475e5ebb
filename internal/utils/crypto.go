// internal/utils/crypto.go
package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// sealedPrefix marks a value produced by SealSecret.
const sealedPrefix = "enc:"

func newGCM(key string) (cipher.AEAD, error) {
	sum := sha256.Sum256([]byte(key))
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt encrypts plaintext with AES-GCM under a key derived from key.
func Encrypt(plaintext, key string) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func Decrypt(ciphertext, key string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", err
	}
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	if len(raw) < gcm.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, body := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, body, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// SealSecret encrypts value for storage in a config file. With an empty
// key, or an empty value, the value is returned unchanged.
func SealSecret(value, key string) (string, error) {
	if key == "" || value == "" || strings.HasPrefix(value, sealedPrefix) {
		return value, nil
	}
	enc, err := Encrypt(value, key)
	if err != nil {
		return "", err
	}
	return sealedPrefix + enc, nil
}

// OpenSecret decrypts a value written by SealSecret. Plain values pass
// through.
func OpenSecret(value, key string) (string, error) {
	enc, ok := strings.CutPrefix(value, sealedPrefix)
	if !ok {
		return value, nil
	}
	if key == "" {
		return "", fmt.Errorf("encrypted secret found but no encryption key is configured")
	}
	return Decrypt(enc, key)
}
