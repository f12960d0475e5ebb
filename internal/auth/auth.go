// internal/auth/auth.go
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// 令牌错误
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

// DevSecret is the fixed signing key used in debug mode when no secret is
// configured, so tokens survive restarts during development.
const DevSecret = "dev_auth_key_for_testing_purposes_only_"

// TokenConfig holds the configuration for token generation
type TokenConfig struct {
	Secret     []byte
	Expiration time.Duration
}

// Token is a signed account token.
type Token struct {
	AccountID string `json:"account_id"`
	ExpiresAt int64  `json:"expires_at"`
	IssuedAt  int64  `json:"issued_at"`
}

// NewTokenConfig derives a 32-byte signing key from secret. An empty secret
// gets a random key, which invalidates tokens on restart.
func NewTokenConfig(secret string, expiration time.Duration) (*TokenConfig, error) {
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	if secret == "" {
		key, err := GenerateSecureKey(32)
		if err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
		return &TokenConfig{Secret: key, Expiration: expiration}, nil
	}
	sum := sha256.Sum256([]byte(secret))
	return &TokenConfig{Secret: sum[:], Expiration: expiration}, nil
}

// GenerateToken signs a token for accountID.
func GenerateToken(accountID string, config *TokenConfig) (string, error) {
	if len(config.Secret) == 0 {
		return "", fmt.Errorf("secret key is required")
	}
	if accountID == "" || strings.Contains(accountID, "|") {
		return "", fmt.Errorf("invalid account id")
	}

	now := time.Now()
	payload := fmt.Sprintf("%s|%d|%d", accountID, now.Add(config.Expiration).Unix(), now.Unix())

	return base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." +
		base64.RawURLEncoding.EncodeToString(sign(config.Secret, []byte(payload))), nil
}

func sign(secret, payload []byte) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write(payload)
	return h.Sum(nil)
}

// ParseToken verifies the signature and expiry of tokenString.
func ParseToken(tokenString string, config *TokenConfig) (*Token, error) {
	if len(config.Secret) == 0 {
		return nil, fmt.Errorf("secret key is required")
	}

	encodedPayload, encodedSignature, ok := strings.Cut(tokenString, ".")
	if !ok {
		return nil, fmt.Errorf("%w: format", ErrInvalidToken)
	}
	payload, err := base64.RawURLEncoding.DecodeString(encodedPayload)
	if err != nil {
		return nil, fmt.Errorf("%w: payload", ErrInvalidToken)
	}
	signature, err := base64.RawURLEncoding.DecodeString(encodedSignature)
	if err != nil {
		return nil, fmt.Errorf("%w: signature", ErrInvalidToken)
	}
	if !hmac.Equal(signature, sign(config.Secret, payload)) {
		return nil, fmt.Errorf("%w: signature", ErrInvalidToken)
	}

	parts := strings.Split(string(payload), "|")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: payload format", ErrInvalidToken)
	}
	expiresAt, err1 := strconv.ParseInt(parts[1], 10, 64)
	issuedAt, err2 := strconv.ParseInt(parts[2], 10, 64)
	if err1 != nil || err2 != nil {
		return nil, fmt.Errorf("%w: timestamps", ErrInvalidToken)
	}
	if time.Now().Unix() > expiresAt {
		return nil, ErrTokenExpired
	}

	return &Token{AccountID: parts[0], ExpiresAt: expiresAt, IssuedAt: issuedAt}, nil
}

// GenerateSecureKey generates a secure random key for token signing
func GenerateSecureKey(length int) ([]byte, error) {
	if length <= 0 {
		length = 32
	}
	key := make([]byte, length)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}
