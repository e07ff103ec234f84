package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
)

const (
	// DefaultTokenBytes matches the 24 random bytes express-session's uid-safe
	// default draws per session id.
	DefaultTokenBytes = 24
	// DefaultSecretBytes is the size of generated signing secrets.
	DefaultSecretBytes = 32
	minSecretBytes     = 24
)

// RandomToken returns n bytes from crypto/rand as unpadded base64url.
func RandomToken(n int) (string, error) {
	if n <= 0 {
		n = DefaultTokenBytes
	}
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	// base64url, no padding; the alphabet never contains '.'
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// NewSecret returns a random signing secret encoded as unpadded base64url.
func NewSecret(n int) (string, error) {
	if n < minSecretBytes {
		return "", errors.New("secret must be at least 24 bytes")
	}
	return RandomToken(n)
}

// Fingerprint returns a short, non-reversible tag for a session key so logs
// and audit events can correlate records without exposing the key itself.
func Fingerprint(key string) string {
	if key == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:6])
}
