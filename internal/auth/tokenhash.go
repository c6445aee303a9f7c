package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword bcrypt-hashes a local-login password for the admin
// bootstrap path (§10.1: password login is a fallback until an
// external session provider is wired up).
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword reports whether password matches a stored bcrypt hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// apiKeyPrefixLen is how many characters of the raw key are kept
// visible as KeyPrefix for display after creation (spec.md §3).
const apiKeyPrefixLen = 8

// GenerateAPIKey returns a new raw API key token along with its
// display prefix and SHA-256 hex hash for storage (spec.md §4.B: token
// lookup uses SHA-256 of the raw token, never the raw token itself).
func GenerateAPIKey() (raw, prefix, hash string, err error) {
	b := make([]byte, 32)
	if _, err = rand.Read(b); err != nil {
		return "", "", "", fmt.Errorf("generate api key: %w", err)
	}
	raw = base64.RawURLEncoding.EncodeToString(b)
	hash = HashAPIKey(raw)
	prefix = raw
	if len(prefix) > apiKeyPrefixLen {
		prefix = prefix[:apiKeyPrefixLen]
	}
	return raw, prefix, hash, nil
}

// HashAPIKey returns the SHA-256 hex digest used as the key_hash
// lookup column — fast, deterministic, no salt (the token itself is
// the entropy source, not a user-chosen secret).
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
