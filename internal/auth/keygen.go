package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	// KeyPrefixLen is the number of characters of the key used as the
	// database lookup prefix.
	KeyPrefixLen = 12

	keySecretBytes = 24
)

// GenerateKey creates a new API key of the form "sk_<random>".
// Returns the full key (shown to the caller exactly once) and its
// lookup prefix.
func GenerateKey() (key, prefix string, err error) {
	raw := make([]byte, keySecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generate key material: %w", err)
	}

	secret := base64.RawURLEncoding.EncodeToString(raw)
	key = "sk_" + secret
	return key, KeyPrefix(key), nil
}

// KeyPrefix returns the lookup prefix of a full API key.
func KeyPrefix(key string) string {
	if len(key) < KeyPrefixLen {
		return key
	}
	return key[:KeyPrefixLen]
}

// ValidKeyFormat reports whether the string looks like an API key.
// This is a cheap pre-check before the expensive argon2 verification.
func ValidKeyFormat(key string) bool {
	return strings.HasPrefix(key, "sk_") && len(key) > KeyPrefixLen
}
