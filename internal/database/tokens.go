package database

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// generateSecret produces a 32-byte random secret. The raw hex value is
// handed to the user exactly once; only its SHA-256 digest is persisted.
func generateSecret() (raw string, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate secret: %w", err)
	}

	raw = hex.EncodeToString(buf)
	return raw, hashSecret(raw), nil
}

// hashSecret returns the hex-encoded SHA-256 digest of a raw secret
func hashSecret(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
