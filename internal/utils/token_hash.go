package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashTerminalSecret derives the storage digest for a terminal secret.
// Validation looks tokens up by this digest, never by the plaintext.
func HashTerminalSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
