package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// Fingerprint returns a short, irreversible hash prefix of a credential
// for log correlation. Raw tokens must never be written to logs.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	return SHA256Hex(token)[:12]
}
