// Package secrets mints the per-build credentials: the control token the
// agent authenticates status updates with, and the single-use manifest nonce.
// They guard different boundaries and must never be collapsed into one value.
package secrets

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

const tokenBytes = 24 // 192 bits, hex-encoded to 48 chars

// NewToken returns a new unguessable secret
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Equal compares two secrets in constant time
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
