package helpers

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateOpaqueToken returns n random bytes hex-encoded, for one-time email
// verification and password reset tokens. n should be at least 32.
func GenerateOpaqueToken(n int) (string, error) {
	if n < 32 {
		n = 32
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
