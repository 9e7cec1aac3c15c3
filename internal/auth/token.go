package auth

import (
	"crypto/rand"
	"encoding/base64"
)

const tokenBytes = 32

// NewSessionToken returns a high-entropy opaque token. The value carries no
// user identity or timestamp; it is only meaningful as a sessions-table key.
func NewSessionToken() (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
