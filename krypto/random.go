package krypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// RandomBytes returns n bytes from crypto/rand.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// NewURLToken returns n random bytes encoded as unpadded base64url.
func NewURLToken(n int) (string, error) {
	buf, err := RandomBytes(n)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Zeroize overwrites b in place.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
