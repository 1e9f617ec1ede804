package krypto

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltLengthBytes is the enforced PBKDF2 salt length.
	SaltLengthBytes = 16
	// MinIterations is the lowest PBKDF2 iteration count accepted.
	MinIterations = 100_000
	// DefaultIterations is the count used when provisioning capsules.
	DefaultIterations = 200_000
)

var (
	ErrInvalidSalt      = errors.New("invalid salt length")
	ErrIterationsTooLow = errors.New("pbkdf2 iteration count too low")
)

// DeriveKeyPBKDF2 derives a 32-byte key from password and salt with
// PBKDF2-HMAC-SHA256. It is deliberately slow; callers on a request path
// should not run it inline.
func DeriveKeyPBKDF2(password, salt []byte, iterations int) ([]byte, error) {
	if len(salt) != SaltLengthBytes {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidSalt, len(salt), SaltLengthBytes)
	}
	if iterations < MinIterations {
		return nil, fmt.Errorf("%w: %d", ErrIterationsTooLow, iterations)
	}
	return pbkdf2.Key(password, salt, iterations, KeySize, sha256.New), nil
}

// NewRandomSalt returns a fresh SaltLengthBytes salt.
func NewRandomSalt() ([]byte, error) {
	salt, err := RandomBytes(SaltLengthBytes)
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}
