package vault

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/Hussein-Mazeh/cybervision-unlock/krypto"
)

// tokenBytes is the entropy of a generated capsule token (256 bits).
const tokenBytes = 32

// Provision seals secret under password into a new capsule. A token is
// generated when secret.Token is empty; the returned Secret carries it.
// Every call draws a fresh salt and nonce.
func Provision(password string, secret Secret) (Capsule, Secret, error) {
	if secret.Token == "" {
		token, err := krypto.NewURLToken(tokenBytes)
		if err != nil {
			return Capsule{}, Secret{}, err
		}
		secret.Token = token
	}

	salt, err := krypto.NewRandomSalt()
	if err != nil {
		return Capsule{}, Secret{}, err
	}

	iterations, _ := iterationsFor(CurrentVersion)
	pw := []byte(password)
	defer krypto.Zeroize(pw)

	key, err := krypto.DeriveKeyPBKDF2(pw, salt, iterations)
	if err != nil {
		return Capsule{}, Secret{}, fmt.Errorf("derive key: %w", err)
	}
	defer krypto.Zeroize(key)

	plaintext, err := marshalSecret(secret)
	if err != nil {
		return Capsule{}, Secret{}, fmt.Errorf("encode payload: %w", err)
	}
	defer krypto.Zeroize(plaintext)

	nonce, ciphertext, err := krypto.EncryptAESGCM(key, plaintext, nil)
	if err != nil {
		return Capsule{}, Secret{}, fmt.Errorf("encrypt payload: %w", err)
	}

	return Capsule{
		Version:    CurrentVersion,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}, secret, nil
}

// Recover decodes capsule bytes and decrypts them with password.
func Recover(data []byte, password string) (Payload, error) {
	c, err := Decode(data)
	if err != nil {
		return Payload{}, err
	}
	key, err := DeriveKey(c, password)
	if err != nil {
		return Payload{}, err
	}
	defer krypto.Zeroize(key)

	return OpenWithKey(c, key)
}

// DeriveKey runs the capsule's KDF for password. This is the expensive step
// of Recover.
func DeriveKey(c Capsule, password string) ([]byte, error) {
	iterations, ok := iterationsFor(c.Version)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedCapsule, c.Version)
	}
	pw := []byte(password)
	defer krypto.Zeroize(pw)

	key, err := krypto.DeriveKeyPBKDF2(pw, c.Salt, iterations)
	if err != nil {
		if errors.Is(err, krypto.ErrInvalidSalt) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCapsule, err)
		}
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// OpenWithKey decrypts c with an already derived key. A failed tag check
// yields ErrDecryptionFailed and no plaintext.
func OpenWithKey(c Capsule, key []byte) (Payload, error) {
	plaintext, err := krypto.DecryptAESGCM(key, c.Nonce, c.Ciphertext, nil)
	if err != nil {
		return Payload{}, ErrDecryptionFailed
	}
	defer krypto.Zeroize(plaintext)

	if !utf8.Valid(plaintext) {
		return Payload{}, ErrDecryptionFailed
	}
	return parsePayload(plaintext), nil
}
