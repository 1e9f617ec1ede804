package profile

import (
	"errors"
	"fmt"

	"github.com/Hussein-Mazeh/cybervision-unlock/krypto"
)

const (
	sealSaltLen = 16
	sealInfo    = "profile-api-key-v1"
)

// sealSecret encrypts an API key under a per-row key derived from the
// server secret. The row's user name is bound as associated data so sealed
// keys cannot be swapped between users.
func sealSecret(serverSecret []byte, user, plaintext string) (salt []byte, blob []byte, err error) {
	if len(serverSecret) == 0 {
		return nil, nil, errors.New("server secret is required")
	}

	salt, err = krypto.RandomBytes(sealSaltLen)
	if err != nil {
		return nil, nil, fmt.Errorf("generate profile salt: %w", err)
	}

	rowKey, err := krypto.HKDFSHA256(serverSecret, salt, []byte(sealInfo), krypto.KeySize)
	if err != nil {
		return nil, nil, fmt.Errorf("derive profile key: %w", err)
	}
	defer krypto.Zeroize(rowKey)

	nonce, ciphertext, err := krypto.EncryptAESGCM(rowKey, []byte(plaintext), []byte(user))
	if err != nil {
		return nil, nil, fmt.Errorf("seal api key: %w", err)
	}

	blob = append(nonce, ciphertext...)
	return salt, blob, nil
}

// openSecret reverses sealSecret.
func openSecret(serverSecret []byte, user string, salt, blob []byte) (string, error) {
	if len(salt) != sealSaltLen {
		return "", errors.New("invalid profile salt length")
	}
	if len(blob) <= krypto.NonceSize {
		return "", errors.New("sealed key too short")
	}

	rowKey, err := krypto.HKDFSHA256(serverSecret, salt, []byte(sealInfo), krypto.KeySize)
	if err != nil {
		return "", fmt.Errorf("derive profile key: %w", err)
	}
	defer krypto.Zeroize(rowKey)

	plaintext, err := krypto.DecryptAESGCM(rowKey, blob[:krypto.NonceSize], blob[krypto.NonceSize:], []byte(user))
	if err != nil {
		return "", fmt.Errorf("open api key: %w", err)
	}
	return string(plaintext), nil
}
