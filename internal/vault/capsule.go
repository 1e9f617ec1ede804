package vault

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/Hussein-Mazeh/cybervision-unlock/krypto"
)

// CurrentVersion is the only capsule layout this package reads or writes.
// Version 1 fixes PBKDF2-SHA256 at krypto.DefaultIterations.
const CurrentVersion = 1

// Capsule is the encrypted unlock file persisted on removable media.
type Capsule struct {
	Version    int
	Salt       []byte
	Nonce      []byte
	Ciphertext []byte
}

// capsuleFile is the on-disk JSON shape. Pointers distinguish a missing
// field from an empty one.
type capsuleFile struct {
	Version    *json.Number `json:"version"`
	Salt       *string      `json:"salt"`
	Nonce      *string      `json:"nonce"`
	Ciphertext *string      `json:"ciphertext"`
}

type capsuleOut struct {
	Version    int    `json:"version"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// iterationsFor maps a capsule version to its KDF iteration count.
func iterationsFor(version int) (int, bool) {
	switch version {
	case 1:
		return krypto.DefaultIterations, true
	default:
		return 0, false
	}
}

// Encode renders the capsule as a UTF-8 JSON document with base64 fields.
func Encode(c Capsule) ([]byte, error) {
	if _, ok := iterationsFor(c.Version); !ok {
		return nil, fmt.Errorf("encode capsule: unsupported version %d", c.Version)
	}
	out := capsuleOut{
		Version:    c.Version,
		Salt:       base64.StdEncoding.EncodeToString(c.Salt),
		Nonce:      base64.StdEncoding.EncodeToString(c.Nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(c.Ciphertext),
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode capsule: %w", err)
	}
	return data, nil
}

// Decode parses a capsule document. Missing fields, invalid base64, wrong
// salt/nonce lengths and unknown versions all fail with ErrMalformedCapsule.
func Decode(data []byte) (Capsule, error) {
	var f capsuleFile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&f); err != nil {
		return Capsule{}, fmt.Errorf("%w: %v", ErrMalformedCapsule, err)
	}
	if f.Version == nil || f.Salt == nil || f.Nonce == nil || f.Ciphertext == nil {
		return Capsule{}, fmt.Errorf("%w: missing field", ErrMalformedCapsule)
	}

	v, err := f.Version.Int64()
	if err != nil {
		return Capsule{}, fmt.Errorf("%w: version is not an integer", ErrMalformedCapsule)
	}
	if _, ok := iterationsFor(int(v)); !ok || int64(int(v)) != v {
		return Capsule{}, fmt.Errorf("%w: unsupported version %s", ErrMalformedCapsule, f.Version.String())
	}

	c := Capsule{Version: int(v)}
	if c.Salt, err = decodeField("salt", *f.Salt); err != nil {
		return Capsule{}, err
	}
	if c.Nonce, err = decodeField("nonce", *f.Nonce); err != nil {
		return Capsule{}, err
	}
	if c.Ciphertext, err = decodeField("ciphertext", *f.Ciphertext); err != nil {
		return Capsule{}, err
	}

	if len(c.Salt) != krypto.SaltLengthBytes {
		return Capsule{}, fmt.Errorf("%w: salt must be %d bytes", ErrMalformedCapsule, krypto.SaltLengthBytes)
	}
	if len(c.Nonce) != krypto.NonceSize {
		return Capsule{}, fmt.Errorf("%w: nonce must be %d bytes", ErrMalformedCapsule, krypto.NonceSize)
	}
	return c, nil
}

func decodeField(name, value string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not valid base64", ErrMalformedCapsule, name)
	}
	return b, nil
}
