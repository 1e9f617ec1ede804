package vault

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hussein-Mazeh/cybervision-unlock/krypto"
)

func provisionBytes(t *testing.T, password string, s Secret) ([]byte, Capsule) {
	t.Helper()
	c, _, err := Provision(password, s)
	require.NoError(t, err)
	data, err := Encode(c)
	require.NoError(t, err)
	return data, c
}

func TestProvisionRecoverHunter2(t *testing.T) {
	data, _ := provisionBytes(t, "hunter2", Secret{Token: "abc123"})

	got, err := Recover(data, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, got.Format)
	assert.Equal(t, Secret{Token: "abc123", AIKey: ""}, got.Secret)

	_, err = Recover(data, "wrong")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestProvisionGeneratesToken(t *testing.T) {
	c, s, err := Provision("pw", Secret{AIKey: "sk-test"})
	require.NoError(t, err)
	assert.Len(t, s.Token, 43)
	assert.Equal(t, "sk-test", s.AIKey)
	assert.Equal(t, CurrentVersion, c.Version)
	assert.Len(t, c.Salt, krypto.SaltLengthBytes)
	assert.Len(t, c.Nonce, krypto.NonceSize)
}

func TestProvisionFreshSaltAndNonce(t *testing.T) {
	a, _, err := Provision("same", Secret{Token: "t"})
	require.NoError(t, err)
	b, _, err := Provision("same", Secret{Token: "t"})
	require.NoError(t, err)

	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.Nonce, b.Nonce)
	assert.NotEqual(t, a.Ciphertext, b.Ciphertext)
}

func TestRecoverRoundTripVariousPayloads(t *testing.T) {
	for _, s := range []Secret{
		{Token: "tok", AIKey: "sk-live-123"},
		{Token: "ünïcødé", AIKey: `quote " and \ backslash`},
		{Token: "x"},
	} {
		data, _ := provisionBytes(t, "p@ss w0rd", s)
		got, err := Recover(data, "p@ss w0rd")
		require.NoError(t, err)
		assert.Equal(t, s, got.Secret)
	}
}

func TestOpenWithKeyDetectsEveryBitFlip(t *testing.T) {
	_, c := provisionBytes(t, "hunter2", Secret{Token: "abc123", AIKey: "k"})
	key, err := DeriveKey(c, "hunter2")
	require.NoError(t, err)

	_, err = OpenWithKey(c, key)
	require.NoError(t, err)

	for i := range c.Ciphertext {
		for bit := 0; bit < 8; bit++ {
			tampered := c
			tampered.Ciphertext = bytes.Clone(c.Ciphertext)
			tampered.Ciphertext[i] ^= 1 << bit

			p, err := OpenWithKey(tampered, key)
			require.ErrorIs(t, err, ErrDecryptionFailed, "byte %d bit %d", i, bit)
			require.Equal(t, Payload{}, p)
		}
	}

	tampered := c
	tampered.Nonce = bytes.Clone(c.Nonce)
	tampered.Nonce[0] ^= 0x80
	_, err = OpenWithKey(tampered, key)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestRecoverLegacyBareToken(t *testing.T) {
	salt, err := krypto.NewRandomSalt()
	require.NoError(t, err)
	key, err := krypto.DeriveKeyPBKDF2([]byte("hunter2"), salt, krypto.DefaultIterations)
	require.NoError(t, err)
	nonce, ct, err := krypto.EncryptAESGCM(key, []byte("old-style-token"), nil)
	require.NoError(t, err)

	data, err := Encode(Capsule{Version: 1, Salt: salt, Nonce: nonce, Ciphertext: ct})
	require.NoError(t, err)

	got, err := Recover(data, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, FormatBareToken, got.Format)
	assert.Equal(t, "old-style-token", got.Token)
	assert.Empty(t, got.AIKey)
}

func TestRecoverMalformedSkipsKDF(t *testing.T) {
	_, err := Recover([]byte(`{"version":1}`), "hunter2")
	assert.ErrorIs(t, err, ErrMalformedCapsule)
}

func TestCapsuleFileFormat(t *testing.T) {
	data, _ := provisionBytes(t, "pw", Secret{Token: "t"})
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.ElementsMatch(t, []string{"version", "salt", "nonce", "ciphertext"}, keys(doc))
	assert.Equal(t, "1", string(doc["version"]))
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
