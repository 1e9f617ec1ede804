package vault

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCapsule() Capsule {
	return Capsule{
		Version:    CurrentVersion,
		Salt:       bytes.Repeat([]byte{1}, 16),
		Nonce:      bytes.Repeat([]byte{2}, 12),
		Ciphertext: []byte("ciphertext-and-tag"),
	}
}

func TestEncodeDecodeCapsule(t *testing.T) {
	c := sampleCapsule()
	data, err := Encode(c)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc, 4)
	assert.Equal(t, float64(1), doc["version"])
	assert.Equal(t, base64.StdEncoding.EncodeToString(c.Salt), doc["salt"])

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	salt := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 16))
	nonce := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{2}, 12))

	cases := map[string]string{
		"not json":        `not json`,
		"missing version": `{"salt":"` + salt + `","nonce":"` + nonce + `","ciphertext":"AA=="}`,
		"missing salt":    `{"version":1,"nonce":"` + nonce + `","ciphertext":"AA=="}`,
		"missing nonce":   `{"version":1,"salt":"` + salt + `","ciphertext":"AA=="}`,
		"missing ct":      `{"version":1,"salt":"` + salt + `","nonce":"` + nonce + `"}`,
		"bad base64":      `{"version":1,"salt":"` + salt + `","nonce":"` + nonce + `","ciphertext":"!!!"}`,
		"future version":  `{"version":2,"salt":"` + salt + `","nonce":"` + nonce + `","ciphertext":"AA=="}`,
		"float version":   `{"version":1.5,"salt":"` + salt + `","nonce":"` + nonce + `","ciphertext":"AA=="}`,
		"string version":  `{"version":"1","salt":"` + salt + `","nonce":"` + nonce + `","ciphertext":"AA=="}`,
		"short salt":      `{"version":1,"salt":"AAAA","nonce":"` + nonce + `","ciphertext":"AA=="}`,
		"short nonce":     `{"version":1,"salt":"` + salt + `","nonce":"AAAA","ciphertext":"AA=="}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(doc))
			assert.ErrorIs(t, err, ErrMalformedCapsule)
		})
	}
}

func TestEncodeRejectsUnknownVersion(t *testing.T) {
	c := sampleCapsule()
	c.Version = 7
	_, err := Encode(c)
	assert.Error(t, err)
}

func TestParsePayloadVariants(t *testing.T) {
	p := parsePayload([]byte(`{"token":"abc123","ai_key":"sk-1"}`))
	assert.Equal(t, FormatJSON, p.Format)
	assert.Equal(t, Secret{Token: "abc123", AIKey: "sk-1"}, p.Secret)

	p = parsePayload([]byte(`{"token":"abc123"}`))
	assert.Equal(t, FormatJSON, p.Format)
	assert.Equal(t, "", p.AIKey)

	p = parsePayload([]byte(`legacy-token`))
	assert.Equal(t, FormatBareToken, p.Format)
	assert.Equal(t, Secret{Token: "legacy-token"}, p.Secret)

	// Valid JSON that is not an object keeps the raw text as the token.
	p = parsePayload([]byte(`"quoted"`))
	assert.Equal(t, FormatBareToken, p.Format)
	assert.Equal(t, `"quoted"`, p.Token)

	p = parsePayload([]byte(`null`))
	assert.Equal(t, FormatBareToken, p.Format)
	assert.Equal(t, "null", p.Token)
}
