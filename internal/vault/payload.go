package vault

import "encoding/json"

// PayloadFormat tags which inner layout a capsule decrypted to.
type PayloadFormat int

const (
	// FormatBareToken is the legacy single-field layout: the plaintext is the token.
	FormatBareToken PayloadFormat = iota
	// FormatJSON is the {"token","ai_key"} document.
	FormatJSON
)

func (f PayloadFormat) String() string {
	switch f {
	case FormatBareToken:
		return "bare-token"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// Secret is what a capsule protects.
type Secret struct {
	Token string
	AIKey string
}

// Payload is a recovered Secret plus the layout it was parsed from.
type Payload struct {
	Format PayloadFormat
	Secret
}

type payloadDoc struct {
	Token string `json:"token"`
	AIKey string `json:"ai_key"`
}

func marshalSecret(s Secret) ([]byte, error) {
	return json.Marshal(payloadDoc{Token: s.Token, AIKey: s.AIKey})
}

// parsePayload selects the payload variant by attempting the JSON object
// layout first and falling back to a bare token string.
func parsePayload(plaintext []byte) Payload {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(plaintext, &probe); err == nil && probe != nil {
		var doc payloadDoc
		if err := json.Unmarshal(plaintext, &doc); err == nil {
			return Payload{Format: FormatJSON, Secret: Secret{Token: doc.Token, AIKey: doc.AIKey}}
		}
	}
	return Payload{Format: FormatBareToken, Secret: Secret{Token: string(plaintext)}}
}
