package handshake

import (
	"strconv"

	"github.com/Hussein-Mazeh/cybervision-unlock/krypto"
)

// Sign computes the lowercase hex HMAC-SHA256 of token || decimal(timestamp).
func Sign(secret []byte, token string, timestamp int64) string {
	return krypto.HMACSHA256Hex(secret, []byte(token), []byte(strconv.FormatInt(timestamp, 10)))
}

// VerifySignature recomputes the signature and compares it in constant time.
func VerifySignature(secret []byte, token string, timestamp int64, signature string) bool {
	return krypto.ConstantTimeEqual(Sign(secret, token, timestamp), signature)
}
