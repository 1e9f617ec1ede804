// Package handshake issues short-lived single-use tokens bound to a user and
// redeems them, exactly once, for that user's stored secret.
//
// A client presents the token together with a timestamp and
// HMAC-SHA256(serverSecret, token || decimalTimestamp). The verifier checks
// the signature in constant time before it touches the token store, then
// consumes the record atomically. A record is live only while it exists and
// is not past its expiry; redemption and expiry both end in deletion.
package handshake

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is the validity window of an issued token.
const DefaultTTL = time.Minute

var (
	// ErrInvalidSignature means the presented signature did not match.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrUnknownToken covers never-issued, already-redeemed and swept tokens alike.
	ErrUnknownToken = errors.New("unknown token")
	// ErrTokenExpired means the token existed but was past its deadline. The
	// record has been removed.
	ErrTokenExpired = errors.New("token expired")
	// ErrSecretUnavailable means the token was consumed but the user's secret
	// could not be loaded.
	ErrSecretUnavailable = errors.New("secret unavailable")
)

// Record is the server-held state behind an issued token.
type Record struct {
	Token     string
	User      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the record is past its deadline at now. The
// boundary instant itself is still valid.
func (r Record) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Store persists token records. Consume must delete and return the record in
// one linearizable step: concurrent calls for the same token see exactly one
// winner, the rest get ErrUnknownToken.
type Store interface {
	Put(ctx context.Context, r Record) error
	Consume(ctx context.Context, token string) (Record, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SecretSource resolves the long-lived secret owned by a user.
type SecretSource interface {
	SecretFor(ctx context.Context, user string) (string, error)
}

// Grant is what an issued token looks like to the caller.
type Grant struct {
	Token     string
	ExpiresAt time.Time
}

// Redemption is the result of a successful redeem.
type Redemption struct {
	User   string
	Secret string
}
