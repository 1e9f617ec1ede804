package handshake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Hussein-Mazeh/cybervision-unlock/krypto"
)

const tokenBytes = 32

// IssuerConfig configures an Issuer.
type IssuerConfig struct {
	TTL time.Duration
	Now func() time.Time
	Log *slog.Logger
}

// Issuer creates token records.
type Issuer struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
	log   *slog.Logger
}

func NewIssuer(store Store, cfg IssuerConfig) *Issuer {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Log == nil {
		cfg.Log = slog.New(slog.DiscardHandler)
	}
	return &Issuer{store: store, ttl: cfg.TTL, now: cfg.Now, log: cfg.Log}
}

// Issue persists a new token for user, valid for the configured TTL.
func (i *Issuer) Issue(ctx context.Context, user string) (Grant, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return Grant{}, errors.New("user is required")
	}

	token, err := krypto.NewURLToken(tokenBytes)
	if err != nil {
		return Grant{}, err
	}

	now := i.now()
	rec := Record{
		Token:     token,
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(i.ttl),
	}
	if err := i.store.Put(ctx, rec); err != nil {
		return Grant{}, fmt.Errorf("store token: %w", err)
	}

	i.log.Debug("handshake token issued", "user", user, "token", Fingerprint(token), "expires_at", rec.ExpiresAt)
	return Grant{Token: token, ExpiresAt: rec.ExpiresAt}, nil
}

// Fingerprint returns a short, non-reversible label for a token, suitable for logs.
func Fingerprint(token string) string {
	return krypto.HMACSHA256Hex([]byte("handshake-log"), []byte(token))[:12]
}
