package handshake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// VerifierConfig configures a Verifier. Secret is the server signing key.
type VerifierConfig struct {
	Secret []byte
	Now    func() time.Time
	Log    *slog.Logger
}

// Verifier redeems tokens.
type Verifier struct {
	store   Store
	secrets SecretSource
	secret  []byte
	now     func() time.Time
	log     *slog.Logger
}

func NewVerifier(store Store, secrets SecretSource, cfg VerifierConfig) (*Verifier, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("signing secret is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Log == nil {
		cfg.Log = slog.New(slog.DiscardHandler)
	}
	return &Verifier{
		store:   store,
		secrets: secrets,
		secret:  append([]byte(nil), cfg.Secret...),
		now:     cfg.Now,
		log:     cfg.Log,
	}, nil
}

// Redeem checks the signature over (token, timestamp), then consumes the
// token and returns its owner's secret.
//
// The store is not consulted when the signature is wrong. Consumption
// deletes the record whether or not it has expired, so an expired token
// reports ErrTokenExpired once and ErrUnknownToken afterwards.
func (v *Verifier) Redeem(ctx context.Context, token string, timestamp int64, signature string) (Redemption, error) {
	if token == "" || !VerifySignature(v.secret, token, timestamp, signature) {
		return Redemption{}, ErrInvalidSignature
	}

	rec, err := v.store.Consume(ctx, token)
	if err != nil {
		return Redemption{}, err
	}

	if rec.Expired(v.now()) {
		v.log.Info("expired handshake token swept", "user", rec.User, "token", Fingerprint(token))
		return Redemption{}, ErrTokenExpired
	}

	secret, err := v.secrets.SecretFor(ctx, rec.User)
	if err != nil {
		v.log.Error("secret lookup failed after token consumption", "user", rec.User, "err", err)
		return Redemption{}, fmt.Errorf("%w: %v", ErrSecretUnavailable, err)
	}

	v.log.Info("handshake token redeemed", "user", rec.User, "token", Fingerprint(token))
	return Redemption{User: rec.User, Secret: secret}, nil
}
