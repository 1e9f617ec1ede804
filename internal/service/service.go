package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	dbpkg "github.com/Hussein-Mazeh/cybervision-unlock/internal/db"
	"github.com/Hussein-Mazeh/cybervision-unlock/internal/handshake"
	"github.com/Hussein-Mazeh/cybervision-unlock/internal/profile"
	"github.com/Hussein-Mazeh/cybervision-unlock/krypto"
)

// Options wires a Service. Secret is the server signing key; it also seals
// profile API keys at rest.
type Options struct {
	DatabasePath string
	Secret       []byte
	TokenTTL     time.Duration
	Now          func() time.Time
	Log          *slog.Logger
}

// Service exposes the handshake and profile operations for the daemon and
// the operator CLI over one SQLite database.
type Service struct {
	db       *dbpkg.DB
	secret   []byte
	store    *handshake.SQLStore
	profiles *profile.Directory
	issuer   *handshake.Issuer
	verifier *handshake.Verifier
	log      *slog.Logger
}

// New opens (and migrates) the database and builds the handshake components.
func New(ctx context.Context, opts Options) (*Service, error) {
	if opts.DatabasePath == "" {
		return nil, errors.New("database path is required")
	}
	if len(opts.Secret) == 0 {
		return nil, errors.New("signing secret is required")
	}
	if opts.Log == nil {
		opts.Log = slog.New(slog.DiscardHandler)
	}

	database, err := dbpkg.Open(opts.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite (%s): %w", opts.DatabasePath, err)
	}
	if err := dbpkg.Migrate(ctx, database); err != nil {
		dbpkg.Close(database)
		return nil, err
	}

	secret := append([]byte(nil), opts.Secret...)
	profiles, err := profile.NewDirectory(database, secret)
	if err != nil {
		dbpkg.Close(database)
		return nil, err
	}

	store := handshake.NewSQLStore(database)
	verifier, err := handshake.NewVerifier(store, profiles, handshake.VerifierConfig{
		Secret: secret,
		Now:    opts.Now,
		Log:    opts.Log,
	})
	if err != nil {
		dbpkg.Close(database)
		return nil, err
	}

	return &Service{
		db:       database,
		secret:   secret,
		store:    store,
		profiles: profiles,
		issuer: handshake.NewIssuer(store, handshake.IssuerConfig{
			TTL: opts.TokenTTL,
			Now: opts.Now,
			Log: opts.Log,
		}),
		verifier: verifier,
		log:      opts.Log,
	}, nil
}

// Close releases the database and wipes the in-memory secret.
func (s *Service) Close() error {
	krypto.Zeroize(s.secret)
	return dbpkg.Close(s.db)
}

// Issue creates a handshake token for user.
func (s *Service) Issue(ctx context.Context, user string) (handshake.Grant, error) {
	return s.issuer.Issue(ctx, user)
}

// Redeem consumes a signed token and returns the owner's API key.
func (s *Service) Redeem(ctx context.Context, token string, timestamp int64, signature string) (handshake.Redemption, error) {
	return s.verifier.Redeem(ctx, token, timestamp, signature)
}

// SetSecret stores a user's API key.
func (s *Service) SetSecret(ctx context.Context, user, apiKey string) error {
	return s.profiles.SetSecret(ctx, user, apiKey)
}

// DeleteProfile removes a user's API key.
func (s *Service) DeleteProfile(ctx context.Context, user string) error {
	return s.profiles.Delete(ctx, user)
}

// Sweeper returns a sweeper bound to the token table.
func (s *Service) Sweeper(interval time.Duration, onSweep func(int64)) *handshake.Sweeper {
	return &handshake.Sweeper{
		Store:    s.store,
		Interval: interval,
		Log:      s.log,
		OnSweep:  onSweep,
	}
}

// Sign computes the handshake signature with the service secret.
func (s *Service) Sign(token string, timestamp int64) string {
	return handshake.Sign(s.secret, token, timestamp)
}

// Ping checks the database connection.
func (s *Service) Ping(ctx context.Context) error {
	_, err := dbpkg.CountTokens(ctx, s.db)
	return err
}
