// Package profile is the user directory that holds each user's long-lived
// API key. Keys are sealed at rest with a key derived from the server secret.
package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	dbpkg "github.com/Hussein-Mazeh/cybervision-unlock/internal/db"
)

// ErrNotFound means the user has no stored profile.
var ErrNotFound = errors.New("profile not found")

// Directory reads and writes profiles in SQLite.
type Directory struct {
	db     *dbpkg.DB
	secret []byte
}

func NewDirectory(d *dbpkg.DB, serverSecret []byte) (*Directory, error) {
	if d == nil {
		return nil, errors.New("database handle is nil")
	}
	if len(serverSecret) == 0 {
		return nil, errors.New("server secret is required")
	}
	return &Directory{db: d, secret: append([]byte(nil), serverSecret...)}, nil
}

// SetSecret stores or replaces the API key for user.
func (d *Directory) SetSecret(ctx context.Context, user, apiKey string) error {
	user = strings.TrimSpace(user)
	if user == "" {
		return errors.New("user is required")
	}
	if apiKey == "" {
		return errors.New("api key is required")
	}

	salt, blob, err := sealSecret(d.secret, user, apiKey)
	if err != nil {
		return err
	}
	return dbpkg.UpsertProfile(ctx, d.db, user, salt, blob)
}

// SecretFor returns the API key for user.
func (d *Directory) SecretFor(ctx context.Context, user string) (string, error) {
	row, err := dbpkg.GetProfile(ctx, d.db, user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	key, err := openSecret(d.secret, row.User, row.Salt, row.SealedKey)
	if err != nil {
		return "", fmt.Errorf("profile %s: %w", user, err)
	}
	return key, nil
}

// Delete removes the profile for user.
func (d *Directory) Delete(ctx context.Context, user string) error {
	if err := dbpkg.DeleteProfile(ctx, d.db, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
