package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ProfileRow holds a user's sealed API key.
type ProfileRow struct {
	User      string
	Salt      []byte
	SealedKey []byte
	CreatedAt string
	UpdatedAt string
}

// UpsertProfile inserts or replaces the sealed key for user.
func UpsertProfile(ctx context.Context, d *DB, user string, salt, sealed []byte) error {
	if d == nil || d.sql == nil {
		return fmt.Errorf("database handle is nil")
	}

	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO profiles (user, salt, sealed_key) VALUES (?, ?, ?)
		 ON CONFLICT(user) DO UPDATE SET salt = excluded.salt, sealed_key = excluded.sealed_key, updated_at = CURRENT_TIMESTAMP`,
		user, salt, sealed,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// GetProfile returns the profile for user, or sql.ErrNoRows.
func GetProfile(ctx context.Context, d *DB, user string) (*ProfileRow, error) {
	if d == nil || d.sql == nil {
		return nil, fmt.Errorf("database handle is nil")
	}

	var r ProfileRow
	err := d.sql.QueryRowContext(ctx,
		`SELECT user, salt, sealed_key, created_at, updated_at FROM profiles WHERE user = ?`,
		user,
	).Scan(&r.User, &r.Salt, &r.SealedKey, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("select profile: %w", err)
	}
	return &r, nil
}

// DeleteProfile removes the profile for user. It returns sql.ErrNoRows if
// nothing was deleted.
func DeleteProfile(ctx context.Context, d *DB, user string) error {
	if d == nil || d.sql == nil {
		return fmt.Errorf("database handle is nil")
	}

	res, err := d.sql.ExecContext(ctx, `DELETE FROM profiles WHERE user = ?`, user)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
