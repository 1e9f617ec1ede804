package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// TokenRow is a handshake token record. Times are unix nanoseconds.
type TokenRow struct {
	Token     string
	User      string
	ExpiresAt int64
	CreatedAt int64
}

// InsertToken stores a new handshake token.
func InsertToken(ctx context.Context, d *DB, r TokenRow) error {
	if d == nil || d.sql == nil {
		return fmt.Errorf("database handle is nil")
	}

	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO handshake_tokens (token, user, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		r.Token, r.User, r.ExpiresAt, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// ConsumeToken deletes the token row and returns what was deleted, in one
// statement. It returns sql.ErrNoRows when no such token exists, so at most
// one caller ever receives a given row.
func ConsumeToken(ctx context.Context, d *DB, token string) (TokenRow, error) {
	if d == nil || d.sql == nil {
		return TokenRow{}, fmt.Errorf("database handle is nil")
	}

	var r TokenRow
	err := d.sql.QueryRowContext(ctx,
		`DELETE FROM handshake_tokens WHERE token = ? RETURNING token, user, expires_at, created_at`,
		token,
	).Scan(&r.Token, &r.User, &r.ExpiresAt, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TokenRow{}, err
		}
		return TokenRow{}, fmt.Errorf("consume token: %w", err)
	}
	return r, nil
}

// DeleteExpiredTokens removes every token whose expiry is strictly before now.
func DeleteExpiredTokens(ctx context.Context, d *DB, now int64) (int64, error) {
	if d == nil || d.sql == nil {
		return 0, fmt.Errorf("database handle is nil")
	}

	res, err := d.sql.ExecContext(ctx, `DELETE FROM handshake_tokens WHERE expires_at < ?`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete rows affected: %w", err)
	}
	return n, nil
}

// CountTokens returns the number of stored handshake tokens.
func CountTokens(ctx context.Context, d *DB) (int64, error) {
	if d == nil || d.sql == nil {
		return 0, fmt.Errorf("database handle is nil")
	}
	var n int64
	if err := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM handshake_tokens`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tokens: %w", err)
	}
	return n, nil
}
