package handshake

import (
	"context"
	"database/sql"
	"errors"
	"time"

	dbpkg "github.com/Hussein-Mazeh/cybervision-unlock/internal/db"
)

// SQLStore keeps token records in the SQLite handshake_tokens table.
type SQLStore struct {
	db *dbpkg.DB
}

func NewSQLStore(d *dbpkg.DB) *SQLStore {
	return &SQLStore{db: d}
}

func (s *SQLStore) Put(ctx context.Context, r Record) error {
	return dbpkg.InsertToken(ctx, s.db, dbpkg.TokenRow{
		Token:     r.Token,
		User:      r.User,
		ExpiresAt: r.ExpiresAt.UnixNano(),
		CreatedAt: r.CreatedAt.UnixNano(),
	})
}

// Consume relies on DELETE ... RETURNING being a single atomic statement.
func (s *SQLStore) Consume(ctx context.Context, token string) (Record, error) {
	row, err := dbpkg.ConsumeToken(ctx, s.db, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrUnknownToken
		}
		return Record{}, err
	}
	return Record{
		Token:     row.Token,
		User:      row.User,
		ExpiresAt: time.Unix(0, row.ExpiresAt),
		CreatedAt: time.Unix(0, row.CreatedAt),
	}, nil
}

func (s *SQLStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return dbpkg.DeleteExpiredTokens(ctx, s.db, now.UnixNano())
}
