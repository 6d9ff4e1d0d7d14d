package postgres

import (
	"context"
	"fmt"

	"signature-service/internal/tokens"
)

const tokensDDL = `CREATE TABLE IF NOT EXISTS api_tokens (
	token TEXT PRIMARY KEY,
	rate_limit INTEGER NOT NULL DEFAULT 60,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	comment TEXT
);`

// TokenRepository reads the api_tokens table.
type TokenRepository struct {
	DB  *DB
	DSN string
}

// NewTokenRepository creates a repository over the given manager and DSN.
func NewTokenRepository(db *DB, dsn string) *TokenRepository {
	return &TokenRepository{DB: db, DSN: dsn}
}

// LoadTokens ensures the table exists and returns every token with its rate limit.
func (r *TokenRepository) LoadTokens(ctx context.Context) (map[string]tokens.Entry, error) {
	db, err := r.DB.Get(r.DSN)
	if err != nil {
		return nil, fmt.Errorf("open token db: %w", err)
	}

	if _, err := db.ExecContext(ctx, tokensDDL); err != nil {
		return nil, fmt.Errorf("ensure token schema failed: %w", err)
	}

	rows, err := db.QueryContext(ctx, `SELECT token, rate_limit FROM api_tokens;`)
	if err != nil {
		return nil, fmt.Errorf("query tokens failed: %w", err)
	}
	defer rows.Close()

	out := make(map[string]tokens.Entry)
	for rows.Next() {
		var token string
		var limit int
		if err := rows.Scan(&token, &limit); err != nil {
			return nil, fmt.Errorf("scan token failed: %w", err)
		}
		out[token] = tokens.Entry{RateLimit: limit}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
