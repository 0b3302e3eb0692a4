package storage

import (
	"context"
	"time"
)

// Token is a persisted access token. Only the hash of the token value is stored.
type Token struct {
	Hash      string
	ClientID  int64
	Level     int
	ExpiresAt time.Time
}

// Expired reports whether the token is no longer valid at now.
func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// TokenStore persists access tokens.
type TokenStore interface {
	// SaveToken stores a token. Returns ErrDuplicate if the hash already exists.
	SaveToken(ctx context.Context, t *Token) error
	// GetTokenByHash returns ErrNotFound for unknown or expired tokens.
	GetTokenByHash(ctx context.Context, hash string) (*Token, error)
	// HasTokenAtLevel reports whether any unexpired token of at least level exists.
	HasTokenAtLevel(ctx context.Context, level int) (bool, error)
	// DeleteExpiredTokens removes expired tokens and returns how many were removed.
	DeleteExpiredTokens(ctx context.Context) (int64, error)
}
