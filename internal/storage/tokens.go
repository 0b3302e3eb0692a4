package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Compile-time interface satisfaction check.
var _ TokenStore = (*SQLTokenStore)(nil)

// SQLTokenStore keeps tokens in the access_tokens table.
type SQLTokenStore struct {
	exec Executor
	now  func() time.Time
}

// NewSQLTokenStore creates a token store on top of exec.
func NewSQLTokenStore(exec Executor) *SQLTokenStore {
	return &SQLTokenStore{exec: exec, now: time.Now}
}

// SaveToken inserts a token row.
func (s *SQLTokenStore) SaveToken(ctx context.Context, t *Token) error {
	_, err := s.exec.Exec(ctx,
		"INSERT INTO access_tokens (token_hash, client_id, level, expires_at) VALUES (:hash, :client_id, :level, :expires_at)",
		map[string]any{
			"hash":       t.Hash,
			"client_id":  t.ClientID,
			"level":      t.Level,
			"expires_at": t.ExpiresAt.Unix(),
		})
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// GetTokenByHash retrieves an unexpired token by its hash.
// Returns ErrNotFound if the hash doesn't exist or the token has expired.
func (s *SQLTokenStore) GetTokenByHash(ctx context.Context, hash string) (*Token, error) {
	rows, err := s.exec.Query(ctx,
		"SELECT token_hash, client_id, level, expires_at FROM access_tokens WHERE token_hash = :hash",
		map[string]any{"hash": hash})
	if err != nil {
		return nil, fmt.Errorf("failed to get token by hash: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to get token by hash: %w", err)
		}
		return nil, ErrNotFound
	}

	var (
		t       Token
		expires int64
	)
	if err := rows.Scan(&t.Hash, &t.ClientID, &t.Level, &expires); err != nil {
		return nil, fmt.Errorf("failed to scan token row: %w", err)
	}
	t.ExpiresAt = time.Unix(expires, 0)

	if t.Expired(s.now()) {
		return nil, ErrNotFound
	}
	return &t, nil
}

// HasTokenAtLevel checks if any unexpired token of at least level exists.
func (s *SQLTokenStore) HasTokenAtLevel(ctx context.Context, level int) (bool, error) {
	rows, err := s.exec.Query(ctx,
		"SELECT COUNT(*) FROM access_tokens WHERE level >= :level AND expires_at > :now",
		map[string]any{"level": level, "now": s.now().Unix()})
	if err != nil {
		return false, fmt.Errorf("failed to count tokens: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var count int64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return false, fmt.Errorf("failed to scan token count: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("failed to count tokens: %w", err)
	}
	return count > 0, nil
}

// DeleteExpiredTokens removes tokens whose expiry has passed.
func (s *SQLTokenStore) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	res, err := s.exec.Exec(ctx,
		"DELETE FROM access_tokens WHERE expires_at <= :now",
		map[string]any{"now": s.now().Unix()})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return n, nil
}
