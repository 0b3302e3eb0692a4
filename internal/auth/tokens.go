package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jarviz-io/jarviz-api/internal/storage"
)

// tokenBytes is the number of random bytes in an issued token.
const tokenBytes = 32

// TokenService issues and resolves opaque bearer tokens.
type TokenService struct {
	store storage.TokenStore
	now   func() time.Time
}

// NewTokenService creates a token service backed by store.
func NewTokenService(store storage.TokenStore) *TokenService {
	return &TokenService{store: store, now: time.Now}
}

// GenerateToken returns a random hex token.
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Issue creates a token for principalID valid for ttl at level.
// Only the token hash is persisted; the plain value is returned once.
func (s *TokenService) Issue(ctx context.Context, principalID int64, ttl time.Duration, level Level) (string, error) {
	if !level.Valid() {
		return "", fmt.Errorf("auth: cannot issue token at %s", level)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("auth: token ttl must be positive, got %s", ttl)
	}

	token, err := GenerateToken()
	if err != nil {
		return "", err
	}

	err = s.store.SaveToken(ctx, &storage.Token{
		Hash:      HashToken(token),
		ClientID:  principalID,
		Level:     int(level),
		ExpiresAt: s.now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}
	return token, nil
}

// Resolve maps a token to its credential.
// Unknown and expired tokens yield ErrInvalidToken.
func (s *TokenService) Resolve(ctx context.Context, token string) (Credential, error) {
	if token == "" {
		return Anonymous, ErrInvalidToken
	}

	t, err := s.store.GetTokenByHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Anonymous, ErrInvalidToken
		}
		return Anonymous, fmt.Errorf("failed to resolve token: %w", err)
	}
	if t.Expired(s.now()) {
		return Anonymous, ErrInvalidToken
	}

	level := Level(t.Level)
	if !level.Valid() {
		return Anonymous, ErrInvalidToken
	}
	return Credential{ClientID: t.ClientID, Level: level}, nil
}

// CheckLevel resolves token and requires at least min.
func (s *TokenService) CheckLevel(ctx context.Context, token string, min Level) (Credential, error) {
	c, err := s.Resolve(ctx, token)
	if err != nil {
		return Anonymous, err
	}
	if err := RequireLevel(c, min); err != nil {
		return Anonymous, err
	}
	return c, nil
}
