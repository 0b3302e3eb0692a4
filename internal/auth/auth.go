// Package auth handles access levels, credentials and token resolution.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// HashToken computes the SHA256 hash of a token for storage lookup.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// Level is an ordinal permission tier. Higher values grant more.
type Level int

const (
	// LevelAnonymous is the level of unauthenticated callers.
	LevelAnonymous Level = iota
	// LevelUser is a regular client account.
	LevelUser
	// LevelUserPartner is a partner account that may read other clients' data.
	LevelUserPartner
	// LevelAdmin has full access.
	LevelAdmin
)

// String returns the level name used in logs and API responses.
func (l Level) String() string {
	switch l {
	case LevelAnonymous:
		return "anonymous"
	case LevelUser:
		return "user"
	case LevelUserPartner:
		return "user_partner"
	case LevelAdmin:
		return "admin"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	return l >= LevelAnonymous && l <= LevelAdmin
}

// ParseLevel converts a level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "anonymous", "anon":
		return LevelAnonymous, nil
	case "user":
		return LevelUser, nil
	case "user_partner", "partner":
		return LevelUserPartner, nil
	case "admin":
		return LevelAdmin, nil
	default:
		return LevelAnonymous, fmt.Errorf("auth: unknown level %q", s)
	}
}

// Errors for authentication and authorization failures.
var (
	// ErrForbidden indicates the caller's level is below the operation's minimum.
	ErrForbidden = errors.New("auth: permission denied")
	// ErrInvalidToken indicates the presented token is unknown or expired.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Credential identifies an authenticated caller.
type Credential struct {
	ClientID int64
	Level    Level
}

// Anonymous is the credential of a caller that presented no token.
var Anonymous = Credential{Level: LevelAnonymous}

// RequireLevel fails with ErrForbidden when c.Level is below min.
func RequireLevel(c Credential, min Level) error {
	if c.Level < min {
		return fmt.Errorf("%w: requires %s, have %s", ErrForbidden, min, c.Level)
	}
	return nil
}
