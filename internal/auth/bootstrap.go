package auth

import (
	"context"
	"crypto/subtle"

	"github.com/jarviz-io/jarviz-api/internal/storage"
)

// BootstrapState represents whether the first admin token has been issued.
type BootstrapState int

const (
	// StateUnconfigured means no admin token exists; the master key is accepted.
	StateUnconfigured BootstrapState = iota

	// StateConfigured means at least one admin token exists; the master key is locked out.
	StateConfigured
)

// String returns the string representation of the bootstrap state
func (s BootstrapState) String() string {
	switch s {
	case StateUnconfigured:
		return "UNCONFIGURED"
	case StateConfigured:
		return "CONFIGURED"
	default:
		return "UNKNOWN"
	}
}

// BootstrapService lets an operator holding ADMIN_MASTER_KEY act as admin
// until the first admin token is issued.
type BootstrapService struct {
	tokens        storage.TokenStore
	masterKeyHash string // empty when no master key is configured
}

// NewBootstrapService creates a new bootstrap service.
// An empty masterKey disables master key authentication.
func NewBootstrapService(tokens storage.TokenStore, masterKey string) *BootstrapService {
	b := &BootstrapService{tokens: tokens}
	if masterKey != "" {
		b.masterKeyHash = HashToken(masterKey)
	}
	return b
}

// Enabled reports whether a master key is configured.
func (b *BootstrapService) Enabled() bool {
	return b.masterKeyHash != ""
}

// GetState returns StateConfigured once an unexpired admin token exists.
func (b *BootstrapService) GetState(ctx context.Context) (BootstrapState, error) {
	hasAdmin, err := b.tokens.HasTokenAtLevel(ctx, int(LevelAdmin))
	if err != nil {
		return StateUnconfigured, err
	}
	if hasAdmin {
		return StateConfigured, nil
	}
	return StateUnconfigured, nil
}

// IsMasterKey checks if the provided key matches the configured master key.
//
// SECURITY: the hash comparison must stay constant-time; do not replace it
// with == or strings.EqualFold.
func (b *BootstrapService) IsMasterKey(key string) bool {
	if !b.Enabled() {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(HashToken(key)), []byte(b.masterKeyHash)) == 1
}

// ValidateMasterKey returns true only if the key matches AND the system is UNCONFIGURED.
func (b *BootstrapService) ValidateMasterKey(ctx context.Context, key string) (bool, error) {
	if !b.IsMasterKey(key) {
		return false, nil
	}
	state, err := b.GetState(ctx)
	if err != nil {
		return false, err
	}
	return state == StateUnconfigured, nil
}
