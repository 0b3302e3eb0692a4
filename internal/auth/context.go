package auth

import "context"

// ctxKey is a private type for context keys to prevent collisions.
type ctxKey int

const (
	credentialKey ctxKey = iota // stores Credential
	masterKeyKey                // stores bool (is master key auth)
)

// WithCredential adds a credential to the context.
func WithCredential(ctx context.Context, c Credential) context.Context {
	return context.WithValue(ctx, credentialKey, c)
}

// CredentialFromContext retrieves the caller credential.
// Returns Anonymous if none is set.
func CredentialFromContext(ctx context.Context) Credential {
	if v := ctx.Value(credentialKey); v != nil {
		if c, ok := v.(Credential); ok {
			return c
		}
	}
	return Anonymous
}

// WithMasterKey marks the context as authenticated with the bootstrap master key.
func WithMasterKey(ctx context.Context, isMaster bool) context.Context {
	return context.WithValue(ctx, masterKeyKey, isMaster)
}

// IsMasterKeyFromContext returns true if the request was authenticated with the master key.
func IsMasterKeyFromContext(ctx context.Context) bool {
	if v := ctx.Value(masterKeyKey); v != nil {
		if isMaster, ok := v.(bool); ok {
			return isMaster
		}
	}
	return false
}
