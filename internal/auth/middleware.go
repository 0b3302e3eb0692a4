package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jarviz-io/jarviz-api/internal/metrics"
)

// Authenticator resolves bearer tokens, accepting the bootstrap master key
// while no admin token exists.
type Authenticator struct {
	tokens    *TokenService
	bootstrap *BootstrapService
	logger    *slog.Logger
}

// NewAuthenticator creates an authenticator. bootstrap may be nil.
func NewAuthenticator(tokens *TokenService, bootstrap *BootstrapService, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{tokens: tokens, bootstrap: bootstrap, logger: logger}
}

// Middleware attaches the caller's credential to the request context.
// Requests without a token continue as anonymous; an invalid token is rejected with 401.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r.WithContext(WithCredential(r.Context(), Anonymous)))
			return
		}

		ctx := r.Context()

		if a.bootstrap != nil && a.bootstrap.IsMasterKey(token) {
			ok, err := a.bootstrap.ValidateMasterKey(ctx, token)
			if err != nil {
				a.logger.Error("failed to check bootstrap state", "error", err)
				writeJSONError(w, http.StatusInternalServerError, "internal_error", "internal error")
				return
			}
			if !ok {
				metrics.RecordAuthDenial("master_key_locked")
				writeJSONError(w, http.StatusUnauthorized, "invalid_token", "master key is disabled once an admin token exists")
				return
			}
			ctx = WithMasterKey(ctx, true)
			ctx = WithCredential(ctx, Credential{Level: LevelAdmin})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		cred, err := a.tokens.Resolve(ctx, token)
		if err != nil {
			if errors.Is(err, ErrInvalidToken) {
				metrics.RecordAuthDenial("invalid_token")
				writeJSONError(w, http.StatusUnauthorized, "invalid_token", "invalid or expired token")
				return
			}
			a.logger.Error("failed to resolve token", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "internal_error", "internal error")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCredential(ctx, cred)))
	})
}

// extractBearerToken gets token from "Authorization: Bearer <token>" header
func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message}) //nolint:errcheck
}
