package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/jarviz-io/jarviz-api/internal/auth"
	"github.com/jarviz-io/jarviz-api/internal/logging"
	"github.com/jarviz-io/jarviz-api/internal/query"
)

// WhoAmIResponse describes the caller's credential.
type WhoAmIResponse struct {
	ClientID    int64  `json:"client_id"`
	Level       string `json:"level"`
	IsMasterKey bool   `json:"is_master_key"`
}

// SetLogLevelRequest changes the process log level.
type SetLogLevelRequest struct {
	Level string `json:"level"`
}

// IssueTokenRequest creates a token. Level is a level name and TTL a Go
// duration; an empty TTL selects the configured default.
type IssueTokenRequest struct {
	ClientID int64  `json:"client_id"`
	Level    string `json:"level"`
	TTL      string `json:"ttl"`
}

// IssueTokenResponse carries a new token. It is shown once.
type IssueTokenResponse struct {
	Token     string    `json:"token"`
	ClientID  int64     `json:"client_id"`
	Level     string    `json:"level"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HandleWhoAmI returns the caller's identity.
// GET /api/whoami
func (h *Handler) HandleWhoAmI(w http.ResponseWriter, r *http.Request) {
	cred := auth.CredentialFromContext(r.Context())
	writeJSON(w, http.StatusOK, WhoAmIResponse{
		ClientID:    cred.ClientID,
		Level:       cred.Level.String(),
		IsMasterKey: auth.IsMasterKeyFromContext(r.Context()),
	})
}

// HandleSetLogLevel changes the log level at runtime. Admin only.
// POST /api/loglevel
func (h *Handler) HandleSetLogLevel(w http.ResponseWriter, r *http.Request) {
	if err := auth.RequireLevel(auth.CredentialFromContext(r.Context()), auth.LevelAdmin); err != nil {
		h.fail(w, r, err)
		return
	}

	var req SetLogLevelRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	level, err := logging.ParseLevel(req.Level)
	if err != nil {
		h.fail(w, r, query.InvalidParams(0, "invalid log level: %s", req.Level))
		return
	}

	h.logLevel.Set(level)
	h.logger.Info("log level changed", "level", strings.ToLower(level.String()))
	writeJSON(w, http.StatusOK, map[string]string{"level": strings.ToLower(level.String())})
}

// HandleIssueToken creates a token for a client. Admin only; the master key
// may be used while no admin token exists.
// POST /api/tokens
func (h *Handler) HandleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req IssueTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	level, err := auth.ParseLevel(req.Level)
	if err != nil || level == auth.LevelAnonymous {
		h.fail(w, r, query.InvalidParams(0, "invalid level: %s", req.Level))
		return
	}

	ttl := h.tokenTTL
	if req.TTL != "" {
		ttl, err = time.ParseDuration(req.TTL)
		if err != nil || ttl <= 0 {
			h.fail(w, r, query.InvalidParams(0, "invalid ttl: %s", req.TTL))
			return
		}
	}

	expiresAt := time.Now().Add(ttl).UTC()
	token, err := h.accounts.IssueToken(r.Context(), req.ClientID, ttl, level)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Info("token issued", "client_id", req.ClientID, "level", level.String())
	writeJSON(w, http.StatusCreated, IssueTokenResponse{
		Token:     token,
		ClientID:  req.ClientID,
		Level:     level.String(),
		ExpiresAt: expiresAt,
	})
}
