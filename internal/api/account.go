package api

import (
	"net/http"

	"github.com/jarviz-io/jarviz-api/internal/controller"
	"github.com/jarviz-io/jarviz-api/internal/middleware"
)

// LoginRequest signs a client in. A token that already grants admin access
// is confirmed without checking the password.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

// ForgotPasswordRequest asks for a restore key mail.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// RestorePasswordRequest sets a new password with a mailed restore key.
type RestorePasswordRequest struct {
	Key      string `json:"key"`
	Password string `json:"password"`
}

// HandleRegister signs a new client up.
// POST /api/account/register
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req controller.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	session, err := h.accounts.Register(r.Context(), req, middleware.ClientIP(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// HandleLogin signs a client in.
// POST /api/account/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	session, err := h.accounts.ValidateOrLogin(r.Context(), req.Token, req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// HandleForgotPassword mails a restore key. It answers 202 whether or not the email is known.
// POST /api/account/forgot-password
func (h *Handler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.accounts.ForgotPassword(r.Context(), req.Email); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// POST /api/account/restore-password
func (h *Handler) HandleRestorePassword(w http.ResponseWriter, r *http.Request) {
	var req RestorePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	session, err := h.accounts.RestorePassword(r.Context(), req.Key, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}
