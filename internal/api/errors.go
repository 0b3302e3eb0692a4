package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jarviz-io/jarviz-api/internal/auth"
	"github.com/jarviz-io/jarviz-api/internal/middleware"
	"github.com/jarviz-io/jarviz-api/internal/query"
	"github.com/jarviz-io/jarviz-api/internal/storage"
)

// Error codes of API responses.
const (
	ErrCodeInvalidRequest  = "invalid_request"
	ErrCodeInvalidParams   = "invalid_params"
	ErrCodeInvalidToken    = "invalid_token"
	ErrCodeForbidden       = "forbidden"
	ErrCodeNotFound        = "not_found"
	ErrCodeRequestTooLarge = "request_too_large"
	ErrCodeInternalError   = "internal_error"
)

// APIError is the body of every error response. Code is the numeric code of
// rejected parameters, when there is one.
type APIError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Response write errors are unrecoverable
	json.NewEncoder(w).Encode(v)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIError{Error: code, Message: message})
}

// writeFailure maps an operation error to its response. Unclassified errors
// are logged and reported as 500 without detail.
func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var pe *query.ParamsError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &pe):
		writeJSON(w, http.StatusBadRequest, APIError{Error: ErrCodeInvalidParams, Message: pe.Message, Code: pe.Code})
	case errors.Is(err, auth.ErrForbidden):
		WriteError(w, http.StatusForbidden, ErrCodeForbidden, "insufficient access level")
	case errors.Is(err, auth.ErrInvalidToken):
		WriteError(w, http.StatusUnauthorized, ErrCodeInvalidToken, "invalid or expired token")
	case errors.Is(err, storage.ErrNotFound):
		WriteError(w, http.StatusNotFound, ErrCodeNotFound, "not found")
	case errors.As(err, &tooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, ErrCodeRequestTooLarge, "request body too large")
	default:
		h.logger.Error("request failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
	}
}
