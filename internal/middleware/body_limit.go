package middleware

import (
	"encoding/json"
	"net/http"
)

// MaxBodySize limits request bodies to maxBytes. Requests that declare a
// larger Content-Length are refused with 413 before the handler runs; other
// oversized bodies fail when the handler reads past the limit.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				//nolint:errcheck // Response write errors are unrecoverable
				json.NewEncoder(w).Encode(map[string]string{
					"error":   "request_too_large",
					"message": "request body too large",
				})
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
