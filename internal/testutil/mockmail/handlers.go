package mockmail

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// handleSendMessage handles POST /v3/{domain}/messages.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	user, key, ok := r.BasicAuth()
	if !ok || user != "api" || key != s.apiKey {
		writeError(w, http.StatusUnauthorized, "Forbidden")
		return
	}

	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	for _, field := range []string{"from", "to", "subject", "html"} {
		if r.PostForm.Get(field) == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s parameter is missing", field))
			return
		}
	}

	domain := chi.URLParam(r, "domain")

	s.state.mu.Lock()
	if len(s.state.failures) > 0 {
		status := s.state.failures[0]
		s.state.failures = s.state.failures[1:]
		s.state.mu.Unlock()
		writeError(w, status, "injected failure")
		return
	}
	msg := Message{
		ID:         fmt.Sprintf("<%d@%s>", s.state.nextID, domain),
		Domain:     domain,
		From:       r.PostForm.Get("from"),
		To:         r.PostForm.Get("to"),
		Subject:    r.PostForm.Get("subject"),
		HTML:       r.PostForm.Get("html"),
		ReceivedAt: time.Now().UTC(),
	}
	s.state.nextID++
	s.state.messages = append(s.state.messages, msg)
	s.state.mu.Unlock()

	writeJSON(w, http.StatusOK, SendResponse{ID: msg.ID, Message: "Queued. Thank you."})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}
