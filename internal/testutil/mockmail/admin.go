package mockmail

import "net/http"

// handleAdminMessages handles GET /admin/messages.
func (s *Server) handleAdminMessages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Messages())
}

// handleAdminReset handles DELETE /admin/reset.
// Clears messages, ID counter and injected failures.
func (s *Server) handleAdminReset(w http.ResponseWriter, r *http.Request) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	s.state.messages = make([]Message, 0)
	s.state.nextID = 1
	s.state.failures = nil
	w.WriteHeader(http.StatusNoContent)
}
