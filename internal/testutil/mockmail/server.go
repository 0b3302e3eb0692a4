package mockmail

import (
	"log/slog"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
)

// Server is a mock Mailgun API server.
type Server struct {
	*httptest.Server
	state  *State
	apiKey string
}

// Option configures a Server.
type Option func(*serverConfig)

type serverConfig struct {
	apiKey string
	logger *slog.Logger
}

// WithAPIKey sets the key the server accepts. The default is "test-key".
func WithAPIKey(key string) Option {
	return func(c *serverConfig) {
		c.apiKey = key
	}
}

// WithLogger logs every request the server receives.
func WithLogger(logger *slog.Logger) Option {
	return func(c *serverConfig) {
		c.logger = logger
	}
}

// New starts a mock Mailgun server.
func New(opts ...Option) *Server {
	cfg := serverConfig{apiKey: "test-key"}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server{state: NewState(), apiKey: cfg.apiKey}

	r := chi.NewRouter()
	r.Use(LoggingMiddleware(cfg.logger))
	r.Post("/v3/{domain}/messages", s.handleSendMessage)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/messages", s.handleAdminMessages)
		r.Delete("/reset", s.handleAdminReset)
	})

	s.Server = httptest.NewServer(r)
	return s
}

// URL returns the base URL of the server.
func (s *Server) URL() string {
	return s.Server.URL
}

// Messages returns a copy of the accepted messages in arrival order.
func (s *Server) Messages() []Message {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	out := make([]Message, len(s.state.messages))
	copy(out, s.state.messages)
	return out
}

// FailNext makes the next send request fail with status.
// Calls queue up: each failure is used once, in order.
func (s *Server) FailNext(status int) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	s.state.failures = append(s.state.failures, status)
}
