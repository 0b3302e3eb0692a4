// Package mockmail provides a mock Mailgun messages API for tests.
package mockmail

import (
	"sync"
	"time"
)

// Message is a message accepted by the mock server.
type Message struct {
	ID         string    `json:"id"`
	Domain     string    `json:"domain"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Subject    string    `json:"subject"`
	HTML       string    `json:"html"`
	ReceivedAt time.Time `json:"received_at"`
}

// State holds the messages received by the server and the injected failures.
type State struct {
	mu       sync.RWMutex
	messages []Message
	nextID   int64
	failures []int
}

// NewState creates an empty State.
func NewState() *State {
	return &State{
		messages: make([]Message, 0),
		nextID:   1,
	}
}

// ErrorResponse is the body of a rejected request.
type ErrorResponse struct {
	Message string `json:"message"`
}

// SendResponse is the body of an accepted message.
type SendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}
