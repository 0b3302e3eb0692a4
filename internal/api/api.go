// Package api exposes the client, billing, call session and account operations
// as a JSON HTTP API.
package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/jarviz-io/jarviz-api/internal/controller"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the API.
type Handler struct {
	billing  *controller.BillingController
	sessions *controller.CallSessionController
	clients  *controller.ClientController
	accounts *controller.AccountService
	store    Pinger
	logger   *slog.Logger
	logLevel *slog.LevelVar
	tokenTTL time.Duration
}

// Deps are the collaborators of a Handler.
type Deps struct {
	Billing  *controller.BillingController
	Sessions *controller.CallSessionController
	Clients  *controller.ClientController
	Accounts *controller.AccountService
	Store    Pinger
	Logger   *slog.Logger
	LogLevel *slog.LevelVar
	// TokenTTL is the default lifetime of tokens issued through POST /api/tokens.
	TokenTTL time.Duration
}

// NewHandler creates a Handler.
func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.LogLevel == nil {
		d.LogLevel = new(slog.LevelVar)
	}
	if d.TokenTTL <= 0 {
		d.TokenTTL = controller.DefaultSessionTTL
	}
	return &Handler{
		billing:  d.Billing,
		sessions: d.Sessions,
		clients:  d.Clients,
		accounts: d.Accounts,
		store:    d.Store,
		logger:   d.Logger,
		logLevel: d.LogLevel,
		tokenTTL: d.TokenTTL,
	}
}
