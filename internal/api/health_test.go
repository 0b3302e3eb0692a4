package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jarviz-io/jarviz-api/internal/testutil/mockstore"
)

func TestHandleHealth(t *testing.T) {
	t.Parallel()
	h := NewHandler(Deps{})

	w := httptest.NewRecorder()
	h.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if got := decodeBody[map[string]string](t, w); got["status"] != "ok" {
		t.Errorf("status field = %q, want ok", got["status"])
	}
}

func TestHandleReady(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		store    Pinger
		status   int
		database string
	}{
		{"connected", &mockstore.MockExecutor{}, http.StatusOK, "connected"},
		{
			"unavailable",
			&mockstore.MockExecutor{PingFunc: func(context.Context) error { return errors.New("connection refused") }},
			http.StatusServiceUnavailable,
			"unavailable",
		},
		{"not configured", nil, http.StatusServiceUnavailable, "not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewHandler(Deps{Store: tt.store, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

			w := httptest.NewRecorder()
			h.HandleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if got := decodeBody[map[string]string](t, w); got["database"] != tt.database {
				t.Errorf("database = %q, want %q", got["database"], tt.database)
			}
		})
	}
}
