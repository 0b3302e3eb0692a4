package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func debugLogger(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: level}))
}

func logEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e map[string]any
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestHTTPLogging_Debug(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var handlerBody string
	handler := HTTPLogging(debugLogger(&buf, slog.LevelDebug), []string{"password", "token"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			handlerBody = string(b)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"email":"a@example.com","token":"0123456789abcdef"}`))
		}))

	body := `{"email":"a@example.com","password":"hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/api/account/login?x=1", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer 0123456789abcdef")
	req = req.WithContext(WithRequestID(req.Context(), "req-42"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if handlerBody != body {
		t.Errorf("handler saw body %q, want the original", handlerBody)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}

	out := buf.String()
	for _, secret := range []string{"hunter2", "0123456789abcdef"} {
		if strings.Contains(out, secret) {
			t.Errorf("log leaks %q: %s", secret, out)
		}
	}

	entries := logEntries(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected request and response entries, got %d", len(entries))
	}
	reqLog, respLog := entries[0], entries[1]
	if reqLog["msg"] != "HTTP Request" || reqLog["request_id"] != "req-42" || reqLog["query_params"] != "x=1" {
		t.Errorf("unexpected request entry: %v", reqLog)
	}
	headers, _ := reqLog["headers"].(map[string]any)
	if headers["Authorization"] != "Bearer ****cdef" {
		t.Errorf("authorization not masked: %v", headers["Authorization"])
	}
	if respLog["msg"] != "HTTP Response" || respLog["status_code"] != float64(http.StatusCreated) {
		t.Errorf("unexpected response entry: %v", respLog)
	}
	if _, ok := respLog["duration_ms"]; !ok {
		t.Error("response entry has no duration")
	}
}

func TestHTTPLogging_QuietAboveDebug(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	called := false
	handler := HTTPLogging(debugLogger(&buf, slog.LevelInfo), nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusNoContent)
		}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if !called {
		t.Error("handler was not called")
	}
	if buf.Len() != 0 {
		t.Errorf("expected no logs at INFO, got %s", buf.String())
	}
}

func TestHTTPLogging_Bodies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp []byte
		want string
	}{
		{"empty", nil, ""},
		{"binary", []byte{0xff, 0xfe, 0xfd}, "[BINARY: 3 bytes]"},
		{"not json", []byte("plain text"), "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			handler := HTTPLogging(debugLogger(&buf, slog.LevelDebug), []string{"password"})(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					_, _ = w.Write(tt.resp)
				}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/clients", nil))

			entries := logEntries(t, &buf)
			if len(entries) != 2 {
				t.Fatalf("expected 2 entries, got %d", len(entries))
			}
			if entries[1]["body"] != tt.want {
				t.Errorf("body = %q, want %q", entries[1]["body"], tt.want)
			}
			if entries[1]["status_code"] != float64(http.StatusOK) {
				t.Errorf("implicit status not recorded: %v", entries[1]["status_code"])
			}
		})
	}
}
