package notify

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jarviz-io/jarviz-api/internal/middleware"
)

// LoggingTransport wraps an http.RoundTripper and logs every mail API call.
// Credentials are redacted and rendered mail bodies are replaced by their size.
type LoggingTransport struct {
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	requestID := middleware.GetRequestID(req.Context())

	var reqBody []byte
	if req.Body != nil {
		var err error
		reqBody, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(reqBody))
	}

	headers := make(map[string]string)
	for k, v := range req.Header {
		if strings.EqualFold(k, "Authorization") {
			headers[k] = redactSensitiveData(strings.Join(v, ", "))
		} else {
			headers[k] = strings.Join(v, ", ")
		}
	}

	t.Logger.Debug("Mail API request",
		"request_id", requestID,
		"method", req.Method,
		"url", req.URL.String(),
		"headers", headers,
		"body", summarizeForm(reqBody),
	)

	resp, err := t.transport().RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		t.Logger.Error("Mail API request failed",
			"request_id", requestID,
			"method", req.Method,
			"url", req.URL.String(),
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(respBody))

	t.Logger.Debug("Mail API response",
		"request_id", requestID,
		"status_code", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
		"body", string(respBody),
	)

	return resp, nil
}

func (t *LoggingTransport) transport() http.RoundTripper {
	if t.Transport != nil {
		return t.Transport
	}
	return http.DefaultTransport
}

// summarizeForm returns the form fields of a message with html and text bodies
// replaced by their length.
func summarizeForm(body []byte) map[string]string {
	out := make(map[string]string)
	values, err := url.ParseQuery(string(body))
	if err != nil {
		out["unparsed_bytes"] = strconv.Itoa(len(body))
		return out
	}
	for k, v := range values {
		val := strings.Join(v, ", ")
		if k == "html" || k == "text" {
			val = "[" + strconv.Itoa(len(val)) + " bytes]"
		}
		out[k] = val
	}
	return out
}

// redactSensitiveData redacts credentials showing only the first 4 and last 4 chars.
// Values shorter than 12 characters are replaced with "****".
func redactSensitiveData(key string) string {
	if len(key) < 12 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
