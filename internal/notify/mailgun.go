package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jarviz-io/jarviz-api/internal/metrics"
)

const (
	// DefaultBaseURL is the Mailgun API endpoint.
	DefaultBaseURL = "https://api.mailgun.net"
	// DefaultFrom is the sender of account mails.
	DefaultFrom = "hal9000@jarviz.io"
)

// MailgunClient sends messages through the Mailgun messages API.
type MailgunClient struct {
	baseURL    string
	apiKey     string
	domain     string
	from       string
	httpClient *http.Client
}

// Option configures a MailgunClient.
type Option func(*MailgunClient)

// WithBaseURL sets a custom base URL (useful for testing with a mock server).
func WithBaseURL(url string) Option {
	return func(c *MailgunClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *MailgunClient) {
		c.httpClient = client
	}
}

// WithFrom sets the sender address.
func WithFrom(from string) Option {
	return func(c *MailgunClient) {
		c.from = from
	}
}

// NewMailgunClient creates a client sending from domain.
func NewMailgunClient(apiKey, domain string, opts ...Option) *MailgunClient {
	c := &MailgunClient{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		domain:     domain,
		from:       DefaultFrom,
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// sendResponse is the body Mailgun returns for accepted and rejected messages.
type sendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Send implements Mailer.
func (c *MailgunClient) Send(ctx context.Context, msg Message) error {
	err := c.send(ctx, msg)
	if err != nil {
		metrics.RecordMailDelivery(msg.Template, "error")
		return err
	}
	metrics.RecordMailDelivery(msg.Template, "ok")
	return nil
}

func (c *MailgunClient) send(ctx context.Context, msg Message) error {
	body, err := Render(msg)
	if err != nil {
		return &DeliveryError{Template: msg.Template, Err: err}
	}

	form := url.Values{}
	form.Set("from", c.from)
	form.Set("to", msg.To)
	form.Set("subject", msg.Subject)
	form.Set("html", body)

	endpoint := fmt.Sprintf("%s/v3/%s/messages", c.baseURL, url.PathEscape(c.domain))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return &DeliveryError{Template: msg.Template, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.SetBasicAuth("api", c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &DeliveryError{Template: msg.Template, Err: err}
	}
	defer func() {
		//nolint:errcheck
		resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &DeliveryError{Template: msg.Template, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return parseError(msg.Template, resp.StatusCode, respBody)
	}
	return nil
}

func parseError(tmpl string, statusCode int, body []byte) error {
	e := &DeliveryError{Template: tmpl, StatusCode: statusCode}
	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		e.Err = ErrUnauthorized
	}

	var parsed sendResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		e.Message = parsed.Message
	} else {
		e.Message = http.StatusText(statusCode)
	}
	return e
}
