// Package notify renders and delivers account mails.
package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
)

// Template names.
const (
	TemplateWelcome = "welcome"
	TemplateRestore = "restore"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Message is one mail. Vars are passed to the template named by Template.
type Message struct {
	Template string
	To       string
	Subject  string
	Vars     map[string]any
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Render executes the template of msg and returns the HTML body.
func Render(msg Message) (string, error) {
	t := templates.Lookup(msg.Template + ".html")
	if t == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, msg.Template)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, msg.Vars); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", msg.Template, err)
	}
	return buf.String(), nil
}

// LogMailer renders messages and logs them instead of sending them.
// Template variables are not logged since they can hold restore keys.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer. A nil logger uses slog.Default().
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

// Send implements Mailer.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	body, err := Render(msg)
	if err != nil {
		return &DeliveryError{Template: msg.Template, Err: err}
	}
	m.logger.InfoContext(ctx, "mail not sent, no mail API configured",
		"template", msg.Template,
		"to", msg.To,
		"subject", msg.Subject,
		"body_bytes", len(body),
	)
	return nil
}
