// Package email implements an SMTP-based email notifier
package email

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/alphatic/alphatic/internal/core"
	"github.com/alphatic/alphatic/internal/notifier"
)

// Email implements the Notifier interface for SMTP email
type Email struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
}

// New creates a new Email notifier
func New(host string, port int, username, password, from string, to []string) *Email {
	return &Email{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
	}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Init(cfg notifier.Config) error {
	if host, ok := cfg.Params["host"].(string); ok {
		e.host = host
	}
	if port, ok := cfg.Params["port"].(int); ok {
		e.port = port
	}
	if username, ok := cfg.Params["username"].(string); ok {
		e.username = username
	}
	if password, ok := cfg.Params["password"].(string); ok {
		e.password = password
	}
	if from, ok := cfg.Params["from"].(string); ok {
		e.from = from
	}
	if to, ok := cfg.Params["to"].([]string); ok {
		e.to = to
	}

	if e.host == "" || e.from == "" || len(e.to) == 0 {
		return core.WrapErrorf(core.ErrConfigMissing, "email: host, from, and to are required")
	}
	return nil
}

func (e *Email) Send(alert notifier.Alert) error {
	subject := fmt.Sprintf("alphatic alert: %s %s", alert.Kind, alert.Ticker)
	return e.sendEmail(subject, formatAlert(alert))
}

func (e *Email) SendBatch(alerts []notifier.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	subject := fmt.Sprintf("alphatic digest: %d alerts", len(alerts))

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("alphatic alerts, generated %s\n\n",
		time.Now().Format("2006-01-02 15:04:05")))

	for _, alert := range alerts {
		sb.WriteString(formatAlert(alert))
		sb.WriteString("\n----\n\n")
	}

	return e.sendEmail(subject, sb.String())
}

func formatAlert(alert notifier.Alert) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Kind: %s\n", alert.Kind))
	if alert.Ticker != "" {
		sb.WriteString(fmt.Sprintf("Ticker: %s\n", alert.Ticker))
	}
	sb.WriteString(fmt.Sprintf("Message: %s\n", alert.Message))
	for k, v := range alert.Details {
		sb.WriteString(fmt.Sprintf("  %s: %v\n", k, v))
	}
	sb.WriteString(fmt.Sprintf("Time: %s\n", alert.At.Format("2006-01-02 15:04:05")))
	return sb.String()
}

func (e *Email) sendEmail(subject, body string) error {
	addr := fmt.Sprintf("%s:%d", e.host, e.port)

	var auth smtp.Auth
	if e.username != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.host)
	}

	msg := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n"+
		"\r\n"+
		"%s",
		e.from,
		strings.Join(e.to, ","),
		subject,
		body,
	)

	if err := smtp.SendMail(addr, auth, e.from, e.to, []byte(msg)); err != nil {
		return core.WrapError(core.ErrNotifierFailed, err)
	}
	return nil
}
