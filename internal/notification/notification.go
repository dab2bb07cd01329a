package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/ticketdesk/ticketdesk/internal/config"
)

// Message describes an outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Notifier delivers messages best-effort; callers log failures and move on.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the
// logger. Used in development and tests where no SMTP relay exists.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "to", message.To, "subject", message.Subject)
	return nil
}

// SMTPNotifier delivers mail through a plain SMTP relay.
type SMTPNotifier struct {
	cfg config.SMTP
}

// NewSMTPNotifier constructs a notifier from SMTP settings.
func NewSMTPNotifier(cfg config.SMTP) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

// Send submits the message to the configured relay.
func (n *SMTPNotifier) Send(_ context.Context, message Message) error {
	addr := n.cfg.Host + ":" + n.cfg.Port
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		n.cfg.From, message.To, message.Subject, message.HTML)
	return smtp.SendMail(addr, auth, n.cfg.From, []string{message.To}, []byte(body))
}
