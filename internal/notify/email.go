package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/clinicflow/clinicflow/pkg/logging"
)

// EmailSender delivers a rendered nudge to the patient.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is one plain-text patient email.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// SendGridConfig configures the SendGrid sender.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// SendGridSender delivers nudges through the SendGrid API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// NewSendGridSender returns a SendGrid-backed sender, or nil when no
// API key is configured so callers can fall back to the stub.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "Clinicflow"
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, msg.Body)

	resp, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		s.logger.Error("sendgrid rejected message", "status", resp.StatusCode, "to", msg.To)
		return fmt.Errorf("notify: sendgrid returned status %d", resp.StatusCode)
	}

	s.logger.Info("nudge email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// StubEmailSender logs instead of sending, for development and tests.
type StubEmailSender struct {
	logger *logging.Logger
}

// NewStubEmailSender returns a sender that only logs.
func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Info("email delivery disabled, dropping nudge", "to", msg.To, "subject", msg.Subject)
	return nil
}
