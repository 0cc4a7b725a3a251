package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/ntuon/taskapp/internal/config"
)

// Mailer sends account lifecycle notifications. Implementations are
// best-effort collaborators: callers dispatch in the background and only
// log failures, they never surface them to the request.
type Mailer interface {
	SendWelcomeEmail(ctx context.Context, email, name string) error
	SendCancellationEmail(ctx context.Context, email, name string) error
}

// New returns a SendGrid-backed mailer, or a disabled no-op mailer when no
// API key is configured so local setups run without credentials.
func New(cfg *config.Config, logger *slog.Logger) Mailer {
	if cfg.SendGridAPIKey == "" {
		logger.Warn("⚠️ [Mail] No SendGrid API key configured, outbound mail disabled")
		return &disabledMailer{logger: logger}
	}
	return &sendGridMailer{
		client:      sendgrid.NewSendClient(cfg.SendGridAPIKey),
		fromAddress: cfg.MailFromAddress,
		fromName:    cfg.MailFromName,
		logger:      logger,
	}
}

type sendGridMailer struct {
	client      *sendgrid.Client
	fromAddress string
	fromName    string
	logger      *slog.Logger
}

func (m *sendGridMailer) SendWelcomeEmail(ctx context.Context, email, name string) error {
	subject := "Welcome to Tasks App"
	body := fmt.Sprintf("Welcome to the app, %s.", name)
	return m.send(ctx, email, name, subject, body)
}

func (m *sendGridMailer) SendCancellationEmail(ctx context.Context, email, name string) error {
	subject := "Sorry to see you go"
	body := fmt.Sprintf("Thanks %s", name)
	return m.send(ctx, email, name, subject, body)
}

func (m *sendGridMailer) send(ctx context.Context, email, name, subject, body string) error {
	from := sgmail.NewEmail(m.fromName, m.fromAddress)
	to := sgmail.NewEmail(name, email)
	message := sgmail.NewSingleEmail(from, subject, to, body, body)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid responded %d: %s", resp.StatusCode, resp.Body)
	}

	m.logger.Debug("📧 [Mail] Email sent", "to", email, "subject", subject)
	return nil
}

// disabledMailer drops all mail. Used when no provider key is configured.
type disabledMailer struct {
	logger *slog.Logger
}

func (m *disabledMailer) SendWelcomeEmail(ctx context.Context, email, name string) error {
	m.logger.Debug("📭 [Mail] Skipping welcome email, mail disabled", "to", email)
	return nil
}

func (m *disabledMailer) SendCancellationEmail(ctx context.Context, email, name string) error {
	m.logger.Debug("📭 [Mail] Skipping cancellation email, mail disabled", "to", email)
	return nil
}
