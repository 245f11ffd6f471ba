package mailer

import (
	"context"
	"fmt"

	"github.com/textsimplify/api/internal/config"
	"github.com/textsimplify/api/internal/logging"
	"github.com/textsimplify/api/internal/metrics"
	"github.com/wneessen/go-mail"
)

// Sender delivers account emails
type Sender interface {
	SendVerification(ctx context.Context, to, name, url string) error
	SendPasswordReset(ctx context.Context, to, name, url string) error
}

// Mailer sends email through an SMTP relay
type Mailer struct {
	client      *mail.Client
	fromName    string
	fromAddress string
	log         *logging.Logger
}

// New creates a new SMTP mailer
func New(cfg config.EmailConfig, log *logging.Logger) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	return &Mailer{
		client:      client,
		fromName:    cfg.FromName,
		fromAddress: cfg.FromAddress,
		log:         log,
	}, nil
}

const verificationBody = `Hello %s,

Please verify your email by clicking the link below:

%s

This link will expire in 24 hours.

Regards,
Text Simplifier Team`

const resetBody = `Hello %s,

Reset your password by clicking the link below:

%s

This link will expire in 30 minutes.

Regards,
Text Simplifier Team`

// SendVerification sends an email verification link
func (m *Mailer) SendVerification(ctx context.Context, to, name, url string) error {
	body := fmt.Sprintf(verificationBody, name, url)
	err := m.send(ctx, to, "Email Verification", body)
	m.log.LogEmailDelivery(to, "verification", err)
	return m.observe("verification", err)
}

// SendPasswordReset sends a password reset link
func (m *Mailer) SendPasswordReset(ctx context.Context, to, name, url string) error {
	body := fmt.Sprintf(resetBody, name, url)
	err := m.send(ctx, to, "Password Reset Request", body)
	m.log.LogEmailDelivery(to, "reset", err)
	return m.observe("reset", err)
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(m.fromName, m.fromAddress); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (m *Mailer) observe(kind string, err error) error {
	status := "sent"
	if err != nil {
		status = "failed"
	}
	metrics.EmailsSentTotal.WithLabelValues(kind, status).Inc()
	return err
}
