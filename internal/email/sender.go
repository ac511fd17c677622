package email

import (
	"context"

	"training_leads_backend/platform/config"
)

// Sender delivers owner notifications about lead lifecycle milestones.
type Sender interface {
	SendLeadEnrolledEmail(ctx context.Context, toEmail, ownerName, leadRef string, amountPaidCents, totalCents int64) error
	SendLeadArchivedEmail(ctx context.Context, toEmail, ownerName, leadRef, reason string) error
	SendReminderEscalationEmail(ctx context.Context, toEmail, ownerName, leadRef string, reminderNumber int) error
}

// NoopSender drops every email. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendLeadEnrolledEmail(ctx context.Context, toEmail, ownerName, leadRef string, amountPaidCents, totalCents int64) error {
	return nil
}

func (NoopSender) SendLeadArchivedEmail(ctx context.Context, toEmail, ownerName, leadRef, reason string) error {
	return nil
}

func (NoopSender) SendReminderEscalationEmail(ctx context.Context, toEmail, ownerName, leadRef string, reminderNumber int) error {
	return nil
}

// NewSender returns an SMTP sender when SMTP is configured and a no-op sender otherwise.
func NewSender(cfg config.SMTPConfig) Sender {
	if !cfg.IsSMTPEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(cfg)
}
