package email

import (
	"context"
	"fmt"
	"html/template"
	"net"
	"time"

	"training_leads_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

const smtpTimeout = 15 * time.Second

// SMTPSender delivers the owner notifications through an SMTP relay.
type SMTPSender struct {
	host        string
	options     []gomail.Option
	fromName    string
	fromAddress string
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	options := []gomail.Option{
		gomail.WithPort(cfg.GetSMTPPort()),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(smtpTimeout),
		// Some relays publish AAAA records they do not listen on.
		gomail.WithDialContextFunc(func(ctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(ctx, "tcp4", addr)
		}),
	}
	if cfg.GetSMTPUsername() != "" {
		options = append(options,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.GetSMTPUsername()),
			gomail.WithPassword(cfg.GetSMTPPassword()),
		)
	}
	return &SMTPSender{
		host:        cfg.GetSMTPHost(),
		options:     options,
		fromName:    cfg.GetSMTPFromName(),
		fromAddress: cfg.GetSMTPFromAddress(),
	}
}

func (s *SMTPSender) SendLeadEnrolledEmail(ctx context.Context, toEmail, ownerName, leadRef string, amountPaidCents, totalCents int64) error {
	return s.deliver(ctx, toEmail, fmt.Sprintf(subjectLeadEnrolledFmt, leadRef), tmplLeadEnrolled, message{
		Heading:    "Lead enrolled",
		OwnerName:  ownerName,
		LeadRef:    leadRef,
		AmountPaid: euros(amountPaidCents),
		Total:      euros(totalCents),
	})
}

func (s *SMTPSender) SendLeadArchivedEmail(ctx context.Context, toEmail, ownerName, leadRef, reason string) error {
	return s.deliver(ctx, toEmail, fmt.Sprintf(subjectLeadArchivedFmt, leadRef), tmplLeadArchived, message{
		Heading:   "Lead archived",
		OwnerName: ownerName,
		LeadRef:   leadRef,
		Reason:    reason,
	})
}

func (s *SMTPSender) SendReminderEscalationEmail(ctx context.Context, toEmail, ownerName, leadRef string, reminderNumber int) error {
	return s.deliver(ctx, toEmail, fmt.Sprintf(subjectReminderEscalationFmt, leadRef, reminderNumber), tmplReminderEscalation, message{
		Heading:        "Payment reminder sent",
		OwnerName:      ownerName,
		LeadRef:        leadRef,
		ReminderNumber: reminderNumber,
	})
}

func (s *SMTPSender) deliver(ctx context.Context, to, subject string, tmpl *template.Template, m message) error {
	body, err := render(tmpl, m)
	if err != nil {
		return err
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromAddress); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, body)

	client, err := gomail.NewClient(s.host, s.options...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}
