package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderLeadEnrolledEmail(t *testing.T) {
	content, err := render(tmplLeadEnrolled, message{
		Heading:    "Lead enrolled",
		OwnerName:  "Camille",
		LeadRef:    "lead-1",
		AmountPaid: euros(27000),
		Total:      euros(90000),
	})
	require.NoError(t, err)

	assert.Contains(t, content, "Hello Camille,")
	assert.Contains(t, content, "€270.00 of €900.00")
	assert.Contains(t, content, "Lead reference: lead-1")
}

func TestRenderLeadArchivedEscapesReason(t *testing.T) {
	content, err := render(tmplLeadArchived, message{LeadRef: "lead-2", Reason: "<b>no payment</b>"})
	require.NoError(t, err)

	assert.Contains(t, content, "Hello there,")
	assert.Contains(t, content, "&lt;b&gt;no payment&lt;/b&gt;")
}

func TestEuros(t *testing.T) {
	assert.Equal(t, "€0.05", euros(5))
	assert.Equal(t, "€1234.50", euros(123450))
}

func TestRenderReminderEscalation(t *testing.T) {
	content, err := render(tmplReminderEscalation, message{Heading: "Payment reminder sent", ReminderNumber: 3})
	require.NoError(t, err)
	assert.Contains(t, content, "<title>Payment reminder sent</title>")
	assert.Contains(t, content, "Payment reminder 3 has been sent")
}

type smtpConfig struct{ enabled bool }

func (c smtpConfig) GetSMTPHost() string        { return "smtp.example.com" }
func (c smtpConfig) GetSMTPPort() int           { return 587 }
func (c smtpConfig) GetSMTPUsername() string    { return "user" }
func (c smtpConfig) GetSMTPPassword() string    { return "pass" }
func (c smtpConfig) GetSMTPFromAddress() string { return "leads@example.com" }
func (c smtpConfig) GetSMTPFromName() string    { return "Leads" }
func (c smtpConfig) IsSMTPEnabled() bool        { return c.enabled }

func TestNewSenderFallsBackToNoop(t *testing.T) {
	assert.IsType(t, NoopSender{}, NewSender(smtpConfig{}))
	assert.IsType(t, &SMTPSender{}, NewSender(smtpConfig{enabled: true}))
}
