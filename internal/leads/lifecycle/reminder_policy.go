package lifecycle

import (
	"time"

	"training_leads_backend/internal/leads/domain"
)

const (
	// FirstReminderDay is the invoice age at which the first reminder is due.
	FirstReminderDay = 3
	// CloseToArchivalDays is the invoice age from which an unpaid lead is flagged.
	CloseToArchivalDays = 7
	// ArchivalAfterDays is the invoice age at which an unpaid lead is archived.
	ArchivalAfterDays = 14
	// ReminderIntervalDays spaces reminders after the second one.
	ReminderIntervalDays = 7
)

// ReminderDecision tells a sweep what SendPaymentReminder would do today.
type ReminderDecision int

const (
	ReminderNotDue ReminderDecision = iota
	ReminderSend
	ArchivalDue
)

func (d ReminderDecision) String() string {
	switch d {
	case ReminderSend:
		return "reminder_due"
	case ArchivalDue:
		return "archival_due"
	default:
		return "not_due"
	}
}

// DaysSinceInvoice is the number of whole days elapsed since the invoice date.
func DaysSinceInvoice(lead domain.Lead, now time.Time) int {
	if lead.InvoiceDate == nil {
		return 0
	}
	elapsed := now.Sub(*lead.InvoiceDate)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / (24 * time.Hour))
}

// ReminderDayFor is the invoice age at which reminder n becomes due:
// day 3, day 7, then every 7 days.
func ReminderDayFor(n int) int {
	switch {
	case n <= 1:
		return FirstReminderDay
	case n == 2:
		return CloseToArchivalDays
	default:
		return CloseToArchivalDays + (n-2)*ReminderIntervalDays
	}
}

// ReminderDue decides whether a daily sweep should call SendPaymentReminder
// for lead, so reminders follow the day 3 / day 7 / weekly cadence instead of
// one per sweep. At most one reminder is sent per 24 hours.
func ReminderDue(lead domain.Lead, now time.Time) ReminderDecision {
	if lead.Status != domain.StatusAwaitingPayment || lead.InvoiceDate == nil {
		return ReminderNotDue
	}

	days := DaysSinceInvoice(lead, now)
	if days >= ArchivalAfterDays && lead.AmountPaid == 0 {
		return ArchivalDue
	}
	if lead.LastReminderAt != nil && now.Sub(*lead.LastReminderAt) < 24*time.Hour {
		return ReminderNotDue
	}
	if days >= ReminderDayFor(lead.ReminderCount+1) {
		return ReminderSend
	}
	return ReminderNotDue
}
