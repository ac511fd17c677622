package lifecycle

import (
	"context"
	"fmt"
	"strconv"

	"training_leads_backend/internal/events"
	"training_leads_backend/internal/leads/domain"
	"training_leads_backend/internal/leads/repository"
	"training_leads_backend/platform/apperr"
)

const (
	opChooseFinancing     = "choose_financing"
	opSubmitQuote         = "submit_quote"
	opValidateInvoice     = "validate_invoice"
	opRecordPayment       = "record_payment"
	opSendPaymentReminder = "send_payment_reminder"

	// DefaultMinimumEnrollmentPercent applies when neither the call nor the
	// configuration sets a threshold.
	DefaultMinimumEnrollmentPercent = 30
)

// FinancingInput picks the funding method.
type FinancingInput struct {
	Type domain.FinancingType `validate:"required,financing_type"`
}

// QuoteInput prices the training.
type QuoteInput struct {
	Volume        float64      `validate:"gt=0"`
	UnitRate      domain.Money `validate:"gt=0,lte=1000000000000"`
	IsManualEntry bool
}

// PaymentInput records money received.
type PaymentInput struct {
	Amount domain.Money `validate:"gt=0,lte=1000000000000"`
	// MinimumPercent overrides the configured enrollment threshold.
	MinimumPercent *int `validate:"omitempty,min=1,max=100"`
}

// ReminderInput logs a payment reminder.
type ReminderInput struct {
	Notes string `validate:"max=2000"`
}

// Financing is the preconditioned sub-state-machine from financing choice to
// enrollment or archival.
type Financing struct {
	*runner
}

// NewFinancing creates the financing workflow.
func NewFinancing(deps Deps) *Financing {
	return &Financing{runner: newRunner(deps)}
}

// ChooseFinancing records the funding method and routes the lead.
func (f *Financing) ChooseFinancing(ctx context.Context, ref Ref, in FinancingInput) (Result, error) {
	if err := f.validate(opChooseFinancing, in); err != nil {
		return Result{}, err
	}

	return f.run(ctx, opChooseFinancing, ref, func(s *step) error {
		lead := s.lead
		if lead.Status != domain.StatusAppointmentScheduled && lead.Status != domain.StatusDecisionPending {
			return apperr.Precondition(string(lead.Status), statusNames(domain.FinancingEntryStatuses)...)
		}

		ft := in.Type
		lead.FinancingType = &ft
		lead.Status = ft.NextStatus()

		s.note = fmt.Sprintf("Financing chosen: %s", ft)
		s.auditType = repository.EventTypeFinancingChosen
		s.auditDesc = "Financing chosen: " + string(ft)
		return nil
	})
}

// SubmitQuote computes total = volume × rate. A system-computed quote is
// marked validated; a manual one waits for ValidateInvoice. Status is unchanged.
func (f *Financing) SubmitQuote(ctx context.Context, ref Ref, in QuoteInput) (Result, error) {
	if err := f.validate(opSubmitQuote, in); err != nil {
		return Result{}, err
	}
	total, ok := domain.QuoteTotal(in.Volume, in.UnitRate)
	if !ok {
		return Result{}, apperr.Validation("quote total too large").WithOp(opSubmitQuote)
	}
	if total <= 0 {
		return Result{}, apperr.Validation("quote total rounds to zero").WithOp(opSubmitQuote)
	}

	return f.run(ctx, opSubmitQuote, ref, func(s *step) error {
		lead := s.lead
		if lead.Status != domain.StatusQuoteInProgress {
			return apperr.Precondition(string(lead.Status), string(domain.StatusQuoteInProgress))
		}
		if lead.InvoiceDate != nil {
			return apperr.Financial("invoice already issued, the quote cannot change")
		}

		volume := in.Volume
		rate := in.UnitRate
		lead.QuoteVolume = &volume
		lead.QuoteUnitRate = &rate
		lead.TotalAmount = &total
		lead.InvoiceValidated = !in.IsManualEntry

		kind := "system computed"
		if in.IsManualEntry {
			kind = "manual entry, requires validation"
		}
		s.note = fmt.Sprintf("Quote submitted: %s × %s = %s (%s)",
			strconv.FormatFloat(volume, 'f', -1, 64), rate, total, kind)
		s.auditType = repository.EventTypeQuoteSubmitted
		s.auditDesc = "Quote submitted"
		s.metadata = func(tm repository.TransitionMetadata) map[string]any {
			return repository.QuoteMetadata{
				TransitionMetadata: tm,
				Volume:             volume,
				UnitRateCents:      int64(rate),
				TotalCents:         int64(total),
				ManualEntry:        in.IsManualEntry,
			}.ToMap()
		}
		return nil
	})
}

// ValidateInvoice issues the invoice: it stamps the invoice date and moves the
// lead to awaiting payment. An invoice is validated once; a second call is a
// financial error and changes nothing. A system-computed quote, already
// flagged validated by SubmitQuote, still goes through this call to be issued.
func (f *Financing) ValidateInvoice(ctx context.Context, ref Ref) (Result, error) {
	return f.run(ctx, opValidateInvoice, ref, func(s *step) error {
		lead := s.lead
		if lead.InvoiceDate != nil {
			return apperr.Financial("invoice already validated")
		}
		if lead.Status != domain.StatusQuoteInProgress {
			return apperr.Precondition(string(lead.Status), string(domain.StatusQuoteInProgress))
		}
		if lead.TotalAmount == nil || *lead.TotalAmount <= 0 {
			return apperr.Financial("cannot validate invoice: quote total is not set")
		}

		now := s.now
		lead.InvoiceValidated = true
		lead.InvoiceDate = &now
		lead.Status = domain.StatusAwaitingPayment
		lead.ReminderCount = 0
		lead.LastReminderAt = nil

		s.note = fmt.Sprintf("Invoice validated for %s", *lead.TotalAmount)
		s.auditType = repository.EventTypeInvoiceValidated
		s.auditDesc = "Invoice validated"
		return nil
	})
}

// RecordPayment adds amount to the cumulative paid total and enrolls the lead
// once it covers minimumPercent of the total.
func (f *Financing) RecordPayment(ctx context.Context, ref Ref, in PaymentInput) (Result, error) {
	if err := f.validate(opRecordPayment, in); err != nil {
		return Result{}, err
	}
	percent := f.minimumPercent()
	if in.MinimumPercent != nil {
		percent = *in.MinimumPercent
	}

	res, err := f.run(ctx, opRecordPayment, ref, func(s *step) error {
		lead := s.lead
		if lead.Status != domain.StatusAwaitingPayment {
			return apperr.Precondition(string(lead.Status), string(domain.StatusAwaitingPayment))
		}
		if lead.TotalAmount == nil || *lead.TotalAmount <= 0 {
			return apperr.Financial("cannot record payment: invoice total is not set")
		}

		total := *lead.TotalAmount
		paid, ok := domain.AddPayment(lead.AmountPaid, in.Amount)
		if !ok {
			return apperr.Financial("payment would exceed the maximum recordable amount")
		}
		now := s.now
		lead.AmountPaid = paid
		lead.PaymentDate = &now
		lead.ReminderCount = 0
		lead.LastReminderAt = nil

		threshold := domain.ThresholdAmount(total, percent)
		passed := domain.MeetsThreshold(lead.AmountPaid, total, percent)
		if passed {
			lead.Status = domain.StatusEnrolled
			lead.ConvertedAt = &now
		}

		s.result.ThresholdAmount = threshold
		s.result.Enrolled = passed
		s.note = fmt.Sprintf("Payment of %s received, %s of %s paid (minimum %d%%: %s)",
			in.Amount, lead.AmountPaid, total, percent, threshold)
		if passed {
			s.note += ". Enrolled"
		}
		s.auditType = repository.EventTypePaymentRecorded
		s.auditDesc = "Payment recorded: " + in.Amount.String()
		paid = lead.AmountPaid
		s.metadata = func(tm repository.TransitionMetadata) map[string]any {
			return repository.PaymentMetadata{
				TransitionMetadata: tm,
				AmountCents:        int64(in.Amount),
				PaidCents:          int64(paid),
				TotalCents:         int64(total),
				MinimumPercent:     percent,
				ThresholdCents:     int64(threshold),
				ThresholdPassed:    passed,
			}.ToMap()
		}
		return nil
	})
	if err == nil {
		f.metrics.PaymentsRecorded.WithLabelValues(strconv.FormatBool(res.Enrolled)).Inc()
	}
	return res, err
}

// SendPaymentReminder logs the next reminder, or archives the lead when the
// invoice is ArchivalAfterDays old and nothing was paid, whatever the number
// of reminders already sent.
func (f *Financing) SendPaymentReminder(ctx context.Context, ref Ref, in ReminderInput) (Result, error) {
	if err := f.validate(opSendPaymentReminder, in); err != nil {
		return Result{}, err
	}

	res, err := f.run(ctx, opSendPaymentReminder, ref, func(s *step) error {
		lead := s.lead
		if lead.Status != domain.StatusAwaitingPayment {
			return apperr.Precondition(string(lead.Status), string(domain.StatusAwaitingPayment))
		}
		if lead.InvoiceDate == nil {
			return apperr.Financial("cannot send payment reminder: invoice date is not set")
		}

		days := DaysSinceInvoice(*lead, s.now)
		if days >= ArchivalAfterDays && lead.AmountPaid == 0 {
			reason := fmt.Sprintf("no payment received after %d days and %d reminders", ArchivalAfterDays, lead.ReminderCount)
			markLost(lead, reason)

			s.result.Archived = true
			s.note = withNotes("Lead archived: "+reason, in.Notes)
			s.auditType = repository.EventTypeLeadArchived
			s.auditDesc = "Archived for non-payment"
			count := lead.ReminderCount
			s.metadata = func(tm repository.TransitionMetadata) map[string]any {
				return repository.ReminderMetadata{
					TransitionMetadata: tm,
					ReminderCount:      count,
					DaysElapsed:        days,
				}.ToMap()
			}
			return nil
		}

		now := s.now
		lead.ReminderCount++
		lead.LastReminderAt = &now
		closeToArchival := days >= CloseToArchivalDays && lead.AmountPaid == 0

		s.result.ReminderNumber = lead.ReminderCount
		s.result.CloseToArchival = closeToArchival

		note := fmt.Sprintf("Payment reminder #%d sent (day %d since invoice)", lead.ReminderCount, days)
		if closeToArchival {
			note += fmt.Sprintf(". Close to archival: lead is archived at day %d without payment", ArchivalAfterDays)
		}
		s.note = withNotes(note, in.Notes)
		s.auditType = repository.EventTypePaymentReminder
		s.auditDesc = fmt.Sprintf("Payment reminder #%d", lead.ReminderCount)
		count := lead.ReminderCount
		s.metadata = func(tm repository.TransitionMetadata) map[string]any {
			return repository.ReminderMetadata{
				TransitionMetadata: tm,
				ReminderCount:      count,
				DaysElapsed:        days,
				CloseToArchival:    closeToArchival,
			}.ToMap()
		}
		s.extra = append(s.extra, events.PaymentReminderRecorded{
			BaseEvent:       events.NewBaseEvent(now),
			LeadID:          lead.ID,
			OrganizationID:  lead.OrganizationID,
			OwnerID:         lead.AssignedOwnerID,
			ReminderNumber:  count,
			CloseToArchival: closeToArchival,
		})
		return nil
	})
	if err == nil && !res.Archived {
		f.metrics.RemindersSent.Inc()
	}
	return res, err
}

func (f *Financing) minimumPercent() int {
	if f.cfg != nil {
		if p := f.cfg.GetMinimumEnrollmentPercent(); p >= 1 && p <= 100 {
			return p
		}
	}
	return DefaultMinimumEnrollmentPercent
}
