package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"training_leads_backend/internal/leads/domain"
	"training_leads_backend/internal/leads/repository"
	"training_leads_backend/platform/apperr"
	"training_leads_backend/platform/sanitize"
)

const (
	opApplyCallResult  = "apply_call_result"
	opScheduleFollowUp = "schedule_follow_up"
	opMarkMissed       = "mark_missed_no_reschedule"
	opRecordConsent    = "record_consent"
	opRefreshScore     = "refresh_score"

	defaultNotInterestedReason = "prospect not interested"
	wrongNumberReason          = "wrong number"
	noteTimeLayout             = "02/01/2006 15:04"
)

// CallResultInput is the outcome of one qualification call.
type CallResultInput struct {
	Outcome        domain.CallOutcome `validate:"required,call_outcome"`
	RescheduleDate *time.Time
	Notes          string `validate:"max=2000"`
	LostReason     string `validate:"max=500"`
}

// FollowUpInput reschedules a lead into the callback bucket.
type FollowUpInput struct {
	Date  time.Time `validate:"required"`
	Notes string    `validate:"max=2000"`
}

// MissedInput records a missed appointment with no new date.
type MissedInput struct {
	Notes string `validate:"max=2000"`
}

// ConsentInput records a consent decision.
type ConsentInput struct {
	Granted *bool  `validate:"required"`
	Source  string `validate:"max=100"`
}

// Transitions interprets call outcomes and appointment events.
type Transitions struct {
	*runner
}

// NewTransitions creates the call-pipeline engine.
func NewTransitions(deps Deps) *Transitions {
	return &Transitions{runner: newRunner(deps)}
}

// ApplyCallResult moves the lead to the one status the outcome dictates.
func (t *Transitions) ApplyCallResult(ctx context.Context, ref Ref, in CallResultInput) (Result, error) {
	if err := t.validate(opApplyCallResult, in); err != nil {
		return Result{}, err
	}
	if err := t.requireFutureDate(opApplyCallResult, in.RescheduleDate); err != nil {
		return Result{}, err
	}

	return t.run(ctx, opApplyCallResult, ref, func(s *step) error {
		lead := s.lead
		if !lead.Status.AcceptsCallOutcome() {
			return apperr.Precondition(string(lead.Status), statusNames(domain.CallPipelineStatuses)...)
		}

		var note string
		switch in.Outcome {
		case domain.OutcomeInterested:
			lead.Status = domain.StatusAppointmentScheduled
			lead.NextCallDate = nil
			note = "Call outcome: interested, appointment scheduled"
			if in.RescheduleDate != nil {
				d := in.RescheduleDate.UTC()
				lead.AppointmentDate = &d
				note += " for " + d.Format(noteTimeLayout)
			}

		case domain.OutcomeNotInterested:
			reason := sanitize.Text(in.LostReason)
			if reason == "" {
				reason = defaultNotInterestedReason
			}
			markLost(lead, reason)
			note = "Call outcome: not interested (" + reason + ")"

		case domain.OutcomeCallBackRequested:
			lead.Status = domain.StatusCallbackPending
			lead.NextCallDate = utcPtr(in.RescheduleDate)
			note = "Call outcome: call back requested"
			if in.RescheduleDate != nil {
				note += " on " + in.RescheduleDate.UTC().Format(noteTimeLayout)
			}

		case domain.OutcomeNoAnswerVoicemailLeft:
			lead.Status = domain.StatusCallbackPending
			lead.NextCallDate = utcPtr(in.RescheduleDate)
			note = "[voicemail] Call outcome: no answer, voicemail left"

		case domain.OutcomeNoAnswerUnreachable:
			lead.CallAttempts++
			if lead.CallAttempts >= domain.MaxUnreachableAttempts {
				markLost(lead, fmt.Sprintf("unreachable after %d attempts", lead.CallAttempts))
				note = fmt.Sprintf("Call outcome: unreachable, attempt %d, lead closed", lead.CallAttempts)
			} else {
				lead.Status = domain.StatusCallbackPending
				lead.NextCallDate = utcPtr(in.RescheduleDate)
				note = fmt.Sprintf("Call outcome: unreachable, attempt %d of %d", lead.CallAttempts, domain.MaxUnreachableAttempts)
			}

		case domain.OutcomeWrongNumber:
			markLost(lead, wrongNumberReason)
			note = "Call outcome: wrong number. Email follow-up required, do not call"
		}

		s.note = withNotes(note, in.Notes)
		s.auditType = repository.EventTypeCallResult
		s.auditDesc = "Call result recorded: " + string(in.Outcome)
		s.metadata = func(tm repository.TransitionMetadata) map[string]any {
			return repository.CallResultMetadata{
				TransitionMetadata: tm,
				Outcome:            string(in.Outcome),
				CallAttempts:       lead.CallAttempts,
				RescheduleDate:     in.RescheduleDate,
			}.ToMap()
		}
		return nil
	})
}

// ScheduleFollowUp reschedules the lead into the callback bucket whatever its
// current stage. An enrolled lead cannot be reopened. An issued invoice with
// nothing paid is voided so the lead can be quoted again; one with payments
// recorded blocks the move. A lost lead has its lost reason and call attempts
// cleared.
func (t *Transitions) ScheduleFollowUp(ctx context.Context, ref Ref, in FollowUpInput) (Result, error) {
	if err := t.validate(opScheduleFollowUp, in); err != nil {
		return Result{}, err
	}
	if err := t.requireFutureDate(opScheduleFollowUp, &in.Date); err != nil {
		return Result{}, err
	}

	return t.run(ctx, opScheduleFollowUp, ref, func(s *step) error {
		lead := s.lead
		if lead.Status == domain.StatusEnrolled {
			return apperr.Precondition(string(lead.Status), "any status except enrolled")
		}
		if lead.AmountPaid > 0 {
			return apperr.Financial("cannot reschedule a lead with recorded payments")
		}
		if lead.InvoiceDate != nil {
			voidInvoice(lead)
		}
		if lead.Status == domain.StatusLost {
			lead.LostReason = nil
			lead.CallAttempts = 0
		}

		date := in.Date.UTC()
		lead.Status = domain.StatusCallbackPending
		lead.NextCallDate = &date

		s.note = withNotes("Follow-up call scheduled for "+date.Format(noteTimeLayout), in.Notes)
		s.auditType = repository.EventTypeFollowUpScheduled
		s.auditDesc = "Follow-up scheduled"
		return nil
	})
}

// MarkMissedNoReschedule sends the lead back to the callback bucket with no
// date, meaning it needs another call attempt.
func (t *Transitions) MarkMissedNoReschedule(ctx context.Context, ref Ref, in MissedInput) (Result, error) {
	if err := t.validate(opMarkMissed, in); err != nil {
		return Result{}, err
	}

	return t.run(ctx, opMarkMissed, ref, func(s *step) error {
		lead := s.lead
		if !lead.Status.AcceptsCallOutcome() {
			return apperr.Precondition(string(lead.Status), statusNames(domain.CallPipelineStatuses)...)
		}

		lead.Status = domain.StatusCallbackPending
		lead.NextCallDate = nil

		s.note = withNotes("Appointment missed, no new date: needs another call attempt", in.Notes)
		s.auditType = repository.EventTypeMissedNoReschedule
		s.auditDesc = "Appointment missed without reschedule"
		return nil
	})
}

// RecordConsent stores a consent decision; the score picks it up in the same
// transaction.
func (t *Transitions) RecordConsent(ctx context.Context, ref Ref, in ConsentInput) (Result, error) {
	if err := t.validate(opRecordConsent, in); err != nil {
		return Result{}, err
	}

	return t.run(ctx, opRecordConsent, ref, func(s *step) error {
		granted := *in.Granted
		if err := s.tx.InsertConsent(s.ctx, domain.Consent{
			ID:         newEntryID(),
			LeadID:     s.lead.ID,
			Granted:    granted,
			Source:     strings.TrimSpace(in.Source),
			RecordedAt: s.now,
		}); err != nil {
			return err
		}

		verb := "withdrawn"
		if granted {
			verb = "granted"
		}
		note := "Consent " + verb
		if src := strings.TrimSpace(in.Source); src != "" {
			note += " via " + src
		}
		s.note = note
		s.auditType = repository.EventTypeConsentRecorded
		s.auditDesc = note
		return nil
	})
}

// RefreshScore recomputes and persists the score without any other change.
// It writes neither history nor audit so a daily sweep stays quiet.
func (t *Transitions) RefreshScore(ctx context.Context, ref Ref) (Result, error) {
	res, err := t.run(ctx, opRefreshScore, ref, func(s *step) error { return nil })
	if err == nil {
		t.metrics.ScoreRefreshes.Inc()
	}
	return res, err
}

func (r *runner) requireFutureDate(op string, d *time.Time) error {
	if d == nil {
		return nil
	}
	if !d.After(r.clock.Now()) {
		r.metrics.OperationErrors.WithLabelValues(op, apperr.KindValidation.String()).Inc()
		return apperr.Validation("date must be in the future").WithOp(op)
	}
	return nil
}

// voidInvoice drops the financing of an unpaid, issued invoice.
func voidInvoice(lead *domain.Lead) {
	lead.FinancingType = nil
	lead.QuoteVolume = nil
	lead.QuoteUnitRate = nil
	lead.TotalAmount = nil
	lead.InvoiceValidated = false
	lead.InvoiceDate = nil
	lead.PaymentDate = nil
	lead.ReminderCount = 0
	lead.LastReminderAt = nil
}

func markLost(lead *domain.Lead, reason string) {
	lead.Status = domain.StatusLost
	lead.LostReason = &reason
	lead.NextCallDate = nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
