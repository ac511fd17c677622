// Package lifecycle implements the lead pipeline: call outcomes, follow-ups,
// financing, invoicing, payments and the reminder/archival rule. Every
// operation is one locked read-modify-write on a single lead that also
// recomputes and persists the score before commit.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"training_leads_backend/internal/events"
	"training_leads_backend/internal/leads/domain"
	"training_leads_backend/internal/leads/repository"
	"training_leads_backend/internal/leads/scoring"
	"training_leads_backend/platform/apperr"
	"training_leads_backend/platform/clock"
	"training_leads_backend/platform/config"
	"training_leads_backend/platform/logger"
	"training_leads_backend/platform/metrics"
	"training_leads_backend/platform/sanitize"
	"training_leads_backend/platform/validator"

	"github.com/google/uuid"
)

// Deps are the collaborators shared by Intake, Transitions and Financing.
type Deps struct {
	Store     repository.LeadLocker
	Scorer    *scoring.Engine
	Clock     clock.Clock
	Bus       events.Bus
	Metrics   *metrics.Metrics
	Log       *logger.Logger
	Validator *validator.Validator
	Config    config.LifecycleConfig
}

// Ref addresses one lead on behalf of an actor.
type Ref struct {
	LeadID         uuid.UUID
	OrganizationID uuid.UUID
	// Actor is recorded as author of history and audit entries.
	Actor string
}

func (r Ref) validate() error {
	if r.LeadID == uuid.Nil {
		return apperr.Validation("lead id is required")
	}
	if r.OrganizationID == uuid.Nil {
		return apperr.Validation("organization id is required")
	}
	if strings.TrimSpace(r.Actor) == "" {
		return apperr.Validation("actor is required")
	}
	return nil
}

// Result is returned by every successful operation.
type Result struct {
	LeadID         uuid.UUID
	PreviousStatus domain.Status
	NewStatus      domain.Status
	Score          int
	Grade          domain.Grade
	Lead           domain.Lead

	LostReason      *string
	TotalAmount     *domain.Money
	AmountPaid      domain.Money
	ThresholdAmount domain.Money
	Enrolled        bool
	ReminderNumber  int
	CloseToArchival bool
	Archived        bool
}

// step carries one operation's mutation through the runner.
type step struct {
	ctx    context.Context
	tx     repository.LeadTx
	lead   *domain.Lead
	now    time.Time
	actor  string
	result *Result

	note      string
	auditType string
	auditDesc string
	metadata  func(repository.TransitionMetadata) map[string]any
	extra     []events.Event
}

type runner struct {
	store   repository.LeadLocker
	scorer  *scoring.Engine
	clock   clock.Clock
	bus     events.Bus
	metrics *metrics.Metrics
	log     *logger.Logger
	val     *validator.Validator
	cfg     config.LifecycleConfig
}

func newRunner(deps Deps) *runner {
	r := &runner{
		store:   deps.Store,
		scorer:  deps.Scorer,
		clock:   deps.Clock,
		bus:     deps.Bus,
		metrics: deps.Metrics,
		log:     deps.Log,
		val:     deps.Validator,
		cfg:     deps.Config,
	}
	if r.log == nil {
		r.log = logger.Nop()
	}
	if r.metrics == nil {
		r.metrics = metrics.Nop()
	}
	if r.clock == nil {
		r.clock = clock.Real()
	}
	if r.scorer == nil {
		r.scorer = scoring.New(r.log)
	}
	if r.val == nil {
		r.val = validator.New()
		if err := RegisterValidations(r.val); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *runner) validate(op string, in any) error {
	if err := r.val.Struct(in); err != nil {
		r.metrics.OperationErrors.WithLabelValues(op, apperr.KindValidation.String()).Inc()
		return apperr.Validation(validator.Message(err)).WithOp(op)
	}
	return nil
}

// run locks the lead, applies mutate, rescores, writes history and audit,
// saves, commits, then publishes events. Nothing after commit can fail the
// operation.
func (r *runner) run(ctx context.Context, op string, ref Ref, mutate func(s *step) error) (Result, error) {
	if err := ref.validate(); err != nil {
		r.metrics.OperationErrors.WithLabelValues(op, apperr.KindValidation.String()).Inc()
		return Result{}, err
	}

	var (
		result Result
		extra  []events.Event
	)
	err := r.store.WithLeadLock(ctx, ref.LeadID, ref.OrganizationID, func(tx repository.LeadTx, lead domain.Lead) error {
		from := lead.Status
		s := &step{
			ctx:    ctx,
			tx:     tx,
			lead:   &lead,
			now:    r.clock.Now(),
			actor:  ref.Actor,
			result: &Result{},
		}
		if err := mutate(s); err != nil {
			return err
		}
		if !lead.Status.Valid() {
			return apperr.Internal(fmt.Sprintf("operation produced unknown status %q", lead.Status))
		}
		if lead.Status != from && !domain.CanTransition(from, lead.Status) {
			return apperr.Internal(fmt.Sprintf("illegal transition %s -> %s", from, lead.Status))
		}
		lead.UpdatedAt = s.now

		if err := r.rescore(ctx, tx, &lead, s.now); err != nil {
			return err
		}

		if s.note != "" {
			if err := tx.AppendHistory(ctx, domain.HistoryEntry{
				ID:        newEntryID(),
				LeadID:    lead.ID,
				Timestamp: s.now,
				Author:    ref.Actor,
				Text:      s.note,
			}); err != nil {
				return err
			}
		}

		if s.auditType != "" {
			transition := repository.TransitionMetadata{
				FromStatus: string(from),
				ToStatus:   string(lead.Status),
				Score:      lead.Score,
				Grade:      string(lead.Grade),
			}
			meta := transition.ToMap()
			if s.metadata != nil {
				meta = s.metadata(transition)
			}
			if err := tx.AppendAudit(ctx, domain.AuditEvent{
				ID:          newEntryID(),
				LeadID:      lead.ID,
				Type:        s.auditType,
				Description: s.auditDesc,
				PerformedBy: ref.Actor,
				Metadata:    meta,
				Timestamp:   s.now,
			}); err != nil {
				return err
			}
		}

		if err := tx.Save(ctx, lead); err != nil {
			return err
		}

		result = *s.result
		result.LeadID = lead.ID
		result.PreviousStatus = from
		result.NewStatus = lead.Status
		result.Score = lead.Score
		result.Grade = lead.Grade
		result.Lead = lead
		result.AmountPaid = lead.AmountPaid
		result.TotalAmount = lead.TotalAmount
		if lead.Status == domain.StatusLost {
			result.LostReason = lead.LostReason
		}
		extra = s.extra
		return nil
	})
	if err != nil {
		return Result{}, r.fail(ctx, op, ref, err)
	}

	r.metrics.Transitions.WithLabelValues(op, string(result.PreviousStatus), string(result.NewStatus)).Inc()
	r.publish(ctx, op, ref, result, extra)
	return result, nil
}

// rescore recomputes the score from the lead as it will be committed.
func (r *runner) rescore(ctx context.Context, tx repository.LeadTx, lead *domain.Lead, now time.Time) error {
	unique := true
	if lead.Email != nil && strings.TrimSpace(*lead.Email) != "" {
		dupes, err := tx.CountDuplicateEmails(ctx, lead.OrganizationID, *lead.Email, lead.ID)
		if err != nil {
			return err
		}
		unique = dupes == 0
	}

	consent, err := tx.LatestConsent(ctx, lead.ID)
	if err != nil {
		return err
	}

	res := r.scorer.Compute(scoring.Input{Lead: *lead, EmailUnique: unique, Consent: consent.State()}, now)
	lead.Score = res.Score
	lead.Grade = res.Grade
	lead.ScoreVersion = res.Version
	lead.ScoreFactors = res.FactorsJSON
	updated := res.UpdatedAt
	lead.ScoreUpdatedAt = &updated
	return nil
}

func (r *runner) fail(ctx context.Context, op string, ref Ref, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		r.metrics.OperationErrors.WithLabelValues(op, apperr.KindNotFound.String()).Inc()
		return apperr.NotFound("lead not found").WithOp(op)
	}

	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		r.metrics.OperationErrors.WithLabelValues(op, domainErr.Kind.String()).Inc()
		if domainErr.Kind == apperr.KindInternal {
			r.log.WithContext(ctx).Error("lead operation invariant violated", "operation", op, "lead_id", ref.LeadID, "error", err)
		}
		return err
	}

	r.metrics.OperationErrors.WithLabelValues(op, apperr.KindInternal.String()).Inc()
	r.log.WithContext(ctx).DatabaseError(op, err)
	return apperr.Wrap(apperr.KindInternal, "lead store failure", err).WithOp(op)
}

func (r *runner) publish(ctx context.Context, op string, ref Ref, result Result, extra []events.Event) {
	if r.bus == nil {
		return
	}
	lead := result.Lead
	base := events.NewBaseEvent(lead.UpdatedAt)

	r.bus.Publish(ctx, events.LeadTransitioned{
		BaseEvent:      base,
		LeadID:         lead.ID,
		OrganizationID: lead.OrganizationID,
		OwnerID:        lead.AssignedOwnerID,
		Operation:      op,
		FromStatus:     string(result.PreviousStatus),
		ToStatus:       string(result.NewStatus),
		Actor:          ref.Actor,
		Score:          result.Score,
		Grade:          string(result.Grade),
	})

	if result.NewStatus == domain.StatusLost && result.PreviousStatus != domain.StatusLost {
		r.metrics.LeadsArchived.WithLabelValues(op).Inc()
		reason := ""
		if lead.LostReason != nil {
			reason = *lead.LostReason
		}
		r.bus.Publish(ctx, events.LeadArchived{
			BaseEvent:      base,
			LeadID:         lead.ID,
			OrganizationID: lead.OrganizationID,
			OwnerID:        lead.AssignedOwnerID,
			Operation:      op,
			Reason:         reason,
			Actor:          ref.Actor,
		})
	}

	if result.NewStatus == domain.StatusEnrolled && result.PreviousStatus != domain.StatusEnrolled {
		total := int64(0)
		if lead.TotalAmount != nil {
			total = int64(*lead.TotalAmount)
		}
		r.bus.Publish(ctx, events.LeadEnrolled{
			BaseEvent:      base,
			LeadID:         lead.ID,
			OrganizationID: lead.OrganizationID,
			OwnerID:        lead.AssignedOwnerID,
			AmountPaid:     int64(lead.AmountPaid),
			TotalAmount:    total,
		})
	}

	for _, e := range extra {
		r.bus.Publish(ctx, e)
	}
}

// withNotes appends free-text operator notes to a generated history line.
func withNotes(base, notes string) string {
	notes = sanitize.Text(notes)
	if notes == "" {
		return base
	}
	return base + ". Notes: " + notes
}

func statusNames(statuses []domain.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// newEntryID returns a time-ordered id for history, audit and consent rows,
// so rows sharing a timestamp still list in insertion order.
func newEntryID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}
