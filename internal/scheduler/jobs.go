package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"training_leads_backend/internal/leads/domain"
	"training_leads_backend/internal/leads/lifecycle"
	"training_leads_backend/internal/leads/repository"
	"training_leads_backend/platform/apperr"
	"training_leads_backend/platform/clock"
	"training_leads_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
)

const defaultSweepParallelism = 8

// LeadGetter loads a single lead.
type LeadGetter interface {
	GetByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Lead, error)
}

// ReminderSender is the financing operation the reminder job drives.
type ReminderSender interface {
	SendPaymentReminder(ctx context.Context, ref lifecycle.Ref, in lifecycle.ReminderInput) (lifecycle.Result, error)
}

// ScoreRefresher is the recompute-only operation the score sweep drives.
type ScoreRefresher interface {
	RefreshScore(ctx context.Context, ref lifecycle.Ref) (lifecycle.Result, error)
}

// Jobs holds the task handlers. They run inside the asynq worker and can be
// called directly in tests.
type Jobs struct {
	leads       LeadGetter
	sweeps      repository.SweepReader
	reminders   ReminderSender
	scores      ScoreRefresher
	enqueuer    ReminderEnqueuer
	clock       clock.Clock
	log         *logger.Logger
	parallelism int
}

// JobsDeps are the collaborators of Jobs.
type JobsDeps struct {
	Leads     LeadGetter
	Sweeps    repository.SweepReader
	Reminders ReminderSender
	Scores    ScoreRefresher
	Enqueuer  ReminderEnqueuer
	Clock     clock.Clock
	Log       *logger.Logger
}

func NewJobs(deps JobsDeps) *Jobs {
	c := deps.Clock
	if c == nil {
		c = clock.Real()
	}
	return &Jobs{
		leads:       deps.Leads,
		sweeps:      deps.Sweeps,
		reminders:   deps.Reminders,
		scores:      deps.Scores,
		enqueuer:    deps.Enqueuer,
		clock:       c,
		log:         deps.Log,
		parallelism: defaultSweepParallelism,
	}
}

// mux routes every task type this package defines to its handler.
func (j *Jobs) mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskReminderSweep, j.HandleReminderSweep)
	mux.HandleFunc(TaskScoreSweep, j.HandleScoreSweep)
	mux.HandleFunc(TaskPaymentReminder, j.HandlePaymentReminder)
	return mux
}

// HandleReminderSweep queues a payment reminder job for every lead whose
// invoice is old enough for the first reminder.
func (j *Jobs) HandleReminderSweep(ctx context.Context, _ *asynq.Task) error {
	now := j.clock.Now()
	refs, err := j.sweeps.ListAwaitingPaymentSince(ctx, now, lifecycle.FirstReminderDay*24*time.Hour)
	if err != nil {
		return fmt.Errorf("list awaiting payment: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.parallelism)
	for _, ref := range refs {
		g.Go(func() error {
			return j.enqueuer.EnqueuePaymentReminder(gctx, PaymentReminderPayload{
				LeadID:         ref.ID.String(),
				OrganizationID: ref.OrganizationID.String(),
			}, now)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("enqueue payment reminders: %w", err)
	}

	j.log.Info("payment reminder sweep queued jobs", "count", len(refs))
	return nil
}

// HandleScoreSweep recomputes the score of every open lead so freshness
// decay shows without any other operation touching the lead.
func (j *Jobs) HandleScoreSweep(ctx context.Context, _ *asynq.Task) error {
	refs, err := j.sweeps.ListRefsByStatus(ctx, openStatuses())
	if err != nil {
		return fmt.Errorf("list open leads: %w", err)
	}

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.parallelism)
	for _, ref := range refs {
		g.Go(func() error {
			_, err := j.scores.RefreshScore(gctx, lifecycle.Ref{
				LeadID:         ref.ID,
				OrganizationID: ref.OrganizationID,
				Actor:          SystemActor,
			})
			if err != nil && !apperr.Is(err, apperr.KindNotFound) {
				failed.Add(1)
				j.log.Warn("score refresh failed", "leadId", ref.ID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	j.log.Info("score sweep finished", "count", len(refs), "failed", failed.Load())
	return nil
}

// HandlePaymentReminder sends the reminder (or archives the lead) when the
// reminder cadence says one is due today.
func (j *Jobs) HandlePaymentReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParsePaymentReminderPayload(task)
	if err != nil {
		return fmt.Errorf("parse payload: %v: %w", err, asynq.SkipRetry)
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return fmt.Errorf("parse lead id: %v: %w", err, asynq.SkipRetry)
	}

	orgID, err := uuid.Parse(payload.OrganizationID)
	if err != nil {
		return fmt.Errorf("parse organization id: %v: %w", err, asynq.SkipRetry)
	}

	lead, err := j.leads.GetByID(ctx, leadID, orgID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	decision := lifecycle.ReminderDue(lead, j.clock.Now())
	if decision == lifecycle.ReminderNotDue {
		return nil
	}

	res, err := j.reminders.SendPaymentReminder(ctx, lifecycle.Ref{
		LeadID:         leadID,
		OrganizationID: orgID,
		Actor:          SystemActor,
	}, lifecycle.ReminderInput{})
	if err != nil {
		// The lead moved on between the load and the locked write.
		if apperr.Is(err, apperr.KindPrecondition) || apperr.Is(err, apperr.KindFinancial) || apperr.Is(err, apperr.KindNotFound) {
			j.log.Info("payment reminder skipped", "leadId", leadID, "reason", err.Error())
			return nil
		}
		return err
	}

	j.log.Info("payment reminder processed",
		"leadId", leadID,
		"decision", decision.String(),
		"reminderNumber", res.ReminderNumber,
		"archived", res.Archived,
	)
	return nil
}

func openStatuses() []domain.Status {
	all := domain.AllStatuses()
	open := make([]domain.Status, 0, len(all))
	for _, s := range all {
		if !s.IsTerminal() {
			open = append(open, s)
		}
	}
	return open
}
