package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"training_leads_backend/internal/leads/domain"
	"training_leads_backend/internal/leads/lifecycle"
	"training_leads_backend/internal/leads/repository"
	"training_leads_backend/platform/apperr"
	"training_leads_backend/platform/clock"
	"training_leads_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = 24 * time.Hour

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fakeLeads struct {
	leads map[uuid.UUID]domain.Lead
	err   error
}

func (f *fakeLeads) GetByID(_ context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Lead, error) {
	if f.err != nil {
		return domain.Lead{}, f.err
	}
	lead, ok := f.leads[id]
	if !ok || lead.OrganizationID != organizationID {
		return domain.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

type fakeSweeps struct {
	awaiting []repository.LeadRef
	open     []repository.LeadRef
	minAge   time.Duration
	statuses []domain.Status
}

func (f *fakeSweeps) ListRefsByStatus(_ context.Context, statuses []domain.Status) ([]repository.LeadRef, error) {
	f.statuses = statuses
	return f.open, nil
}

func (f *fakeSweeps) ListAwaitingPaymentSince(_ context.Context, _ time.Time, minAge time.Duration) ([]repository.LeadRef, error) {
	f.minAge = minAge
	return f.awaiting, nil
}

type fakeFlow struct {
	mu        sync.Mutex
	reminders []lifecycle.Ref
	refreshes []lifecycle.Ref
	err       error
	result    lifecycle.Result
}

func (f *fakeFlow) SendPaymentReminder(_ context.Context, ref lifecycle.Ref, _ lifecycle.ReminderInput) (lifecycle.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminders = append(f.reminders, ref)
	return f.result, f.err
}

func (f *fakeFlow) RefreshScore(_ context.Context, ref lifecycle.Ref) (lifecycle.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes = append(f.refreshes, ref)
	return lifecycle.Result{}, f.err
}

type fakeEnqueuer struct {
	mu       sync.Mutex
	payloads []PaymentReminderPayload
	err      error
}

func (f *fakeEnqueuer) EnqueuePaymentReminder(_ context.Context, payload PaymentReminderPayload, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	return f.err
}

type jobsFixture struct {
	jobs     *Jobs
	leads    *fakeLeads
	sweeps   *fakeSweeps
	flow     *fakeFlow
	enqueuer *fakeEnqueuer
	clock    *clock.Fixed
}

func newJobsFixture() *jobsFixture {
	f := &jobsFixture{
		leads:    &fakeLeads{leads: map[uuid.UUID]domain.Lead{}},
		sweeps:   &fakeSweeps{},
		flow:     &fakeFlow{},
		enqueuer: &fakeEnqueuer{},
		clock:    clock.NewFixed(t0),
	}
	f.jobs = NewJobs(JobsDeps{
		Leads:     f.leads,
		Sweeps:    f.sweeps,
		Reminders: f.flow,
		Scores:    f.flow,
		Enqueuer:  f.enqueuer,
		Clock:     f.clock,
		Log:       logger.Nop(),
	})
	return f
}

func (f *jobsFixture) awaitingLead(invoiceAge time.Duration) domain.Lead {
	invoice := t0.Add(-invoiceAge)
	lead := domain.Lead{
		ID:               uuid.New(),
		OrganizationID:   uuid.New(),
		Status:           domain.StatusAwaitingPayment,
		InvoiceValidated: true,
		InvoiceDate:      &invoice,
	}
	f.leads.leads[lead.ID] = lead
	return lead
}

func reminderTask(t *testing.T, lead domain.Lead) *asynq.Task {
	t.Helper()
	task, err := NewPaymentReminderTask(PaymentReminderPayload{
		LeadID:         lead.ID.String(),
		OrganizationID: lead.OrganizationID.String(),
	})
	require.NoError(t, err)
	return task
}

func TestReminderSweepQueuesOneJobPerLead(t *testing.T) {
	f := newJobsFixture()
	refs := []repository.LeadRef{
		{ID: uuid.New(), OrganizationID: uuid.New()},
		{ID: uuid.New(), OrganizationID: uuid.New()},
		{ID: uuid.New(), OrganizationID: uuid.New()},
	}
	f.sweeps.awaiting = refs

	require.NoError(t, f.jobs.HandleReminderSweep(context.Background(), NewReminderSweepTask()))

	assert.Equal(t, 3*day, f.sweeps.minAge)
	got := make([]string, 0, len(f.enqueuer.payloads))
	for _, p := range f.enqueuer.payloads {
		got = append(got, p.LeadID)
	}
	want := []string{refs[0].ID.String(), refs[1].ID.String(), refs[2].ID.String()}
	assert.ElementsMatch(t, want, got)
}

func TestReminderSweepReportsEnqueueFailure(t *testing.T) {
	f := newJobsFixture()
	f.sweeps.awaiting = []repository.LeadRef{{ID: uuid.New(), OrganizationID: uuid.New()}}
	f.enqueuer.err = errors.New("redis unavailable")

	err := f.jobs.HandleReminderSweep(context.Background(), NewReminderSweepTask())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis unavailable")
}

func TestScoreSweepRefreshesOpenLeadsAsSystem(t *testing.T) {
	f := newJobsFixture()
	f.sweeps.open = []repository.LeadRef{
		{ID: uuid.New(), OrganizationID: uuid.New()},
		{ID: uuid.New(), OrganizationID: uuid.New()},
	}

	require.NoError(t, f.jobs.HandleScoreSweep(context.Background(), NewScoreSweepTask()))

	assert.NotContains(t, f.sweeps.statuses, domain.StatusEnrolled)
	assert.NotContains(t, f.sweeps.statuses, domain.StatusLost)
	assert.Contains(t, f.sweeps.statuses, domain.StatusNew)
	require.Len(t, f.flow.refreshes, 2)
	for _, ref := range f.flow.refreshes {
		assert.Equal(t, SystemActor, ref.Actor)
	}
}

func TestScoreSweepContinuesPastFailures(t *testing.T) {
	f := newJobsFixture()
	f.sweeps.open = []repository.LeadRef{
		{ID: uuid.New(), OrganizationID: uuid.New()},
		{ID: uuid.New(), OrganizationID: uuid.New()},
	}
	f.flow.err = errors.New("deadlock detected")

	require.NoError(t, f.jobs.HandleScoreSweep(context.Background(), NewScoreSweepTask()))
	assert.Len(t, f.flow.refreshes, 2)
}

func TestPaymentReminderFollowsCadence(t *testing.T) {
	cases := []struct {
		name       string
		invoiceAge time.Duration
		reminders  int
		wantCalled bool
	}{
		{name: "day 2 is too early", invoiceAge: 2 * day, wantCalled: false},
		{name: "first reminder on day 3", invoiceAge: 3 * day, wantCalled: true},
		{name: "second reminder waits for day 7", invoiceAge: 5 * day, reminders: 1, wantCalled: false},
		{name: "second reminder on day 7", invoiceAge: 7 * day, reminders: 1, wantCalled: true},
		{name: "archival on day 14", invoiceAge: 14 * day, reminders: 2, wantCalled: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newJobsFixture()
			lead := f.awaitingLead(tc.invoiceAge)
			lead.ReminderCount = tc.reminders
			f.leads.leads[lead.ID] = lead

			require.NoError(t, f.jobs.HandlePaymentReminder(context.Background(), reminderTask(t, lead)))

			if !tc.wantCalled {
				assert.Empty(t, f.flow.reminders)
				return
			}
			require.Len(t, f.flow.reminders, 1)
			assert.Equal(t, lifecycle.Ref{LeadID: lead.ID, OrganizationID: lead.OrganizationID, Actor: SystemActor}, f.flow.reminders[0])
		})
	}
}

func TestPaymentReminderSkipsRecentReminder(t *testing.T) {
	f := newJobsFixture()
	lead := f.awaitingLead(10 * day)
	lead.ReminderCount = 1
	last := t0.Add(-2 * time.Hour)
	lead.LastReminderAt = &last
	f.leads.leads[lead.ID] = lead

	require.NoError(t, f.jobs.HandlePaymentReminder(context.Background(), reminderTask(t, lead)))
	assert.Empty(t, f.flow.reminders)
}

func TestPaymentReminderIgnoresMissingAndSettledLeads(t *testing.T) {
	f := newJobsFixture()
	gone := domain.Lead{ID: uuid.New(), OrganizationID: uuid.New()}
	require.NoError(t, f.jobs.HandlePaymentReminder(context.Background(), reminderTask(t, gone)))

	enrolled := f.awaitingLead(20 * day)
	enrolled.Status = domain.StatusEnrolled
	f.leads.leads[enrolled.ID] = enrolled
	require.NoError(t, f.jobs.HandlePaymentReminder(context.Background(), reminderTask(t, enrolled)))

	assert.Empty(t, f.flow.reminders)
}

func TestPaymentReminderSwallowsStateRace(t *testing.T) {
	f := newJobsFixture()
	lead := f.awaitingLead(3 * day)
	f.flow.err = apperr.Precondition(string(domain.StatusEnrolled), string(domain.StatusAwaitingPayment))

	require.NoError(t, f.jobs.HandlePaymentReminder(context.Background(), reminderTask(t, lead)))
	assert.Len(t, f.flow.reminders, 1)
}

func TestPaymentReminderRetriesInfrastructureErrors(t *testing.T) {
	f := newJobsFixture()
	lead := f.awaitingLead(3 * day)
	f.flow.err = errors.New("connection reset")

	err := f.jobs.HandlePaymentReminder(context.Background(), reminderTask(t, lead))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))

	f.flow.err = nil
	f.leads.err = errors.New("connection reset")
	require.Error(t, f.jobs.HandlePaymentReminder(context.Background(), reminderTask(t, lead)))
}

func TestPaymentReminderRejectsBadPayload(t *testing.T) {
	f := newJobsFixture()

	err := f.jobs.HandlePaymentReminder(context.Background(), asynq.NewTask(TaskPaymentReminder, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	task, err := NewPaymentReminderTask(PaymentReminderPayload{LeadID: "nope", OrganizationID: uuid.NewString()})
	require.NoError(t, err)
	assert.ErrorIs(t, f.jobs.HandlePaymentReminder(context.Background(), task), asynq.SkipRetry)
}
