package lifecycle

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"training_leads_backend/internal/events"
	"training_leads_backend/internal/leads/domain"
	"training_leads_backend/internal/leads/repository"
	"training_leads_backend/internal/leads/scoring"
	"training_leads_backend/platform/clock"
	"training_leads_backend/platform/logger"
	"training_leads_backend/platform/metrics"

	"github.com/google/uuid"
)

// fakeStore is an in-memory LeadLocker. Each lead has its own mutex held for
// the whole callback, and writes are staged until the callback succeeds, so
// it behaves like SELECT ... FOR UPDATE inside a transaction.
type fakeStore struct {
	mu       sync.Mutex
	locks    map[uuid.UUID]*sync.Mutex
	leads    map[uuid.UUID]domain.Lead
	history  map[uuid.UUID][]domain.HistoryEntry
	audit    map[uuid.UUID][]domain.AuditEvent
	consents map[uuid.UUID][]domain.Consent

	lockCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		locks:    make(map[uuid.UUID]*sync.Mutex),
		leads:    make(map[uuid.UUID]domain.Lead),
		history:  make(map[uuid.UUID][]domain.HistoryEntry),
		audit:    make(map[uuid.UUID][]domain.AuditEvent),
		consents: make(map[uuid.UUID][]domain.Consent),
	}
}

func (s *fakeStore) seed(lead domain.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[lead.ID] = lead
}

func (s *fakeStore) lead(id uuid.UUID) domain.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leads[id]
}

func (s *fakeStore) historyOf(id uuid.UUID) []domain.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.HistoryEntry(nil), s.history[id]...)
}

func (s *fakeStore) auditOf(id uuid.UUID) []domain.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditEvent(nil), s.audit[id]...)
}

func (s *fakeStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lockCalls
}

func (s *fakeStore) rowLock(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockCalls++
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(tx repository.LeadTx) error) error {
	tx := &fakeTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *fakeStore) WithLeadLock(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, fn func(tx repository.LeadTx, lead domain.Lead) error) error {
	l := s.rowLock(id)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	lead, ok := s.leads[id]
	s.mu.Unlock()
	if !ok || lead.OrganizationID != organizationID {
		return repository.ErrNotFound
	}

	tx := &fakeTx{store: s}
	if err := fn(tx, lead); err != nil {
		return err
	}
	tx.commit()
	return nil
}

type fakeTx struct {
	store    *fakeStore
	saved    []domain.Lead
	history  []domain.HistoryEntry
	audit    []domain.AuditEvent
	consents []domain.Consent
}

func (t *fakeTx) commit() {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range t.saved {
		s.leads[l.ID] = l
	}
	for _, h := range t.history {
		s.history[h.LeadID] = append([]domain.HistoryEntry{h}, s.history[h.LeadID]...)
	}
	for _, a := range t.audit {
		s.audit[a.LeadID] = append(s.audit[a.LeadID], a)
	}
	for _, c := range t.consents {
		s.consents[c.LeadID] = append(s.consents[c.LeadID], c)
	}
}

func (t *fakeTx) Insert(ctx context.Context, lead domain.Lead) error {
	t.saved = append(t.saved, lead)
	return nil
}

func (t *fakeTx) Save(ctx context.Context, lead domain.Lead) error {
	t.saved = append(t.saved, lead)
	return nil
}

func (t *fakeTx) AppendHistory(ctx context.Context, entry domain.HistoryEntry) error {
	t.history = append(t.history, entry)
	return nil
}

func (t *fakeTx) AppendAudit(ctx context.Context, event domain.AuditEvent) error {
	t.audit = append(t.audit, event)
	return nil
}

func (t *fakeTx) CountDuplicateEmails(ctx context.Context, organizationID uuid.UUID, email string, excludeID uuid.UUID) (int, error) {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for id, l := range s.leads {
		if id == excludeID || l.OrganizationID != organizationID || l.Email == nil {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(*l.Email), strings.TrimSpace(email)) {
			count++
		}
	}
	return count, nil
}

func (t *fakeTx) InsertConsent(ctx context.Context, consent domain.Consent) error {
	t.consents = append(t.consents, consent)
	return nil
}

func (t *fakeTx) LatestConsent(ctx context.Context, leadID uuid.UUID) (*domain.Consent, error) {
	for i := len(t.consents) - 1; i >= 0; i-- {
		if t.consents[i].LeadID == leadID {
			c := t.consents[i]
			return &c, nil
		}
	}
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.consents[leadID]
	if len(list) == 0 {
		return nil, nil
	}
	c := list[len(list)-1]
	return &c, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(ctx context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(eventName string, handler events.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.EventName()
	}
	return out
}

type staticLifecycleConfig struct {
	percent int
	region  string
}

func (c staticLifecycleConfig) GetMinimumEnrollmentPercent() int { return c.percent }
func (c staticLifecycleConfig) GetPhoneRegion() string           { return c.region }

var (
	t0    = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	orgID = uuid.MustParse("7b7f3d4e-8a51-4c1f-9a8e-2f1e5b0c9d11")
	actor = "agent-42"
)

type harness struct {
	store       *fakeStore
	clock       *clock.Fixed
	bus         *recordingBus
	metrics     *metrics.Metrics
	intake      *Intake
	transitions *Transitions
	financing   *Financing
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:   newFakeStore(),
		clock:   clock.NewFixed(t0),
		bus:     &recordingBus{},
		metrics: metrics.Nop(),
	}
	deps := Deps{
		Store:   h.store,
		Scorer:  scoring.New(logger.Nop()),
		Clock:   h.clock,
		Bus:     h.bus,
		Metrics: h.metrics,
		Log:     logger.Nop(),
		Config:  staticLifecycleConfig{percent: 30, region: "FR"},
	}
	h.intake = NewIntake(deps)
	h.transitions = NewTransitions(deps)
	h.financing = NewFinancing(deps)
	return h
}

func strPtr(s string) *string { return &s }

// seedLead stores a lead in status with a complete profile created at t0.
func (h *harness) seedLead(status domain.Status) domain.Lead {
	lead := domain.Lead{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Email:          strPtr("marc.dupont@atelier-bois.fr"),
		Phone:          strPtr("+33612345678"),
		FullName:       strPtr("Marc Dupont"),
		City:           strPtr("Nantes"),
		StatedInterest: strPtr("CAP menuisier en alternance"),
		Source:         domain.SourceWebsite,
		Status:         status,
		CreatedAt:      t0,
		UpdatedAt:      t0,
	}
	h.store.seed(lead)
	return lead
}

func (h *harness) ref(lead domain.Lead) Ref {
	return Ref{LeadID: lead.ID, OrganizationID: lead.OrganizationID, Actor: actor}
}

func moneyPtr(m domain.Money) *domain.Money { return &m }
