package repository

import (
	"context"
	"time"

	"training_leads_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadTx is the write surface available inside a lead transaction.
type LeadTx interface {
	Insert(ctx context.Context, lead domain.Lead) error
	Save(ctx context.Context, lead domain.Lead) error
	AppendHistory(ctx context.Context, entry domain.HistoryEntry) error
	AppendAudit(ctx context.Context, event domain.AuditEvent) error
	CountDuplicateEmails(ctx context.Context, organizationID uuid.UUID, email string, excludeID uuid.UUID) (int, error)
	InsertConsent(ctx context.Context, consent domain.Consent) error
	LatestConsent(ctx context.Context, leadID uuid.UUID) (*domain.Consent, error)
}

// LeadLocker runs single-lead read-modify-write transactions.
type LeadLocker interface {
	WithTx(ctx context.Context, fn func(tx LeadTx) error) error
	WithLeadLock(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, fn func(tx LeadTx, lead domain.Lead) error) error
}

// LeadReader provides read-only access to lead data.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Lead, error)
	ListHistory(ctx context.Context, leadID uuid.UUID) ([]domain.HistoryEntry, error)
	ListAuditEvents(ctx context.Context, leadID uuid.UUID, limit int) ([]domain.AuditEvent, error)
	List(ctx context.Context, params ListParams) (ListResult, error)
}

// OwnerDirectory resolves assigned owners for notifications.
type OwnerDirectory interface {
	GetOwnerContact(ctx context.Context, ownerID uuid.UUID, organizationID uuid.UUID) (OwnerContact, error)
}

// SweepReader lists leads for the scheduled sweeps.
type SweepReader interface {
	ListRefsByStatus(ctx context.Context, statuses []domain.Status) ([]LeadRef, error)
	ListAwaitingPaymentSince(ctx context.Context, now time.Time, minAge time.Duration) ([]LeadRef, error)
}

// LeadsRepository composes every interface. The pgx Repository implements it.
type LeadsRepository interface {
	LeadLocker
	LeadReader
	SweepReader
	OwnerDirectory
}

var _ LeadsRepository = (*Repository)(nil)
