package repository

import (
	"context"
	"errors"
	"time"

	"training_leads_backend/internal/leads/domain"
	"training_leads_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool db.Pool
}

func New(pool db.Pool) *Repository {
	return &Repository{pool: pool}
}

// LeadRef identifies a lead together with its owning organization.
type LeadRef struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
}

const leadColumns = `
	id, organization_id, email, phone, full_name, address_street, postal_code, city,
	stated_interest, source, assigned_owner_id, status,
	financing_type, quote_volume, quote_unit_rate, total_amount, amount_paid,
	invoice_validated, invoice_date, payment_date,
	next_call_date, appointment_date, call_attempts, reminder_count, last_reminder_at,
	lost_reason, converted_at,
	score, grade, score_version, score_factors, score_updated_at,
	created_at, updated_at`

func scanLead(row pgx.Row) (domain.Lead, error) {
	var (
		lead          domain.Lead
		source        string
		status        string
		financingType *string
		unitRate      *int64
		total         *int64
		paid          int64
		grade         string
	)
	err := row.Scan(
		&lead.ID, &lead.OrganizationID, &lead.Email, &lead.Phone, &lead.FullName,
		&lead.AddressStreet, &lead.PostalCode, &lead.City,
		&lead.StatedInterest, &source, &lead.AssignedOwnerID, &status,
		&financingType, &lead.QuoteVolume, &unitRate, &total, &paid,
		&lead.InvoiceValidated, &lead.InvoiceDate, &lead.PaymentDate,
		&lead.NextCallDate, &lead.AppointmentDate, &lead.CallAttempts, &lead.ReminderCount, &lead.LastReminderAt,
		&lead.LostReason, &lead.ConvertedAt,
		&lead.Score, &grade, &lead.ScoreVersion, &lead.ScoreFactors, &lead.ScoreUpdatedAt,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	if err != nil {
		return domain.Lead{}, err
	}

	lead.Source = domain.Source(source)
	lead.Status = domain.Status(status)
	lead.Grade = domain.Grade(grade)
	lead.AmountPaid = domain.Money(paid)
	if financingType != nil {
		ft := domain.FinancingType(*financingType)
		lead.FinancingType = &ft
	}
	lead.QuoteUnitRate = moneyFromNullable(unitRate)
	lead.TotalAmount = moneyFromNullable(total)
	return lead, nil
}

func moneyFromNullable(v *int64) *domain.Money {
	if v == nil {
		return nil
	}
	m := domain.Money(*v)
	return &m
}

func moneyToNullable(m *domain.Money) *int64 {
	if m == nil {
		return nil
	}
	v := int64(*m)
	return &v
}

func financingToNullable(f *domain.FinancingType) *string {
	if f == nil {
		return nil
	}
	v := string(*f)
	return &v
}

// GetByID loads a lead scoped to its organization.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 AND organization_id = $2`, id, organizationID)
	return scanLead(row)
}

// ListRefsByStatus returns every lead currently in one of statuses, oldest first.
func (r *Repository) ListRefsByStatus(ctx context.Context, statuses []domain.Status) ([]LeadRef, error) {
	raw := make([]string, len(statuses))
	for i, s := range statuses {
		raw[i] = string(s)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, organization_id
		FROM leads
		WHERE status = ANY($1)
		ORDER BY created_at ASC
	`, raw)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := make([]LeadRef, 0)
	for rows.Next() {
		var ref LeadRef
		if err := rows.Scan(&ref.ID, &ref.OrganizationID); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return refs, nil
}

// ListAwaitingPaymentSince returns leads awaiting payment whose invoice is
// at least minAge old at now.
func (r *Repository) ListAwaitingPaymentSince(ctx context.Context, now time.Time, minAge time.Duration) ([]LeadRef, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, organization_id
		FROM leads
		WHERE status = $1 AND invoice_date IS NOT NULL AND invoice_date <= $2
		ORDER BY invoice_date ASC
	`, string(domain.StatusAwaitingPayment), now.Add(-minAge))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := make([]LeadRef, 0)
	for rows.Next() {
		var ref LeadRef
		if err := rows.Scan(&ref.ID, &ref.OrganizationID); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return refs, nil
}
