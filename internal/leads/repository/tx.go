package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"training_leads_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WithTx runs fn inside one read-committed transaction. fn's error rolls
// the transaction back and is returned unchanged.
func (r *Repository) WithTx(ctx context.Context, fn func(tx LeadTx) error) error {
	return r.inTx(ctx, func(t *leadTx) error { return fn(t) })
}

// WithLeadLock loads the lead with SELECT ... FOR UPDATE and runs fn while
// holding the row lock. Concurrent operations on the same lead serialize
// here, so every read inside fn observes the latest committed state.
func (r *Repository) WithLeadLock(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, fn func(tx LeadTx, lead domain.Lead) error) error {
	return r.inTx(ctx, func(t *leadTx) error {
		row := t.tx.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 AND organization_id = $2 FOR UPDATE`, id, organizationID)
		lead, err := scanLead(row)
		if err != nil {
			return err
		}
		return fn(t, lead)
	})
}

func (r *Repository) inTx(ctx context.Context, fn func(t *leadTx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin lead tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&leadTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit lead tx: %w", err)
	}
	return nil
}

type leadTx struct {
	tx pgx.Tx
}

func (t *leadTx) Insert(ctx context.Context, lead domain.Lead) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34)
	`,
		lead.ID, lead.OrganizationID, lead.Email, lead.Phone, lead.FullName,
		lead.AddressStreet, lead.PostalCode, lead.City,
		lead.StatedInterest, string(lead.Source), lead.AssignedOwnerID, string(lead.Status),
		financingToNullable(lead.FinancingType), lead.QuoteVolume, moneyToNullable(lead.QuoteUnitRate), moneyToNullable(lead.TotalAmount), int64(lead.AmountPaid),
		lead.InvoiceValidated, lead.InvoiceDate, lead.PaymentDate,
		lead.NextCallDate, lead.AppointmentDate, lead.CallAttempts, lead.ReminderCount, lead.LastReminderAt,
		lead.LostReason, lead.ConvertedAt,
		lead.Score, string(lead.Grade), lead.ScoreVersion, lead.ScoreFactors, lead.ScoreUpdatedAt,
		lead.CreatedAt, lead.UpdatedAt,
	)
	return err
}

// Save writes every mutable column of lead. Identity and intake fields are
// left alone: retention scrubbing may clear them concurrently.
func (t *leadTx) Save(ctx context.Context, lead domain.Lead) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE leads SET
			status = $2,
			financing_type = $3,
			quote_volume = $4,
			quote_unit_rate = $5,
			total_amount = $6,
			amount_paid = $7,
			invoice_validated = $8,
			invoice_date = $9,
			payment_date = $10,
			next_call_date = $11,
			appointment_date = $12,
			call_attempts = $13,
			reminder_count = $14,
			last_reminder_at = $15,
			lost_reason = $16,
			converted_at = $17,
			score = $18,
			grade = $19,
			score_version = $20,
			score_factors = $21,
			score_updated_at = $22,
			updated_at = $23
		WHERE id = $1
	`,
		lead.ID, string(lead.Status),
		financingToNullable(lead.FinancingType), lead.QuoteVolume, moneyToNullable(lead.QuoteUnitRate), moneyToNullable(lead.TotalAmount), int64(lead.AmountPaid),
		lead.InvoiceValidated, lead.InvoiceDate, lead.PaymentDate,
		lead.NextCallDate, lead.AppointmentDate, lead.CallAttempts, lead.ReminderCount, lead.LastReminderAt,
		lead.LostReason, lead.ConvertedAt,
		lead.Score, string(lead.Grade), lead.ScoreVersion, lead.ScoreFactors, lead.ScoreUpdatedAt,
		lead.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *leadTx) AppendHistory(ctx context.Context, entry domain.HistoryEntry) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO lead_history_entries (id, lead_id, author, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.ID, entry.LeadID, entry.Author, entry.Text, entry.Timestamp)
	return err
}

// CountDuplicateEmails counts other leads of the organization sharing email,
// compared case-insensitively.
func (t *leadTx) CountDuplicateEmails(ctx context.Context, organizationID uuid.UUID, email string, excludeID uuid.UUID) (int, error) {
	var count int
	err := t.tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM leads
		WHERE organization_id = $1 AND lower(email) = $2 AND id <> $3
	`, organizationID, strings.ToLower(strings.TrimSpace(email)), excludeID).Scan(&count)
	return count, err
}

func (t *leadTx) InsertConsent(ctx context.Context, consent domain.Consent) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO lead_consents (id, lead_id, granted, source, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`, consent.ID, consent.LeadID, consent.Granted, consent.Source, consent.RecordedAt)
	return err
}

// LatestConsent returns nil when no consent was ever recorded.
func (t *leadTx) LatestConsent(ctx context.Context, leadID uuid.UUID) (*domain.Consent, error) {
	var c domain.Consent
	err := t.tx.QueryRow(ctx, `
		SELECT id, lead_id, granted, source, recorded_at
		FROM lead_consents
		WHERE lead_id = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1
	`, leadID).Scan(&c.ID, &c.LeadID, &c.Granted, &c.Source, &c.RecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
