package repository

import (
	"context"

	"training_leads_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListHistory returns a lead's history entries, most recent first. Ties on
// the timestamp fall back to id order so pages stay stable.
func (r *Repository) ListHistory(ctx context.Context, leadID uuid.UUID) ([]domain.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, author, body, created_at
		FROM lead_history_entries
		WHERE lead_id = $1
		ORDER BY created_at DESC, id DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.HistoryEntry, error) {
		var e domain.HistoryEntry
		err := row.Scan(&e.ID, &e.LeadID, &e.Author, &e.Text, &e.Timestamp)
		return e, err
	})
}
