package repository

import (
	"context"

	"training_leads_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// ListParams filters an organization's leads.
type ListParams struct {
	OrganizationID uuid.UUID
	// Statuses is empty to list every status.
	Statuses []domain.Status
	Limit    int
	Offset   int
}

// ListResult is one page of leads.
type ListResult struct {
	Items []domain.Lead
	Total int
}

// List returns a page of leads ordered by score, best first.
func (r *Repository) List(ctx context.Context, params ListParams) (ListResult, error) {
	var statuses []string
	if len(params.Statuses) > 0 {
		statuses = make([]string, len(params.Statuses))
		for i, s := range params.Statuses {
			statuses[i] = string(s)
		}
	}

	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM leads
		WHERE organization_id = $1 AND ($2::text[] IS NULL OR status = ANY($2))
	`, params.OrganizationID, statuses).Scan(&total); err != nil {
		return ListResult{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE organization_id = $1 AND ($2::text[] IS NULL OR status = ANY($2))
		ORDER BY score DESC, created_at DESC
		LIMIT $3 OFFSET $4
	`, params.OrganizationID, statuses, params.Limit, params.Offset)
	if err != nil {
		return ListResult{}, err
	}
	defer rows.Close()

	items := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return ListResult{}, err
		}
		items = append(items, lead)
	}
	if rows.Err() != nil {
		return ListResult{}, rows.Err()
	}
	return ListResult{Items: items, Total: total}, nil
}
