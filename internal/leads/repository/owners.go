package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OwnerContact is how an assigned owner is reached about their leads.
type OwnerContact struct {
	ID            uuid.UUID
	Email         string
	DisplayName   string
	NotifyByEmail bool
}

// GetOwnerContact loads the owner directory entry for ownerID.
func (r *Repository) GetOwnerContact(ctx context.Context, ownerID uuid.UUID, organizationID uuid.UUID) (OwnerContact, error) {
	var c OwnerContact
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, display_name, notify_by_email
		FROM lead_owners
		WHERE id = $1 AND organization_id = $2
	`, ownerID, organizationID).Scan(&c.ID, &c.Email, &c.DisplayName, &c.NotifyByEmail)
	if errors.Is(err, pgx.ErrNoRows) {
		return OwnerContact{}, ErrNotFound
	}
	return c, err
}
