package lifecycle

import (
	"context"
	"strings"

	"training_leads_backend/internal/events"
	"training_leads_backend/internal/leads/domain"
	"training_leads_backend/internal/leads/repository"
	"training_leads_backend/platform/apperr"
	"training_leads_backend/platform/phone"
	"training_leads_backend/platform/sanitize"

	"github.com/google/uuid"
)

const opCreateLead = "create_lead"

// CreateInput is a new lead as captured by a form, import or operator.
type CreateInput struct {
	OrganizationID  uuid.UUID
	Actor           string
	Email           string        `validate:"omitempty,email,max=320"`
	Phone           string        `validate:"omitempty,max=40"`
	FullName        string        `validate:"max=200"`
	AddressStreet   string        `validate:"max=200"`
	PostalCode      string        `validate:"max=20"`
	City            string        `validate:"max=100"`
	StatedInterest  string        `validate:"max=2000"`
	Source          domain.Source `validate:"required,lead_source"`
	AssignedOwnerID *uuid.UUID
}

// Intake creates leads in status new with their initial score.
type Intake struct {
	*runner
}

// NewIntake creates the lead intake.
func NewIntake(deps Deps) *Intake {
	return &Intake{runner: newRunner(deps)}
}

// Create inserts the lead, its first history entry and audit event, and the
// initial score in one transaction.
func (i *Intake) Create(ctx context.Context, in CreateInput) (Result, error) {
	in.normalize()
	if err := i.validate(opCreateLead, in); err != nil {
		return Result{}, err
	}
	if in.OrganizationID == uuid.Nil {
		return Result{}, apperr.Validation("organization id is required").WithOp(opCreateLead)
	}
	if in.Actor == "" {
		return Result{}, apperr.Validation("actor is required").WithOp(opCreateLead)
	}
	if in.Email == "" && in.Phone == "" {
		return Result{}, apperr.Validation("email or phone is required").WithOp(opCreateLead)
	}

	now := i.clock.Now()
	region := phone.DefaultRegion
	if i.cfg != nil && i.cfg.GetPhoneRegion() != "" {
		region = i.cfg.GetPhoneRegion()
	}

	lead := domain.Lead{
		ID:              uuid.New(),
		OrganizationID:  in.OrganizationID,
		Email:           optional(in.Email),
		Phone:           optional(phone.NormalizeE164(in.Phone, region)),
		FullName:        optional(sanitize.Text(in.FullName)),
		AddressStreet:   optional(sanitize.Text(in.AddressStreet)),
		PostalCode:      optional(sanitize.Text(in.PostalCode)),
		City:            optional(sanitize.Text(in.City)),
		StatedInterest:  optional(sanitize.Text(in.StatedInterest)),
		Source:          in.Source,
		AssignedOwnerID: in.AssignedOwnerID,
		Status:          domain.StatusNew,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := i.store.WithTx(ctx, func(tx repository.LeadTx) error {
		if err := i.rescore(ctx, tx, &lead, now); err != nil {
			return err
		}
		if err := tx.Insert(ctx, lead); err != nil {
			return err
		}
		if err := tx.AppendHistory(ctx, domain.HistoryEntry{
			ID:        newEntryID(),
			LeadID:    lead.ID,
			Timestamp: now,
			Author:    in.Actor,
			Text:      "Lead created from source " + string(lead.Source),
		}); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, domain.AuditEvent{
			ID:          newEntryID(),
			LeadID:      lead.ID,
			Type:        repository.EventTypeLeadCreated,
			Description: "Lead created",
			PerformedBy: in.Actor,
			Metadata: repository.TransitionMetadata{
				ToStatus: string(lead.Status),
				Score:    lead.Score,
				Grade:    string(lead.Grade),
			}.ToMap(),
			Timestamp: now,
		})
	})
	if err != nil {
		return Result{}, i.fail(ctx, opCreateLead, Ref{LeadID: lead.ID, OrganizationID: in.OrganizationID, Actor: in.Actor}, err)
	}

	i.metrics.Transitions.WithLabelValues(opCreateLead, "", string(lead.Status)).Inc()
	if i.bus != nil {
		i.bus.Publish(ctx, events.LeadCreated{
			BaseEvent:      events.NewBaseEvent(now),
			LeadID:         lead.ID,
			OrganizationID: lead.OrganizationID,
			OwnerID:        lead.AssignedOwnerID,
			Source:         string(lead.Source),
			Score:          lead.Score,
			Grade:          string(lead.Grade),
		})
	}

	return Result{
		LeadID:    lead.ID,
		NewStatus: lead.Status,
		Score:     lead.Score,
		Grade:     lead.Grade,
		Lead:      lead,
	}, nil
}

// normalize trims the contact fields and lower-cases the email, so
// validation sees what will be stored.
func (in *CreateInput) normalize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Actor = strings.TrimSpace(in.Actor)
}

func optional(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
