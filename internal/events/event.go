// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"training_leads_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
	SubscribeAll   = events.SubscribeAll
)

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a lead is taken in.
type LeadCreated struct {
	BaseEvent
	LeadID         uuid.UUID  `json:"leadId"`
	OrganizationID uuid.UUID  `json:"organizationId"`
	OwnerID        *uuid.UUID `json:"ownerId,omitempty"`
	Source         string     `json:"source"`
	Score          int        `json:"score"`
	Grade          string     `json:"grade"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadTransitioned is published after any committed lifecycle operation,
// including ones that leave the status unchanged.
type LeadTransitioned struct {
	BaseEvent
	LeadID         uuid.UUID  `json:"leadId"`
	OrganizationID uuid.UUID  `json:"organizationId"`
	OwnerID        *uuid.UUID `json:"ownerId,omitempty"`
	Operation      string     `json:"operation"`
	FromStatus     string     `json:"fromStatus"`
	ToStatus       string     `json:"toStatus"`
	Actor          string     `json:"actor"`
	Score          int        `json:"score"`
	Grade          string     `json:"grade"`
}

func (e LeadTransitioned) EventName() string { return "leads.lead.transitioned" }

// LeadEnrolled is published when cumulative payments cross the enrollment threshold.
type LeadEnrolled struct {
	BaseEvent
	LeadID         uuid.UUID  `json:"leadId"`
	OrganizationID uuid.UUID  `json:"organizationId"`
	OwnerID        *uuid.UUID `json:"ownerId,omitempty"`
	AmountPaid     int64      `json:"amountPaidCents"`
	TotalAmount    int64      `json:"totalAmountCents"`
}

func (e LeadEnrolled) EventName() string { return "leads.lead.enrolled" }

// LeadArchived is published when a lead is moved to lost.
type LeadArchived struct {
	BaseEvent
	LeadID         uuid.UUID  `json:"leadId"`
	OrganizationID uuid.UUID  `json:"organizationId"`
	OwnerID        *uuid.UUID `json:"ownerId,omitempty"`
	Operation      string     `json:"operation"`
	Reason         string     `json:"reason"`
	Actor          string     `json:"actor"`
}

func (e LeadArchived) EventName() string { return "leads.lead.archived" }

// PaymentReminderRecorded is published after a payment reminder is logged.
type PaymentReminderRecorded struct {
	BaseEvent
	LeadID          uuid.UUID  `json:"leadId"`
	OrganizationID  uuid.UUID  `json:"organizationId"`
	OwnerID         *uuid.UUID `json:"ownerId,omitempty"`
	ReminderNumber  int        `json:"reminderNumber"`
	CloseToArchival bool       `json:"closeToArchival"`
}

func (e PaymentReminderRecorded) EventName() string { return "leads.payment.reminder_recorded" }
