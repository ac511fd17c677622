// Package notification provides event handlers for the side effects of lead
// lifecycle operations: read-cache invalidation and owner emails.
// Domain modules publish events and never call email providers or caches
// directly. Every handler runs after the originating transaction committed,
// so a failure here is logged and counted but never undoes the operation.
package notification

import (
	"context"
	"errors"

	"training_leads_backend/internal/email"
	"training_leads_backend/internal/events"
	leadrepo "training_leads_backend/internal/leads/repository"
	"training_leads_backend/platform/logger"
	"training_leads_backend/platform/metrics"

	"github.com/google/uuid"
)

const (
	effectCacheInvalidation = "cache_invalidation"
	effectOwnerEmail        = "owner_email"
)

// LeadCache is the part of the lead read cache this module needs.
type LeadCache interface {
	Invalidate(ctx context.Context, leadID uuid.UUID) error
}

// Module handles all notification-related event subscriptions.
type Module struct {
	cache   LeadCache
	owners  leadrepo.OwnerDirectory
	sender  email.Sender
	metrics *metrics.Metrics
	log     *logger.Logger
}

// New creates the notification module. cache may be nil when the read cache
// is disabled.
func New(cache LeadCache, owners leadrepo.OwnerDirectory, sender email.Sender, m *metrics.Metrics, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{
		cache:   cache,
		owners:  owners,
		sender:  sender,
		metrics: m,
		log:     log,
	}
}

// RegisterHandlers subscribes to the lead events on the bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	events.SubscribeAll(bus, m,
		events.LeadCreated{}.EventName(),
		events.LeadTransitioned{}.EventName(),
		events.LeadEnrolled{}.EventName(),
		events.LeadArchived{}.EventName(),
		events.PaymentReminderRecorded{}.EventName(),
	)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadCreated:
		m.invalidate(ctx, e.LeadID)
	case events.LeadTransitioned:
		m.invalidate(ctx, e.LeadID)
	case events.LeadEnrolled:
		m.handleLeadEnrolled(ctx, e)
	case events.LeadArchived:
		m.handleLeadArchived(ctx, e)
	case events.PaymentReminderRecorded:
		m.handlePaymentReminderRecorded(ctx, e)
	default:
		m.log.Debug("notification module ignoring event", "event", event.EventName())
	}
	return nil
}

func (m *Module) invalidate(ctx context.Context, leadID uuid.UUID) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Invalidate(ctx, leadID); err != nil {
		m.fail(effectCacheInvalidation, leadID, err)
	}
}

func (m *Module) handleLeadEnrolled(ctx context.Context, e events.LeadEnrolled) {
	owner, ok := m.ownerToNotify(ctx, e.LeadID, e.OrganizationID, e.OwnerID)
	if !ok {
		return
	}
	if err := m.sender.SendLeadEnrolledEmail(ctx, owner.Email, owner.DisplayName, e.LeadID.String(), e.AmountPaid, e.TotalAmount); err != nil {
		m.fail(effectOwnerEmail, e.LeadID, err)
		return
	}
	m.log.Info("lead enrolled email sent", "leadId", e.LeadID, "ownerId", owner.ID)
}

func (m *Module) handleLeadArchived(ctx context.Context, e events.LeadArchived) {
	owner, ok := m.ownerToNotify(ctx, e.LeadID, e.OrganizationID, e.OwnerID)
	if !ok {
		return
	}
	if err := m.sender.SendLeadArchivedEmail(ctx, owner.Email, owner.DisplayName, e.LeadID.String(), e.Reason); err != nil {
		m.fail(effectOwnerEmail, e.LeadID, err)
		return
	}
	m.log.Info("lead archived email sent", "leadId", e.LeadID, "ownerId", owner.ID)
}

// Only the reminder that puts the lead close to archival is escalated.
func (m *Module) handlePaymentReminderRecorded(ctx context.Context, e events.PaymentReminderRecorded) {
	m.invalidate(ctx, e.LeadID)
	if !e.CloseToArchival {
		return
	}
	owner, ok := m.ownerToNotify(ctx, e.LeadID, e.OrganizationID, e.OwnerID)
	if !ok {
		return
	}
	if err := m.sender.SendReminderEscalationEmail(ctx, owner.Email, owner.DisplayName, e.LeadID.String(), e.ReminderNumber); err != nil {
		m.fail(effectOwnerEmail, e.LeadID, err)
	}
}

func (m *Module) ownerToNotify(ctx context.Context, leadID, organizationID uuid.UUID, ownerID *uuid.UUID) (leadrepo.OwnerContact, bool) {
	if ownerID == nil || m.owners == nil {
		return leadrepo.OwnerContact{}, false
	}
	owner, err := m.owners.GetOwnerContact(ctx, *ownerID, organizationID)
	if errors.Is(err, leadrepo.ErrNotFound) {
		m.log.Debug("lead owner not in directory", "leadId", leadID, "ownerId", *ownerID)
		return leadrepo.OwnerContact{}, false
	}
	if err != nil {
		m.fail(effectOwnerEmail, leadID, err)
		return leadrepo.OwnerContact{}, false
	}
	if !owner.NotifyByEmail || owner.Email == "" {
		return leadrepo.OwnerContact{}, false
	}
	return owner, true
}

func (m *Module) fail(effect string, leadID uuid.UUID, err error) {
	m.log.SideEffectFailed(effect, leadID.String(), err)
	if m.metrics != nil {
		m.metrics.SideEffectFailures.WithLabelValues(effect).Inc()
	}
}
