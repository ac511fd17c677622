package repository

import (
	"context"
	"encoding/json"
	"time"

	"training_leads_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// EventType constants identify the nature of an audit event.
const (
	EventTypeLeadCreated        = "lead_created"
	EventTypeCallResult         = "call_result"
	EventTypeFollowUpScheduled  = "follow_up_scheduled"
	EventTypeMissedNoReschedule = "missed_no_reschedule"
	EventTypeConsentRecorded    = "consent_recorded"
	EventTypeScoreRefreshed     = "score_refreshed"
	EventTypeFinancingChosen    = "financing_chosen"
	EventTypeQuoteSubmitted     = "quote_submitted"
	EventTypeInvoiceValidated   = "invoice_validated"
	EventTypePaymentRecorded    = "payment_recorded"
	EventTypePaymentReminder    = "payment_reminder"
	EventTypeLeadArchived       = "lead_archived"
)

// toMap serialises any struct to map[string]any via JSON round-trip so keys
// match the JSON tags of the typed metadata below.
func toMap(v any) map[string]any {
	b, _ := json.Marshal(v)
	var out map[string]any
	_ = json.Unmarshal(b, &out)
	return out
}

// TransitionMetadata is attached to every audit event that may change status.
type TransitionMetadata struct {
	FromStatus string `json:"fromStatus"`
	ToStatus   string `json:"toStatus"`
	Score      int    `json:"score"`
	Grade      string `json:"grade"`
}

func (m TransitionMetadata) ToMap() map[string]any { return toMap(m) }

// CallResultMetadata is the typed metadata for EventTypeCallResult events.
type CallResultMetadata struct {
	TransitionMetadata
	Outcome        string     `json:"outcome"`
	CallAttempts   int        `json:"callAttempts"`
	RescheduleDate *time.Time `json:"rescheduleDate,omitempty"`
}

func (m CallResultMetadata) ToMap() map[string]any { return toMap(m) }

// QuoteMetadata is the typed metadata for EventTypeQuoteSubmitted events.
type QuoteMetadata struct {
	TransitionMetadata
	Volume        float64 `json:"volume"`
	UnitRateCents int64   `json:"unitRateCents"`
	TotalCents    int64   `json:"totalCents"`
	ManualEntry   bool    `json:"manualEntry"`
}

func (m QuoteMetadata) ToMap() map[string]any { return toMap(m) }

// PaymentMetadata is the typed metadata for EventTypePaymentRecorded events.
type PaymentMetadata struct {
	TransitionMetadata
	AmountCents     int64 `json:"amountCents"`
	PaidCents       int64 `json:"paidCents"`
	TotalCents      int64 `json:"totalCents"`
	MinimumPercent  int   `json:"minimumPercent"`
	ThresholdCents  int64 `json:"thresholdCents"`
	ThresholdPassed bool  `json:"thresholdPassed"`
}

func (m PaymentMetadata) ToMap() map[string]any { return toMap(m) }

// ReminderMetadata is the typed metadata for payment reminder and archival events.
type ReminderMetadata struct {
	TransitionMetadata
	ReminderCount   int  `json:"reminderCount"`
	DaysElapsed     int  `json:"daysElapsed"`
	CloseToArchival bool `json:"closeToArchival"`
}

func (m ReminderMetadata) ToMap() map[string]any { return toMap(m) }

func (t *leadTx) AppendAudit(ctx context.Context, event domain.AuditEvent) error {
	metadata := event.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return err
	}

	_, err = t.tx.Exec(ctx, `
		INSERT INTO lead_audit_events (id, lead_id, event_type, description, performed_by, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, event.ID, event.LeadID, event.Type, event.Description, event.PerformedBy, metadataJSON, event.Timestamp)
	return err
}

// ListAuditEvents returns up to limit audit events for a lead, most recent first.
func (r *Repository) ListAuditEvents(ctx context.Context, leadID uuid.UUID, limit int) ([]domain.AuditEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, event_type, description, performed_by, metadata, created_at
		FROM lead_audit_events
		WHERE lead_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, leadID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]domain.AuditEvent, 0)
	for rows.Next() {
		var (
			e            domain.AuditEvent
			metadataJSON []byte
		)
		if err := rows.Scan(&e.ID, &e.LeadID, &e.Type, &e.Description, &e.PerformedBy, &metadataJSON, &e.Timestamp); err != nil {
			return nil, err
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &e.Metadata); err != nil {
				return nil, err
			}
		}
		events = append(events, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}
