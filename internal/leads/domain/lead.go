package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Source is the acquisition channel of a lead.
type Source string

const (
	SourceReferral      Source = "referral"
	SourceWebsite       Source = "website"
	SourcePartner       Source = "partner"
	SourceEvent         Source = "event"
	SourceSocial        Source = "social"
	SourcePaidAds       Source = "paid_ads"
	SourcePurchasedList Source = "purchased_list"
	SourceOther         Source = "other"
)

var sources = map[Source]struct{}{
	SourceReferral:      {},
	SourceWebsite:       {},
	SourcePartner:       {},
	SourceEvent:         {},
	SourceSocial:        {},
	SourcePaidAds:       {},
	SourcePurchasedList: {},
	SourceOther:         {},
}

// Valid reports whether s belongs to the closed source set.
func (s Source) Valid() bool {
	_, ok := sources[s]
	return ok
}

// Grade is the coarse quality bucket derived from the score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// GradeFor buckets a 0-100 score: A from 80, B from 60, C from 40, else D.
func GradeFor(score int) Grade {
	switch {
	case score >= 80:
		return GradeA
	case score >= 60:
		return GradeB
	case score >= 40:
		return GradeC
	default:
		return GradeD
	}
}

// ConsentState is the latest recorded marketing consent of a lead.
type ConsentState string

const (
	ConsentAbsent    ConsentState = "absent"
	ConsentGranted   ConsentState = "granted"
	ConsentWithdrawn ConsentState = "withdrawn"
)

// Lead is a prospective trainee tracked through the pipeline. Identity
// fields are nullable because retention scrubbing may clear them on old
// records; status, financial fields and history stay intact.
type Lead struct {
	ID              uuid.UUID
	OrganizationID  uuid.UUID
	Email           *string
	Phone           *string
	FullName        *string
	AddressStreet   *string
	PostalCode      *string
	City            *string
	StatedInterest  *string
	Source          Source
	AssignedOwnerID *uuid.UUID

	Status Status

	FinancingType    *FinancingType
	QuoteVolume      *float64
	QuoteUnitRate    *Money
	TotalAmount      *Money
	AmountPaid       Money
	InvoiceValidated bool
	InvoiceDate      *time.Time
	PaymentDate      *time.Time

	NextCallDate    *time.Time
	AppointmentDate *time.Time
	CallAttempts    int
	ReminderCount   int
	LastReminderAt  *time.Time

	LostReason  *string
	ConvertedAt *time.Time

	Score          int
	Grade          Grade
	ScoreVersion   string
	ScoreFactors   []byte
	ScoreUpdatedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HistoryEntry is one immutable note in a lead's history.
type HistoryEntry struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	Timestamp time.Time
	Author    string
	Text      string
}

// historyTimeLayout is the timestamp format used by the legacy text view.
const historyTimeLayout = "02/01/2006 15:04"

// RenderLegacyHistory produces the concatenated text view older screens
// display. Entries are expected most-recent-first and are rendered in that order.
func RenderLegacyHistory(entries []HistoryEntry) string {
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s] %s: %s", e.Timestamp.Format(historyTimeLayout), e.Author, e.Text)
	}
	return b.String()
}

// AuditEvent is one append-only compliance record for a lead operation.
type AuditEvent struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	Type        string
	Description string
	PerformedBy string
	Metadata    map[string]any
	Timestamp   time.Time
}

// Consent is a recorded consent decision.
type Consent struct {
	ID         uuid.UUID
	LeadID     uuid.UUID
	Granted    bool
	Source     string
	RecordedAt time.Time
}

// State maps a consent record to the scoring state.
func (c *Consent) State() ConsentState {
	if c == nil {
		return ConsentAbsent
	}
	if c.Granted {
		return ConsentGranted
	}
	return ConsentWithdrawn
}
