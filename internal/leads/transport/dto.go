package transport

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs. Enum-like fields arrive as strings and are parsed at the
// boundary, so legacy spellings ("no-answer-unreachable", "rdv_manque") are
// accepted.

type CreateLeadRequest struct {
	Email           string     `json:"email,omitempty" validate:"omitempty,email,max=320"`
	Phone           string     `json:"phone,omitempty" validate:"omitempty,min=5,max=40"`
	FullName        string     `json:"fullName,omitempty" validate:"max=200"`
	AddressStreet   string     `json:"addressStreet,omitempty" validate:"max=200"`
	PostalCode      string     `json:"postalCode,omitempty" validate:"max=20"`
	City            string     `json:"city,omitempty" validate:"max=100"`
	StatedInterest  string     `json:"statedInterest,omitempty" validate:"max=2000"`
	Source          string     `json:"source" validate:"required,max=40"`
	AssignedOwnerID *uuid.UUID `json:"assignedOwnerId,omitempty"`
}

type CallResultRequest struct {
	Outcome        string     `json:"outcome" validate:"required,max=40"`
	RescheduleDate *time.Time `json:"rescheduleDate,omitempty"`
	Notes          string     `json:"notes,omitempty" validate:"max=2000"`
	LostReason     string     `json:"lostReason,omitempty" validate:"max=500"`
}

type FollowUpRequest struct {
	Date  time.Time `json:"date" validate:"required"`
	Notes string    `json:"notes,omitempty" validate:"max=2000"`
}

type MissedRequest struct {
	Notes string `json:"notes,omitempty" validate:"max=2000"`
}

type ConsentRequest struct {
	Granted *bool  `json:"granted" validate:"required"`
	Source  string `json:"source,omitempty" validate:"max=100"`
}

type FinancingRequest struct {
	FinancingType string `json:"financingType" validate:"required,max=40"`
}

// QuoteRequest amounts are in euros.
type QuoteRequest struct {
	Volume        float64 `json:"volume" validate:"gt=0"`
	UnitRate      float64 `json:"unitRate" validate:"gt=0,lte=10000000000"`
	IsManualEntry bool    `json:"isManualEntry"`
}

type PaymentRequest struct {
	Amount         float64 `json:"amount" validate:"gt=0,lte=10000000000"`
	MinimumPercent *int    `json:"minimumPercent,omitempty" validate:"omitempty,min=1,max=100"`
}

type PaymentReminderRequest struct {
	Notes string `json:"notes,omitempty" validate:"max=2000"`
}

type ListLeadsRequest struct {
	Status   string `form:"status"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// Response DTOs

// TransitionResponse is returned by every lifecycle operation.
type TransitionResponse struct {
	Success         bool     `json:"success"`
	LeadID          string   `json:"leadId"`
	PreviousStatus  string   `json:"previousStatus,omitempty"`
	NewStatus       string   `json:"newStatus"`
	Score           int      `json:"score"`
	Grade           string   `json:"grade"`
	LostReason      *string  `json:"lostReason,omitempty"`
	TotalAmount     *float64 `json:"totalAmount,omitempty"`
	AmountPaid      *float64 `json:"amountPaid,omitempty"`
	ThresholdAmount *float64 `json:"thresholdAmount,omitempty"`
	Enrolled        *bool    `json:"enrolled,omitempty"`
	ReminderNumber  int      `json:"reminderNumber,omitempty"`
	CloseToArchival bool     `json:"closeToArchival,omitempty"`
	Archived        bool     `json:"archived,omitempty"`
}

type LeadResponse struct {
	ID               string     `json:"id"`
	OrganizationID   string     `json:"organizationId"`
	Email            *string    `json:"email,omitempty"`
	Phone            *string    `json:"phone,omitempty"`
	FullName         *string    `json:"fullName,omitempty"`
	AddressStreet    *string    `json:"addressStreet,omitempty"`
	PostalCode       *string    `json:"postalCode,omitempty"`
	City             *string    `json:"city,omitempty"`
	StatedInterest   *string    `json:"statedInterest,omitempty"`
	Source           string     `json:"source"`
	AssignedOwnerID  *string    `json:"assignedOwnerId,omitempty"`
	Status           string     `json:"status"`
	FinancingType    *string    `json:"financingType,omitempty"`
	QuoteVolume      *float64   `json:"quoteVolume,omitempty"`
	QuoteUnitRate    *float64   `json:"quoteUnitRate,omitempty"`
	TotalAmount      *float64   `json:"totalAmount,omitempty"`
	AmountPaid       float64    `json:"amountPaid"`
	InvoiceValidated bool       `json:"invoiceValidated"`
	InvoiceDate      *time.Time `json:"invoiceDate,omitempty"`
	PaymentDate      *time.Time `json:"paymentDate,omitempty"`
	NextCallDate     *time.Time `json:"nextCallDate,omitempty"`
	AppointmentDate  *time.Time `json:"appointmentDate,omitempty"`
	CallAttempts     int        `json:"callAttempts"`
	ReminderCount    int        `json:"reminderCount"`
	LastReminderAt   *time.Time `json:"lastReminderAt,omitempty"`
	LostReason       *string    `json:"lostReason,omitempty"`
	ConvertedAt      *time.Time `json:"convertedAt,omitempty"`
	Score            int        `json:"score"`
	Grade            string     `json:"grade"`
	ScoreVersion     string     `json:"scoreVersion,omitempty"`
	ScoreUpdatedAt   *time.Time `json:"scoreUpdatedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

type HistoryEntryResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
}

type AuditEventResponse struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	PerformedBy string         `json:"performedBy"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

type LeadDetailResponse struct {
	Lead          LeadResponse           `json:"lead"`
	History       []HistoryEntryResponse `json:"history"`
	LegacyHistory string                 `json:"legacyHistory"`
	Audit         []AuditEventResponse   `json:"audit"`
}

type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}
