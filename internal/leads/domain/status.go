// Package domain provides core business rules for the leads bounded context.
package domain

import (
	"fmt"
	"strings"
)

// Status is the canonical lead lifecycle status. The set is closed: every
// persisted lead carries one of the constants below.
type Status string

const (
	StatusNew                        Status = "new"
	StatusCallbackPending            Status = "callback_pending"
	StatusAppointmentScheduled       Status = "appointment_scheduled"
	StatusDecisionPending            Status = "decision_pending"
	StatusQuoteInProgress            Status = "quote_in_progress"
	StatusAccountVerificationPending Status = "account_verification_pending"
	StatusNegotiation                Status = "negotiation"
	StatusAwaitingPayment            Status = "awaiting_payment"
	StatusEnrolled                   Status = "enrolled"
	StatusLost                       Status = "lost"
)

var canonicalStatuses = []Status{
	StatusNew,
	StatusCallbackPending,
	StatusAppointmentScheduled,
	StatusDecisionPending,
	StatusQuoteInProgress,
	StatusAccountVerificationPending,
	StatusNegotiation,
	StatusAwaitingPayment,
	StatusEnrolled,
	StatusLost,
}

// legacyStatusAliases maps the historical vocabularies still sent by older
// clients and imports onto the canonical set.
var legacyStatusAliases = map[string]Status{
	"nouveau":            StatusNew,
	"appointment_missed": StatusCallbackPending,
	"rdv_manque":         StatusCallbackPending,
	"a_rappeler":         StatusCallbackPending,
	"callback":           StatusCallbackPending,
	"rdv_planifie":       StatusAppointmentScheduled,
	"appointment":        StatusAppointmentScheduled,
	"en_reflexion":       StatusDecisionPending,
	"devis_en_cours":     StatusQuoteInProgress,
	"verification_cpf":   StatusAccountVerificationPending,
	"en_negociation":     StatusNegotiation,
	"attente_paiement":   StatusAwaitingPayment,
	"converted":          StatusEnrolled,
	"inscrit":            StatusEnrolled,
	"archived":           StatusLost,
	"perdu":              StatusLost,
	"not_interested":     StatusLost,
	"pas_interesse":      StatusLost,
}

// ParseStatus resolves raw into a canonical status, accepting legacy aliases.
// Matching ignores case, surrounding spaces, and hyphen/underscore differences.
func ParseStatus(raw string) (Status, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
	key = strings.ReplaceAll(key, " ", "_")
	for _, s := range canonicalStatuses {
		if string(s) == key {
			return s, nil
		}
	}
	if s, ok := legacyStatusAliases[key]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unknown lead status %q", raw)
}

// AllStatuses returns the canonical statuses in pipeline order.
func AllStatuses() []Status {
	out := make([]Status, len(canonicalStatuses))
	copy(out, canonicalStatuses)
	return out
}

func (s Status) String() string { return string(s) }

// Valid reports whether s is one of the canonical statuses.
func (s Status) Valid() bool {
	for _, c := range canonicalStatuses {
		if c == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further lifecycle operation applies.
func (s Status) IsTerminal() bool {
	return s == StatusEnrolled || s == StatusLost
}

// AcceptsCallOutcome reports whether the lead is still in the phone
// qualification part of the pipeline.
func (s Status) AcceptsCallOutcome() bool {
	switch s {
	case StatusNew, StatusCallbackPending, StatusAppointmentScheduled, StatusDecisionPending:
		return true
	default:
		return false
	}
}

// CallPipelineStatuses lists the statuses from which call outcomes may be recorded.
var CallPipelineStatuses = []Status{
	StatusNew,
	StatusCallbackPending,
	StatusAppointmentScheduled,
	StatusDecisionPending,
}

var allowedTransitions = map[Status][]Status{
	StatusNew:                        {StatusCallbackPending, StatusAppointmentScheduled, StatusLost},
	StatusCallbackPending:            {StatusCallbackPending, StatusAppointmentScheduled, StatusLost},
	StatusAppointmentScheduled:       {StatusCallbackPending, StatusAppointmentScheduled, StatusLost, StatusQuoteInProgress, StatusAccountVerificationPending, StatusNegotiation},
	StatusDecisionPending:            {StatusCallbackPending, StatusAppointmentScheduled, StatusLost, StatusQuoteInProgress, StatusAccountVerificationPending, StatusNegotiation},
	StatusQuoteInProgress:            {StatusQuoteInProgress, StatusAwaitingPayment, StatusCallbackPending},
	StatusAccountVerificationPending: {StatusCallbackPending},
	StatusNegotiation:                {StatusCallbackPending},
	StatusAwaitingPayment:            {StatusAwaitingPayment, StatusEnrolled, StatusLost, StatusCallbackPending},
	StatusEnrolled:                   {},
	StatusLost:                       {StatusCallbackPending},
}

// CanTransition reports whether the lifecycle permits moving from one status
// to another. Staying in the same status is allowed wherever an operation
// mutates a lead without changing its stage.
func CanTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
