package domain

import "fmt"

// FinancingType is the funding method chosen for a training.
type FinancingType string

const (
	FinancingSelfFunded         FinancingType = "self_funded"
	FinancingTrainingAccount    FinancingType = "training_account"
	FinancingEmployerFund       FinancingType = "employer_fund"
	FinancingUnemploymentAgency FinancingType = "unemployment_agency"
	FinancingOther              FinancingType = "other"
)

var financingRoutes = map[FinancingType]Status{
	FinancingSelfFunded:         StatusQuoteInProgress,
	FinancingTrainingAccount:    StatusAccountVerificationPending,
	FinancingEmployerFund:       StatusNegotiation,
	FinancingUnemploymentAgency: StatusNegotiation,
	FinancingOther:              StatusNegotiation,
}

// ParseFinancingType rejects anything outside the closed financing set.
func ParseFinancingType(raw string) (FinancingType, error) {
	f := FinancingType(raw)
	if _, ok := financingRoutes[f]; !ok {
		return "", fmt.Errorf("invalid financing type %q", raw)
	}
	return f, nil
}

// Valid reports whether f belongs to the closed financing set.
func (f FinancingType) Valid() bool {
	_, ok := financingRoutes[f]
	return ok
}

// NextStatus is the status a lead moves to once f is chosen.
func (f FinancingType) NextStatus() Status {
	return financingRoutes[f]
}

// FinancingEntryStatuses lists the statuses from which financing may be chosen.
var FinancingEntryStatuses = []Status{StatusAppointmentScheduled, StatusDecisionPending}
