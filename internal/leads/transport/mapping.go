package transport

import (
	"fmt"
	"strings"

	"training_leads_backend/internal/leads/domain"
	"training_leads_backend/internal/leads/lifecycle"
	"training_leads_backend/internal/leads/service"
)

// normalizeKey folds case, hyphens and spaces so older clients' spellings
// reach the canonical parsers.
func normalizeKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "-", "_")
	return strings.ReplaceAll(key, " ", "_")
}

func ParseOutcome(raw string) (domain.CallOutcome, error) {
	return domain.ParseCallOutcome(normalizeKey(raw))
}

func ParseFinancingType(raw string) (domain.FinancingType, error) {
	return domain.ParseFinancingType(normalizeKey(raw))
}

func ParseSource(raw string) (domain.Source, error) {
	s := domain.Source(normalizeKey(raw))
	if !s.Valid() {
		return "", fmt.Errorf("invalid lead source %q", raw)
	}
	return s, nil
}

// ParseStatuses reads a comma-separated status filter. Legacy names map to
// their canonical status; duplicates are dropped.
func ParseStatuses(raw string) ([]domain.Status, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	seen := make(map[domain.Status]struct{})
	var out []domain.Status
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		s, err := domain.ParseStatus(part)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

func euros(m domain.Money) float64 { return m.Float() }

func eurosPtr(m *domain.Money) *float64 {
	if m == nil {
		return nil
	}
	v := m.Float()
	return &v
}

func ToTransitionResponse(r lifecycle.Result) TransitionResponse {
	return TransitionResponse{
		Success:         true,
		LeadID:          r.LeadID.String(),
		PreviousStatus:  string(r.PreviousStatus),
		NewStatus:       string(r.NewStatus),
		Score:           r.Score,
		Grade:           string(r.Grade),
		LostReason:      r.LostReason,
		TotalAmount:     eurosPtr(r.TotalAmount),
		ReminderNumber:  r.ReminderNumber,
		CloseToArchival: r.CloseToArchival,
		Archived:        r.Archived,
	}
}

// ToPaymentResponse adds the payment figures to the transition response.
func ToPaymentResponse(r lifecycle.Result) TransitionResponse {
	resp := ToTransitionResponse(r)
	paid := euros(r.AmountPaid)
	threshold := euros(r.ThresholdAmount)
	enrolled := r.Enrolled
	resp.AmountPaid = &paid
	resp.ThresholdAmount = &threshold
	resp.Enrolled = &enrolled
	return resp
}

func ToLeadResponse(l domain.Lead) LeadResponse {
	resp := LeadResponse{
		ID:               l.ID.String(),
		OrganizationID:   l.OrganizationID.String(),
		Email:            l.Email,
		Phone:            l.Phone,
		FullName:         l.FullName,
		AddressStreet:    l.AddressStreet,
		PostalCode:       l.PostalCode,
		City:             l.City,
		StatedInterest:   l.StatedInterest,
		Source:           string(l.Source),
		Status:           string(l.Status),
		QuoteVolume:      l.QuoteVolume,
		QuoteUnitRate:    eurosPtr(l.QuoteUnitRate),
		TotalAmount:      eurosPtr(l.TotalAmount),
		AmountPaid:       euros(l.AmountPaid),
		InvoiceValidated: l.InvoiceValidated,
		InvoiceDate:      l.InvoiceDate,
		PaymentDate:      l.PaymentDate,
		NextCallDate:     l.NextCallDate,
		AppointmentDate:  l.AppointmentDate,
		CallAttempts:     l.CallAttempts,
		ReminderCount:    l.ReminderCount,
		LastReminderAt:   l.LastReminderAt,
		LostReason:       l.LostReason,
		ConvertedAt:      l.ConvertedAt,
		Score:            l.Score,
		Grade:            string(l.Grade),
		ScoreVersion:     l.ScoreVersion,
		ScoreUpdatedAt:   l.ScoreUpdatedAt,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
	if l.AssignedOwnerID != nil {
		id := l.AssignedOwnerID.String()
		resp.AssignedOwnerID = &id
	}
	if l.FinancingType != nil {
		ft := string(*l.FinancingType)
		resp.FinancingType = &ft
	}
	return resp
}

func ToLeadDetailResponse(d service.Detail) LeadDetailResponse {
	history := make([]HistoryEntryResponse, len(d.History))
	for i, h := range d.History {
		history[i] = HistoryEntryResponse{Timestamp: h.Timestamp, Author: h.Author, Text: h.Text}
	}
	audit := make([]AuditEventResponse, len(d.Audit))
	for i, a := range d.Audit {
		audit[i] = AuditEventResponse{
			ID:          a.ID.String(),
			Type:        a.Type,
			Description: a.Description,
			PerformedBy: a.PerformedBy,
			Metadata:    a.Metadata,
			Timestamp:   a.Timestamp,
		}
	}
	return LeadDetailResponse{
		Lead:          ToLeadResponse(d.Lead),
		History:       history,
		LegacyHistory: d.LegacyHistory,
		Audit:         audit,
	}
}

func ToLeadListResponse(p service.Page) LeadListResponse {
	items := make([]LeadResponse, len(p.Items))
	for i, l := range p.Items {
		items[i] = ToLeadResponse(l)
	}
	return LeadListResponse{
		Items:      items,
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
	}
}
