// Package scoring computes the lead quality score. It is pure: callers
// gather the inputs inside their transaction and persist the result there.
package scoring

import (
	"encoding/json"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"training_leads_backend/internal/leads/domain"
	"training_leads_backend/platform/logger"
	"training_leads_backend/platform/phone"
)

// Input is everything the score depends on besides the clock.
type Input struct {
	Lead domain.Lead
	// EmailUnique is false when another lead of the same organization shares the email.
	EmailUnique bool
	Consent     domain.ConsentState
}

// Result holds scoring output and factor details.
type Result struct {
	Score       int
	Grade       domain.Grade
	Base        int
	Dynamic     int
	Factors     map[string]float64
	FactorsJSON []byte
	Version     string
	UpdatedAt   time.Time
}

// Engine computes lead scores.
type Engine struct {
	tables *Tables
	log    *logger.Logger
}

// New creates an engine over the embedded tables.
func New(log *logger.Logger) *Engine {
	return NewWithTables(DefaultTables(), log)
}

// NewWithTables creates an engine over custom tables.
func NewWithTables(tables *Tables, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{tables: tables, log: log}
}

// Version returns the scoring model version stamped on results.
func (e *Engine) Version() string {
	return e.tables.Version
}

// Compute returns clamp(base + dynamic, 0, 100) and its grade.
func (e *Engine) Compute(in Input, now time.Time) Result {
	factors := make(map[string]float64)

	base := 0.0
	base += e.addFactor(factors, "email_quality", e.scoreEmail(in.Lead.Email))
	base += e.addFactor(factors, "phone_completeness", scorePhone(in.Lead.Phone))
	base += e.addFactor(factors, "address_completeness", scoreAddress(in.Lead))
	base += e.addFactor(factors, "interest_specificity", scoreInterest(in.Lead.StatedInterest))
	base += e.addFactor(factors, "source_quality", e.scoreSource(in.Lead.Source))
	base += e.addFactor(factors, "email_uniqueness", scoreEmailUniqueness(in.Lead.Email, in.EmailUnique))

	dynamic := 0.0
	dynamic += e.addFactor(factors, "status", e.scoreStatus(in.Lead.Status))
	dynamic += e.addFactor(factors, "freshness", scoreFreshness(in.Lead.CreatedAt, now))
	dynamic += e.addFactor(factors, "consent", scoreConsent(in.Consent))

	score := clampScore(base + dynamic)

	factorsJSON, err := json.Marshal(factors)
	if err != nil {
		e.log.Error("lead score factors marshal failed", "error", err)
		factorsJSON = nil
	}

	return Result{
		Score:       score,
		Grade:       domain.GradeFor(score),
		Base:        int(base),
		Dynamic:     int(dynamic),
		Factors:     factors,
		FactorsJSON: factorsJSON,
		Version:     e.tables.Version,
		UpdatedAt:   now,
	}
}

func (e *Engine) addFactor(factors map[string]float64, key string, value float64) float64 {
	if math.Abs(value) < 0.01 {
		return 0
	}
	factors[key] = value
	return value
}

// scoreEmail: disposable 0, free consumer 8, professional 15.
func (e *Engine) scoreEmail(email *string) float64 {
	if email == nil {
		return 0
	}
	switch e.tables.classifyEmail(strings.TrimSpace(*email)) {
	case emailFree:
		return 8
	case emailProfessional:
		return 15
	default:
		return 0
	}
}

func scorePhone(p *string) float64 {
	if p == nil {
		return 0
	}
	digits := phone.DigitCount(*p)
	switch {
	case digits >= 10:
		return 10
	case digits >= 6:
		return 5
	default:
		return 0
	}
}

func scoreAddress(lead domain.Lead) float64 {
	present := 0
	for _, part := range []*string{lead.AddressStreet, lead.PostalCode, lead.City} {
		if part != nil && strings.TrimSpace(*part) != "" {
			present++
		}
	}
	switch present {
	case 3:
		return 10
	case 2:
		return 6
	case 1:
		return 3
	default:
		return 0
	}
}

// scoreInterest rewards a specific stated interest over a one-word one.
func scoreInterest(interest *string) float64 {
	if interest == nil {
		return 0
	}
	n := utf8.RuneCountInString(strings.TrimSpace(*interest))
	switch {
	case n == 0:
		return 0
	case n < 20:
		return 3
	case n < 80:
		return 8
	default:
		return 15
	}
}

func (e *Engine) scoreSource(source domain.Source) float64 {
	if points, ok := e.tables.SourcePoints[string(source)]; ok {
		return float64(points)
	}
	return float64(e.tables.SourcePoints[string(domain.SourceOther)])
}

func scoreEmailUniqueness(email *string, unique bool) float64 {
	if email == nil || strings.TrimSpace(*email) == "" || !unique {
		return 0
	}
	return 10
}

func (e *Engine) scoreStatus(status domain.Status) float64 {
	return float64(e.tables.StatusPoints[string(status)])
}

// scoreFreshness evaluates how recently the lead came in.
func scoreFreshness(createdAt, now time.Time) float64 {
	if createdAt.IsZero() {
		return 0
	}
	age := now.Sub(createdAt)
	switch {
	case age < 24*time.Hour:
		return 10
	case age <= 3*24*time.Hour:
		return 5
	case age <= 7*24*time.Hour:
		return 2
	case age > 30*24*time.Hour:
		return -10
	default:
		return 0
	}
}

func scoreConsent(state domain.ConsentState) float64 {
	switch state {
	case domain.ConsentGranted:
		return 10
	case domain.ConsentWithdrawn:
		return -10
	default:
		return -3
	}
}

func clampScore(value float64) int {
	rounded := int(math.Round(value))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}
