// Package service is the read side of the leads context: the lead detail
// view with its history and audit trail, and paged listing.
package service

import (
	"context"
	"errors"

	"training_leads_backend/internal/leads/domain"
	"training_leads_backend/internal/leads/repository"
	"training_leads_backend/platform/apperr"
	"training_leads_backend/platform/logger"
	"training_leads_backend/platform/metrics"

	"github.com/google/uuid"
)

const (
	auditLimit      = 50
	defaultPageSize = 25
	maxPageSize     = 100
)

// Detail is a lead with its structured history, the legacy text rendering of
// that history, and its most recent audit events.
type Detail struct {
	Lead          domain.Lead           `json:"lead"`
	History       []domain.HistoryEntry `json:"history"`
	LegacyHistory string                `json:"legacyHistory"`
	Audit         []domain.AuditEvent   `json:"audit"`
}

// Cache stores lead details between reads. Implementations must treat a
// missing key as (nil, nil).
type Cache interface {
	Get(ctx context.Context, leadID uuid.UUID) (*Detail, error)
	Set(ctx context.Context, detail Detail) error
	Invalidate(ctx context.Context, leadID uuid.UUID) error
}

// ListQuery selects a page of leads. Statuses are already canonical.
type ListQuery struct {
	Statuses []domain.Status
	Page     int
	PageSize int
}

// Page is one page of leads.
type Page struct {
	Items      []domain.Lead
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

type Service struct {
	repo    repository.LeadReader
	cache   Cache
	metrics *metrics.Metrics
	log     *logger.Logger
}

// New creates the read service. cache may be nil.
func New(repo repository.LeadReader, cache Cache, m *metrics.Metrics, log *logger.Logger) *Service {
	if m == nil {
		m = metrics.Nop()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, cache: cache, metrics: m, log: log}
}

// Get returns the lead detail, served from cache when possible.
func (s *Service) Get(ctx context.Context, id, organizationID uuid.UUID) (Detail, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err != nil {
			s.log.Warn("lead cache read failed", "lead_id", id, "error", err)
		}
		if cached != nil && cached.Lead.OrganizationID == organizationID {
			s.metrics.CacheHits.Inc()
			return *cached, nil
		}
		s.metrics.CacheMisses.Inc()
	}

	lead, err := s.repo.GetByID(ctx, id, organizationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Detail{}, apperr.NotFound("lead not found")
		}
		return Detail{}, apperr.Wrap(apperr.KindInternal, "load lead", err)
	}

	history, err := s.repo.ListHistory(ctx, id)
	if err != nil {
		return Detail{}, apperr.Wrap(apperr.KindInternal, "load lead history", err)
	}

	audit, err := s.repo.ListAuditEvents(ctx, id, auditLimit)
	if err != nil {
		return Detail{}, apperr.Wrap(apperr.KindInternal, "load lead audit", err)
	}

	detail := Detail{
		Lead:          lead,
		History:       history,
		LegacyHistory: domain.RenderLegacyHistory(history),
		Audit:         audit,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, detail); err != nil {
			s.log.Warn("lead cache write failed", "lead_id", id, "error", err)
		}
	}
	return detail, nil
}

// List returns a page of the organization's leads, best score first.
func (s *Service) List(ctx context.Context, organizationID uuid.UUID, q ListQuery) (Page, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	result, err := s.repo.List(ctx, repository.ListParams{
		OrganizationID: organizationID,
		Statuses:       q.Statuses,
		Limit:          size,
		Offset:         (page - 1) * size,
	})
	if err != nil {
		return Page{}, apperr.Wrap(apperr.KindInternal, "list leads", err)
	}

	totalPages := (result.Total + size - 1) / size
	return Page{
		Items:      result.Items,
		Total:      result.Total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
	}, nil
}
