// Package leads provides the training leads bounded context module.
// This file wires the lifecycle engines, the read side and the HTTP handler.
package leads

import (
	"training_leads_backend/internal/events"
	apphttp "training_leads_backend/internal/http"
	"training_leads_backend/internal/leads/handler"
	"training_leads_backend/internal/leads/lifecycle"
	"training_leads_backend/internal/leads/repository"
	"training_leads_backend/internal/leads/scoring"
	"training_leads_backend/internal/leads/service"
	"training_leads_backend/platform/clock"
	"training_leads_backend/platform/config"
	"training_leads_backend/platform/db"
	"training_leads_backend/platform/logger"
	"training_leads_backend/platform/metrics"
	"training_leads_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler     *handler.Handler
	repo        *repository.Repository
	intake      *lifecycle.Intake
	transitions *lifecycle.Transitions
	financing   *lifecycle.Financing
	queries     *service.Service
}

// Options carries the shared infrastructure the module is built from.
type Options struct {
	Pool      db.Pool
	EventBus  events.Bus
	Cache     service.Cache
	Validator *validator.Validator
	Config    config.LifecycleConfig
	Metrics   *metrics.Metrics
	Clock     clock.Clock
	Log       *logger.Logger
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(opts Options) (*Module, error) {
	if err := lifecycle.RegisterValidations(opts.Validator); err != nil {
		return nil, err
	}

	repo := repository.New(opts.Pool)

	deps := lifecycle.Deps{
		Store:     repo,
		Scorer:    scoring.New(opts.Log),
		Clock:     opts.Clock,
		Bus:       opts.EventBus,
		Metrics:   opts.Metrics,
		Log:       opts.Log,
		Validator: opts.Validator,
		Config:    opts.Config,
	}
	intake := lifecycle.NewIntake(deps)
	transitions := lifecycle.NewTransitions(deps)
	financing := lifecycle.NewFinancing(deps)
	queries := service.New(repo, opts.Cache, opts.Metrics, opts.Log)

	return &Module{
		handler:     handler.New(intake, transitions, financing, queries, opts.Validator),
		repo:        repo,
		intake:      intake,
		transitions: transitions,
		financing:   financing,
		queries:     queries,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Repository returns the lead store for sweeps and notification lookups.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// Transitions returns the call-pipeline engine.
func (m *Module) Transitions() *lifecycle.Transitions {
	return m.transitions
}

// Financing returns the financing workflow.
func (m *Module) Financing() *lifecycle.Financing {
	return m.financing
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All leads routes require authentication
	leadsGroup := ctx.Protected.Group("/leads")
	m.handler.RegisterRoutes(leadsGroup)
	if ctx.Logger != nil {
		ctx.Logger.Info("leads routes mounted", "prefix", leadsGroup.BasePath())
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
