package http

import (
	"context"

	"training_leads_backend/internal/events"
	"training_leads_backend/platform/config"
	"training_leads_backend/platform/logger"
	"training_leads_backend/platform/metrics"
)

// RouterConfig is the part of the configuration the router reads: listen
// address, CORS, rate limits and the JWT secret.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs /api/health. *pgxpool.Pool satisfies it.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is what cmd/api hands to the router after wiring every dependency.
type App struct {
	Config   RouterConfig
	Logger   *logger.Logger
	Health   HealthChecker
	EventBus events.Bus
	// Metrics, when set, instruments every route and serves /metrics.
	Metrics *metrics.Metrics
	Modules []Module
}
