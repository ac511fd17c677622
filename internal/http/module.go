// Package http holds the contract between the router and the domain modules
// that mount endpoints on it.
package http

import (
	"training_leads_backend/platform/config"
	"training_leads_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context that owns a set of HTTP routes. The router only
// knows modules through this interface.
type Module interface {
	// Name identifies the module in startup logs.
	Name() string
	// RegisterRoutes mounts the module's endpoints on the shared groups.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is handed to every module during route registration.
type RouterContext struct {
	// Engine is the root engine, for routes outside /api/v1.
	Engine *gin.Engine
	// V1 is the rate-limited /api/v1 group without authentication.
	V1 *gin.RouterGroup
	// Protected is /api/v1 behind AuthMiddleware. Handlers read the actor and
	// organization from the token claims set there.
	Protected *gin.RouterGroup
	// Config is the JWT configuration, for modules mounting their own auth.
	Config config.JWTConfig
	// AuthMiddleware validates access tokens.
	AuthMiddleware gin.HandlerFunc
	Logger         *logger.Logger
}
