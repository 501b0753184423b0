package handlers

import (
	"github.com/SscSPs/securities_registry/internal/core/domain"
	portssvc "github.com/SscSPs/securities_registry/internal/core/ports/services"
	"github.com/SscSPs/securities_registry/internal/middleware"
	"github.com/SscSPs/securities_registry/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
)

// RouteOptions carries the optional pieces of the HTTP surface. Nil limiters disable limiting.
type RouteOptions struct {
	RateLimiter     *limiter.Limiter
	DocumentLimiter *limiter.Limiter // applied on top of RateLimiter to document rendering
	HealthChecks    map[string]HealthCheck
}

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	opts RouteOptions,
) {
	// Add health check route
	r.GET("/health", getHealth(opts.HealthChecks))

	// Setup API v1 routes with Auth Middleware, passing service interfaces
	setupAPIV1Routes(r, cfg, services, opts)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	opts RouteOptions,
) {
	// Apply AuthMiddleware to the entire v1 group
	chain := []gin.HandlerFunc{middleware.AuthMiddleware(cfg.JWTSecret)}
	if opts.RateLimiter != nil {
		chain = append(chain, middleware.RateLimit(opts.RateLimiter))
	}
	v1 := r.Group("/api/v1", chain...)

	registerRegisterRoutes(v1.Group("", middleware.RequireRole(domain.RoleAdmin)), services.Holdings)

	entity := v1.Group("/entities/:entityID")
	registerTransactionRoutes(entity, services.Transaction)
	registerHoldingsRoutes(entity, services.Holdings)
	registerCertificateRoutes(entity, services.Certificate, opts.DocumentLimiter)
	registerTemplateRoutes(entity, services.Template)
}
