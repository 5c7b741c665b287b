package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/stackpos/tipengine/cmd/docs"
	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
	"github.com/stackpos/tipengine/internal/middleware"
	"github.com/stackpos/tipengine/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	registerCustomValidations()

	registerHomeRoutes(r)

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	// Prometheus scrape endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Register public authentication and onboarding routes
	registerAuthRoutes(r, cfg, services.Auth)
	registerOnboardingRoutes(r, cfg, services.Location)

	// Setup API v1 routes with Auth Middleware, passing service interfaces
	setupAPIV1Routes(r, cfg, services)

	// Swagger routes (typically public or conditionally available)
	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	service *portssvc.ServiceContainer,
) {
	// Terminal tokens are checked before JWTs so POS requests skip JWT parsing.
	v1 := r.Group("/api/v1",
		middleware.TerminalAuth(service.Token),
		middleware.AuthMiddleware(cfg.JWTSecret),
	)

	// Every tenant route nests under a location. Access is verified once
	// here; role checks happen per route group below.
	loc := v1.Group("/locations/:locationID", middleware.RequireLocationAccess(service.Auth))

	registerLocationRoutes(v1, loc, service.Location)
	registerWebhookRoutes(loc, cfg, service.Attribution, service.Debt)
	registerLedgerRoutes(loc, service.Ledger)
	registerBankRoutes(loc, service.Bank)
	registerDebtRoutes(loc, service.Debt)
	registerPoolRoutes(loc, service.Pool)
	registerTipOutRuleRoutes(loc, service.TipOut)
	registerEmployeeRoutes(loc, service.Employee)
	registerShiftRoutes(loc, service.Shift)
	registerTerminalTokenRoutes(loc, service.Token)
	registerUserRoutes(loc, service.Auth)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	// Swagger setup
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
