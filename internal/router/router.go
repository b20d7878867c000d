package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/credtrack/credtrack-api/internal/config"
	"github.com/credtrack/credtrack-api/internal/handler"
	"github.com/credtrack/credtrack-api/internal/middleware"
	"github.com/credtrack/credtrack-api/internal/models"
	"github.com/credtrack/credtrack-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ActivityHandler     *handler.ActivityHandler
	EvidenceHandler     *handler.EvidenceHandler
	UserHandler         *handler.UserHandler
	AllocationHandler   *handler.AllocationHandler
	NotificationHandler *handler.NotificationHandler
	ReportHandler       *handler.ReportHandler
	AuditHandler        *handler.AuditHandler
	JWTMiddleware       fiber.Handler
	ReviewRateLimiter   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.ActivityHandler != nil {
		activities := api.Group("/activities", jwtMiddleware)
		deps.ActivityHandler.Register(activities, deps.ReviewRateLimiter)

		if deps.EvidenceHandler != nil {
			deps.EvidenceHandler.Register(activities)
		}
	}

	if deps.UserHandler != nil {
		users := api.Group("/users", jwtMiddleware, middleware.RequireRole(models.RoleAdmin))
		deps.UserHandler.Register(users)
	}

	if deps.AllocationHandler != nil {
		allocations := api.Group("/allocations", jwtMiddleware)
		deps.AllocationHandler.Register(allocations)
	}

	if deps.NotificationHandler != nil {
		notifications := api.Group("/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}

	if deps.ReportHandler != nil {
		reports := api.Group("/reports", jwtMiddleware)
		deps.ReportHandler.Register(reports)
	}

	if deps.AuditHandler != nil {
		audit := api.Group("/audit", jwtMiddleware, middleware.RequireRole(models.RoleAdmin))
		deps.AuditHandler.Register(audit)
	}
}
