package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/ivd-portal/inscription-service/internal/api/http/handlers"
	"github.com/ivd-portal/inscription-service/internal/auth"
	"github.com/ivd-portal/inscription-service/internal/domain"
	"github.com/ivd-portal/inscription-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Events         *handlers.EventsHandler
	Inscriptions   *handlers.InscriptionsHandler
	Athletes       *handlers.AthletesHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	app.Post("/auth/login", cfg.Auth.Login)

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	admin := auth.RequireRole(domain.RoleAdmin)
	adminOrClub := auth.RequireRole(domain.RoleAdmin, domain.RoleClub)

	api.Get("/categories", cfg.Events.Categories)

	api.Get("/events", cfg.Events.ListEvents)
	api.Get("/events/:id", cfg.Events.GetEvent)
	api.Post("/events", admin, cfg.Events.CreateEvent)
	api.Patch("/events/:id", admin, cfg.Events.UpdateEvent)

	api.Get("/convocatorias/:id", cfg.Events.GetConvocatoria)
	api.Patch("/convocatorias/:id", admin, cfg.Events.UpdateConvocatoria)
	api.Get("/convocatorias/:id/eligibility", cfg.Events.Eligibility)
	api.Post("/convocatorias/:id/reconcile", admin, cfg.Events.Reconcile)

	api.Post("/inscriptions", cfg.Inscriptions.Register)
	api.Get("/inscriptions", cfg.Inscriptions.List)
	api.Get("/inscriptions/:id", cfg.Inscriptions.Get)
	api.Post("/inscriptions/:id/validate", admin, cfg.Inscriptions.Validate)

	api.Post("/athletes", adminOrClub, cfg.Athletes.Create)
	api.Get("/athletes/:id", cfg.Athletes.Get)
	api.Get("/clubs/:id/athletes", adminOrClub, cfg.Athletes.ListByClub)
}
