package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/coralises/guildflow/internal/api/http/handlers"
	"github.com/coralises/guildflow/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Events         *handlers.EventsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/platform/events", cfg.Events.Receive)

	app.Post("/auth/admin/login", cfg.Admin.Login)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireOperator())
	admin.Post("/panels/tickets", cfg.Admin.PostTicketPanel)
	admin.Post("/panels/applications", cfg.Admin.PostApplicationPanel)
	admin.Post("/prune", cfg.Admin.Prune)
	admin.Get("/metrics", cfg.Admin.Metrics)
}
