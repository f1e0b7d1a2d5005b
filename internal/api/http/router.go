package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/intervention-service/internal/api/http/handlers"
	"github.com/spec-kit/intervention-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Intervenant    *handlers.IntervenantHandler
	Client         *handlers.ClientHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Protected routes need a valid token;
// role checks live in the services.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/", cfg.Auth.Home)

	protected.Get("/dashboard/intervenant", cfg.Intervenant.Dashboard)
	protected.Get("/dashboard/client", cfg.Client.Dashboard)
	protected.Get("/dashboard/admin", cfg.Admin.Dashboard)

	interventions := protected.Group("/interventions")
	interventions.Post("/schedule", cfg.Intervenant.Schedule)
	interventions.Post("/scan", cfg.Intervenant.Scan)
	interventions.Post("/:id/request-delete", cfg.Intervenant.RequestDelete)

	admin := protected.Group("/admin")
	admin.Post("/interventions/schedule", cfg.Admin.Schedule)
	admin.Post("/interventions/:id/resolve", cfg.Admin.Resolve)
	admin.Get("/deletion-requests", cfg.Admin.PendingDeletions)
	admin.Post("/intervenants", cfg.Admin.CreateIntervenant)
	admin.Put("/intervenants/:id", cfg.Admin.UpdateIntervenant)
	admin.Get("/intervenants/:id", cfg.Admin.IntervenantDetails)
	admin.Post("/clients", cfg.Admin.CreateClient)
	admin.Get("/clients/:id", cfg.Admin.ClientDetails)
}
