package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/transit-rewards/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Users   *handlers.UsersHandler
	Reports *handlers.ReportsHandler
	Tickets *handlers.TicketsHandler
	Stats   *handlers.StatsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/users", cfg.Users.Register)
	app.Get("/users/:id/level", cfg.Users.Level)
	app.Get("/users/:id/progress", cfg.Users.Progress)

	app.Post("/reports", cfg.Reports.Create)
	app.Get("/reports/user/:userID", cfg.Reports.ListByUser)
	app.Patch("/reports/:id/verify", cfg.Reports.Verify)
	app.Patch("/reports/:id/reject", cfg.Reports.Reject)

	app.Get("/tickets/user/:userID", cfg.Tickets.ListByUser)
	app.Post("/tickets/cleanup-expired", cfg.Tickets.CleanupExpired)
	app.Post("/tickets/:id/activate", cfg.Tickets.Activate)

	app.Get("/stats/leaderboard", cfg.Stats.Leaderboard)
}
