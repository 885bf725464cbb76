package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/launchlist/waitlist-service/internal/api/http/handlers"
	"github.com/launchlist/waitlist-service/internal/auth"
	apperrors "github.com/launchlist/waitlist-service/pkg/util/errorutil"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Waitlist       *handlers.WaitlistHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Anything unmatched answers 404 in the
// standard error envelope.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/admin/login", cfg.Admin.Login)

	api := app.Group("/api")
	api.Post("/waitlist", cfg.Waitlist.Join)
	api.Get("/waitlist/count", cfg.Waitlist.Count)

	requireAdmin := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAdmin()}
	api.Get("/waitlist", append(requireAdmin, cfg.Waitlist.List)...)
	api.Get("/admin/metrics", append(requireAdmin, cfg.Admin.Metrics)...)

	app.Use(func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("route", map[string]any{"method": c.Method(), "path": c.Path()})
	})
}
