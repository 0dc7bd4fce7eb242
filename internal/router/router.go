package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pplp-network/settlement-api/internal/config"
	"github.com/pplp-network/settlement-api/internal/handler"
	"github.com/pplp-network/settlement-api/internal/middleware"
	"github.com/pplp-network/settlement-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ActionHandler      *handler.ActionHandler
	MintRequestHandler *handler.MintRequestHandler
	AdminHandler       *handler.AdminHandler
	JWTMiddleware      fiber.Handler
}

// Register wires the HTTP routes into the fiber application. The heavy
// batch operations (create, reclaim, scan, backfill) are rate-limited to
// one call per caller per minute.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	adminOnly := middleware.RequireRole("admin")

	if deps.ActionHandler != nil {
		actions := api.Group("/actions", jwtMiddleware)
		deps.ActionHandler.Register(actions)
	}

	if deps.MintRequestHandler != nil {
		requests := api.Group("/mint-requests", jwtMiddleware)
		deps.MintRequestHandler.Register(
			requests,
			adminOnly,
			middleware.RateLimit("mint_create", 1, time.Minute),
			middleware.RateLimit("mint_sign", 10, time.Minute),
		)
	}

	if deps.AdminHandler != nil {
		admin := api.Group("/admin", jwtMiddleware, adminOnly, middleware.RateLimit("admin_batch", 1, time.Minute))
		deps.AdminHandler.Register(admin)
	}
}
