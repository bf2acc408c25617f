package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/suggestbox-go-api/internal/config"
	"github.com/noah-isme/suggestbox-go-api/internal/handler"
	"github.com/noah-isme/suggestbox-go-api/internal/middleware"
	"github.com/noah-isme/suggestbox-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SuggestionHandler *handler.SuggestionHandler
	AdminHandler      *handler.AdminHandler
	PushHandler       *handler.PushHandler
	AdminAuth         fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	adminAuth := deps.AdminAuth
	if adminAuth == nil {
		adminAuth = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Anonymous submissions. First-time submitters get a key minted for them.
	if deps.SuggestionHandler != nil {
		submit := api.Group("/suggestions",
			middleware.RateLimit("suggestions", 10, time.Minute),
			middleware.StudentKeyOptional(),
		)
		deps.SuggestionHandler.RegisterPublic(submit)

		owner := api.Group("/me/suggestions", middleware.StudentKeyRequired())
		deps.SuggestionHandler.RegisterOwner(owner)
	}

	if deps.AdminHandler != nil {
		admin := api.Group("/admin")
		login := admin.Group("", middleware.RateLimit("admin_login", 5, time.Minute))
		deps.AdminHandler.RegisterPublic(login)

		protected := admin.Group("", adminAuth)
		deps.AdminHandler.RegisterProtected(protected)
	}

	if deps.PushHandler != nil {
		push := api.Group("/push")
		deps.PushHandler.Register(push, adminAuth)
	}
}
