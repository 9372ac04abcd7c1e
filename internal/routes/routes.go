package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/rohanjain1648/whisper-thrillz/internal/config"
	"github.com/rohanjain1648/whisper-thrillz/internal/handlers"
	"github.com/rohanjain1648/whisper-thrillz/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	messageHandler *handlers.MessageHandler,
	discoveryHandler *handlers.DiscoveryHandler,
	moderationHandler *handlers.ModerationHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Messages (JWT required)
	messages := api.Group("/messages", middleware.JWTProtected(cfg))
	messages.Get("/nearby", discoveryHandler.Nearby)
	messages.Get("/insights", discoveryHandler.Insights)
	messages.Post("/", messageHandler.Create)
	messages.Post("/:id/reactions", messageHandler.React)
	messages.Post("/:id/discover", messageHandler.Discover)
	messages.Post("/:id/reports", messageHandler.Report)

	// Admin moderation panel (JWT + admin required)
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(cfg))
	admin.Get("/moderation/queue", moderationHandler.Queue)
	admin.Post("/moderation/records/:id/claim", moderationHandler.Claim)
	admin.Post("/moderation/:id/review", moderationHandler.Review)
	admin.Post("/moderation/:id/reclassify", moderationHandler.Reclassify)
	admin.Get("/reports", moderationHandler.Reports)
	admin.Put("/reports/:id", moderationHandler.ActionReport)

	// Privileged discovery (same handlers, admin flags honored)
	admin.Get("/messages/nearby", discoveryHandler.Nearby)
}
