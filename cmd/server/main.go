package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/joho/godotenv"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rohanjain1648/whisper-thrillz/internal/config"
	"github.com/rohanjain1648/whisper-thrillz/internal/database"
	"github.com/rohanjain1648/whisper-thrillz/internal/handlers"
	"github.com/rohanjain1648/whisper-thrillz/internal/logging"
	"github.com/rohanjain1648/whisper-thrillz/internal/middleware"
	"github.com/rohanjain1648/whisper-thrillz/internal/ratelimit"
	"github.com/rohanjain1648/whisper-thrillz/internal/routes"
	"github.com/rohanjain1648/whisper-thrillz/internal/services"
	"github.com/rohanjain1648/whisper-thrillz/internal/store"
)

func main() {
	_ = godotenv.Load()

	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Moderation policy
	policy, err := services.LoadModerationPolicy(cfg.ModerationPolicyPath)
	if err != nil {
		slog.Error("moderation policy load failed", "path", cfg.ModerationPolicyPath, "error", err)
		os.Exit(1)
	}

	// Classifiers (nil API key means local fallbacks only)
	var moodClassifier services.MoodClassifier
	if cfg.MoodAPIKey != "" {
		moodClassifier = services.NewHTTPMoodClassifier(cfg)
	}
	var contentClassifier services.ContentClassifier
	if cfg.ModerationAPIKey != "" {
		contentClassifier = services.NewHTTPContentClassifier(cfg)
	}

	// Services
	st := store.NewPostgresStore(database.DB)
	moderationService := services.NewModerationService(st, contentClassifier, policy, cfg.ClassifierTimeout)
	moderationService.Start()

	messageService := services.NewMessageService(
		st, moodClassifier, moderationService,
		ratelimit.NewLimiter(),
		cfg.CreateLimit, cfg.ReportLimit, cfg.DefaultExpiryHours,
	)
	discoveryService := services.NewDiscoveryService(st)

	sweeper := services.NewSweeper(st, cfg.SweepInterval, cfg.EmotionRetention)
	go sweeper.Start()

	// Catch up on anything that expired while the server was down.
	if removed, err := sweeper.Sweep(context.Background()); err != nil {
		slog.Error("startup sweep failed", "error", err)
	} else if removed > 0 {
		slog.Info("startup sweep complete", "removed", removed)
	}

	// Handlers
	messageHandler := handlers.NewMessageHandler(messageService)
	discoveryHandler := handlers.NewDiscoveryHandler(discoveryService)
	moderationHandler := handlers.NewModerationHandler(moderationService)
	healthHandler := handlers.NewHealthHandler()

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routes.Setup(app, cfg, messageHandler, discoveryHandler, moderationHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	sweeper.Stop()
	moderationService.Stop()
	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
