package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/bkoseoglu/mallhub/internal/config"
	"github.com/bkoseoglu/mallhub/internal/database"
	"github.com/bkoseoglu/mallhub/internal/directory"
	"github.com/bkoseoglu/mallhub/internal/docstore"
	"github.com/bkoseoglu/mallhub/internal/handlers"
	"github.com/bkoseoglu/mallhub/internal/identity"
	"github.com/bkoseoglu/mallhub/internal/logging"
	"github.com/bkoseoglu/mallhub/internal/middleware"
	"github.com/bkoseoglu/mallhub/internal/profiles"
	"github.com/bkoseoglu/mallhub/internal/routes"
	"github.com/bkoseoglu/mallhub/internal/session"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	// Storage backends
	var (
		store       docstore.Store
		provisioner docstore.Provisioner
		accounts    identity.AccountStore
		refresh     identity.RefreshStore
		dbHandler   *logging.DBHandler
		cleanupDone chan struct{}
	)

	switch cfg.StoreDriver {
	case "memory":
		slog.Info("using in-memory store")
		mem := docstore.NewMemory()
		store, provisioner = mem, mem
		accounts = identity.NewMemoryAccounts()
		refresh = identity.NewMemoryRefreshStore()
	default:
		if cfg.DBPassword == "" {
			slog.Error("DB_PASSWORD environment variable is required")
			os.Exit(1)
		}
		if err := database.Connect(cfg); err != nil {
			slog.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		if err := database.Migrate(); err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}

		// Database log handler (ERROR+ async batch)
		dbHandler = logging.NewDBHandler(database.DB)
		slog.SetDefault(slog.New(logging.NewMultiHandler(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
			dbHandler,
		)))

		// Log cleanup (30-day retention)
		cleanupDone = make(chan struct{})
		logging.StartCleanup(database.DB, cleanupDone)

		gs := docstore.NewGormStore(database.DB)
		store, provisioner = gs, gs
		accounts = identity.NewGormAccounts(database.DB)
		refresh = identity.NewGormRefreshStore(database.DB)
	}

	// Services
	registry := session.NewRegistry(cfg.SessionTTL)
	profileSvc := profiles.NewService(store, cfg.AdminEmails)
	directorySvc := directory.NewService(store)

	// Handlers
	authHandler := handlers.NewAuthHandler(cfg, registry, accounts, profileSvc, refresh)
	shopHandler := handlers.NewShopHandler(directorySvc)
	offerHandler := handlers.NewOfferHandler(directorySvc)
	catalogHandler := handlers.NewCatalogHandler(directorySvc)
	adminHandler := handlers.NewAdminHandler(profileSvc, provisioner)
	healthHandler := handlers.NewHealthHandler(cfg, registry)

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
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
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

	// Routes
	routes.Setup(app, cfg, registry, accounts, profileSvc,
		authHandler, shopHandler, offerHandler, catalogHandler, adminHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "store", cfg.StoreDriver)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	registry.Stop()
	if cleanupDone != nil {
		close(cleanupDone)
	}
	if dbHandler != nil {
		dbHandler.Stop()
	}
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if database.DB != nil {
		if sqlDB, err := database.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				slog.Error("database close error", "error", err)
			}
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
