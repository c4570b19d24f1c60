package routes

import (
	"time"

	"github.com/bkoseoglu/mallhub/internal/access"
	"github.com/bkoseoglu/mallhub/internal/config"
	"github.com/bkoseoglu/mallhub/internal/handlers"
	"github.com/bkoseoglu/mallhub/internal/identity"
	"github.com/bkoseoglu/mallhub/internal/middleware"
	"github.com/bkoseoglu/mallhub/internal/profiles"
	"github.com/bkoseoglu/mallhub/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	registry *session.Registry,
	accounts identity.AccountStore,
	profileSvc *profiles.Service,
	authHandler *handlers.AuthHandler,
	shopHandler *handlers.ShopHandler,
	offerHandler *handlers.OfferHandler,
	catalogHandler *handlers.CatalogHandler,
	adminHandler *handlers.AdminHandler,
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

	// Auth routes get a stricter rate limit: 10 req/min per IP. Login and register are
	// public-only: an authenticated caller is redirected to their surface.
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	publicOnly := []fiber.Handler{
		middleware.OptionalSessionState(cfg, registry, accounts, profileSvc),
		middleware.Guard(access.PublicOnly),
	}
	auth.Post("/register", append(publicOnly, authHandler.Register)...)
	auth.Post("/login", append(publicOnly, authHandler.Login)...)
	auth.Post("/refresh", authHandler.Refresh)

	// Session-bound auth endpoints
	protected := []fiber.Handler{
		middleware.JWTProtected(cfg),
		middleware.SessionState(registry, accounts, profileSvc),
	}
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Get("/auth/session", append(protected, middleware.Guard(access.RequiresAuth), authHandler.Session)...)
	api.Put("/auth/profile", append(protected, middleware.Guard(access.RequiresAuth), authHandler.UpdateProfile)...)

	// Public directory
	api.Get("/shops", shopHandler.List)
	api.Get("/search", shopHandler.Search)
	api.Get("/shops/:id", shopHandler.Get)
	api.Get("/shops/:id/offers", offerHandler.ListForShop)
	api.Get("/offers/:id", offerHandler.Get)
	api.Get("/categories", catalogHandler.ListCategories)
	api.Get("/floors", catalogHandler.ListFloors)

	// Business-owner surface. Administrators are excluded here: they manage
	// the mall, not a shop.
	owner := api.Group("/my", append(protected, middleware.Guard(access.RequiresBusinessOwner))...)
	owner.Get("/shops", shopHandler.ListMine)
	owner.Post("/shops", shopHandler.Create)
	owner.Put("/shops/:id", shopHandler.Update)
	owner.Delete("/shops/:id", shopHandler.Delete)
	owner.Get("/offers", offerHandler.ListMine)
	owner.Post("/offers", offerHandler.Create)
	owner.Put("/offers/:id", offerHandler.Update)
	owner.Delete("/offers/:id", offerHandler.Delete)
	owner.Get("/stats", shopHandler.Stats)

	// Admin surface
	admin := api.Group("/admin", append(protected, middleware.Guard(access.RequiresAdmin))...)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Put("/users/:id/role", adminHandler.SetRole)
	admin.Get("/indexes", adminHandler.ListIndexes)
	admin.Post("/indexes/:id/ready", adminHandler.MarkIndexReady)
	admin.Get("/shops", shopHandler.List)
	admin.Put("/shops/:id", shopHandler.Update)
	admin.Delete("/shops/:id", shopHandler.Delete)
	admin.Put("/offers/:id", offerHandler.Update)
	admin.Delete("/offers/:id", offerHandler.Delete)
	admin.Post("/categories", catalogHandler.CreateCategory)
	admin.Put("/categories/:id", catalogHandler.UpdateCategory)
	admin.Delete("/categories/:id", catalogHandler.DeleteCategory)
	admin.Post("/floors", catalogHandler.CreateFloor)
	admin.Put("/floors/:id", catalogHandler.UpdateFloor)
	admin.Delete("/floors/:id", catalogHandler.DeleteFloor)
}
