package routes

import (
	"time"

	"github.com/autohub-app/autohub-backend/internal/config"
	"github.com/autohub-app/autohub-backend/internal/handlers"
	"github.com/autohub-app/autohub-backend/internal/middleware"
	"github.com/autohub-app/autohub-backend/internal/permission"
	"github.com/autohub-app/autohub-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	grantService *services.GrantService,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	planHandler *handlers.PlanHandler,
	subscriptionHandler *handlers.SubscriptionHandler,
	vehicleHandler *handlers.VehicleHandler,
	adminHandler *handlers.AdminHandler,
	settingsHandler *handlers.SettingsHandler,
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

	// Public marketplace surface
	api.Get("/vehicles", vehicleHandler.ListPublic)
	api.Get("/plans", planHandler.ListActive)

	// Auth — public, with a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Delete("/auth/account", middleware.JWTProtected(cfg), authHandler.DeleteAccount)

	// Buyer/seller dashboard (JWT required)
	my := api.Group("/my", middleware.JWTProtected(cfg))
	my.Get("/vehicles", vehicleHandler.ListOwned)
	my.Post("/vehicles", vehicleHandler.Create)
	my.Put("/vehicles/:id", vehicleHandler.Update)
	my.Delete("/vehicles/:id", vehicleHandler.Delete)
	my.Post("/vehicles/:id/premium", vehicleHandler.MarkPremium)

	subs := api.Group("/subscriptions", middleware.JWTProtected(cfg))
	subs.Get("/", subscriptionHandler.History)
	subs.Get("/current", subscriptionHandler.Current)
	subs.Get("/entitlement", subscriptionHandler.Entitlement)
	subs.Post("/", subscriptionHandler.Purchase)
	subs.Post("/:id/cancel", subscriptionHandler.Cancel)

	// Administrative console. Every route is gated per (feature, action);
	// superadmins pass everything, admins need the matching grant.
	admin := api.Group("/admin", middleware.JWTProtected(cfg))

	feature := func(f permission.Feature, a permission.Action) fiber.Handler {
		return middleware.RequireFeature(db, grantService, f, a)
	}

	// user_management
	admin.Get("/users", feature(permission.FeatureUserManagement, permission.ActionAccess), adminHandler.ListUsers)
	admin.Put("/users/:id/role", feature(permission.FeatureUserManagement, permission.ActionEdit), adminHandler.SetRole)
	admin.Delete("/users/:id", feature(permission.FeatureUserManagement, permission.ActionDelete), adminHandler.DeleteUser)
	admin.Get("/users/:id/grants", feature(permission.FeatureUserManagement, permission.ActionAccess), adminHandler.ListGrants)
	admin.Put("/users/:id/grants", feature(permission.FeatureUserManagement, permission.ActionEdit), adminHandler.SetGrant)

	// vehicle_management
	admin.Get("/vehicles/pending", feature(permission.FeatureVehicleManagement, permission.ActionAccess), vehicleHandler.ListForModeration)
	admin.Put("/vehicles/:id/status", feature(permission.FeatureVehicleManagement, permission.ActionEdit), vehicleHandler.Moderate)

	// subscription_management
	admin.Get("/plans", feature(permission.FeatureSubscriptionManagement, permission.ActionAccess), planHandler.ListAll)
	admin.Post("/plans", feature(permission.FeatureSubscriptionManagement, permission.ActionCreate), planHandler.Create)
	admin.Put("/plans/:id", feature(permission.FeatureSubscriptionManagement, permission.ActionEdit), planHandler.Update)
	admin.Patch("/plans/:id/active", feature(permission.FeatureSubscriptionManagement, permission.ActionEdit), planHandler.SetActive)
	admin.Delete("/plans/:id", feature(permission.FeatureSubscriptionManagement, permission.ActionDelete), planHandler.Delete)
	admin.Post("/subscriptions/:id/cancel", feature(permission.FeatureSubscriptionManagement, permission.ActionEdit), subscriptionHandler.Cancel)

	// payment_management
	admin.Get("/payments/pending", feature(permission.FeaturePaymentManagement, permission.ActionAccess), subscriptionHandler.ListPending)
	admin.Post("/payments/:id/confirm", feature(permission.FeaturePaymentManagement, permission.ActionEdit), subscriptionHandler.ConfirmPayment)
	admin.Post("/payments/:id/reject", feature(permission.FeaturePaymentManagement, permission.ActionEdit), subscriptionHandler.RejectPayment)

	// settings_management (access-only feature: the access bit gates
	// everything)
	admin.Get("/settings", feature(permission.FeatureSettingsManagement, permission.ActionAccess), settingsHandler.List)
	admin.Put("/settings/:key", feature(permission.FeatureSettingsManagement, permission.ActionAccess), settingsHandler.Set)
	admin.Delete("/settings/:key", feature(permission.FeatureSettingsManagement, permission.ActionAccess), settingsHandler.Delete)
}
