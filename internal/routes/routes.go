// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and internal-only guards.
package routes

import (
	"net/http"
	"time"

	"orusledger/internal/config"
	"orusledger/internal/handlers"
	"orusledger/internal/middleware"
	"orusledger/internal/models"
	"orusledger/internal/services/referral"
	"orusledger/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// Dependencies are the services the routes dispatch to.
type Dependencies struct {
	Config   config.Config
	Wallet   wallet.Service
	Referral referral.Service
	Health   *handlers.HealthHandler
	// Metrics serves the Prometheus exposition; nil leaves /metrics unrouted.
	Metrics http.Handler
}

// NewApp creates the fiber app with the global middleware stack.
func NewApp(cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "orus-ledger",
		// Handlers pass route params into stores that keep them.
		Immutable: true,
	})

	// CORS middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + middleware.InternalTokenHeader,
		AllowMethods: "GET,POST,HEAD",
	}))

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	return app
}

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	walletHandler := handlers.NewWalletHandler(deps.Wallet)
	referralHandler := handlers.NewReferralHandler(deps.Referral)
	accountHandler := handlers.NewAccountHandler(deps.Referral)

	if deps.Health != nil {
		app.Get("/health", deps.Health.HealthCheck)
	}
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	api := app.Group("/api")

	accounts := api.Group("/accounts")
	accounts.Post("/", rateLimit(deps.Config.RateLimitPerMinute), accountHandler.OpenAccount)

	// Balance routes
	accounts.Get("/:id/balance", walletHandler.GetBalance)
	accounts.Get("/:id/balance/money", walletHandler.GetCurrencyBalance(models.CurrencyMoney))
	accounts.Get("/:id/balance/coins", walletHandler.GetCurrencyBalance(models.CurrencyCoins))

	// Transaction history routes
	accounts.Get("/:id/transactions", walletHandler.GetTransactions)
	accounts.Get("/:id/transactions/money", walletHandler.GetCurrencyTransactions(models.CurrencyMoney))
	accounts.Get("/:id/transactions/coins", walletHandler.GetCurrencyTransactions(models.CurrencyCoins))

	// Referral routes
	accounts.Get("/:id/referral", referralHandler.GetReferralCode)
	accounts.Post("/:id/referral/apply", rateLimit(deps.Config.RateLimitPerMinute), referralHandler.ApplyReferral)

	// Internal routes for collaborating services
	internal := app.Group("/internal", middleware.InternalOnly(deps.Config.InternalAPIToken))
	internal.Post("/wallet/credit", walletHandler.Credit)
	internal.Post("/wallet/debit", walletHandler.Debit)
	internal.Get("/wallet/:id/reconcile", walletHandler.Reconcile)
}

func rateLimit(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	})
}
