// Package routes wires the HTTP handlers onto the fiber app.
package routes

import (
	"time"

	"transactx/internal/handlers"
	"transactx/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Handlers struct {
	Health      *handlers.HealthHandler
	Admin       *handlers.AdminHandler
	Transaction *handlers.TransactionHandler
	Wallet      *handlers.WalletHandler
	Auth        *middleware.AuthMiddleware
	// Idempotency guards money-moving POSTs. Optional.
	Idempotency fiber.Handler
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, h Handlers) {
	app.Get("/health", h.Health.Check)

	api := app.Group("/api")

	api.Post("/admin/login", loginLimiter(), h.Admin.Login)

	authenticated := api.Group("", h.Auth.Handler)

	authenticated.Get("/wallet", h.Wallet.GetWallet)
	authenticated.Post("/wallet", h.Wallet.CreateWallet)

	idempotent := h.Idempotency
	if idempotent == nil {
		idempotent = func(c *fiber.Ctx) error { return c.Next() }
	}

	authenticated.Post("/transfers", idempotent, h.Transaction.SendMoney)
	authenticated.Get("/transactions", h.Transaction.GetUserTransactions)
	authenticated.Get("/transactions/:reference", h.Transaction.GetTransaction)

	admin := authenticated.Group("/admin", middleware.AdminAuthMiddleware)
	admin.Post("/sweep", h.Admin.Sweep)
	admin.Post("/wallets/:userID/credit", idempotent, h.Wallet.CreditWallet)
}

func loginLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        5,
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
