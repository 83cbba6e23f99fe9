package routes

import (
	"github.com/gofiber/fiber/v2"

	"fixly/internal/handlers"
	"fixly/internal/middleware"
)

func SetupAdminRoutes(app *fiber.App, admin *handlers.AdminHandler) {
	group := app.Group("/api/admin", middleware.Protected(), middleware.AdminOnly())

	// Transactions
	group.Get("/transactions", admin.ListTransactions)
	group.Post("/transactions/:id/release", admin.ReleasePayment)
	group.Post("/transactions/:id/refund", admin.Refund)
	group.Post("/release-sweep", admin.RunReleaseSweep)

	// Wallets
	group.Get("/wallets", admin.ListWallets)
	group.Post("/wallets/:providerId/verify", admin.VerifyWallet)
}
