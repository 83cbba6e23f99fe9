package routes

import (
	"github.com/gofiber/fiber/v2"

	"fixly/internal/handlers"
	"fixly/internal/middleware"
)

func SetupWalletRoutes(app *fiber.App, wallets *handlers.WalletHandler) {
	wallet := app.Group("/api/wallet", middleware.Protected())

	wallet.Get("/balance", wallets.GetBalance)
	wallet.Post("/payout-account", wallets.RegisterPayoutAccount)
	wallet.Post("/withdraw", wallets.Withdraw)
}
