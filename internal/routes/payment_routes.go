package routes

import (
	"github.com/gofiber/fiber/v2"

	"fixly/internal/handlers"
	"fixly/internal/middleware"
)

func SetupPaymentRoutes(app *fiber.App, payments *handlers.PaymentHandler, webhooks *handlers.WebhookHandler) {
	paymentGroup := app.Group("/api/payments", middleware.Protected())

	paymentGroup.Post("/", payments.InitiatePayment)
	paymentGroup.Post("/:id/confirm-cash", payments.ConfirmCashPayment)
	paymentGroup.Get("/transactions", payments.MyTransactions)
	paymentGroup.Get("/:id", payments.GetTransaction)

	// Gateway callback. Authenticated by signature, not by JWT.
	app.Post("/api/webhook/paystack", webhooks.HandlePaystack)
}
