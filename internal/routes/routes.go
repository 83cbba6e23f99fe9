package routes

import (
	"github.com/gofiber/fiber/v2"

	"fixly/internal/handlers"
)

func SetupRoutes(app *fiber.App, users *handlers.UserHandler) {
	// API routes
	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", users.Signup)
	auth.Post("/login", users.Login)

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Fixly API v1.0",
			"status":  "running",
		})
	})
}
