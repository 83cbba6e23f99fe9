package routes

import (
	"github.com/gofiber/fiber/v2"

	"fixly/internal/handlers"
	"fixly/internal/middleware"
)

func SetupNotificationRoutes(app *fiber.App, notifications *handlers.NotificationHandler) {
	group := app.Group("/api/notifications", middleware.Protected())

	group.Get("/", notifications.List)
	group.Put("/:id/read", notifications.MarkRead)
}
