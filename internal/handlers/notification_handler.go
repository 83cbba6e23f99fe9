package handlers

import (
	"github.com/gofiber/fiber/v2"

	"fixly/internal/store"
)

type NotificationHandler struct {
	store store.Store
}

func NewNotificationHandler(s store.Store) *NotificationHandler {
	return &NotificationHandler{store: s}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	unreadOnly := c.QueryBool("unread_only", false)

	notifications, err := h.store.ListNotifications(c.Context(), userID(c), unreadOnly, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"notifications": notifications, "count": len(notifications)})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.store.MarkNotificationRead(c.Context(), id, userID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}
