package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"fixly/internal/apperrors"
	"fixly/internal/services"
)

type WebhookHandler struct {
	webhooks *services.WebhookService
}

func NewWebhookHandler(webhooks *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// HandlePaystack receives gateway events. A bad signature or payload is
// rejected with 400 so the gateway retries against a fixed deployment;
// inconsistencies are logged but acknowledged, since retrying an event
// that references unknown state will never succeed.
func (h *WebhookHandler) HandlePaystack(c *fiber.Ctx) error {
	signature := c.Get("x-paystack-signature")
	err := h.webhooks.HandleEvent(c.Context(), signature, c.Body())
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"status": "ok"})
	case errors.Is(err, apperrors.ErrNotAuthorized):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid signature",
		})
	case apperrors.IsValidation(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, apperrors.ErrInconsistency):
		log.Printf("WEBHOOK INCONSISTENCY: %v", err)
		return c.JSON(fiber.Map{"status": "ok"})
	default:
		log.Printf("webhook processing error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Event processing failed",
		})
	}
}
