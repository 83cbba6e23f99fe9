package handlers

import (
	"github.com/gofiber/fiber/v2"

	"fixly/internal/services"
)

type QuoteHandler struct {
	quotes *services.QuoteService
}

func NewQuoteHandler(quotes *services.QuoteService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

// SubmitQuote creates a provider's proposal against an open job.
func (h *QuoteHandler) SubmitQuote(c *fiber.Ctx) error {
	req := new(services.SubmitQuoteInput)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	quote, err := h.quotes.SubmitQuote(c.Context(), userID(c), *req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Quote submitted",
		"quote":   quote,
	})
}

// ReviseQuote supersedes the provider's current quote with a new version.
func (h *QuoteHandler) ReviseQuote(c *fiber.Ctx) error {
	quoteID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	req := new(services.ReviseQuoteInput)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	quote, err := h.quotes.ReviseQuote(c.Context(), quoteID, userID(c), *req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Quote revised",
		"quote":   quote,
	})
}

func (h *QuoteHandler) DeclineQuote(c *fiber.Ctx) error {
	quoteID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	quote, err := h.quotes.DeclineQuote(c.Context(), quoteID, userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Quote declined", "quote": quote})
}

func (h *QuoteHandler) CancelQuote(c *fiber.Ctx) error {
	quoteID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	quote, err := h.quotes.CancelQuote(c.Context(), quoteID, userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Quote cancelled", "quote": quote})
}

func (h *QuoteHandler) ListJobQuotes(c *fiber.Ctx) error {
	jobID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	quotes, err := h.quotes.ListJobQuotes(c.Context(), jobID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"quotes": quotes, "count": len(quotes)})
}
