package handlers

import (
	"github.com/gofiber/fiber/v2"

	"fixly/internal/models"
	"fixly/internal/services"
)

type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type InitiatePaymentRequest struct {
	JobID         uint                 `json:"job_id" validate:"required"`
	PaymentMethod models.PaymentMethod `json:"payment_method" validate:"required,oneof=cash card"`
}

// InitiatePayment starts checkout for a job's accepted quote. Card
// payments return an authorization URL the client continues on; cash
// payments wait for the provider's confirmation.
func (h *PaymentHandler) InitiatePayment(c *fiber.Ctx) error {
	req := new(InitiatePaymentRequest)
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

	init, err := h.payments.InitiatePayment(c.Context(), req.JobID, userID(c), req.PaymentMethod)
	if err != nil {
		return respondError(c, err)
	}

	resp := fiber.Map{
		"message":     "Payment initiated",
		"transaction": init.Transaction,
	}
	if init.AuthorizationURL != "" {
		resp["authorization_url"] = init.AuthorizationURL
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ConfirmCashPayment is called by the provider once cash changed hands.
func (h *PaymentHandler) ConfirmCashPayment(c *fiber.Ctx) error {
	txID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	tx, err := h.payments.ConfirmCashPayment(c.Context(), txID, userID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":     "Cash payment confirmed",
		"transaction": tx,
	})
}

func (h *PaymentHandler) GetTransaction(c *fiber.Ctx) error {
	txID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	tx, err := h.payments.GetTransaction(c.Context(), txID)
	if err != nil {
		return respondError(c, err)
	}
	if tx.PayerID != userID(c) && tx.ProviderID != userID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have access to this transaction",
		})
	}
	return c.JSON(fiber.Map{"transaction": tx})
}

func (h *PaymentHandler) MyTransactions(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	txs, err := h.payments.ListUserTransactions(c.Context(), userID(c), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"transactions": txs, "count": len(txs)})
}
