package handlers

import (
	"github.com/gofiber/fiber/v2"

	"fixly/internal/services"
)

type WalletHandler struct {
	wallets *services.WalletService
}

func NewWalletHandler(wallets *services.WalletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

// GetBalance returns the provider's ledger buckets.
func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	wallet, err := h.wallets.GetBalance(c.Context(), userID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"wallet": fiber.Map{
			"total_earned":        wallet.TotalEarned,
			"available_balance":   wallet.AvailableBalance,
			"pending_balance":     wallet.PendingBalance,
			"withdrawn_balance":   wallet.WithdrawnBalance,
			"verification_status": wallet.VerificationStatus,
		},
	})
}

// RegisterPayoutAccount links the provider's bank account for transfers.
func (h *WalletHandler) RegisterPayoutAccount(c *fiber.Ctx) error {
	req := new(services.PayoutAccountInput)
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

	wallet, err := h.wallets.RegisterPayoutAccount(c.Context(), userID(c), *req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Payout account registered. Verification is in progress.",
		"wallet":  wallet,
	})
}

type WithdrawRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// Withdraw pays out available balance to the registered account.
func (h *WalletHandler) Withdraw(c *fiber.Ctx) error {
	req := new(WithdrawRequest)
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

	tx, err := h.wallets.Withdraw(c.Context(), userID(c), req.Amount)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Withdrawal initiated",
		"transaction": tx,
	})
}
