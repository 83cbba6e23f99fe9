package handlers

import (
	"github.com/gofiber/fiber/v2"

	"fixly/internal/models"
	"fixly/internal/services"
)

type AdminHandler struct {
	settlement *services.SettlementService
	wallets    *services.WalletService
}

func NewAdminHandler(settlement *services.SettlementService, wallets *services.WalletService) *AdminHandler {
	return &AdminHandler{settlement: settlement, wallets: wallets}
}

func (h *AdminHandler) ListTransactions(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	txs, err := h.settlement.ListTransactions(c.Context(), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"transactions": txs, "count": len(txs)})
}

type ReleasePaymentRequest struct {
	Notes string `json:"notes"`
}

// ReleasePayment moves a settled transaction's provider share from
// pending to available ahead of the scheduled window.
func (h *AdminHandler) ReleasePayment(c *fiber.Ctx) error {
	txID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	req := new(ReleasePaymentRequest)
	if err := c.BodyParser(req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	tx, err := h.settlement.ReleasePayment(c.Context(), txID, userID(c), req.Notes)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":     "Payment released to provider",
		"transaction": tx,
	})
}

type RefundRequest struct {
	Amount float64 `json:"amount" validate:"omitempty,gt=0"`
	Reason string  `json:"reason" validate:"required"`
}

// Refund reverses a completed transaction before its funds are released.
func (h *AdminHandler) Refund(c *fiber.Ctx) error {
	txID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	req := new(RefundRequest)
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

	tx, err := h.settlement.ProcessRefund(c.Context(), txID, userID(c), req.Amount, req.Reason)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":     "Refund processed",
		"transaction": tx,
	})
}

func (h *AdminHandler) ListWallets(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	wallets, err := h.wallets.ListWallets(c.Context(), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"wallets": wallets, "count": len(wallets)})
}

type VerifyWalletRequest struct {
	Status models.WalletVerification `json:"status" validate:"required,oneof=verified rejected"`
}

// VerifyWallet sets a provider's payout verification status without
// waiting for the gateway callback.
func (h *AdminHandler) VerifyWallet(c *fiber.Ctx) error {
	providerID, err := parseID(c, "providerId")
	if err != nil {
		return respondError(c, err)
	}

	req := new(VerifyWalletRequest)
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

	wallet, err := h.wallets.VerifyWallet(c.Context(), providerID, req.Status)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Wallet verification updated",
		"wallet":  wallet,
	})
}

// RunReleaseSweep promotes every transaction whose release window has
// elapsed. The same sweep runs on a timer; this endpoint forces a pass.
func (h *AdminHandler) RunReleaseSweep(c *fiber.Ctx) error {
	released, err := h.settlement.ProcessPendingReleases(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":  "Release sweep complete",
		"released": released,
	})
}
