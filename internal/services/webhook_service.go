package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"fixly/internal/apperrors"
	"fixly/internal/models"
	"fixly/internal/store"
)

// WebhookService reconciles asynchronous payment-provider events with the
// transaction, job and wallet state machines. Every handler is idempotent
// against duplicate delivery.
type WebhookService struct {
	store      store.Store
	settlement *SettlementService
	notifier   Notifier
	secret     string
}

func NewWebhookService(s store.Store, settlement *SettlementService, n Notifier, secret string) *WebhookService {
	return &WebhookService{store: s, settlement: settlement, notifier: n, secret: secret}
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference     string `json:"reference"`
		TransferCode  string `json:"transfer_code"`
		RecipientCode string `json:"recipient_code"`
		Status        string `json:"status"`
	} `json:"data"`
}

// HandleEvent verifies the event signature and dispatches it. An invalid
// signature is rejected before any state is touched.
func (s *WebhookService) HandleEvent(ctx context.Context, signature string, body []byte) error {
	if !VerifyWebhookSignature(s.secret, body, signature) {
		return apperrors.ErrNotAuthorized
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return apperrors.Validation("body", "malformed event payload")
	}

	switch event.Event {
	case "charge.success":
		_, err := s.settlement.CompletePaymentByReference(ctx, event.Data.Reference)
		return err
	case "charge.failed":
		return s.handleChargeFailed(ctx, event.Data.Reference)
	case "transfer.success":
		return s.handleTransferSuccess(ctx, event.Data.Reference)
	case "transfer.failed", "transfer.reversed":
		return s.handleTransferFailed(ctx, event.Data.Reference)
	case "refund.processed":
		log.Printf("refund confirmed by provider for reference %s", event.Data.Reference)
		return nil
	case "account.updated":
		return s.handleAccountUpdated(ctx, event.Data.RecipientCode, event.Data.Status)
	default:
		log.Printf("ignoring unhandled webhook event %q", event.Event)
		return nil
	}
}

// handleChargeFailed marks the transaction failed. The job stays
// in_progress so the client can retry the payment.
func (s *WebhookService) handleChargeFailed(ctx context.Context, reference string) error {
	var tx *models.Transaction
	var failed bool

	err := s.store.Atomic(ctx, func(st store.Store) error {
		var err error
		tx, err = st.GetTransactionByReferenceForUpdate(ctx, reference)
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: charge failed for unknown reference %s", apperrors.ErrInconsistency, reference)
		}
		if err != nil {
			return err
		}
		if tx.Status != models.TransactionPending && tx.Status != models.TransactionProcessing {
			return nil
		}
		tx.Status = models.TransactionFailed
		failed = true
		return st.UpdateTransaction(ctx, tx)
	})
	if err != nil {
		return err
	}

	if failed {
		s.notifier.PaymentFailed(ctx, tx.PayerID, tx)
	}
	return nil
}

// handleTransferSuccess completes a processing withdrawal. Transfers made
// by the settlement path are already recorded on their transaction, so an
// unknown reference here is only logged.
func (s *WebhookService) handleTransferSuccess(ctx context.Context, reference string) error {
	var tx *models.Transaction
	var completed bool

	err := s.store.Atomic(ctx, func(st store.Store) error {
		var err error
		tx, err = st.GetTransactionByReferenceForUpdate(ctx, reference)
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("transfer.success for unknown reference %s", reference)
			return nil
		}
		if err != nil {
			return err
		}
		if tx.PaymentMethod != models.MethodBankTransfer || tx.Status != models.TransactionProcessing {
			return nil
		}
		now := time.Now()
		tx.Status = models.TransactionCompleted
		tx.CompletedAt = &now
		completed = true
		return st.UpdateTransaction(ctx, tx)
	})
	if err != nil {
		return err
	}

	if completed {
		s.notifier.WithdrawalCompleted(ctx, tx.ProviderID, tx)
	}
	return nil
}

// handleTransferFailed rolls a failed withdrawal back: the transaction is
// marked failed and the withdrawn funds return to the available bucket.
func (s *WebhookService) handleTransferFailed(ctx context.Context, reference string) error {
	var tx *models.Transaction
	var rolledBack bool

	err := s.store.Atomic(ctx, func(st store.Store) error {
		var err error
		tx, err = st.GetTransactionByReferenceForUpdate(ctx, reference)
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("transfer failure for unknown reference %s", reference)
			return nil
		}
		if err != nil {
			return err
		}
		if tx.PaymentMethod != models.MethodBankTransfer || tx.Status != models.TransactionProcessing {
			return nil
		}

		wallet, err := st.GetWalletForProviderForUpdate(ctx, tx.ProviderID)
		if err != nil {
			return err
		}
		if err := wallet.RollbackWithdrawal(tx.Amount); err != nil {
			return fmt.Errorf("%w: cannot roll back withdrawal %s: %v", apperrors.ErrInconsistency, reference, err)
		}
		if err := st.UpdateWallet(ctx, wallet); err != nil {
			return err
		}

		tx.Status = models.TransactionFailed
		rolledBack = true
		return st.UpdateTransaction(ctx, tx)
	})
	if err != nil {
		return err
	}

	if rolledBack {
		s.notifier.WithdrawalFailed(ctx, tx.ProviderID, tx)
	}
	return nil
}

// handleAccountUpdated syncs the wallet's payout verification status. Once
// verified, future settlements may use direct transfer.
func (s *WebhookService) handleAccountUpdated(ctx context.Context, recipientCode, status string) error {
	return s.store.Atomic(ctx, func(st store.Store) error {
		wallet, err := st.GetWalletByRecipientCode(ctx, recipientCode)
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: account update for unknown recipient %s", apperrors.ErrInconsistency, recipientCode)
		}
		if err != nil {
			return err
		}

		switch status {
		case "verified", "active":
			wallet.VerificationStatus = models.WalletVerified
		case "rejected", "failed":
			wallet.VerificationStatus = models.WalletRejected
		default:
			return nil
		}
		return st.UpdateWallet(ctx, wallet)
	})
}
