package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"fixly/internal/apperrors"
	"fixly/internal/models"
	"fixly/internal/store"
)

// SettlementService moves captured funds to the provider. On completion a
// verified wallet gets an external transfer (with pending-credit fallback
// so funds are never lost); an unverified wallet gets a pending credit
// promoted later by an explicit release or the scheduled sweep. A release
// is always pending→available bookkeeping or the completion-time payout —
// never a second credit.
type SettlementService struct {
	store         store.Store
	provider      PaymentProvider
	notifier      Notifier
	releaseWindow time.Duration
}

func NewSettlementService(s store.Store, p PaymentProvider, n Notifier, releaseWindow time.Duration) *SettlementService {
	return &SettlementService{store: s, provider: p, notifier: n, releaseWindow: releaseWindow}
}

// completeAndSettle marks a pending transaction completed, completes its
// job, and credits the provider's wallet. Caller must hold the transaction
// row lock inside an Atomic scope.
func (s *SettlementService) completeAndSettle(ctx context.Context, st store.Store, tx *models.Transaction) error {
	now := time.Now()
	tx.Status = models.TransactionCompleted
	tx.PaidAt = &now
	tx.CompletedAt = &now

	if tx.JobID != nil {
		job, err := st.GetJobForUpdate(ctx, *tx.JobID)
		if err != nil {
			return err
		}
		if job.Status == models.JobInProgress {
			job.Status = models.JobCompleted
			job.CompletedAt = &now
			if err := st.UpdateJob(ctx, job); err != nil {
				return err
			}
			// The counter follows the actual transition, so the manual
			// completion path arriving later stays a pure no-op.
			if err := st.IncrementCompletedJobs(ctx, tx.ProviderID); err != nil {
				return err
			}
		}
	}

	wallet, err := st.GetWalletForProviderForUpdate(ctx, tx.ProviderID)
	if err != nil {
		return err
	}

	settled := false
	if wallet.IsVerified() && wallet.RecipientCode != "" {
		transferCode, err := s.provider.InitiateTransfer(ctx, wallet.RecipientCode, tx.ProviderAmount,
			"Job payment settlement", tx.Reference+"-payout")
		if err != nil {
			// Never lose funds on a transfer failure: park them in
			// pending and let the sweep retry the promotion later.
			log.Printf("transfer for %s failed, falling back to pending credit: %v", tx.Reference, err)
		} else {
			if err := wallet.AddEarnings(tx.ProviderAmount, false); err != nil {
				return err
			}
			tx.TransferCode = transferCode
			tx.ReleasedAt = &now
			tx.ReleaseNotes = "settled by direct transfer"
			settled = true
		}
	}
	if !settled {
		if err := wallet.AddEarnings(tx.ProviderAmount, true); err != nil {
			return err
		}
		releaseAt := now.Add(s.releaseWindow)
		tx.PendingReleaseAt = &releaseAt
	}

	if err := st.UpdateWallet(ctx, wallet); err != nil {
		return err
	}
	return st.UpdateTransaction(ctx, tx)
}

// CompletePaymentByReference is the async completion path driven by the
// payment provider's webhook. Replays of the same reference are no-ops: a
// completed transaction is never credited twice.
func (s *SettlementService) CompletePaymentByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	var tx *models.Transaction
	var credited bool

	err := s.store.Atomic(ctx, func(st store.Store) error {
		var err error
		tx, err = st.GetTransactionByReferenceForUpdate(ctx, reference)
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: charge succeeded for unknown reference %s", apperrors.ErrInconsistency, reference)
		}
		if err != nil {
			return err
		}
		if tx.Status == models.TransactionCompleted {
			return nil
		}
		if tx.Status != models.TransactionPending && tx.Status != models.TransactionProcessing {
			return apperrors.ErrInvalidState
		}

		if err := s.completeAndSettle(ctx, st, tx); err != nil {
			return err
		}
		credited = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if credited {
		s.notifier.PaymentSucceeded(ctx, tx.PayerID, tx)
	}
	return tx, nil
}

// ReleasePayment promotes a completed transaction's held funds from the
// wallet's pending bucket to available. Idempotent: the ReleasedAt marker
// is checked under the row lock before any mutation.
func (s *SettlementService) ReleasePayment(ctx context.Context, transactionID uint, actorID uint, notes string) (*models.Transaction, error) {
	var tx *models.Transaction

	err := s.store.Atomic(ctx, func(st store.Store) error {
		var err error
		tx, err = st.GetTransactionForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if tx.Status != models.TransactionCompleted {
			return apperrors.ErrInvalidState
		}
		if tx.Released() {
			return apperrors.ErrAlreadyReleased
		}

		wallet, err := st.GetWalletForProviderForUpdate(ctx, tx.ProviderID)
		if err != nil {
			return err
		}
		if err := wallet.ReleasePendingBalance(tx.ProviderAmount); err != nil {
			return err
		}
		if err := st.UpdateWallet(ctx, wallet); err != nil {
			return err
		}

		now := time.Now()
		tx.ReleasedAt = &now
		tx.ReleasedBy = &actorID
		tx.ReleaseNotes = notes
		tx.PendingReleaseAt = nil
		return st.UpdateTransaction(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.PaymentReleased(ctx, tx.ProviderID, tx)
	return tx, nil
}

// ProcessRefund refunds a completed transaction, partially or fully, and
// cancels its job. Release and refund are mutually exclusive: once funds
// have been released there is no automatic clawback, so the refund is
// rejected and left to manual reconciliation.
func (s *SettlementService) ProcessRefund(ctx context.Context, transactionID, actorID uint, amount float64, reason string) (*models.Transaction, error) {
	var tx *models.Transaction

	err := s.store.Atomic(ctx, func(st store.Store) error {
		var err error
		tx, err = st.GetTransactionForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if tx.Status != models.TransactionCompleted {
			return apperrors.ErrInvalidState
		}
		if tx.Released() {
			return apperrors.ErrInvalidState
		}
		if amount < 0 || amount > tx.Amount {
			return apperrors.Validation("amount", "must not exceed the original amount")
		}
		if amount == 0 {
			amount = tx.Amount
		}

		if tx.PaymentMethod == models.MethodCard {
			refundRef, err := s.provider.CreateRefund(ctx, tx.Reference, amount, reason)
			if err != nil {
				return apperrors.Provider("refund", err)
			}
			tx.RefundReference = refundRef
		}

		now := time.Now()

		// Claw back the still-held provider share of the refunded amount.
		// On a partial refund the surviving share is promoted to available
		// in the same transaction: a refunded row blocks any later release,
		// so leaving the remainder pending would strand it.
		providerShare := models.Round2(amount * tx.ProviderAmount / tx.Amount)
		remainder := models.Round2(tx.ProviderAmount - providerShare)
		wallet, err := st.GetWalletForProviderForUpdate(ctx, tx.ProviderID)
		if err != nil {
			return err
		}
		if err := wallet.DebitPending(providerShare); err != nil {
			log.Printf("INCONSISTENCY: refund of %s could not debit %.2f from wallet %d pending balance: %v",
				tx.Reference, providerShare, wallet.ID, err)
		}
		if remainder > 0 {
			if err := wallet.ReleasePendingBalance(remainder); err != nil {
				log.Printf("INCONSISTENCY: refund of %s could not release remainder %.2f for wallet %d: %v",
					tx.Reference, remainder, wallet.ID, err)
			} else {
				tx.ReleasedAt = &now
				tx.ReleasedBy = &actorID
				tx.ReleaseNotes = "remainder released with partial refund"
			}
		}
		if err := st.UpdateWallet(ctx, wallet); err != nil {
			return err
		}

		tx.Status = models.TransactionRefunded
		tx.RefundedAt = &now
		tx.PendingReleaseAt = nil
		if err := st.UpdateTransaction(ctx, tx); err != nil {
			return err
		}

		if tx.JobID != nil {
			job, err := st.GetJobForUpdate(ctx, *tx.JobID)
			if err != nil {
				return err
			}
			if job.Status != models.JobCancelled {
				job.Status = models.JobCancelled
				job.CancelledAt = &now
				if err := st.UpdateJob(ctx, job); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.RefundProcessed(ctx, tx.PayerID, tx)
	return tx, nil
}

// ProcessPendingReleases is the scheduled sweep: it promotes held funds
// whose release window has elapsed, or whose wallet has since been
// verified, from pending to available. Safe to run on a timer or by hand.
func (s *SettlementService) ProcessPendingReleases(ctx context.Context) (int, error) {
	candidates, err := s.store.ListReleasable(ctx)
	if err != nil {
		return 0, err
	}

	released := 0
	now := time.Now()
	for i := range candidates {
		id := candidates[i].ID
		var tx *models.Transaction

		err := s.store.Atomic(ctx, func(st store.Store) error {
			var err error
			tx, err = st.GetTransactionForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if tx.Status != models.TransactionCompleted || tx.Released() || tx.PendingReleaseAt == nil {
				return nil
			}

			wallet, err := st.GetWalletForProviderForUpdate(ctx, tx.ProviderID)
			if err != nil {
				return err
			}
			if !wallet.IsVerified() && tx.PendingReleaseAt.After(now) {
				return nil
			}
			if err := wallet.ReleasePendingBalance(tx.ProviderAmount); err != nil {
				log.Printf("INCONSISTENCY: sweep could not release %.2f for transaction %s: %v",
					tx.ProviderAmount, tx.Reference, err)
				return nil
			}
			if err := st.UpdateWallet(ctx, wallet); err != nil {
				return err
			}

			tx.ReleasedAt = &now
			tx.ReleaseNotes = "scheduled release"
			tx.PendingReleaseAt = nil
			if err := st.UpdateTransaction(ctx, tx); err != nil {
				return err
			}
			released++
			s.notifier.PaymentReleased(ctx, tx.ProviderID, tx)
			return nil
		})
		if err != nil {
			log.Printf("pending release sweep failed for transaction %d: %v", id, err)
		}
	}
	return released, nil
}

func (s *SettlementService) ListTransactions(ctx context.Context, limit, offset int) ([]models.Transaction, error) {
	return s.store.ListTransactions(ctx, limit, offset)
}
