package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fixly/internal/apperrors"
	"fixly/internal/models"
	"fixly/internal/store"
)

// PaymentService captures payment for a job with an accepted quote. The
// commission split is computed here, once, and frozen into the transaction.
type PaymentService struct {
	store          store.Store
	provider       PaymentProvider
	notifier       Notifier
	settlement     *SettlementService
	commissionRate float64
}

func NewPaymentService(s store.Store, p PaymentProvider, n Notifier, settlement *SettlementService, commissionRate float64) *PaymentService {
	return &PaymentService{
		store:          s,
		provider:       p,
		notifier:       n,
		settlement:     settlement,
		commissionRate: commissionRate,
	}
}

type PaymentInitiation struct {
	Transaction      *models.Transaction `json:"transaction"`
	AuthorizationURL string              `json:"authorization_url,omitempty"`
}

// InitiatePayment creates the transaction for a job's accepted quote.
// Cash transactions sit pending until the provider confirms receipt; card
// transactions get a charge intent first, and the transaction is only
// persisted once the intent call succeeds, so a failed or timed-out
// provider call leaves no orphan record behind.
func (s *PaymentService) InitiatePayment(ctx context.Context, jobID, actorID uint, method models.PaymentMethod) (*PaymentInitiation, error) {
	if method != models.MethodCash && method != models.MethodCard {
		return nil, apperrors.Validation("payment_method", "must be cash or card")
	}

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != actorID {
		return nil, apperrors.ErrNotAuthorized
	}
	if job.AcceptedQuoteID == nil || (job.Status != models.JobInProgress && job.Status != models.JobCompleted) {
		return nil, apperrors.ErrJobNotReady
	}
	if _, err := s.store.GetActiveJobTransaction(ctx, jobID); err == nil {
		return nil, apperrors.ErrInvalidState
	}

	quote, err := s.store.GetQuote(ctx, *job.AcceptedQuoteID)
	if err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("FIX-%s", uuid.New().String())
	tx := models.NewJobTransaction(actorID, job, quote, s.commissionRate, method, reference)
	tx.Description = fmt.Sprintf("Payment for job #%d", job.ID)

	init := &PaymentInitiation{}

	if method == models.MethodCard {
		payer, err := s.store.GetUser(ctx, actorID)
		if err != nil {
			return nil, err
		}
		auth, err := s.provider.InitializeCharge(ctx, payer.Email, tx.Amount, reference, map[string]string{
			"job_id": fmt.Sprintf("%d", job.ID),
		})
		if err != nil {
			return nil, apperrors.Provider("charge intent", err)
		}
		init.AuthorizationURL = auth.AuthorizationURL
	}

	// The guard and the insert commit under the same job row lock, so two
	// concurrent initiations cannot both pass the one-active-transaction
	// check. A charge intent made by the losing request is never persisted
	// and its authorization URL is never handed out.
	err = s.store.Atomic(ctx, func(st store.Store) error {
		locked, err := st.GetJobForUpdate(ctx, jobID)
		if err != nil {
			return err
		}
		if locked.AcceptedQuoteID == nil || (locked.Status != models.JobInProgress && locked.Status != models.JobCompleted) {
			return apperrors.ErrJobNotReady
		}
		if _, err := st.GetActiveJobTransaction(ctx, jobID); err == nil {
			return apperrors.ErrInvalidState
		}
		return st.CreateTransaction(ctx, &tx)
	})
	if err != nil {
		return nil, err
	}
	init.Transaction = &tx
	return init, nil
}

// ConfirmCashPayment completes a cash transaction. Only the provider
// holding the accepted quote may confirm; confirming an already-completed
// transaction is a no-op.
func (s *PaymentService) ConfirmCashPayment(ctx context.Context, transactionID, actorID uint) (*models.Transaction, error) {
	var tx *models.Transaction
	var credited bool

	err := s.store.Atomic(ctx, func(st store.Store) error {
		var err error
		tx, err = st.GetTransactionForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if tx.PaymentMethod != models.MethodCash {
			return apperrors.ErrInvalidState
		}
		if tx.ProviderID != actorID {
			return apperrors.ErrNotAuthorized
		}
		if tx.Status == models.TransactionCompleted {
			return nil
		}
		if tx.Status != models.TransactionPending {
			return apperrors.ErrInvalidState
		}

		if err := s.settlement.completeAndSettle(ctx, st, tx); err != nil {
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

func (s *PaymentService) GetTransaction(ctx context.Context, id uint) (*models.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func (s *PaymentService) ListUserTransactions(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, error) {
	return s.store.ListUserTransactions(ctx, userID, limit, offset)
}
