package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fixly/internal/apperrors"
	"fixly/internal/models"
	"fixly/internal/store"
)

// WalletService reads ledgers and drives withdrawals and payout-account
// onboarding. Balance mutations always run under the wallet row lock so
// concurrent operations on one provider's wallet serialize.
type WalletService struct {
	store    store.Store
	provider PaymentProvider
	notifier Notifier
}

func NewWalletService(s store.Store, p PaymentProvider, n Notifier) *WalletService {
	return &WalletService{store: s, provider: p, notifier: n}
}

func (s *WalletService) GetBalance(ctx context.Context, providerID uint) (*models.Wallet, error) {
	return s.store.GetWalletForProvider(ctx, providerID)
}

type PayoutAccountInput struct {
	BankName      string `json:"bank_name" validate:"required"`
	AccountNumber string `json:"account_number" validate:"required"`
	AccountName   string `json:"account_name" validate:"required"`
	BankCode      string `json:"bank_code" validate:"required"`
}

// RegisterPayoutAccount registers the provider's bank account as a
// transfer recipient. The wallet stays unverified until the provider-side
// account check comes back through the webhook (or an admin verifies it).
func (s *WalletService) RegisterPayoutAccount(ctx context.Context, providerID uint, in PayoutAccountInput) (*models.Wallet, error) {
	recipientCode, err := s.provider.CreateTransferRecipient(ctx, in.AccountName, in.AccountNumber, in.BankCode)
	if err != nil {
		return nil, apperrors.Provider("create transfer recipient", err)
	}

	var wallet *models.Wallet
	err = s.store.Atomic(ctx, func(st store.Store) error {
		var err error
		wallet, err = st.GetWalletForProviderForUpdate(ctx, providerID)
		if err != nil {
			return err
		}
		wallet.RecipientCode = recipientCode
		wallet.BankName = in.BankName
		wallet.AccountNumber = in.AccountNumber
		wallet.AccountName = in.AccountName
		wallet.VerificationStatus = models.WalletUnverified
		return st.UpdateWallet(ctx, wallet)
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// Withdraw moves available funds to the withdrawn bucket and pays them out
// through an external transfer. If the transfer call fails the whole
// operation rolls back and the balance is untouched; an async transfer
// failure is rolled back by the webhook handler instead.
func (s *WalletService) Withdraw(ctx context.Context, providerID uint, amount float64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, apperrors.Validation("amount", "must be greater than zero")
	}

	var tx models.Transaction
	err := s.store.Atomic(ctx, func(st store.Store) error {
		wallet, err := st.GetWalletForProviderForUpdate(ctx, providerID)
		if err != nil {
			return err
		}
		if !wallet.IsVerified() || wallet.RecipientCode == "" {
			return apperrors.ErrInvalidState
		}
		if err := wallet.ProcessWithdrawal(amount); err != nil {
			return err
		}
		if err := st.UpdateWallet(ctx, wallet); err != nil {
			return err
		}

		reference := fmt.Sprintf("WDR-%s", uuid.New().String())
		tx = models.Transaction{
			PayerID:        providerID,
			ProviderID:     providerID,
			Amount:         amount,
			ProviderAmount: amount,
			Currency:       "NGN",
			PaymentMethod:  models.MethodBankTransfer,
			Status:         models.TransactionProcessing,
			Reference:      reference,
			Description:    "Wallet withdrawal",
		}
		if err := st.CreateTransaction(ctx, &tx); err != nil {
			return err
		}

		transferCode, err := s.provider.InitiateTransfer(ctx, wallet.RecipientCode, amount, "Wallet withdrawal", reference)
		if err != nil {
			return apperrors.Provider("withdrawal transfer", err)
		}
		tx.TransferCode = transferCode
		return st.UpdateTransaction(ctx, &tx)
	})
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// VerifyWallet is the admin override for payout-account verification.
func (s *WalletService) VerifyWallet(ctx context.Context, providerID uint, status models.WalletVerification) (*models.Wallet, error) {
	if status != models.WalletVerified && status != models.WalletRejected {
		return nil, apperrors.Validation("status", "must be verified or rejected")
	}

	var wallet *models.Wallet
	err := s.store.Atomic(ctx, func(st store.Store) error {
		var err error
		wallet, err = st.GetWalletForProviderForUpdate(ctx, providerID)
		if err != nil {
			return err
		}
		wallet.VerificationStatus = status
		return st.UpdateWallet(ctx, wallet)
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func (s *WalletService) ListWallets(ctx context.Context, limit, offset int) ([]models.Wallet, error) {
	return s.store.ListWallets(ctx, limit, offset)
}
