package models

import (
	"time"

	"gorm.io/gorm"

	"fixly/internal/apperrors"
)

type WalletVerification string

const (
	WalletUnverified WalletVerification = "pending"
	WalletVerified   WalletVerification = "verified"
	WalletRejected   WalletVerification = "rejected"
)

// Wallet is a provider's ledger. TotalEarned only ever grows; the three
// balance buckets never go negative. Every mutator is a guarded
// read-check-then-write and must be called with the wallet row locked.
type Wallet struct {
	ID               uint    `gorm:"primarykey" json:"id"`
	ProviderID       uint    `gorm:"uniqueIndex;not null" json:"provider_id"`
	TotalEarned      float64 `gorm:"default:0" json:"total_earned"`
	AvailableBalance float64 `gorm:"default:0" json:"available_balance"`
	PendingBalance   float64 `gorm:"default:0" json:"pending_balance"`
	WithdrawnBalance float64 `gorm:"default:0" json:"withdrawn_balance"`

	// External payout account (transfer recipient).
	RecipientCode      string             `json:"recipient_code,omitempty"`
	BankName           string             `json:"bank_name,omitempty"`
	AccountNumber      string             `json:"account_number,omitempty"`
	AccountName        string             `json:"account_name,omitempty"`
	VerificationStatus WalletVerification `gorm:"type:varchar(20);default:'pending'" json:"verification_status"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Provider User `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
}

func (Wallet) TableName() string {
	return "wallets"
}

func (w *Wallet) IsVerified() bool {
	return w.VerificationStatus == WalletVerified
}

// AddEarnings credits the wallet, routing the amount into exactly one of
// the pending or available buckets. TotalEarned always grows by the same
// amount.
func (w *Wallet) AddEarnings(amount float64, pending bool) error {
	if amount <= 0 {
		return apperrors.Validation("amount", "must be greater than zero")
	}
	w.TotalEarned += amount
	if pending {
		w.PendingBalance += amount
	} else {
		w.AvailableBalance += amount
	}
	return nil
}

// ReleasePendingBalance moves held funds into the available bucket.
func (w *Wallet) ReleasePendingBalance(amount float64) error {
	if amount <= 0 {
		return apperrors.Validation("amount", "must be greater than zero")
	}
	if w.PendingBalance < amount {
		return apperrors.ErrInsufficientBalance
	}
	w.PendingBalance -= amount
	w.AvailableBalance += amount
	return nil
}

// DebitPending removes held funds without promoting them, used when a
// not-yet-released payment is refunded.
func (w *Wallet) DebitPending(amount float64) error {
	if amount <= 0 {
		return apperrors.Validation("amount", "must be greater than zero")
	}
	if w.PendingBalance < amount {
		return apperrors.ErrInsufficientBalance
	}
	w.PendingBalance -= amount
	return nil
}

// ProcessWithdrawal moves available funds into the withdrawn bucket.
func (w *Wallet) ProcessWithdrawal(amount float64) error {
	if amount <= 0 {
		return apperrors.Validation("amount", "must be greater than zero")
	}
	if w.AvailableBalance < amount {
		return apperrors.ErrInsufficientBalance
	}
	w.AvailableBalance -= amount
	w.WithdrawnBalance += amount
	return nil
}

// RollbackWithdrawal reverses a withdrawal whose external transfer failed.
func (w *Wallet) RollbackWithdrawal(amount float64) error {
	if amount <= 0 {
		return apperrors.Validation("amount", "must be greater than zero")
	}
	if w.WithdrawnBalance < amount {
		return apperrors.ErrInsufficientBalance
	}
	w.WithdrawnBalance -= amount
	w.AvailableBalance += amount
	return nil
}
