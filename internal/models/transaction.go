package models

import (
	"math"
	"time"

	"gorm.io/gorm"
)

type PaymentMethod string
type TransactionStatus string

const (
	MethodCard         PaymentMethod = "card"
	MethodCash         PaymentMethod = "cash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

const (
	TransactionPending    TransactionStatus = "pending"
	TransactionProcessing TransactionStatus = "processing"
	TransactionCompleted  TransactionStatus = "completed"
	TransactionFailed     TransactionStatus = "failed"
	TransactionRefunded   TransactionStatus = "refunded"
	TransactionDisputed   TransactionStatus = "disputed"
)

// Transaction is one payment event. For job payments it references the job
// and the accepted quote; withdrawals carry neither. The commission split
// is computed once at creation and frozen, so a later change to the
// platform rate never rewrites history.
type Transaction struct {
	ID                 uint              `gorm:"primarykey" json:"id"`
	PayerID            uint              `gorm:"not null;index" json:"payer_id"`
	ProviderID         uint              `gorm:"not null;index" json:"provider_id"`
	JobID              *uint             `gorm:"index" json:"job_id,omitempty"`
	QuoteID            *uint             `json:"quote_id,omitempty"`
	Amount             float64           `gorm:"not null" json:"amount"`
	PlatformCommission float64           `gorm:"not null" json:"platform_commission"`
	ProviderAmount     float64           `gorm:"not null" json:"provider_amount"`
	Currency           string            `gorm:"type:varchar(3);default:'NGN'" json:"currency"`
	PaymentMethod      PaymentMethod     `gorm:"type:varchar(20);not null" json:"payment_method"`
	Status             TransactionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Description        string            `gorm:"type:text" json:"description,omitempty"`

	// External identifiers. Reference is the charge idempotency key: it is
	// set at most once and webhook replays for it must be no-ops.
	Reference       string `gorm:"uniqueIndex;not null" json:"reference"`
	TransferCode    string `json:"transfer_code,omitempty"`
	RefundReference string `json:"refund_reference,omitempty"`

	PaidAt           *time.Time `json:"paid_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	RefundedAt       *time.Time `json:"refunded_at,omitempty"`
	PendingReleaseAt *time.Time `gorm:"index" json:"pending_release_at,omitempty"`

	// Release marker, distinct from Status. Checked before any release
	// mutation to make the release path idempotent.
	ReleasedAt   *time.Time `json:"released_at,omitempty"`
	ReleasedBy   *uint      `json:"released_by,omitempty"`
	ReleaseNotes string     `gorm:"type:text" json:"release_notes,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Payer    User   `gorm:"foreignKey:PayerID" json:"payer,omitempty"`
	Provider User   `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
	Job      *Job   `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Quote    *Quote `gorm:"foreignKey:QuoteID" json:"quote,omitempty"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) Released() bool {
	return t.ReleasedAt != nil
}

// SplitAmount computes the commission split for an amount at the given
// rate, rounded to two decimals. providerAmount + commission == amount.
func SplitAmount(amount, rate float64) (commission, providerAmount float64) {
	commission = Round2(amount * rate)
	providerAmount = Round2(amount - commission)
	return commission, providerAmount
}

// NewJobTransaction builds a pending transaction for a job payment,
// freezing the commission split at the current platform rate.
func NewJobTransaction(payerID uint, job *Job, quote *Quote, rate float64, method PaymentMethod, reference string) Transaction {
	commission, providerAmount := SplitAmount(quote.Price, rate)
	return Transaction{
		PayerID:            payerID,
		ProviderID:         quote.ProviderID,
		JobID:              &job.ID,
		QuoteID:            &quote.ID,
		Amount:             quote.Price,
		PlatformCommission: commission,
		ProviderAmount:     providerAmount,
		Currency:           "NGN",
		PaymentMethod:      method,
		Status:             TransactionPending,
		Reference:          reference,
	}
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
