package models

import (
	"time"

	"gorm.io/gorm"
)

type QuoteStatus string

const (
	QuotePending   QuoteStatus = "pending"
	QuoteAccepted  QuoteStatus = "accepted"
	QuoteDeclined  QuoteStatus = "declined"
	QuoteUpdated   QuoteStatus = "updated"
	QuoteCancelled QuoteStatus = "cancelled"
	QuoteExpired   QuoteStatus = "expired"
)

// Quote is a provider's priced proposal against a job. Quotes are never
// mutated in place once superseded: a revision cancels the current record
// and creates a new one pointing back via OriginalQuoteID, so the full
// chain stays auditable.
type Quote struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	JobID           uint           `gorm:"not null;index" json:"job_id"`
	ProviderID      uint           `gorm:"not null;index" json:"provider_id"`
	Price           float64        `gorm:"not null" json:"price"`
	Description     string         `gorm:"type:text" json:"description"`
	Status          QuoteStatus    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	OriginalQuoteID *uint          `json:"original_quote_id,omitempty"`
	IsUpdated       bool           `gorm:"default:false" json:"is_updated"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Job      Job  `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Provider User `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
}

func (Quote) TableName() string {
	return "quotes"
}

// IsActive reports whether the quote is still the provider's live proposal.
func (q *Quote) IsActive() bool {
	return q.Status == QuotePending || q.Status == QuoteUpdated
}

// Revision builds the successor record for this quote. Fields the provider
// did not change are copied from the current version; the caller is
// responsible for cancelling the current record in the same transaction.
func (q *Quote) Revision(price float64, description string) Quote {
	next := Quote{
		JobID:           q.JobID,
		ProviderID:      q.ProviderID,
		Price:           price,
		Description:     description,
		Status:          QuoteUpdated,
		OriginalQuoteID: &q.ID,
		IsUpdated:       true,
	}
	if next.Price == 0 {
		next.Price = q.Price
	}
	if next.Description == "" {
		next.Description = q.Description
	}
	return next
}
