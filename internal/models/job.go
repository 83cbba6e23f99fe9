package models

import (
	"time"

	"gorm.io/gorm"
)

type JobStatus string
type JobUrgency string

const (
	JobPending    JobStatus = "pending"
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
	JobCancelled  JobStatus = "cancelled"
	JobExpired    JobStatus = "expired"
)

const (
	UrgencyUrgent   JobUrgency = "urgent"
	UrgencyASAP     JobUrgency = "asap"
	UrgencyNextWeek JobUrgency = "next_week"
)

type Job struct {
	ID              uint       `gorm:"primarykey" json:"id"`
	ClientID        uint       `gorm:"not null;index" json:"client_id"`
	CategoryID      uint       `gorm:"not null;index" json:"category_id"`
	Specializations string     `gorm:"type:text" json:"specializations,omitempty"`
	Description     string     `gorm:"type:text;not null" json:"description"`
	Latitude        float64    `gorm:"not null" json:"latitude"`
	Longitude       float64    `gorm:"not null" json:"longitude"`
	Address         string     `gorm:"type:text" json:"address"`
	Urgency         JobUrgency `gorm:"type:varchar(20);not null" json:"urgency"`
	PriceMin        float64    `json:"price_min"`
	PriceMax        float64    `json:"price_max"`
	Status          JobStatus  `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	AcceptedQuoteID *uint      `json:"accepted_quote_id,omitempty"`
	QuoteCount      int        `gorm:"default:0" json:"quote_count"`
	// Computed once at creation from the urgency, never recalculated.
	ExpiresAt   time.Time      `gorm:"not null;index" json:"expires_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	CancelledAt *time.Time     `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Client        User     `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Category      Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	AcceptedQuote *Quote   `gorm:"foreignKey:AcceptedQuoteID" json:"accepted_quote,omitempty"`
	Quotes        []Quote  `gorm:"foreignKey:JobID" json:"quotes,omitempty"`
}

func (Job) TableName() string {
	return "jobs"
}

// ExpiryFor returns the expiry timestamp for a job posted at ref with the
// given urgency: urgent=+1 day, asap=+7 days, next_week=+14 days.
func ExpiryFor(urgency JobUrgency, ref time.Time) time.Time {
	switch urgency {
	case UrgencyUrgent:
		return ref.AddDate(0, 0, 1)
	case UrgencyASAP:
		return ref.AddDate(0, 0, 7)
	default:
		return ref.AddDate(0, 0, 14)
	}
}

func ValidUrgency(u JobUrgency) bool {
	switch u {
	case UrgencyUrgent, UrgencyASAP, UrgencyNextWeek:
		return true
	}
	return false
}

// IsOpen reports whether the job can still receive quotes.
func (j *Job) IsOpen(now time.Time) bool {
	return j.Status == JobPending && now.Before(j.ExpiresAt)
}

func (j *Job) IsExpired(now time.Time) bool {
	return j.Status == JobPending && !now.Before(j.ExpiresAt)
}
