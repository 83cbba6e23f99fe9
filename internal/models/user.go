package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleClient   = "client"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

type User struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	FullName      string         `gorm:"not null" json:"full_name"`
	Email         string         `gorm:"uniqueIndex;not null" json:"email"`
	Phone         string         `json:"phone"`
	Password      string         `gorm:"not null" json:"-"`
	Role          string         `gorm:"type:varchar(20);default:'client'" json:"role"`
	CompletedJobs int            `gorm:"default:0" json:"completed_jobs"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleClient
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsProvider() bool {
	return u.Role == RoleProvider
}
