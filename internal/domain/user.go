package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin     = "admin"
	RoleClinician = "clinician"
)

const (
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	FullName     string    `json:"fullName" gorm:"not null"`
	Role         string    `json:"role" gorm:"not null;default:clinician"`
	Status       string    `json:"status" gorm:"not null;default:pending"`

	// MFA
	MFASecret  string `json:"-"`
	MFAEnabled bool   `json:"mfaEnabled" gorm:"not null;default:false"`

	// Lockout tracking
	LoginAttempts int        `json:"-" gorm:"not null;default:0"`
	LockedUntil   *time.Time `json:"-"`

	LastLoginAt *time.Time `json:"lastLoginAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
