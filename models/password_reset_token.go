package models

import (
	"time"
)

// PasswordResetToken keeps the latest reset token issued for an email.
// There is one row per email; a new request overwrites it in place.
type PasswordResetToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Token     string    `json:"-" gorm:"uniqueIndex;not null;size:512"`
	CreatedAt time.Time `json:"created_at"`
	IsUsed    bool      `json:"is_used" gorm:"not null;default:false"`
}
