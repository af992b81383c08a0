package models

import (
	"strings"
	"time"
)

type User struct {
	ID        string    `gorm:"type:varchar(36);primarykey" json:"id"`
	FullName  string    `gorm:"type:varchar(255);not null" json:"full_name"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Telephone string    `gorm:"type:varchar(50)" json:"telephone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeEmail lower-cases and trims an email. Emails are stored and
// compared only in this form; it is the natural key for upserts.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
