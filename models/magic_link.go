package models

import "time"

// MagicLink is a one-shot login token. Only the bcrypt hash of the secret is
// stored; the full token sent to the user is "<id>.<secret>".
type MagicLink struct {
	ID         string    `gorm:"type:char(36);primaryKey"`
	Email      string    `gorm:"type:varchar(255);not null;index"`
	TokenHash  string    `gorm:"type:varchar(255);not null"`
	ExpiresAt  time.Time `gorm:"not null"`
	ConsumedAt *time.Time
	CreatedAt  time.Time
}
