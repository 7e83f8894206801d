package models

import "time"

type User struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Name       string     `gorm:"type:varchar(255)" json:"name"`
	Email      string     `gorm:"type:varchar(255);unique;not null" json:"email"`
	AvatarURL  string     `gorm:"type:varchar(255)" json:"avatarUrl,omitempty"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}
