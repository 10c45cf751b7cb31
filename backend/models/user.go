package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	gorm.Model
	Username       string `gorm:"unique;not null"`
	Email          string `gorm:"unique;not null"`
	PasswordHash   string
	Role           string `gorm:"default:user"` // user, admin
	Profile        Profile
	SocialAccounts []SocialAccount
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Profile struct {
	gorm.Model
	UserID        uint `gorm:"uniqueIndex;not null"`
	DOB           *time.Time
	College       string `gorm:"size:200"`
	Qualification string `gorm:"size:100"`
	RollNumber    string `gorm:"size:50"`
	Year          string `gorm:"size:50"`
	Course        string `gorm:"size:100"`
}

// SocialAccount links a user to an external identity provider account.
type SocialAccount struct {
	gorm.Model
	UserID    uint   `gorm:"not null;index"`
	Provider  string `gorm:"size:30;not null;uniqueIndex:idx_provider_uid"`
	UID       string `gorm:"size:191;not null;uniqueIndex:idx_provider_uid"`
	AvatarURL string `gorm:"size:500"`
}
