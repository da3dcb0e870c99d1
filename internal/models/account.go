package models

import (
	"time"
)

// SocialAccount represents a connected Instagram account and its stored credential
type SocialAccount struct {
	ID             string    `gorm:"primaryKey;type:varchar(64);column:id"`
	UserID         string    `gorm:"type:varchar(64);not null;index;column:user_id"`
	Username       string    `gorm:"type:varchar(64);not null;column:username"`
	AccessToken    string    `gorm:"type:text;column:access_token"`
	TokenExpiresAt time.Time `gorm:"column:token_expires_at"`
	Connected      bool      `gorm:"not null;default:true;column:connected"`
	CreatedAt      time.Time `gorm:"not null;column:created_at"`
	UpdatedAt      time.Time `gorm:"not null;column:updated_at"`
}

// TableName specifies the table name for SocialAccount
func (SocialAccount) TableName() string {
	return "social_accounts"
}

// TokenValidAt reports whether the stored credential is usable at the given instant
func (a *SocialAccount) TokenValidAt(now time.Time) bool {
	return a.AccessToken != "" && a.TokenExpiresAt.After(now)
}
