package models

import (
	"time"
)

// AuthToken is one active session token for a user. The set of rows for a
// user is that user's token list; a user may hold several at once
// (multi-device sessions). Revocation removes the row.
type AuthToken struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"token"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
}

// TableName overrides the table name
func (AuthToken) TableName() string {
	return "auth_tokens"
}
