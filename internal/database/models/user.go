package models

import (
	"time"
)

// User represents an account holder. Password, avatar bytes and the token
// list never appear in the JSON representation.
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Age       int       `gorm:"not null;default:0" json:"age"`
	Avatar    []byte    `gorm:"type:bytea" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Tokens []AuthToken `gorm:"foreignKey:UserID" json:"-"`
}

// TableName overrides the table name
func (User) TableName() string {
	return "users"
}

// HasAvatar reports whether the user has a stored avatar image.
func (u *User) HasAvatar() bool {
	return len(u.Avatar) > 0
}
