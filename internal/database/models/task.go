package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task belongs to exactly one author and is only ever visible to that
// author. AuthorID is set at creation and never changes.
type Task struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Description string    `gorm:"not null" json:"description"`
	Completed   bool      `gorm:"not null;default:false" json:"completed"`
	AuthorID    uint      `gorm:"not null;index" json:"author_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	Author User `gorm:"foreignKey:AuthorID" json:"-"`
}

// TableName overrides the table name
func (Task) TableName() string {
	return "tasks"
}

// BeforeCreate hook to generate UUID if not set
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
