package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewID returns a fresh canonical identifier for records created by this service.
func NewID() string {
	return uuid.NewString()
}

// Base carries the identifier and timestamps shared by user-owned records.
// ID is the canonical string id; the document store keeps its own native
// identifier alongside it for records imported from the legacy store.
type Base struct {
	ID        string    `json:"id"        gorm:"type:varchar(64);primaryKey"`
	UserID    string    `json:"userId"    gorm:"type:varchar(191);index;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = NewID()
	}
	return nil
}

// Touch stamps CreatedAt (when unset) and UpdatedAt with now.
func (b *Base) Touch(now time.Time) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}
