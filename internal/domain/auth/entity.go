package auth

import (
	"time"

	"gorm.io/gorm"
)

// Trainer is the tenant root. Every financial row in the system carries
// a trainer_id and is invisible outside of it.
type Trainer struct {
	ID           int64          `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Name         string         `gorm:"not null" json:"nome"`
	Phone        string         `json:"telefono,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Trainer) TableName() string { return "trainers" }
