package client

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Client is the roster entry. Referenced (never owned) by contracts,
// ledger entries and agenda events.
type Client struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	TrainerID int64  `gorm:"not null;index" json:"trainer_id"`
	FirstName string `gorm:"not null" json:"nome"`
	LastName  string `gorm:"not null" json:"cognome"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"telefono,omitempty"`
	Note      string `json:"nota,omitempty"`

	BirthDate *time.Time `json:"data_nascita,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Client) TableName() string { return "clienti" }

// Measurement is one body-measurement snapshot for a client.
type Measurement struct {
	ID        int64           `gorm:"primaryKey" json:"id"`
	TrainerID int64           `gorm:"not null;index" json:"trainer_id"`
	ClientID  int64           `gorm:"not null;index" json:"cliente_id"`
	TakenAt   time.Time       `gorm:"not null" json:"data"`
	WeightKg  decimal.Decimal `gorm:"type:numeric(6,2)" json:"peso_kg"`
	BodyFat   decimal.Decimal `gorm:"type:numeric(5,2)" json:"massa_grassa_pct"`
	Note      string          `json:"nota,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Measurement) TableName() string { return "misurazioni" }
