package agenda

import (
	"time"

	"gorm.io/gorm"
)

const (
	CategoryPT         = "PT"
	CategorySala       = "SALA"
	CategoryConsulenza = "CONSULENZA"
	CategoryCorso      = "CORSO"
)

const (
	StateProgrammato = "Programmato"
	StateFatto       = "Fatto"
	StateCancellato  = "Cancellato"
	StateRinviato    = "Rinviato"
)

// Event is one agenda slot. A PT event linked to a contract consumes a
// credit while its state is Fatto; the consumption is never counted
// anywhere except by recounting these rows.
type Event struct {
	ID         int64  `gorm:"primaryKey" json:"id"`
	TrainerID  int64  `gorm:"not null;index" json:"trainer_id"`
	ClientID   int64  `gorm:"not null;index" json:"cliente_id"`
	ContractID *int64 `gorm:"index" json:"contratto_id,omitempty"`

	Category string    `gorm:"type:varchar(16);not null" json:"categoria"`
	State    string    `gorm:"column:stato;type:varchar(16);not null;default:'Programmato'" json:"stato"`
	StartsAt time.Time `gorm:"not null;index" json:"inizio"`
	EndsAt   time.Time `gorm:"not null" json:"fine"`
	Note     string    `json:"nota,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Event) TableName() string { return "agenda" }

func validCategory(c string) bool {
	switch c {
	case CategoryPT, CategorySala, CategoryConsulenza, CategoryCorso:
		return true
	}
	return false
}

func validState(s string) bool {
	switch s {
	case StateProgrammato, StateFatto, StateCancellato, StateRinviato:
		return true
	}
	return false
}
