package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TypeEntrata = "ENTRATA"
	TypeUscita  = "USCITA"
)

// Reserved categories written by the engine itself. Manual entries may
// use any other free-form category.
const (
	CategoryPagamentoRata    = "PAGAMENTO_RATA"
	CategoryAccontoContratto = "ACCONTO_CONTRATTO"
	CategoryRataContratto    = "RATA_CONTRATTO"
	CategorySpesaRicorrente  = "SPESA_RICORRENTE"
)

// Entry is one immutable cash movement. It is never updated after
// creation; reversal soft-deletes it so audit listings can still reach it.
type Entry struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TrainerID     int64           `gorm:"not null;index" json:"trainer_id"`
	Type          string          `gorm:"type:varchar(8);not null;check:type IN ('ENTRATA','USCITA')" json:"tipo"`
	Category      string          `gorm:"not null;index" json:"categoria"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"importo"`
	EffectiveDate time.Time       `gorm:"not null;index" json:"data"`
	Method        string          `json:"metodo,omitempty"`
	Note          string          `json:"nota,omitempty"`

	ClientID      *int64     `gorm:"index" json:"cliente_id,omitempty"`
	ContractID    *int64     `gorm:"index" json:"contratto_id,omitempty"`
	InstallmentID *int64     `gorm:"index" json:"rata_id,omitempty"`
	RecurrenceID  *uuid.UUID `gorm:"type:uuid" json:"ricorrenza_id,omitempty"`
	// Period is set only for recurring postings, format "2006-01".
	Period string `json:"periodo,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Entry) TableName() string { return "movimenti_cassa" }

func (e *Entry) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// RecurringExpense is a template that PostMonth materializes into one
// USCITA entry per month.
type RecurringExpense struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TrainerID  int64           `gorm:"not null;index" json:"trainer_id"`
	Name       string          `gorm:"not null" json:"nome"`
	Category   string          `gorm:"not null" json:"categoria"`
	Amount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"importo"`
	DayOfMonth int             `gorm:"not null;default:1" json:"giorno_del_mese"`
	Active     bool            `gorm:"not null;default:true" json:"attiva"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (RecurringExpense) TableName() string { return "spese_ricorrenti" }

func (r *RecurringExpense) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// EnsureIndexes creates the soft-delete-aware unique index that makes
// recurring postings idempotent per trainer/template/month. A plain
// uniqueIndex tag cannot express the partial predicate.
func EnsureIndexes(db *gorm.DB) error {
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_movimenti_ricorrenza_periodo
		 ON movimenti_cassa (trainer_id, recurrence_id, period)
		 WHERE deleted_at IS NULL AND recurrence_id IS NOT NULL`,
	).Error
}
