package contract

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Contract payment status. Never set directly: always recomputed from
// totale_versato vs prezzo_totale.
const (
	StatusNonSaldato = "NON_SALDATO"
	StatusParziale   = "PARZIALE"
	StatusSaldato    = "SALDATO"
)

// Installment state. Never set directly: always recomputed from
// importo_saldato vs importo_previsto.
const (
	RataPendente = "PENDENTE"
	RataParziale = "PARZIALE"
	RataSaldata  = "SALDATA"
)

// Contract is a sellable package of credits/sessions sold to one client.
// It owns its installments and its down-payment ledger entry: deleting
// the contract soft-deletes both in the same transaction.
type Contract struct {
	ID        int64 `gorm:"primaryKey" json:"id"`
	TrainerID int64 `gorm:"not null;index" json:"trainer_id"`
	ClientID  int64 `gorm:"not null;index" json:"cliente_id"`

	Description  string          `json:"descrizione,omitempty"`
	PriceTotal   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"prezzo_totale"`
	DownPayment  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"acconto"`
	CreditsTotal int             `gorm:"not null;default:0" json:"crediti_totali"`

	AmountPaid    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"totale_versato"`
	PaymentStatus string          `gorm:"type:varchar(16);not null;default:'NON_SALDATO'" json:"stato_pagamento"`

	Closed bool `gorm:"column:chiuso;not null;default:false" json:"chiuso"`
	// ClosedAuto distinguishes the auto-close rule from a manual close;
	// only auto-closed contracts are ever auto-reopened.
	ClosedAuto bool `gorm:"column:chiuso_automatico;not null;default:false" json:"chiuso_automatico"`

	OpenedAt  time.Time  `gorm:"not null" json:"data_apertura"`
	ExpiresAt *time.Time `json:"data_scadenza,omitempty"`

	// DownPaymentEntryID links the ACCONTO_CONTRATTO ledger entry created
	// atomically with the contract when a down payment is given.
	DownPaymentEntryID *uuid.UUID `gorm:"type:uuid" json:"-"`

	Installments []Installment `gorm:"foreignKey:ContractID" json:"rate,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Contract) TableName() string { return "contratti" }

// Rateizzabile is the residual payable through installments.
func (c *Contract) Rateizzabile() decimal.Decimal {
	return c.PriceTotal.Sub(c.DownPayment)
}

// Installment is one scheduled partial payment against a contract.
type Installment struct {
	ID         int64 `gorm:"primaryKey" json:"id"`
	ContractID int64 `gorm:"not null;index" json:"contratto_id"`
	TrainerID  int64 `gorm:"not null;index" json:"trainer_id"`

	DueDate         time.Time       `gorm:"not null;index" json:"data_scadenza"`
	ImportoPrevisto decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"importo_previsto"`
	ImportoSaldato  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"importo_saldato"`
	State           string          `gorm:"column:stato;type:varchar(16);not null;default:'PENDENTE'" json:"stato"`

	Payments []Payment `gorm:"foreignKey:InstallmentID" json:"pagamenti,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Installment) TableName() string { return "rate" }

// Outstanding is what is still owed on this installment.
func (i *Installment) Outstanding() decimal.Decimal {
	return i.ImportoPrevisto.Sub(i.ImportoSaldato)
}

// Payment is one history record of a (partial) installment payment,
// linked 1:1 to the ENTRATA ledger entry it produced. Unpay soft-deletes
// the whole history instead of mutating it.
type Payment struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InstallmentID int64           `gorm:"not null;index" json:"rata_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"importo"`
	Method        string          `json:"metodo"`
	PaidAt        time.Time       `gorm:"not null" json:"data_pagamento"`
	LedgerEntryID uuid.UUID       `gorm:"type:uuid;not null" json:"movimento_id"`
	CreatedAt     time.Time       `json:"created_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Payment) TableName() string { return "pagamenti_rata" }

func (p *Payment) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// installmentState derives the state from the paid/expected relation.
// Amounts are fixed-point decimals, so the comparison is exact.
func installmentState(saldato, previsto decimal.Decimal) string {
	switch {
	case saldato.LessThanOrEqual(decimal.Zero):
		return RataPendente
	case saldato.GreaterThanOrEqual(previsto):
		return RataSaldata
	default:
		return RataParziale
	}
}

// paymentStatus derives the contract status from versato vs price.
func paymentStatus(versato, price decimal.Decimal) string {
	switch {
	case versato.LessThanOrEqual(decimal.Zero):
		return StatusNonSaldato
	case versato.GreaterThanOrEqual(price):
		return StatusSaldato
	default:
		return StatusParziale
	}
}
