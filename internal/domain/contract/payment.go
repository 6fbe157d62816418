package contract

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"ptdesk/internal/domain/ledger"
)

// PaymentEvent is what the feed hub broadcasts after a successful
// pay or unpay.
type PaymentEvent struct {
	Tipo          string          `json:"tipo"`
	InstallmentID int64           `json:"rata_id"`
	ContractID    int64           `json:"contratto_id"`
	Amount        decimal.Decimal `json:"importo"`
}

// Pay applies a payment to an installment. All effects are one atomic
// unit: installment amount and state, payment-history record, ENTRATA
// ledger entry, contract totale_versato and status, auto-close
// evaluation. The installment and contract rows are locked, so two
// concurrent payments cannot both pass the overpayment check.
func (s *Service) Pay(ctx context.Context, trainerID, installmentID int64, amount decimal.Decimal, method string, paymentDate time.Time) (*Installment, error) {
	if !amount.IsPositive() || !wholeCents(amount) {
		return nil, ErrValidation
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now().UTC()
	}

	var updated *Installment
	var c *Contract

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inst, err := lockInstallment(tx, trainerID, installmentID)
		if err != nil {
			return err
		}
		c, err = lockContract(tx, trainerID, inst.ContractID)
		if err != nil {
			return err
		}
		if c.Closed {
			return ErrContractClosed
		}
		if inst.State == RataSaldata {
			return ErrAlreadySettled
		}
		if amount.GreaterThan(inst.Outstanding()) {
			return ErrOverpayment
		}

		entry := &ledger.Entry{
			TrainerID:     trainerID,
			Type:          ledger.TypeEntrata,
			Category:      ledger.CategoryPagamentoRata,
			Amount:        amount,
			EffectiveDate: paymentDate,
			Method:        method,
			ClientID:      &c.ClientID,
			ContractID:    &c.ID,
			InstallmentID: &inst.ID,
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		payment := &Payment{
			InstallmentID: inst.ID,
			Amount:        amount,
			Method:        method,
			PaidAt:        paymentDate,
			LedgerEntryID: entry.ID,
		}
		if err := tx.Create(payment).Error; err != nil {
			return err
		}

		inst.ImportoSaldato = inst.ImportoSaldato.Add(amount)
		inst.State = installmentState(inst.ImportoSaldato, inst.ImportoPrevisto)
		if err := tx.Save(inst).Error; err != nil {
			return err
		}

		c.AmountPaid = c.AmountPaid.Add(amount)
		c.PaymentStatus = paymentStatus(c.AmountPaid, c.PriceTotal)
		if err := s.evaluateAutoClose(ctx, tx, c); err != nil {
			return err
		}
		if err := tx.Save(c).Error; err != nil {
			return err
		}

		updated = inst
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(trainerID, PaymentEvent{
		Tipo:          "pagamento",
		InstallmentID: updated.ID,
		ContractID:    c.ID,
		Amount:        amount,
	})

	return s.getInstallmentWithHistory(ctx, trainerID, installmentID)
}

// Unpay reverses the entire payment history of an installment in one
// step: importo_saldato back to zero, history records and their ledger
// entries soft-deleted (they stay queryable for audit), contract totals
// decremented and the auto-reopen rule evaluated.
func (s *Service) Unpay(ctx context.Context, trainerID, installmentID int64) (*Installment, error) {
	var reversed decimal.Decimal
	var c *Contract

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inst, err := lockInstallment(tx, trainerID, installmentID)
		if err != nil {
			return err
		}
		c, err = lockContract(tx, trainerID, inst.ContractID)
		if err != nil {
			return err
		}
		if inst.State == RataPendente || !inst.ImportoSaldato.IsPositive() {
			return ErrNothingToReverse
		}

		var payments []Payment
		if err := tx.Where("installment_id = ?", inst.ID).Find(&payments).Error; err != nil {
			return err
		}

		entryIDs := make([]uuid.UUID, 0, len(payments))
		for _, p := range payments {
			entryIDs = append(entryIDs, p.LedgerEntryID)
		}
		if len(entryIDs) > 0 {
			if err := tx.Where("id IN ?", entryIDs).Delete(&ledger.Entry{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("installment_id = ?", inst.ID).Delete(&Payment{}).Error; err != nil {
			return err
		}

		reversed = inst.ImportoSaldato
		inst.ImportoSaldato = decimal.Zero
		inst.State = RataPendente
		if err := tx.Save(inst).Error; err != nil {
			return err
		}

		c.AmountPaid = c.AmountPaid.Sub(reversed)
		c.PaymentStatus = paymentStatus(c.AmountPaid, c.PriceTotal)
		if err := s.evaluateAutoReopen(ctx, tx, c); err != nil {
			return err
		}
		return tx.Save(c).Error
	})
	if err != nil {
		return nil, err
	}

	s.publish(trainerID, PaymentEvent{
		Tipo:          "storno",
		InstallmentID: installmentID,
		ContractID:    c.ID,
		Amount:        reversed,
	})

	return s.getInstallmentWithHistory(ctx, trainerID, installmentID)
}

// getInstallmentWithHistory reloads the installment with its live
// payment history in chronological order.
func (s *Service) getInstallmentWithHistory(ctx context.Context, trainerID, installmentID int64) (*Installment, error) {
	var inst Installment
	err := s.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("paid_at ASC, created_at ASC")
		}).
		Where("trainer_id = ? AND id = ?", trainerID, installmentID).
		First(&inst).Error
	if err != nil {
		return nil, ErrNotFound
	}
	return &inst, nil
}
