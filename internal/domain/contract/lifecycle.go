package contract

import (
	"context"

	"gorm.io/gorm"

	"ptdesk/internal/domain/ledger"
)

// evaluateAutoClose closes the contract iff it is fully paid AND all
// credits are consumed. Runs inside the caller's transaction; the
// caller saves c.
func (s *Service) evaluateAutoClose(ctx context.Context, tx *gorm.DB, c *Contract) error {
	if c.Closed {
		return nil
	}
	if c.PaymentStatus != StatusSaldato {
		return nil
	}

	used, err := s.events.CountDone(ctx, c.ID)
	if err != nil {
		return err
	}
	if used == c.CreditsTotal {
		c.Closed = true
		c.ClosedAuto = true
	}
	return nil
}

// evaluateAutoReopen reopens a contract that the auto-close rule closed
// once its trigger no longer holds. Manual closes are left alone.
func (s *Service) evaluateAutoReopen(ctx context.Context, tx *gorm.DB, c *Contract) error {
	if !c.Closed || !c.ClosedAuto {
		return nil
	}

	used, err := s.events.CountDone(ctx, c.ID)
	if err != nil {
		return err
	}
	if c.PaymentStatus != StatusSaldato || used != c.CreditsTotal {
		c.Closed = false
		c.ClosedAuto = false
	}
	return nil
}

// ReevaluateLifecycle re-runs both lifecycle rules for a contract.
// Called by the agenda service after an event enters or leaves the
// "Fatto" state, since credit consumption can flip either rule.
func (s *Service) ReevaluateLifecycle(ctx context.Context, trainerID, contractID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := lockContract(tx, trainerID, contractID)
		if err != nil {
			return err
		}
		if err := s.evaluateAutoClose(ctx, tx, c); err != nil {
			return err
		}
		if err := s.evaluateAutoReopen(ctx, tx, c); err != nil {
			return err
		}
		return tx.Save(c).Error
	})
}

// IsOpen reports whether the contract exists for the trainer and is not
// closed. The agenda service consults it before linking a PT event.
func (s *Service) IsOpen(ctx context.Context, trainerID, contractID int64) (bool, error) {
	var c Contract
	err := s.db.WithContext(ctx).
		Where("trainer_id = ? AND id = ?", trainerID, contractID).
		First(&c).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, ErrNotFound
		}
		return false, err
	}
	return !c.Closed, nil
}

// Delete soft-deletes a contract and cascades to its installments and
// down-payment ledger entry. Guards run before any cascade begins:
// a non-SALDATA installment or a non-cancelled linked event blocks the
// whole operation.
func (s *Service) Delete(ctx context.Context, trainerID, contractID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := lockContract(tx, trainerID, contractID)
		if err != nil {
			return err
		}

		var pending int64
		err = tx.Model(&Installment{}).
			Where("contract_id = ? AND stato <> ?", c.ID, RataSaldata).
			Count(&pending).Error
		if err != nil {
			return err
		}
		if pending > 0 {
			return ErrHasPendingInstallments
		}

		linked, err := s.events.CountActive(ctx, c.ID)
		if err != nil {
			return err
		}
		if linked > 0 {
			return ErrHasLinkedEvents
		}

		if err := tx.Where("contract_id = ?", c.ID).Delete(&Installment{}).Error; err != nil {
			return err
		}
		if c.DownPaymentEntryID != nil {
			if err := tx.Where("id = ?", *c.DownPaymentEntryID).Delete(&ledger.Entry{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(c).Error
	})
}
