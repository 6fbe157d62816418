package contract

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ptdesk/internal/domain/ledger"
)

// EventCounter is the read side of the agenda the credit engine needs.
// Implemented by the agenda repository; keeping it an interface here
// avoids an import cycle and lets tests stub the counts.
type EventCounter interface {
	// CountDone counts non-deleted events in state Fatto for the contract.
	CountDone(ctx context.Context, contractID int64) (int, error)
	// CountActive counts non-deleted, non-cancelled events referencing
	// the contract (the delete guard).
	CountActive(ctx context.Context, contractID int64) (int, error)
}

// Notifier pushes best-effort dashboard updates. A nil notifier or a
// failed push never affects the transaction outcome.
type Notifier interface {
	Publish(trainerID int64, event any)
}

type Service struct {
	db     *gorm.DB
	events EventCounter
	notifs Notifier
}

func NewService(db *gorm.DB, events EventCounter, notifs Notifier) *Service {
	return &Service{db: db, events: events, notifs: notifs}
}

type CreateInput struct {
	ClientID          int64
	Description       string
	PriceTotal        decimal.Decimal
	DownPayment       decimal.Decimal
	CreditsTotal      int
	OpenedAt          time.Time
	ExpiresAt         *time.Time
	DownPaymentMethod string
}

// Create opens a contract. When a down payment is given, the
// ACCONTO_CONTRATTO ledger entry is created in the same transaction and
// linked so the delete cascade can reach it later.
func (s *Service) Create(ctx context.Context, trainerID int64, in CreateInput) (*Contract, error) {
	if in.ClientID == 0 || !in.PriceTotal.IsPositive() || in.CreditsTotal < 0 {
		return nil, ErrValidation
	}
	if in.DownPayment.IsNegative() || in.DownPayment.GreaterThan(in.PriceTotal) {
		return nil, ErrValidation
	}
	if in.OpenedAt.IsZero() {
		in.OpenedAt = time.Now().UTC()
	}

	c := &Contract{
		TrainerID:     trainerID,
		ClientID:      in.ClientID,
		Description:   in.Description,
		PriceTotal:    in.PriceTotal,
		DownPayment:   in.DownPayment,
		CreditsTotal:  in.CreditsTotal,
		AmountPaid:    in.DownPayment,
		PaymentStatus: paymentStatus(in.DownPayment, in.PriceTotal),
		OpenedAt:      in.OpenedAt,
		ExpiresAt:     in.ExpiresAt,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}

		if in.DownPayment.IsPositive() {
			entry := &ledger.Entry{
				TrainerID:     trainerID,
				Type:          ledger.TypeEntrata,
				Category:      ledger.CategoryAccontoContratto,
				Amount:        in.DownPayment,
				EffectiveDate: in.OpenedAt,
				Method:        in.DownPaymentMethod,
				ClientID:      &c.ClientID,
				ContractID:    &c.ID,
			}
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
			c.DownPaymentEntryID = &entry.ID
			if err := tx.Model(c).Update("down_payment_entry_id", entry.ID).Error; err != nil {
				return err
			}
		}

		if err := s.evaluateAutoClose(ctx, tx, c); err != nil {
			return err
		}
		return tx.Save(c).Error
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the contract with its non-deleted installments and their
// payment history. Cross-tenant lookups yield ErrNotFound.
func (s *Service) Get(ctx context.Context, trainerID, contractID int64) (*Contract, error) {
	var c Contract
	err := s.db.WithContext(ctx).
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("due_date ASC")
		}).
		Preload("Installments.Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("paid_at ASC, created_at ASC")
		}).
		Where("trainer_id = ? AND id = ?", trainerID, contractID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Service) List(ctx context.Context, trainerID int64, clientID int64) ([]Contract, error) {
	q := s.db.WithContext(ctx).Where("trainer_id = ?", trainerID)
	if clientID > 0 {
		q = q.Where("client_id = ?", clientID)
	}

	var out []Contract
	if err := q.Order("opened_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type UpdateInput struct {
	Description *string
	ExpiresAt   *time.Time
	Closed      *bool
}

// Update mutates the editable surface of a contract. Flipping chiuso by
// hand clears the auto flag so the Lifecycle Guard will not undo a
// manual decision.
func (s *Service) Update(ctx context.Context, trainerID, contractID int64, in UpdateInput) (*Contract, error) {
	var c *Contract
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		c, err = lockContract(tx, trainerID, contractID)
		if err != nil {
			return err
		}

		if in.Description != nil {
			c.Description = *in.Description
		}
		if in.ExpiresAt != nil {
			c.ExpiresAt = in.ExpiresAt
		}
		if in.Closed != nil {
			c.Closed = *in.Closed
			c.ClosedAuto = false
		}

		return tx.Save(c).Error
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CountActiveByClient counts non-deleted contracts of a client, closed
// or not. The client delete guard blocks on any of them: a closed
// contract still carries financial history.
func (s *Service) CountActiveByClient(ctx context.Context, trainerID, clientID int64) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Contract{}).
		Where("trainer_id = ? AND client_id = ?", trainerID, clientID).
		Count(&n).Error
	return n, err
}

// lockContract loads a non-deleted contract FOR UPDATE inside tx,
// collapsing cross-tenant misses into ErrNotFound.
func lockContract(tx *gorm.DB, trainerID, contractID int64) (*Contract, error) {
	var c Contract
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("trainer_id = ? AND id = ?", trainerID, contractID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// lockInstallment loads a non-deleted installment FOR UPDATE, tenant-scoped.
func lockInstallment(tx *gorm.DB, trainerID, installmentID int64) (*Installment, error) {
	var i Installment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("trainer_id = ? AND id = ?", trainerID, installmentID).
		First(&i).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &i, nil
}

func (s *Service) publish(trainerID int64, event any) {
	if s.notifs != nil {
		s.notifs.Publish(trainerID, event)
	}
}
