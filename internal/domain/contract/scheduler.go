package contract

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	FrequencyMensile     = "MENSILE"
	FrequencySettimanale = "SETTIMANALE"
)

// wholeCents reports whether the amount has at most two decimal
// places. Sub-cent money is rejected instead of silently rounded.
func wholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}

// residualFor computes what is still open for installment scheduling:
// price − down payment − expected amounts of the other non-deleted
// installments. Summed in Go so the decimals stay exact.
func residualFor(tx *gorm.DB, c *Contract, excludeInstallmentID int64) (decimal.Decimal, error) {
	q := tx.Where("contract_id = ?", c.ID)
	if excludeInstallmentID > 0 {
		q = q.Where("id <> ?", excludeInstallmentID)
	}

	var rows []Installment
	if err := q.Find(&rows).Error; err != nil {
		return decimal.Zero, err
	}

	residual := c.Rateizzabile()
	for _, r := range rows {
		residual = residual.Sub(r.ImportoPrevisto)
	}
	return residual, nil
}

// CreateInstallment schedules one installment against the contract's
// payable residual. The contract row is locked so two concurrent
// creations cannot jointly exceed the residual.
func (s *Service) CreateInstallment(ctx context.Context, trainerID, contractID int64, dueDate time.Time, amount decimal.Decimal) (*Installment, error) {
	if !amount.IsPositive() || !wholeCents(amount) {
		return nil, ErrValidation
	}

	var inst *Installment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := lockContract(tx, trainerID, contractID)
		if err != nil {
			return err
		}
		if c.Closed {
			return ErrContractClosed
		}

		residual, err := residualFor(tx, c, 0)
		if err != nil {
			return err
		}
		if amount.GreaterThan(residual) {
			return ErrResidualExceeded
		}

		inst = &Installment{
			ContractID:      c.ID,
			TrainerID:       trainerID,
			DueDate:         dueDate,
			ImportoPrevisto: amount,
			ImportoSaldato:  decimal.Zero,
			State:           RataPendente,
		}
		return tx.Create(inst).Error
	})
	if err != nil {
		return nil, err
	}
	return inst, nil
}

type PlanInput struct {
	Amount       decimal.Decimal
	Count        int
	FirstDueDate time.Time
	Frequency    string
}

// GeneratePlan splits an amount into Count installments at the given
// cadence. Amounts are split into equal cents; the indivisible
// remainder is absorbed by the first installment so the sum is exact.
// Either every installment is created or none: the residual check and
// all inserts share one transaction over the locked contract row.
func (s *Service) GeneratePlan(ctx context.Context, trainerID, contractID int64, in PlanInput) ([]Installment, error) {
	if in.Count < 1 || !in.Amount.IsPositive() || !wholeCents(in.Amount) {
		return nil, ErrValidation
	}
	if in.Frequency == "" {
		in.Frequency = FrequencyMensile
	}
	if in.Frequency != FrequencyMensile && in.Frequency != FrequencySettimanale {
		return nil, ErrValidation
	}

	amounts := splitAmount(in.Amount, in.Count)

	var out []Installment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := lockContract(tx, trainerID, contractID)
		if err != nil {
			return err
		}
		if c.Closed {
			return ErrContractClosed
		}

		residual, err := residualFor(tx, c, 0)
		if err != nil {
			return err
		}
		if in.Amount.GreaterThan(residual) {
			return ErrResidualExceeded
		}

		due := in.FirstDueDate
		out = make([]Installment, 0, in.Count)
		for n, amount := range amounts {
			inst := Installment{
				ContractID:      c.ID,
				TrainerID:       trainerID,
				DueDate:         due,
				ImportoPrevisto: amount,
				ImportoSaldato:  decimal.Zero,
				State:           RataPendente,
			}
			if err := tx.Create(&inst).Error; err != nil {
				return err
			}
			out = append(out, inst)

			if in.Frequency == FrequencySettimanale {
				due = due.AddDate(0, 0, 7)
			} else {
				due = in.FirstDueDate.AddDate(0, n+1, 0)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// splitAmount divides amount into count parts of equal cents, remainder
// on the first part. The parts always sum to amount exactly.
func splitAmount(amount decimal.Decimal, count int) []decimal.Decimal {
	totalCents := amount.Mul(decimal.NewFromInt(100)).IntPart()
	base := totalCents / int64(count)
	rem := totalCents % int64(count)

	parts := make([]decimal.Decimal, count)
	for i := range parts {
		cents := base
		if i == 0 {
			cents += rem
		}
		parts[i] = decimal.New(cents, -2)
	}
	return parts
}
