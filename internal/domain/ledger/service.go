package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type CreateEntryInput struct {
	Type          string
	Category      string
	Amount        decimal.Decimal
	EffectiveDate time.Time
	Method        string
	Note          string
	ClientID      *int64
}

// Create records a manual cash movement. Engine-owned entries
// (PAGAMENTO_RATA, ACCONTO_CONTRATTO) are written by the contract
// package inside its own transactions, never through here.
func (s *Service) Create(ctx context.Context, trainerID int64, in CreateEntryInput) (*Entry, error) {
	if in.Type != TypeEntrata && in.Type != TypeUscita {
		return nil, ErrInvalidType
	}
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	entry := &Entry{
		TrainerID:     trainerID,
		Type:          in.Type,
		Category:      in.Category,
		Amount:        in.Amount,
		EffectiveDate: in.EffectiveDate,
		Method:        in.Method,
		Note:          in.Note,
		ClientID:      in.ClientID,
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns non-deleted entries for the trainer, optionally filtered
// by year and month of the effective date. gorm.DeletedAt keeps
// soft-deleted rows out of every query made through the model.
func (s *Service) List(ctx context.Context, trainerID int64, year, month int) ([]Entry, error) {
	q := s.db.WithContext(ctx).Where("trainer_id = ?", trainerID)
	if year > 0 {
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(1, 0, 0)
		if month >= 1 && month <= 12 {
			start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
			end = start.AddDate(0, 1, 0)
		}
		q = q.Where("effective_date >= ? AND effective_date < ?", start, end)
	}

	var entries []Entry
	if err := q.Order("effective_date ASC, created_at ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

type MonthTotals struct {
	Entrate decimal.Decimal `json:"entrate"`
	Uscite  decimal.Decimal `json:"uscite"`
	Saldo   decimal.Decimal `json:"saldo"`
}

// MonthlyTotals sums in Go rather than SQL so decimal amounts stay
// exact on both postgres and sqlite.
func (s *Service) MonthlyTotals(ctx context.Context, trainerID int64, year, month int) (*MonthTotals, error) {
	entries, err := s.List(ctx, trainerID, year, month)
	if err != nil {
		return nil, err
	}

	totals := &MonthTotals{Entrate: decimal.Zero, Uscite: decimal.Zero, Saldo: decimal.Zero}
	for _, e := range entries {
		switch e.Type {
		case TypeEntrata:
			totals.Entrate = totals.Entrate.Add(e.Amount)
		case TypeUscita:
			totals.Uscite = totals.Uscite.Add(e.Amount)
		}
	}
	totals.Saldo = totals.Entrate.Sub(totals.Uscite)
	return totals, nil
}

// Delete soft-deletes an entry; the row stays in storage for audit.
func (s *Service) Delete(ctx context.Context, trainerID int64, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("trainer_id = ? AND id = ?", trainerID, id).Delete(&Entry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) CreateRecurringExpense(ctx context.Context, trainerID int64, name, category string, amount decimal.Decimal, dayOfMonth int) (*RecurringExpense, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if dayOfMonth < 1 || dayOfMonth > 28 {
		dayOfMonth = 1
	}
	re := &RecurringExpense{
		TrainerID:  trainerID,
		Name:       name,
		Category:   category,
		Amount:     amount,
		DayOfMonth: dayOfMonth,
		Active:     true,
	}
	if err := s.db.WithContext(ctx).Create(re).Error; err != nil {
		return nil, err
	}
	return re, nil
}

func (s *Service) ListRecurringExpenses(ctx context.Context, trainerID int64) ([]RecurringExpense, error) {
	var out []RecurringExpense
	err := s.db.WithContext(ctx).
		Where("trainer_id = ? AND active = ?", trainerID, true).
		Order("created_at ASC").Find(&out).Error
	return out, err
}

// PostMonth materializes every active recurring expense into a USCITA
// entry for the given month. The partial unique index makes a re-run a
// no-op: an already-posted (and not soft-deleted) template/month pair is
// skipped, everything else is posted. Returns the number of new entries.
func (s *Service) PostMonth(ctx context.Context, trainerID int64, year int, month time.Month) (int, error) {
	templates, err := s.ListRecurringExpenses(ctx, trainerID)
	if err != nil {
		return 0, err
	}

	period := fmt.Sprintf("%04d-%02d", year, int(month))
	posted := 0
	for i := range templates {
		t := templates[i]
		entry := &Entry{
			TrainerID:     trainerID,
			Type:          TypeUscita,
			Category:      CategorySpesaRicorrente,
			Amount:        t.Amount,
			EffectiveDate: time.Date(year, month, t.DayOfMonth, 0, 0, 0, 0, time.UTC),
			Note:          t.Name,
			RecurrenceID:  &t.ID,
			Period:        period,
		}
		if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
			if isUniqueConstraintError(err) {
				continue
			}
			return posted, err
		}
		posted++
	}
	return posted, nil
}

func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique failed")
}
