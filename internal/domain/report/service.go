package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"ptdesk/internal/domain/contract"
)

// Aging buckets. Overdue bands use the magnitude of the (negative) day
// offset; upcoming bands the offset itself. Contiguous, non-overlapping
// 30-day-scale bands.
var (
	overdueLabels  = []string{"0-30", "31-60", "61-90", "90+"}
	upcomingLabels = []string{"0-2", "3-7", "8-30", "oltre-30"}
)

type Item struct {
	InstallmentID int64           `json:"rata_id"`
	ContractID    int64           `json:"contratto_id"`
	ClientID      int64           `json:"cliente_id"`
	DueDate       time.Time       `json:"data_scadenza"`
	Giorni        int             `json:"giorni"`
	Amount        decimal.Decimal `json:"importo"`
}

type Bucket struct {
	Label string          `json:"fascia"`
	Count int             `json:"numero"`
	Total decimal.Decimal `json:"totale"`
	Items []Item          `json:"rate"`
}

type AgingReport struct {
	RateScadute       int             `json:"rate_scadute"`
	RateInArrivo      int             `json:"rate_in_arrivo"`
	TotaleScaduto     decimal.Decimal `json:"totale_scaduto"`
	TotaleInArrivo    decimal.Decimal `json:"totale_in_arrivo"`
	ClientiConScaduto int             `json:"clienti_con_scaduto"`
	Scadute           []Bucket        `json:"scadute"`
	InArrivo          []Bucket        `json:"in_arrivo"`
}

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

type agingRow struct {
	ID              int64           `gorm:"column:id"`
	ContractID      int64           `gorm:"column:contract_id"`
	ClientID        int64           `gorm:"column:client_id"`
	DueDate         time.Time       `gorm:"column:due_date"`
	ImportoPrevisto decimal.Decimal `gorm:"column:importo_previsto"`
	ImportoSaldato  decimal.Decimal `gorm:"column:importo_saldato"`
}

// Aging projects receivables risk from current rows: every non-deleted,
// not-yet-settled installment of a non-deleted, non-closed contract of
// the trainer. Nothing here is persisted; the report is recomputed on
// every read.
func (s *Service) Aging(ctx context.Context, trainerID int64) (*AgingReport, error) {
	var rows []agingRow
	err := s.db.WithContext(ctx).
		Model(&contract.Installment{}).
		Select("rate.id, rate.contract_id, contratti.client_id, rate.due_date, rate.importo_previsto, rate.importo_saldato").
		Joins("JOIN contratti ON contratti.id = rate.contract_id").
		Where("rate.trainer_id = ? AND rate.stato <> ?", trainerID, contract.RataSaldata).
		Where("contratti.chiuso = ? AND contratti.deleted_at IS NULL", false).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	report := emptyReport()
	today := truncateDay(s.now().UTC())
	overdueClients := map[int64]struct{}{}

	for _, r := range rows {
		outstanding := r.ImportoPrevisto.Sub(r.ImportoSaldato)
		days := int(truncateDay(r.DueDate.UTC()).Sub(today).Hours() / 24)

		item := Item{
			InstallmentID: r.ID,
			ContractID:    r.ContractID,
			ClientID:      r.ClientID,
			DueDate:       r.DueDate,
			Giorni:        days,
			Amount:        outstanding,
		}

		if days < 0 {
			b := &report.Scadute[overdueBucket(-days)]
			b.Count++
			b.Total = b.Total.Add(outstanding)
			b.Items = append(b.Items, item)

			report.RateScadute++
			report.TotaleScaduto = report.TotaleScaduto.Add(outstanding)
			overdueClients[r.ClientID] = struct{}{}
		} else {
			b := &report.InArrivo[upcomingBucket(days)]
			b.Count++
			b.Total = b.Total.Add(outstanding)
			b.Items = append(b.Items, item)

			report.RateInArrivo++
			report.TotaleInArrivo = report.TotaleInArrivo.Add(outstanding)
		}
	}

	report.ClientiConScaduto = len(overdueClients)
	return report, nil
}

func emptyReport() *AgingReport {
	r := &AgingReport{
		TotaleScaduto:  decimal.Zero,
		TotaleInArrivo: decimal.Zero,
		Scadute:        make([]Bucket, len(overdueLabels)),
		InArrivo:       make([]Bucket, len(upcomingLabels)),
	}
	for i, l := range overdueLabels {
		r.Scadute[i] = Bucket{Label: l, Total: decimal.Zero, Items: []Item{}}
	}
	for i, l := range upcomingLabels {
		r.InArrivo[i] = Bucket{Label: l, Total: decimal.Zero, Items: []Item{}}
	}
	return r
}

// overdueBucket maps the magnitude of an overdue day offset to a band.
func overdueBucket(m int) int {
	switch {
	case m <= 30:
		return 0
	case m <= 60:
		return 1
	case m <= 90:
		return 2
	default:
		return 3
	}
}

func upcomingBucket(days int) int {
	switch {
	case days <= 2:
		return 0
	case days <= 7:
		return 1
	case days <= 30:
		return 2
	default:
		return 3
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
