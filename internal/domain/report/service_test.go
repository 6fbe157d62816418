package report

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"ptdesk/internal/domain/contract"
)

var testNow = time.Date(2026, 8, 20, 15, 30, 0, 0, time.UTC)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:report_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := db.AutoMigrate(&contract.Contract{}, &contract.Installment{}); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}

	svc := NewService(db)
	svc.now = func() time.Time { return testNow }
	return svc, db
}

func seedContract(t *testing.T, db *gorm.DB, trainerID, clientID int64, closed bool) *contract.Contract {
	t.Helper()
	c := &contract.Contract{
		TrainerID:     trainerID,
		ClientID:      clientID,
		PriceTotal:    decimal.NewFromInt(1000),
		AmountPaid:    decimal.Zero,
		PaymentStatus: contract.StatusNonSaldato,
		Closed:        closed,
		OpenedAt:      testNow.AddDate(0, -3, 0),
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("failed to seed contract: %v", err)
	}
	return c
}

func seedInstallment(t *testing.T, db *gorm.DB, c *contract.Contract, daysFromNow int, amount int64, state string) *contract.Installment {
	t.Helper()
	inst := &contract.Installment{
		ContractID:      c.ID,
		TrainerID:       c.TrainerID,
		DueDate:         testNow.AddDate(0, 0, daysFromNow),
		ImportoPrevisto: decimal.NewFromInt(amount),
		ImportoSaldato:  decimal.Zero,
		State:           state,
	}
	if err := db.Create(inst).Error; err != nil {
		t.Fatalf("failed to seed installment: %v", err)
	}
	return inst
}

func TestAgingBucketsAndTotals(t *testing.T) {
	svc, db := setupTestService(t)

	c := seedContract(t, db, 1, 7, false)
	seedInstallment(t, db, c, -5, 100, contract.RataPendente)
	seedInstallment(t, db, c, -45, 200, contract.RataPendente)
	seedInstallment(t, db, c, 20, 150, contract.RataPendente)

	r, err := svc.Aging(context.Background(), 1)
	if err != nil {
		t.Fatalf("Aging returned error: %v", err)
	}

	if r.RateScadute != 2 {
		t.Fatalf("expected 2 overdue installments, got %d", r.RateScadute)
	}
	if r.RateInArrivo != 1 {
		t.Fatalf("expected 1 upcoming installment, got %d", r.RateInArrivo)
	}
	if !r.TotaleScaduto.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected totale_scaduto 300, got %s", r.TotaleScaduto)
	}
	if !r.TotaleInArrivo.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected totale_in_arrivo 150, got %s", r.TotaleInArrivo)
	}
	if r.ClientiConScaduto != 1 {
		t.Fatalf("expected 1 client with overdue, got %d", r.ClientiConScaduto)
	}

	if r.Scadute[0].Label != "0-30" || r.Scadute[0].Count != 1 {
		t.Fatalf("expected the -5d installment in fascia 0-30, got %+v", r.Scadute[0])
	}
	if r.Scadute[0].Items[0].Giorni != -5 {
		t.Fatalf("expected giorni -5, got %d", r.Scadute[0].Items[0].Giorni)
	}
	if r.Scadute[1].Label != "31-60" || r.Scadute[1].Count != 1 {
		t.Fatalf("expected the -45d installment in fascia 31-60, got %+v", r.Scadute[1])
	}
	if r.Scadute[2].Count != 0 || r.Scadute[3].Count != 0 {
		t.Fatalf("expected fasce 61-90 and 90+ empty, got %d and %d", r.Scadute[2].Count, r.Scadute[3].Count)
	}
	if r.InArrivo[2].Label != "8-30" || r.InArrivo[2].Count != 1 {
		t.Fatalf("expected the +20d installment in fascia 8-30, got %+v", r.InArrivo[2])
	}
}

func TestAgingUsesOutstandingNotExpected(t *testing.T) {
	svc, db := setupTestService(t)

	c := seedContract(t, db, 1, 7, false)
	inst := seedInstallment(t, db, c, -10, 200, contract.RataParziale)
	inst.ImportoSaldato = decimal.NewFromInt(80)
	if err := db.Save(inst).Error; err != nil {
		t.Fatalf("failed to update installment: %v", err)
	}

	r, err := svc.Aging(context.Background(), 1)
	if err != nil {
		t.Fatalf("Aging returned error: %v", err)
	}
	if !r.TotaleScaduto.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("expected outstanding 120 counted, got %s", r.TotaleScaduto)
	}
}

func TestAgingSkipsSettledClosedAndDeleted(t *testing.T) {
	svc, db := setupTestService(t)

	live := seedContract(t, db, 1, 7, false)
	seedInstallment(t, db, live, -5, 100, contract.RataSaldata)

	closed := seedContract(t, db, 1, 8, true)
	seedInstallment(t, db, closed, -5, 100, contract.RataPendente)

	deleted := seedContract(t, db, 1, 9, false)
	seedInstallment(t, db, deleted, -5, 100, contract.RataPendente)
	if err := db.Delete(deleted).Error; err != nil {
		t.Fatalf("failed to delete contract: %v", err)
	}

	gone := seedInstallment(t, db, live, -5, 100, contract.RataPendente)
	if err := db.Delete(gone).Error; err != nil {
		t.Fatalf("failed to delete installment: %v", err)
	}

	other := seedContract(t, db, 2, 10, false)
	seedInstallment(t, db, other, -5, 100, contract.RataPendente)

	r, err := svc.Aging(context.Background(), 1)
	if err != nil {
		t.Fatalf("Aging returned error: %v", err)
	}
	if r.RateScadute != 0 || r.RateInArrivo != 0 {
		t.Fatalf("expected empty report, got %d overdue / %d upcoming", r.RateScadute, r.RateInArrivo)
	}
}

func TestAgingEmptyReportShape(t *testing.T) {
	svc, _ := setupTestService(t)

	r, err := svc.Aging(context.Background(), 1)
	if err != nil {
		t.Fatalf("Aging returned error: %v", err)
	}
	if len(r.Scadute) != 4 || len(r.InArrivo) != 4 {
		t.Fatalf("expected 4+4 fixed buckets, got %d and %d", len(r.Scadute), len(r.InArrivo))
	}
	for _, b := range append(r.Scadute, r.InArrivo...) {
		if b.Items == nil {
			t.Fatalf("bucket %s must carry an empty slice, not nil", b.Label)
		}
		if !b.Total.IsZero() {
			t.Fatalf("bucket %s must start at zero, got %s", b.Label, b.Total)
		}
	}
}

func TestAgingDueTodayIsUpcoming(t *testing.T) {
	svc, db := setupTestService(t)

	c := seedContract(t, db, 1, 7, false)
	seedInstallment(t, db, c, 0, 50, contract.RataPendente)

	r, err := svc.Aging(context.Background(), 1)
	if err != nil {
		t.Fatalf("Aging returned error: %v", err)
	}
	if r.RateScadute != 0 || r.RateInArrivo != 1 {
		t.Fatalf("installment due today must be upcoming, got %d overdue / %d upcoming", r.RateScadute, r.RateInArrivo)
	}
	if r.InArrivo[0].Count != 1 {
		t.Fatalf("expected due-today in fascia 0-2, got %+v", r.InArrivo[0])
	}
}
