package main

import (
	"log"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"ptdesk/internal/database"
	"ptdesk/internal/domain/agenda"
	"ptdesk/internal/domain/auth"
	"ptdesk/internal/domain/client"
	"ptdesk/internal/domain/contract"
	"ptdesk/internal/domain/ledger"
)

func main() {
	db, err := database.Connect("ptdesk.db")
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := db.AutoMigrate(
		&auth.Trainer{},
		&client.Client{},
		&client.Measurement{},
		&contract.Contract{},
		&contract.Installment{},
		&contract.Payment{},
		&ledger.Entry{},
		&ledger.RecurringExpense{},
		&agenda.Event{},
	); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}
	if err := ledger.EnsureIndexes(db); err != nil {
		log.Fatal("EnsureIndexes failed:", err)
	}

	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM agenda")
	db.Exec("DELETE FROM movimenti_cassa")
	db.Exec("DELETE FROM spese_ricorrenti")
	db.Exec("DELETE FROM pagamenti_rata")
	db.Exec("DELETE FROM rate")
	db.Exec("DELETE FROM contratti")
	db.Exec("DELETE FROM misurazioni")
	db.Exec("DELETE FROM clienti")
	db.Exec("DELETE FROM trainers")

	log.Println("Creating trainer...")
	hash, _ := bcrypt.GenerateFromPassword([]byte("trainer123"), bcrypt.DefaultCost)
	trainer := auth.Trainer{
		Email:        "marco@ptdesk.it",
		PasswordHash: string(hash),
		Name:         "Marco Rossi",
		Phone:        "+39 333 123 4567",
	}
	db.Create(&trainer)
	log.Println("Trainer created: marco@ptdesk.it / trainer123")

	log.Println("Creating clients...")
	clients := []client.Client{
		{TrainerID: trainer.ID, FirstName: "Giulia", LastName: "Bianchi", Email: "giulia@example.it"},
		{TrainerID: trainer.ID, FirstName: "Luca", LastName: "Verdi", Email: "luca@example.it"},
	}
	for i := range clients {
		db.Create(&clients[i])
	}

	log.Println("Creating contracts...")
	now := time.Now().UTC()
	c1 := contract.Contract{
		TrainerID:     trainer.ID,
		ClientID:      clients[0].ID,
		Description:   "Pacchetto 10 sedute PT",
		PriceTotal:    decimal.NewFromInt(1000),
		DownPayment:   decimal.NewFromInt(200),
		CreditsTotal:  10,
		AmountPaid:    decimal.NewFromInt(200),
		PaymentStatus: contract.StatusParziale,
		OpenedAt:      now,
	}
	db.Create(&c1)

	acconto := ledger.Entry{
		TrainerID:     trainer.ID,
		Type:          ledger.TypeEntrata,
		Category:      ledger.CategoryAccontoContratto,
		Amount:        c1.DownPayment,
		EffectiveDate: now,
		ClientID:      &c1.ClientID,
		ContractID:    &c1.ID,
	}
	db.Create(&acconto)
	db.Model(&c1).Update("down_payment_entry_id", acconto.ID)

	for i := 0; i < 4; i++ {
		db.Create(&contract.Installment{
			ContractID:      c1.ID,
			TrainerID:       trainer.ID,
			DueDate:         now.AddDate(0, i, 0),
			ImportoPrevisto: decimal.NewFromInt(200),
			ImportoSaldato:  decimal.Zero,
			State:           contract.RataPendente,
		})
	}

	log.Println("Creating agenda events...")
	cid := c1.ID
	db.Create(&agenda.Event{
		TrainerID:  trainer.ID,
		ClientID:   clients[0].ID,
		ContractID: &cid,
		Category:   agenda.CategoryPT,
		State:      agenda.StateProgrammato,
		StartsAt:   now.AddDate(0, 0, 1),
		EndsAt:     now.AddDate(0, 0, 1).Add(time.Hour),
	})

	log.Println("Creating recurring expenses...")
	db.Create(&ledger.RecurringExpense{
		TrainerID:  trainer.ID,
		Name:       "Affitto sala",
		Category:   "AFFITTO",
		Amount:     decimal.NewFromInt(400),
		DayOfMonth: 1,
		Active:     true,
	})

	log.Println("Seed completed.")
}
