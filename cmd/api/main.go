package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"ptdesk/internal/database"
	"ptdesk/internal/domain/agenda"
	"ptdesk/internal/domain/auth"
	"ptdesk/internal/domain/client"
	"ptdesk/internal/domain/contract"
	"ptdesk/internal/domain/feed"
	"ptdesk/internal/domain/ledger"
	"ptdesk/internal/domain/report"
	"ptdesk/internal/middleware"
	jwtsvc "ptdesk/internal/pkg/jwt"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is empty")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is empty")
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal(err)
	}

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
		log.Fatal(err)
	}
	if err := ledger.EnsureIndexes(db); err != nil {
		log.Fatal(err)
	}

	j := jwtsvc.New(secret, 24*time.Hour)
	hub := feed.NewHub()
	defer hub.Close()

	agendaRepo := agenda.NewRepository(db)

	authService := auth.NewService(db, j)
	contractService := contract.NewService(db, agendaRepo, hub)
	clientService := client.NewService(db, contractService)
	agendaService := agenda.NewService(db, contractService, hub)
	ledgerService := ledger.NewService(db)
	reportService := report.NewService(db)

	authHandler := auth.NewHandler(authService)
	clientHandler := client.NewHandler(clientService)
	contractHandler := contract.NewHandler(contractService)
	agendaHandler := agenda.NewHandler(agendaService)
	ledgerHandler := ledger.NewHandler(ledgerService)
	reportHandler := report.NewHandler(reportService)
	feedHandler := feed.NewHandler(hub)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		auth.RegisterRoutes(v1, authHandler)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(j))
		{
			client.RegisterRoutes(protected, clientHandler)
			contract.RegisterRoutes(protected, contractHandler)
			agenda.RegisterRoutes(protected, agendaHandler)
			ledger.RegisterRoutes(protected, ledgerHandler)
			report.RegisterRoutes(protected, reportHandler)
			feed.RegisterRoutes(protected, feedHandler)
		}
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	if err := r.Run(addr); err != nil {
		log.Fatal(err)
	}
}
